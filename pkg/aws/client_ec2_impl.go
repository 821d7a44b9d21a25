// Copyright 2025 Lumina Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// ec2API is the subset of the EC2 SDK client used here. Tests substitute a
// fake implementation.
type ec2API interface {
	ec2.DescribeInstancesAPIClient
	DescribeReservedInstances(
		ctx context.Context,
		params *ec2.DescribeReservedInstancesInput,
		optFns ...func(*ec2.Options),
	) (*ec2.DescribeReservedInstancesOutput, error)
}

// RealEC2Client is a production implementation of EC2Client that makes
// real API calls to AWS EC2 using the AWS SDK v2.
type RealEC2Client struct {
	client ec2API
	region string
}

// NewRealEC2Client creates a new EC2 client bound to region. A nil creds
// provider uses the default credential chain.
func NewRealEC2Client(
	ctx context.Context,
	region string,
	creds aws.CredentialsProvider,
	endpointURL string,
) (*RealEC2Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if creds != nil {
		opts = append(opts, awsconfig.WithCredentialsProvider(creds))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil { // coverage:ignore - AWS SDK config loading errors are difficult to trigger in unit tests
		return nil, fmt.Errorf("failed to load AWS config for region %s: %w", region, err)
	}

	ec2Opts := []func(*ec2.Options){}
	if endpointURL != "" {
		// Override endpoint for LocalStack testing
		ec2Opts = append(ec2Opts, func(o *ec2.Options) {
			o.BaseEndpoint = aws.String(endpointURL)
		})
	}

	return newRealEC2Client(ec2.NewFromConfig(cfg, ec2Opts...), region), nil
}

func newRealEC2Client(api ec2API, region string) *RealEC2Client {
	return &RealEC2Client{client: api, region: region}
}

// DescribeInstances returns all running EC2 instances in the client's region.
// Pages are walked in order so instances keep the API's listing order.
func (c *RealEC2Client) DescribeInstances(ctx context.Context) ([]Instance, error) {
	paginator := ec2.NewDescribeInstancesPaginator(c.client, &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			{Name: aws.String("instance-state-name"), Values: []string{"running"}},
		},
	})

	var instances []Instance
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe instances in %s: %w", c.region, err)
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				instances = append(instances, c.convertInstance(inst))
			}
		}
	}
	return instances, nil
}

// DescribeReservedInstances returns all active Reserved Instances in the
// client's region. The API is not paginated.
func (c *RealEC2Client) DescribeReservedInstances(ctx context.Context) ([]ReservedInstance, error) {
	out, err := c.client.DescribeReservedInstances(ctx, &ec2.DescribeReservedInstancesInput{
		Filters: []types.Filter{
			{Name: aws.String("state"), Values: []string{"active"}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe reserved instances in %s: %w", c.region, err)
	}

	reserved := make([]ReservedInstance, 0, len(out.ReservedInstances))
	for _, ri := range out.ReservedInstances {
		reserved = append(reserved, ReservedInstance{
			ReservedInstanceID: aws.ToString(ri.ReservedInstancesId),
			InstanceType:       string(ri.InstanceType),
			AvailabilityZone:   aws.ToString(ri.AvailabilityZone),
			Region:             c.region,
			InstanceCount:      aws.ToInt32(ri.InstanceCount),
			Duration:           aws.ToInt64(ri.Duration),
			State:              string(ri.State),
			Start:              aws.ToTime(ri.Start),
			OfferingType:       string(ri.OfferingType),
			ProductDescription: string(ri.ProductDescription),
		})
	}
	return reserved, nil
}

func (c *RealEC2Client) convertInstance(inst types.Instance) Instance {
	out := Instance{
		InstanceID:            aws.ToString(inst.InstanceId),
		InstanceType:          string(inst.InstanceType),
		Region:                c.region,
		Lifecycle:             LifecycleOnDemand,
		LaunchTime:            aws.ToTime(inst.LaunchTime),
		Platform:              string(inst.Platform),
		SpotInstanceRequestID: aws.ToString(inst.SpotInstanceRequestId),
	}
	if inst.Placement != nil {
		out.AvailabilityZone = aws.ToString(inst.Placement.AvailabilityZone)
	}
	if inst.State != nil {
		out.State = string(inst.State.Name)
	}
	if inst.InstanceLifecycle == types.InstanceLifecycleTypeSpot {
		out.Lifecycle = LifecycleSpot
	}
	return out
}
