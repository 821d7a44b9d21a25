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
	"regexp"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// RealClient is a production implementation of the Client interface that
// makes real calls to AWS APIs using the AWS SDK v2.
//
// This implementation handles:
//   - Static access keys per account
//   - The AWS SDK default credential chain when no keys are configured
//   - STS AssumeRole operations for cross-account access
//
// For testing, use MockClient instead.
type RealClient struct {
	mu          sync.Mutex
	config      ClientConfig
	stsClient   *sts.Client               // STS client on the default credential chain
	ec2Clients  map[string]*RealEC2Client // Cached per account and region
	endpointURL string                    // Optional endpoint URL (for LocalStack testing)
}

// NewRealClient creates a new RealClient with the specified configuration.
//
// For LocalStack testing, set endpointURL to "http://localhost:4566".
func NewRealClient(ctx context.Context, cfg ClientConfig, endpointURL string) (*RealClient, error) {
	if cfg.DefaultRegion == "" {
		cfg.DefaultRegion = "us-east-1"
	}
	if cfg.SessionPrefix == "" {
		cfg.SessionPrefix = "cloudcash"
	}

	// Load AWS configuration using default credential chain
	// This will automatically use:
	// 1. Environment variables (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY)
	// 2. Shared credentials file (~/.aws/credentials)
	// 3. IAM role (if running on EC2 or ECS)
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.DefaultRegion),
	)
	if err != nil { // coverage:ignore - AWS SDK config loading errors are difficult to trigger in unit tests
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &RealClient{
		config:      cfg,
		stsClient:   newSTSClient(awsCfg, endpointURL),
		ec2Clients:  make(map[string]*RealEC2Client),
		endpointURL: endpointURL,
	}, nil
}

// EC2 returns an EC2Client for the specified account configuration.
// The client is cached per account and region to avoid repeated AssumeRole calls.
func (c *RealClient) EC2(ctx context.Context, accountConfig AccountConfig) (EC2Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cacheKey := accountConfig.Name + ":" + accountConfig.Region
	if client, ok := c.ec2Clients[cacheKey]; ok {
		return client, nil
	}

	creds, err := c.credentialsProvider(ctx, accountConfig)
	if err != nil {
		return nil, err
	}

	client, err := NewRealEC2Client(ctx, accountConfig.Region, creds, c.endpointURL)
	if err != nil { // coverage:ignore - AWS SDK config errors are difficult to trigger in unit tests
		return nil, err
	}

	c.ec2Clients[cacheKey] = client
	return client, nil
}

// credentialsProvider returns the credentials for the specified account.
// A nil provider means "use the default credential chain".
func (c *RealClient) credentialsProvider(
	ctx context.Context,
	accountConfig AccountConfig,
) (aws.CredentialsProvider, error) {
	var base aws.CredentialsProvider
	if accountConfig.AccessKeyID != "" {
		base = credentials.NewStaticCredentialsProvider(
			accountConfig.AccessKeyID, accountConfig.SecretAccessKey, "")
	}

	if accountConfig.AssumeRoleARN == "" {
		return base, nil
	}

	stsClient := c.stsClient
	if base != nil {
		// The role is assumed with the account's own keys, not the default chain.
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(c.config.DefaultRegion),
			awsconfig.WithCredentialsProvider(base),
		)
		if err != nil { // coverage:ignore - AWS SDK config loading errors are difficult to trigger in unit tests
			return nil, fmt.Errorf("failed to load AWS config for account %s: %w", accountConfig.Name, err)
		}
		stsClient = newSTSClient(awsCfg, c.endpointURL)
	}

	// This path is tested in localstack_integration_test.go with the -tags=localstack build tag
	result, err := stsClient.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(accountConfig.AssumeRoleARN),
		RoleSessionName: aws.String(c.sessionName(accountConfig)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assume role %s for account %s: %w",
			accountConfig.AssumeRoleARN, accountConfig.Name, err)
	}

	return credentials.NewStaticCredentialsProvider(
		aws.ToString(result.Credentials.AccessKeyId),
		aws.ToString(result.Credentials.SecretAccessKey),
		aws.ToString(result.Credentials.SessionToken),
	), nil
}

var sessionNameInvalid = regexp.MustCompile(`[^\w+=,.@-]`)

// sessionName returns the AssumeRole session name for an account. STS
// accepts 2-64 characters from [\w+=,.@-].
func (c *RealClient) sessionName(accountConfig AccountConfig) string {
	name := accountConfig.SessionName
	if name == "" {
		name = c.config.SessionPrefix + "-" + accountConfig.Name
	}
	name = sessionNameInvalid.ReplaceAllString(name, "-")
	if len(name) > 64 {
		name = name[:64]
	}
	return name
}

func newSTSClient(awsCfg aws.Config, endpointURL string) *sts.Client {
	stsOpts := []func(*sts.Options){}
	if endpointURL != "" {
		// Override endpoint for LocalStack testing
		stsOpts = append(stsOpts, func(o *sts.Options) {
			o.BaseEndpoint = aws.String(endpointURL)
		})
	}
	return sts.NewFromConfig(awsCfg, stsOpts...)
}
