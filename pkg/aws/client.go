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
)

// Client is the main interface for interacting with AWS services.
// It hands out region-bound EC2 clients per account, resolving credentials
// from static keys, the default chain or an STS AssumeRole.
type Client interface {
	// EC2 returns an EC2Client for the specified account configuration,
	// bound to accountConfig.Region.
	EC2(ctx context.Context, accountConfig AccountConfig) (EC2Client, error)
}

// EC2Client provides access to the EC2 API operations needed for
// reservation reconciliation. Every call is scoped to the client's region.
type EC2Client interface {
	// DescribeInstances returns all running EC2 instances, in the order
	// the API lists them.
	DescribeInstances(ctx context.Context) ([]Instance, error)

	// DescribeReservedInstances returns all active Reserved Instances, in
	// the order the API lists them.
	DescribeReservedInstances(ctx context.Context) ([]ReservedInstance, error)
}

// ClientConfig configures the AWS client creation.
type ClientConfig struct {
	// DefaultRegion is the region used for STS calls.
	DefaultRegion string

	// SessionPrefix prefixes AssumeRole session names.
	// Default: "cloudcash"
	SessionPrefix string
}

// NewClient creates a new AWS client with the specified configuration.
//
// For production use, this creates a RealClient that connects to actual AWS APIs.
// For testing with LocalStack, use NewClientWithEndpoint instead.
func NewClient(ctx context.Context, config ClientConfig) (Client, error) {
	return NewClientWithEndpoint(ctx, config, "")
}

// NewClientWithEndpoint creates a new AWS client with a custom endpoint URL.
// This is primarily used for testing with LocalStack ("http://localhost:4566").
func NewClientWithEndpoint(ctx context.Context, config ClientConfig, endpointURL string) (Client, error) {
	return NewRealClient(ctx, config, endpointURL)
}
