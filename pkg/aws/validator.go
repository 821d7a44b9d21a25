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
)

// Validator provides methods to validate AWS account access.
// The validate command uses it to preflight every configured account
// before a full scan is attempted.
type Validator interface {
	// ValidateAccountAccess checks that credentials for the account resolve
	// and that the EC2 API answers in the account's region.
	ValidateAccountAccess(ctx context.Context, accountConfig AccountConfig) error
}

// AccountValidator implements the Validator interface using the AWS SDK.
type AccountValidator struct {
	client Client
}

// NewAccountValidator creates a new AccountValidator that uses the provided
// AWS client to validate account access.
func NewAccountValidator(client Client) *AccountValidator {
	return &AccountValidator{
		client: client,
	}
}

// ValidateAccountAccess validates that we can access the specified AWS account
// by creating an EC2 client (which includes AssumeRole if configured) and then
// listing active reservations, the cheaper of the two calls a scan makes.
//
// Returns nil if the account is accessible, or an error with details about
// the failure (e.g., AssumeRole denied, network error, invalid credentials).
func (v *AccountValidator) ValidateAccountAccess(ctx context.Context, accountConfig AccountConfig) error {
	ec2Client, err := v.client.EC2(ctx, accountConfig)
	if err != nil {
		return fmt.Errorf("failed to create EC2 client for account %s: %w",
			accountConfig.Name, err)
	}

	if _, err := ec2Client.DescribeReservedInstances(ctx); err != nil {
		return fmt.Errorf("failed to validate AWS API access for account %s in %s: %w",
			accountConfig.Name, accountConfig.Region, err)
	}

	return nil
}
