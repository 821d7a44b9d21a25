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
	"sync"
)

// MockClient is a mock implementation of the Client interface for testing.
// It provides configurable responses and tracks method calls.
type MockClient struct {
	mu sync.RWMutex

	// EC2Clients maps "account:region" to MockEC2Client. Use EC2For to
	// populate it.
	EC2Clients map[string]*MockEC2Client

	// EC2Calls records every EC2 call in order.
	EC2Calls []AccountConfig

	// AssumeRoleCalls tracks all AssumeRole attempts
	AssumeRoleCalls []AssumeRoleCall

	// EC2Error can be set to simulate credential or AssumeRole failures
	EC2Error error
}

// AssumeRoleCall records an AssumeRole operation for testing.
type AssumeRoleCall struct {
	Account       string
	AssumeRoleARN string
	SessionName   string
}

// NewMockClient creates a new MockClient with initialized maps.
func NewMockClient() *MockClient {
	return &MockClient{
		EC2Clients:      make(map[string]*MockEC2Client),
		AssumeRoleCalls: []AssumeRoleCall{},
	}
}

// EC2For returns the mock EC2 client for an account name and region,
// creating an empty one on first use.
func (m *MockClient) EC2For(account, region string) *MockEC2Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ec2ForLocked(account, region)
}

func (m *MockClient) ec2ForLocked(account, region string) *MockEC2Client {
	key := account + ":" + region
	client, exists := m.EC2Clients[key]
	if !exists {
		client = NewMockEC2Client()
		m.EC2Clients[key] = client
	}
	return client
}

// EC2 returns a mock EC2Client for the specified account and region.
func (m *MockClient) EC2(_ context.Context, accountConfig AccountConfig) (EC2Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EC2Calls = append(m.EC2Calls, accountConfig)

	if m.EC2Error != nil {
		return nil, m.EC2Error
	}

	// Track AssumeRole call if ARN is specified
	if accountConfig.AssumeRoleARN != "" {
		m.AssumeRoleCalls = append(m.AssumeRoleCalls, AssumeRoleCall{
			Account:       accountConfig.Name,
			AssumeRoleARN: accountConfig.AssumeRoleARN,
			SessionName:   accountConfig.SessionName,
		})
	}

	return m.ec2ForLocked(accountConfig.Name, accountConfig.Region), nil
}

// MockEC2Client is a mock implementation of EC2Client for testing.
type MockEC2Client struct {
	mu sync.RWMutex

	// Instances is the mock instance data, returned in order
	Instances []Instance

	// ReservedInstances is the mock RI data, returned in order
	ReservedInstances []ReservedInstance

	// Error injection for testing error paths
	DescribeInstancesError         error
	DescribeReservedInstancesError error

	// CallCounts tracks method call counts
	DescribeInstancesCallCount         int
	DescribeReservedInstancesCallCount int
}

// NewMockEC2Client creates a new MockEC2Client.
func NewMockEC2Client() *MockEC2Client {
	return &MockEC2Client{
		Instances:         []Instance{},
		ReservedInstances: []ReservedInstance{},
	}
}

// DescribeInstances returns a copy of the mock instance data.
func (m *MockEC2Client) DescribeInstances(_ context.Context) ([]Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DescribeInstancesCallCount++

	if m.DescribeInstancesError != nil {
		return nil, m.DescribeInstancesError
	}
	return append([]Instance(nil), m.Instances...), nil
}

// DescribeReservedInstances returns a copy of the mock RI data.
func (m *MockEC2Client) DescribeReservedInstances(_ context.Context) ([]ReservedInstance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DescribeReservedInstancesCallCount++

	if m.DescribeReservedInstancesError != nil {
		return nil, m.DescribeReservedInstancesError
	}
	return append([]ReservedInstance(nil), m.ReservedInstances...), nil
}
