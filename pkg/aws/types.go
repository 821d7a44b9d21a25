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

// Package aws provides abstractions for interacting with AWS services.
//
// This file contains the data structures returned by the EC2 client.

package aws

import (
	"strings"
	"time"
)

// Platform constants for operating system types.
// These are normalized, lowercase values used throughout the codebase.
const (
	PlatformLinux   = "linux"
	PlatformWindows = "windows"
)

// Lifecycle constants for EC2 instance types.
const (
	LifecycleOnDemand = "on-demand"
	LifecycleSpot     = "spot"
)

// SecondsPerYear is the reservation duration unit: a reservation of
// N*SecondsPerYear seconds has an N-year term.
const SecondsPerYear = 31536000

// AccountConfig represents configuration for accessing an AWS account.
// Supports static keys, the default credential chain and AssumeRole.
type AccountConfig struct {
	// Name is the account label used in logs and the statement.
	Name string

	// AccountID is the AWS account ID (e.g., "111111111111"). Optional.
	AccountID string

	// AccessKeyID and SecretAccessKey are static credentials. When empty the
	// default credential chain is used.
	AccessKeyID     string
	SecretAccessKey string

	// AssumeRoleARN is the ARN of the role to assume for cross-account access.
	// Example: "arn:aws:iam::111111111111:role/cloudcash"
	AssumeRoleARN string

	// SessionName is the name to use for AssumeRole sessions.
	// Defaults to "cloudcash-<name>" if not specified.
	SessionName string

	// Region is the AWS region the EC2 client is bound to.
	Region string
}

// Instance represents a running EC2 instance.
type Instance struct {
	// InstanceID is the EC2 instance ID (e.g., "i-abc123def456")
	InstanceID string

	// InstanceType is the instance type (e.g., "m4.large")
	InstanceType string

	// AvailabilityZone is the AZ where the instance is running
	AvailabilityZone string

	// Region is the AWS region
	Region string

	// Lifecycle is either "spot" or "on-demand"
	Lifecycle string

	// State is the current instance state (e.g., "running")
	State string

	// LaunchTime is when the instance was launched
	LaunchTime time.Time

	// Platform is the OS platform as reported by EC2. EC2 only sets it for
	// Windows instances; see NormalizedPlatform.
	Platform string

	// SpotInstanceRequestID is the spot instance request ID if this is a spot instance
	SpotInstanceRequestID string
}

// IsSpot reports whether the instance is a spot instance.
func (i Instance) IsSpot() bool {
	return i.SpotInstanceRequestID != "" || i.Lifecycle == LifecycleSpot
}

// NormalizedPlatform returns PlatformWindows or PlatformLinux. EC2 leaves the
// platform empty for Linux/UNIX instances.
func (i Instance) NormalizedPlatform() string {
	if i.Platform == "" {
		return PlatformLinux
	}
	return strings.ToLower(i.Platform)
}

// ReservedInstance represents an EC2 Reserved Instance purchase.
type ReservedInstance struct {
	// ReservedInstanceID is the unique identifier
	ReservedInstanceID string

	// InstanceType is the instance type this RI covers
	InstanceType string

	// AvailabilityZone is the AZ the reservation is bound to
	AvailabilityZone string

	// Region is the AWS region
	Region string

	// InstanceCount is the number of instances this RI covers
	InstanceCount int32

	// Duration is the reservation term in seconds
	Duration int64

	// State is the RI state (e.g., "active", "retired")
	State string

	// Start is when the RI started
	Start time.Time

	// OfferingType is the payment option ("Heavy Utilization", "All Upfront"...)
	OfferingType string

	// ProductDescription is the operating system ("Linux/UNIX", "Windows"...)
	ProductDescription string
}

// TermYears returns the reservation term in whole years.
func (r ReservedInstance) TermYears() int {
	return int(r.Duration / SecondsPerYear)
}
