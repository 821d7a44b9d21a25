/*
Copyright 2025 Lumina Contributors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

// Metric label names.
const (
	// Account labels
	LabelAccountID   = "account_id"
	LabelAccountName = "account_name"

	// Location labels
	LabelRegion           = "region"
	LabelAvailabilityZone = "availability_zone"

	// Instance labels
	LabelInstanceType = "instance_type"
	LabelPlatform     = "platform"

	// Cost labels
	LabelCoverage = "coverage"
	LabelTerm     = "term"

	// Cache labels
	LabelResult = "result"
)

// Values of LabelResult.
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)
