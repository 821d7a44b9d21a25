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

// This file exports metric name constants for use by dashboards and alerts
// that query cloudcash metrics, typically scraped from the textfile written
// by WriteToTextfile.
//
// For metric label names, see the exported label constants in labels.go.
//
// Run Metrics
//
// These metrics describe the last run as a whole.

const (
	// MetricLastRunSuccess is 1 when the last run finished and 0 when it failed.
	// Type: Gauge
	// Labels: none
	MetricLastRunSuccess = "cloudcash_last_run_success"

	// MetricLastRunTimestamp records the Unix timestamp at which the last run finished.
	// Type: Gauge
	// Labels: none
	MetricLastRunTimestamp = "cloudcash_last_run_timestamp_seconds"

	// MetricScanDurationSeconds measures how long listing reservations and
	// instances took for one account and region.
	// Type: Histogram
	// Labels: account_name, region
	MetricScanDurationSeconds = "cloudcash_scan_duration_seconds"

	// MetricCatalogRequests counts catalog document lookups by cache outcome.
	// Type: Counter
	// Labels: result
	MetricCatalogRequests = "cloudcash_catalog_requests_total"
)

// AWS Account Validation Metrics

const (
	// MetricAccountValidationStatus is 1 when the account passed validation and 0 otherwise.
	// Type: Gauge
	// Labels: account_id, account_name
	MetricAccountValidationStatus = "cloudcash_account_validation_status"

	// MetricAccountValidationDurationSeconds measures the time taken to validate an account.
	// Type: Histogram
	// Labels: account_id, account_name
	MetricAccountValidationDurationSeconds = "cloudcash_account_validation_duration_seconds"
)

// Fleet Cost Metrics
//
// These metrics mirror the instance-type rows of the statement.

const (
	// MetricInstanceCount counts non-spot running instances.
	// Type: Gauge
	// Labels: account_name, region, instance_type, coverage
	MetricInstanceCount = "cloudcash_instance_count"

	// MetricMonthlyCost is the monthly cost in USD of the instances counted by
	// MetricInstanceCount.
	// Type: Gauge
	// Labels: account_name, region, instance_type, coverage
	MetricMonthlyCost = "cloudcash_monthly_cost_dollars"

	// MetricSavingsPossible is the monthly amount in USD that reserving every
	// on-demand instance for the given term would save.
	// Type: Gauge
	// Labels: account_name, region, instance_type, term
	MetricSavingsPossible = "cloudcash_savings_possible_dollars"

	// MetricUnusedReservations counts purchased reservation units that no
	// running instance consumed.
	// Type: Gauge
	// Labels: account_name, region, instance_type, availability_zone, term
	MetricUnusedReservations = "cloudcash_unused_reservations"

	// MetricPriceNotFound counts lookups the catalog could not answer. Each
	// such lookup was costed at zero.
	// Type: Counter
	// Labels: region, instance_type, platform, term
	MetricPriceNotFound = "cloudcash_price_not_found_total"
)
