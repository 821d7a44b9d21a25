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

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// TestMetricNameConstants verifies that all exported metric name constants
// match the actual metric names used in the Metrics struct.
func TestMetricNameConstants(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	tests := []struct {
		name         string
		constant     string
		actualMetric prometheus.Collector
	}{
		{"LastRunSuccess", MetricLastRunSuccess, m.LastRunSuccess},
		{"LastRunTimestamp", MetricLastRunTimestamp, m.LastRunTimestamp},
		{"ScanDuration", MetricScanDurationSeconds, m.ScanDuration},
		{"CatalogRequests", MetricCatalogRequests, m.CatalogRequests},
		{"AccountValidationStatus", MetricAccountValidationStatus, m.AccountValidationStatus},
		{"AccountValidationDuration", MetricAccountValidationDurationSeconds, m.AccountValidationDuration},
		{"InstanceCount", MetricInstanceCount, m.InstanceCount},
		{"MonthlyCost", MetricMonthlyCost, m.MonthlyCost},
		{"SavingsPossible", MetricSavingsPossible, m.SavingsPossible},
		{"UnusedReservations", MetricUnusedReservations, m.UnusedReservations},
		{"PriceNotFound", MetricPriceNotFound, m.PriceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := getMetricDesc(tt.actualMetric)
			if desc == nil {
				t.Fatalf("could not get metric description for %s", tt.name)
			}

			actualName := getMetricName(desc)
			if actualName != tt.constant {
				t.Errorf("metric name mismatch for %s: constant=%q, actual=%q",
					tt.name, tt.constant, actualName)
			}
		})
	}
}

// TestMetricNameConstantsFormat verifies that all metric name constants
// follow Prometheus naming conventions.
func TestMetricNameConstantsFormat(t *testing.T) {
	constants := []string{
		MetricLastRunSuccess,
		MetricLastRunTimestamp,
		MetricScanDurationSeconds,
		MetricCatalogRequests,
		MetricAccountValidationStatus,
		MetricAccountValidationDurationSeconds,
		MetricInstanceCount,
		MetricMonthlyCost,
		MetricSavingsPossible,
		MetricUnusedReservations,
		MetricPriceNotFound,
	}

	seen := make(map[string]bool)
	for _, value := range constants {
		if seen[value] {
			t.Errorf("duplicate metric name constant: %q", value)
		}
		seen[value] = true

		if !strings.HasPrefix(value, "cloudcash_") {
			t.Errorf("%q is missing the cloudcash_ prefix", value)
		}
		for _, char := range value {
			isLowercase := char >= 'a' && char <= 'z'
			isDigit := char >= '0' && char <= '9'
			if !isLowercase && !isDigit && char != '_' {
				t.Errorf("%q contains invalid character %q", value, char)
				break
			}
		}
	}
}

// getMetricDesc extracts the prometheus.Desc from a metric collector.
func getMetricDesc(collector prometheus.Collector) *prometheus.Desc {
	descChan := make(chan *prometheus.Desc, 1)

	go func() {
		collector.Describe(descChan)
		close(descChan)
	}()

	return <-descChan
}

// getMetricName extracts the metric name from a prometheus.Desc.
// Desc.String() looks like: Desc{fqName: "metric_name", help: "...", ...}
func getMetricName(desc *prometheus.Desc) string {
	str := desc.String()

	const prefix = "fqName: \""
	start := strings.Index(str, prefix)
	if start < 0 {
		return ""
	}
	start += len(prefix)

	end := strings.IndexByte(str[start:], '"')
	if end < 0 {
		return ""
	}
	return str[start : start+end]
}
