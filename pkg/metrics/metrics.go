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

// Package metrics provides Prometheus metrics describing a cloudcash run:
// fleet cost by coverage, reservation usage, catalog misses and run health.
// A run is a one-shot process, so metrics are exported by writing a
// node-exporter textfile rather than serving an endpoint.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nextdoor/cloudcash/pkg/cost"
)

// Metrics holds all Prometheus metrics for a cloudcash run.
type Metrics struct {
	// LastRunSuccess is set to 1 when a run completes and 0 when it fails.
	LastRunSuccess prometheus.Gauge

	// LastRunTimestamp records when the last run finished, successful or not.
	LastRunTimestamp prometheus.Gauge

	// ScanDuration measures the time spent listing one account and region.
	// Labels: account_name, region
	ScanDuration *prometheus.HistogramVec

	// CatalogRequests counts catalog document reads by cache outcome.
	// Labels: result
	CatalogRequests *prometheus.CounterVec

	// AccountValidationStatus tracks the validation status for each configured
	// AWS account. 1 indicates the account could list reservations.
	// Labels: account_id, account_name
	AccountValidationStatus *prometheus.GaugeVec

	// AccountValidationDuration measures the time taken to validate account access.
	// Labels: account_id, account_name
	AccountValidationDuration *prometheus.HistogramVec

	// InstanceCount counts running non-spot instances.
	// Labels: account_name, region, instance_type, coverage
	InstanceCount *prometheus.GaugeVec

	// MonthlyCost is the monthly cost in USD of the counted instances.
	// Labels: account_name, region, instance_type, coverage
	MonthlyCost *prometheus.GaugeVec

	// SavingsPossible is the monthly saving if every on-demand instance were
	// reserved for the term.
	// Labels: account_name, region, instance_type, term
	SavingsPossible *prometheus.GaugeVec

	// UnusedReservations counts reservation units left unconsumed after matching.
	// Labels: account_name, region, instance_type, availability_zone, term
	UnusedReservations *prometheus.GaugeVec

	// PriceNotFound counts prices the catalog could not resolve.
	// Labels: region, instance_type, platform, term
	PriceNotFound *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the provided registry.
//
// Example usage:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.NewMetrics(reg)
//	defer m.WriteToTextfile(path, reg)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastRunSuccess,
			Help: "Whether the last cloudcash run succeeded (1 = success, 0 = failed)",
		}),

		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastRunTimestamp,
			Help: "Unix timestamp at which the last run finished",
		}),

		ScanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: MetricScanDurationSeconds,
			Help: "Time taken to list reservations and instances for an account and region",
			// DescribeInstances pagination over large fleets can take tens of seconds
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{LabelAccountName, LabelRegion}),

		CatalogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricCatalogRequests,
			Help: "Pricing catalog documents read, by cache outcome",
		}, []string{LabelResult}),

		AccountValidationStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricAccountValidationStatus,
			Help: "AWS account validation status (1 = success, 0 = failed)",
		}, []string{LabelAccountID, LabelAccountName}),

		AccountValidationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricAccountValidationDurationSeconds,
			Help:    "Time taken to validate account access",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{LabelAccountID, LabelAccountName}),

		InstanceCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricInstanceCount,
			Help: "Running non-spot instances by coverage",
		}, []string{LabelAccountName, LabelRegion, LabelInstanceType, LabelCoverage}),

		MonthlyCost: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricMonthlyCost,
			Help: "Monthly cost of running instances by coverage (USD)",
		}, []string{LabelAccountName, LabelRegion, LabelInstanceType, LabelCoverage}),

		SavingsPossible: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricSavingsPossible,
			Help: "Monthly savings possible by reserving on-demand instances for the term (USD)",
		}, []string{LabelAccountName, LabelRegion, LabelInstanceType, LabelTerm}),

		UnusedReservations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricUnusedReservations,
			Help: "Reserved instance units not consumed by any running instance",
		}, []string{LabelAccountName, LabelRegion, LabelInstanceType, LabelAvailabilityZone, LabelTerm}),

		PriceNotFound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricPriceNotFound,
			Help: "Price lookups the pricing catalog could not resolve (costed at zero)",
		}, []string{LabelRegion, LabelInstanceType, LabelPlatform, LabelTerm}),
	}

	reg.MustRegister(
		m.LastRunSuccess,
		m.LastRunTimestamp,
		m.ScanDuration,
		m.CatalogRequests,
		m.AccountValidationStatus,
		m.AccountValidationDuration,
		m.InstanceCount,
		m.MonthlyCost,
		m.SavingsPossible,
		m.UnusedReservations,
		m.PriceNotFound,
	)

	return m
}

// RecordRun records the outcome of a run.
func (m *Metrics) RecordRun(success bool) {
	if success {
		m.LastRunSuccess.Set(1)
	} else {
		m.LastRunSuccess.Set(0)
	}
	m.LastRunTimestamp.Set(float64(time.Now().Unix()))
}

// RecordScan records how long one account and region took to list.
func (m *Metrics) RecordScan(accountName, region string, duration time.Duration) {
	m.ScanDuration.With(prometheus.Labels{
		LabelAccountName: accountName,
		LabelRegion:      region,
	}).Observe(duration.Seconds())
}

// RecordCatalogRequests adds cache hits and misses to the request counter.
func (m *Metrics) RecordCatalogRequests(hits, misses int) {
	m.CatalogRequests.WithLabelValues(ResultHit).Add(float64(hits))
	m.CatalogRequests.WithLabelValues(ResultMiss).Add(float64(misses))
}

// RecordAccountValidation records the result of an AWS account validation
// attempt.
//
// Example usage:
//
//	start := time.Now()
//	err := validator.ValidateAccountAccess(ctx, account)
//	m.RecordAccountValidation(account.AccountID, account.Name, err == nil, time.Since(start))
func (m *Metrics) RecordAccountValidation(accountID, accountName string, success bool, duration time.Duration) {
	labels := prometheus.Labels{
		LabelAccountID:   accountID,
		LabelAccountName: accountName,
	}

	m.AccountValidationDuration.With(labels).Observe(duration.Seconds())

	if success {
		m.AccountValidationStatus.With(labels).Set(1)
	} else {
		m.AccountValidationStatus.With(labels).Set(0)
	}
}

// RecordPriceMiss counts one unresolved price.
func (m *Metrics) RecordPriceMiss(region, instanceType, platform string, term cost.Term) {
	m.PriceNotFound.With(prometheus.Labels{
		LabelRegion:       region,
		LabelInstanceType: instanceType,
		LabelPlatform:     platform,
		LabelTerm:         term.String(),
	}).Inc()
}

// RecordUnusedReservations sets the unused reservation gauge for one account
// and region from the slots left after matching.
func (m *Metrics) RecordUnusedReservations(accountName, region string, slots []cost.Slot) {
	counts := make(map[cost.Slot]int)
	for _, s := range slots {
		counts[s]++
	}
	for s, n := range counts {
		m.UnusedReservations.With(prometheus.Labels{
			LabelAccountName:      accountName,
			LabelRegion:           region,
			LabelInstanceType:     s.InstanceType,
			LabelAvailabilityZone: s.AvailabilityZone,
			LabelTerm:             s.Term.String(),
		}).Set(float64(n))
	}
}

// groupKey identifies one instance-type row of the statement.
type groupKey struct {
	account      string
	region       string
	instanceType string
}

// UpdateCostMetrics replaces the fleet cost metrics with values computed from
// records. Coverage series with no instances are omitted.
func (m *Metrics) UpdateCostMetrics(records []cost.Record) {
	m.InstanceCount.Reset()
	m.MonthlyCost.Reset()
	m.SavingsPossible.Reset()

	groups := make(map[groupKey][]cost.Record)
	for _, r := range records {
		k := groupKey{account: r.Account(), region: r.Region(), instanceType: r.InstanceType()}
		groups[k] = append(groups[k], r)
	}

	for k, recs := range groups {
		s := cost.Summarize(recs)
		m.setCoverage(k, cost.CoverageOnDemand, s.OnDemandCount, s.OnDemandCost)
		m.setCoverage(k, cost.CoverageReservedInstance, s.ReservedCount, s.ReservedCost)

		if s.OnDemandCount == 0 {
			continue
		}
		for _, term := range []cost.Term{cost.TermOneYear, cost.TermThreeYear} {
			m.SavingsPossible.With(prometheus.Labels{
				LabelAccountName:  k.account,
				LabelRegion:       k.region,
				LabelInstanceType: k.instanceType,
				LabelTerm:         term.String(),
			}).Set(s.Savings(term))
		}
	}
}

func (m *Metrics) setCoverage(k groupKey, coverage cost.CoverageType, count int, monthly float64) {
	if count == 0 {
		return
	}
	labels := prometheus.Labels{
		LabelAccountName:  k.account,
		LabelRegion:       k.region,
		LabelInstanceType: k.instanceType,
		LabelCoverage:     string(coverage),
	}
	m.InstanceCount.With(labels).Set(float64(count))
	m.MonthlyCost.With(labels).Set(monthly)
}

// WriteToTextfile writes everything g gathers to path in the Prometheus text
// format, for the node-exporter textfile collector. The file is replaced
// atomically.
func WriteToTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
