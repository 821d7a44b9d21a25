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

// Package cost reconciles running EC2 instances against purchased Reserved
// Instances and rolls the resulting monthly costs up into a statement.
//
// The flow for one run is:
//  1. NewSlotPool expands the active reservations of one account/region into
//     slots, one per purchased unit.
//  2. MatchReservations assigns each non-spot instance a term, consuming
//     slots greedily in listing order (1-year before 3-year).
//  3. NewRecord prices each Resource through a Pricer, eagerly and once.
//  4. Rollup groups the records by account, region and instance type.
//
// Costs are monthly: hourly prices are multiplied by HoursPerMonth, the
// average number of hours in a month.
package cost

import (
	"fmt"
)

const (
	// HoursPerYear is the number of hours in a (non-leap) year. Upfront
	// reservation fees are amortized over it.
	HoursPerYear = 365 * 24.0

	// HoursPerMonth is the average number of hours in a month.
	HoursPerMonth = HoursPerYear / 12.0
)

// MonthlyCost converts an hourly price to a monthly cost.
func MonthlyCost(hourly float64) float64 {
	return hourly * HoursPerMonth
}

// Term is the reservation term an instance is billed under.
type Term int

const (
	// TermNone means on-demand, no reservation.
	TermNone Term = 0
	// TermOneYear is a 1-year reservation.
	TermOneYear Term = 1
	// TermThreeYear is a 3-year reservation.
	TermThreeYear Term = 3
)

// TermFromYears converts a reservation length in whole years to a Term.
// Lengths other than 1 or 3 years are returned as-is and never match an
// instance.
func TermFromYears(years int) Term {
	return Term(years)
}

// Years returns the term length in years (0 for on-demand).
func (t Term) Years() int {
	return int(t)
}

// Reserved reports whether the term is a reservation.
func (t Term) Reserved() bool {
	return t != TermNone
}

func (t Term) String() string {
	switch t {
	case TermNone:
		return "on-demand"
	case TermOneYear:
		return "1yr"
	case TermThreeYear:
		return "3yr"
	default:
		return fmt.Sprintf("%dyr", int(t))
	}
}

// CoverageType represents how an instance's cost is covered.
type CoverageType string

const (
	// CoverageReservedInstance indicates the instance is covered by a Reserved Instance
	CoverageReservedInstance CoverageType = "reserved_instance"

	// CoverageOnDemand indicates the instance is paying on-demand rates
	CoverageOnDemand CoverageType = "on_demand"
)

// Pricer resolves the effective hourly price of an instance. A missing price
// is reported as 0.
type Pricer interface {
	Price(region, instanceType, platform string, term Term) float64
}

// Resource is a non-spot instance together with the term it was matched to.
type Resource struct {
	Account          string
	Region           string
	InstanceID       string
	InstanceType     string
	AvailabilityZone string
	Platform         string
	Term             Term
}

// Record is the priced form of a Resource. Records are immutable; all costs
// are computed by NewRecord.
type Record struct {
	account      string
	region       string
	instanceID   string
	instanceType string
	platform     string
	term         Term

	// monthly cost at the assigned term
	cost float64
	// on-demand records only: the same unit priced at reserved rates
	costOneYear   float64
	costThreeYear float64
}

// NewRecord prices a resource. Reserved resources are priced at their own
// term only; on-demand resources are priced on-demand and at both reserved
// terms so the statement can show what a reservation would save.
func NewRecord(r Resource, pricer Pricer) Record {
	rec := Record{
		account:      r.Account,
		region:       r.Region,
		instanceID:   r.InstanceID,
		instanceType: r.InstanceType,
		platform:     r.Platform,
		term:         r.Term,
	}

	rec.cost = MonthlyCost(pricer.Price(r.Region, r.InstanceType, r.Platform, r.Term))
	if !r.Term.Reserved() {
		rec.costOneYear = MonthlyCost(pricer.Price(r.Region, r.InstanceType, r.Platform, TermOneYear))
		rec.costThreeYear = MonthlyCost(pricer.Price(r.Region, r.InstanceType, r.Platform, TermThreeYear))
	}
	return rec
}

// NewRecords prices every resource, keeping order.
func NewRecords(resources []Resource, pricer Pricer) []Record {
	records := make([]Record, 0, len(resources))
	for _, r := range resources {
		records = append(records, NewRecord(r, pricer))
	}
	return records
}

// Account returns the name of the account the instance runs in.
func (r Record) Account() string { return r.account }

// Region returns the public region name, e.g. us-east-1.
func (r Record) Region() string { return r.region }

// InstanceID returns the EC2 instance ID.
func (r Record) InstanceID() string { return r.instanceID }

// InstanceType returns the instance type, e.g. m4.large.
func (r Record) InstanceType() string { return r.instanceType }

// Platform returns the normalized platform: linux or windows.
func (r Record) Platform() string { return r.platform }

// Term returns the reservation term assigned by matching.
func (r Record) Term() Term { return r.term }

// Reserved reports whether a reservation covers the instance.
func (r Record) Reserved() bool { return r.term.Reserved() }

// Cost returns the monthly cost at the assigned term.
func (r Record) Cost() float64 { return r.cost }

// CostAt returns the monthly cost of the unit under term. Reserved records
// only know their own term; any other term returns 0.
func (r Record) CostAt(term Term) float64 {
	if term == r.term {
		return r.cost
	}
	if r.term.Reserved() {
		return 0
	}
	switch term {
	case TermOneYear:
		return r.costOneYear
	case TermThreeYear:
		return r.costThreeYear
	default:
		return 0
	}
}

// Coverage returns how the record is paid for.
func (r Record) Coverage() CoverageType {
	if r.Reserved() {
		return CoverageReservedInstance
	}
	return CoverageOnDemand
}
