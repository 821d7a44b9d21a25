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

package cost

import (
	"sort"
)

// Summary aggregates a set of records. All costs are monthly.
type Summary struct {
	OnDemandCount int
	OnDemandCost  float64

	ReservedCount int
	ReservedCost  float64

	// OnDemandAtOneYear and OnDemandAtThreeYear price the on-demand units
	// at reserved rates.
	OnDemandAtOneYear   float64
	OnDemandAtThreeYear float64
}

// Summarize aggregates records.
func Summarize(records []Record) Summary {
	var s Summary
	for _, r := range records {
		if r.Reserved() {
			s.ReservedCount++
			s.ReservedCost += r.Cost()
			continue
		}
		s.OnDemandCount++
		s.OnDemandCost += r.Cost()
		s.OnDemandAtOneYear += r.CostAt(TermOneYear)
		s.OnDemandAtThreeYear += r.CostAt(TermThreeYear)
	}
	return s
}

// Total is the on-demand plus reserved cost.
func (s Summary) Total() float64 {
	return s.OnDemandCost + s.ReservedCost
}

// Savings is what reserving every on-demand unit for term would save.
func (s Summary) Savings(term Term) float64 {
	switch term {
	case TermOneYear:
		return s.OnDemandCost - s.OnDemandAtOneYear
	case TermThreeYear:
		return s.OnDemandCost - s.OnDemandAtThreeYear
	default:
		return 0
	}
}

// SavingsPercent is Savings(term) as a percentage of Total. It is 0 when the
// total is 0.
func (s Summary) SavingsPercent(term Term) float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return s.Savings(term) / total * 100
}

// Row levels of a rollup.
const (
	LevelTotal        = 0
	LevelAccount      = 1
	LevelRegion       = 2
	LevelInstanceType = 3
)

// Row is one line of the statement.
type Row struct {
	Level   int
	Label   string
	Summary Summary
}

// Rollup groups records into statement rows: a "Total" row, then for each
// account its row followed by its regions, each followed by its instance
// types. Groups are ordered by account, region and instance type; the input
// slice is not modified.
func Rollup(records []Record) []Row {
	sorted := append([]Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Account() != b.Account() {
			return a.Account() < b.Account()
		}
		if a.Region() != b.Region() {
			return a.Region() < b.Region()
		}
		return a.InstanceType() < b.InstanceType()
	})

	rows := []Row{{Level: LevelTotal, Label: "Total", Summary: Summarize(sorted)}}
	for _, byAccount := range groupBy(sorted, Record.Account) {
		rows = append(rows, Row{Level: LevelAccount, Label: byAccount[0].Account(), Summary: Summarize(byAccount)})
		for _, byRegion := range groupBy(byAccount, Record.Region) {
			rows = append(rows, Row{Level: LevelRegion, Label: byRegion[0].Region(), Summary: Summarize(byRegion)})
			for _, byType := range groupBy(byRegion, Record.InstanceType) {
				rows = append(rows, Row{Level: LevelInstanceType, Label: byType[0].InstanceType(), Summary: Summarize(byType)})
			}
		}
	}
	return rows
}

// groupBy splits records into runs of consecutive equal keys.
func groupBy(records []Record, key func(Record) string) [][]Record {
	var groups [][]Record
	start := 0
	for i := 1; i <= len(records); i++ {
		if i == len(records) || key(records[i]) != key(records[start]) {
			groups = append(groups, records[start:i])
			start = i
		}
	}
	return groups
}
