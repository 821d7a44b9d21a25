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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatPricer prices every instance type the same: hourly per term.
type flatPricer map[Term]float64

func (p flatPricer) Price(_, _, _ string, term Term) float64 {
	return p[term]
}

var testPricer = flatPricer{
	TermNone:      0.10,
	TermOneYear:   0.06,
	TermThreeYear: 0.04,
}

func record(account, region, instanceType string, term Term) Record {
	return NewRecord(Resource{
		Account:      account,
		Region:       region,
		InstanceType: instanceType,
		Platform:     "linux",
		Term:         term,
	}, testPricer)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Record{
		record("a", "us-east-1", "m4.large", TermNone),
		record("a", "us-east-1", "m4.large", TermNone),
		record("a", "us-east-1", "m4.large", TermOneYear),
		record("a", "us-east-1", "m4.large", TermThreeYear),
	})

	assert.Equal(t, 2, s.OnDemandCount)
	assert.Equal(t, 2, s.ReservedCount)
	assert.InDelta(t, 2*0.10*HoursPerMonth, s.OnDemandCost, 1e-9)
	assert.InDelta(t, (0.06+0.04)*HoursPerMonth, s.ReservedCost, 1e-9)
	assert.InDelta(t, 2*0.06*HoursPerMonth, s.OnDemandAtOneYear, 1e-9)
	assert.InDelta(t, 2*0.04*HoursPerMonth, s.OnDemandAtThreeYear, 1e-9)

	assert.InDelta(t, s.OnDemandCost+s.ReservedCost, s.Total(), 1e-9)
	assert.InDelta(t, 2*0.04*HoursPerMonth, s.Savings(TermOneYear), 1e-9)
	assert.InDelta(t, 2*0.06*HoursPerMonth, s.Savings(TermThreeYear), 1e-9)
	assert.Equal(t, 0.0, s.Savings(TermNone))

	// savings / total * 100 = 0.08 / 0.30 * 100
	assert.InDelta(t, 26.666, s.SavingsPercent(TermOneYear), 1e-3)
	assert.InDelta(t, 40.0, s.SavingsPercent(TermThreeYear), 1e-9)
}

func TestSavingsPercentZeroTotal(t *testing.T) {
	assert.Equal(t, 0.0, Summary{}.SavingsPercent(TermOneYear))
	assert.Equal(t, 0.0, Summarize(nil).SavingsPercent(TermThreeYear))
}

func TestRollupLevelsAndOrder(t *testing.T) {
	records := []Record{
		record("prod", "us-west-2", "m1.small", TermNone),
		record("dev", "us-east-1", "m4.large", TermOneYear),
		record("prod", "eu-west-1", "m4.large", TermNone),
		record("prod", "us-west-2", "c1.medium", TermNone),
		record("prod", "us-west-2", "m1.small", TermThreeYear),
	}

	rows := Rollup(records)

	type line struct {
		level int
		label string
	}
	var got []line
	for _, r := range rows {
		got = append(got, line{r.Level, r.Label})
	}
	assert.Equal(t, []line{
		{LevelTotal, "Total"},
		{LevelAccount, "dev"},
		{LevelRegion, "us-east-1"},
		{LevelInstanceType, "m4.large"},
		{LevelAccount, "prod"},
		{LevelRegion, "eu-west-1"},
		{LevelInstanceType, "m4.large"},
		{LevelRegion, "us-west-2"},
		{LevelInstanceType, "c1.medium"},
		{LevelInstanceType, "m1.small"},
	}, got)

	assert.Equal(t, 5, rows[0].Summary.OnDemandCount+rows[0].Summary.ReservedCount)
	smallRow := rows[len(rows)-1]
	assert.Equal(t, 1, smallRow.Summary.OnDemandCount)
	assert.Equal(t, 1, smallRow.Summary.ReservedCount)

	// Input order untouched.
	assert.Equal(t, "prod", records[0].Account())
	assert.Equal(t, "us-west-2", records[0].Region())
}

// TestRollupChildrenSumToParent checks that each group's summary equals the
// sum of its children.
func TestRollupChildrenSumToParent(t *testing.T) {
	rows := Rollup([]Record{
		record("a", "r1", "t1", TermNone),
		record("a", "r1", "t2", TermOneYear),
		record("a", "r2", "t1", TermNone),
		record("b", "r1", "t1", TermThreeYear),
	})

	for i, parent := range rows {
		if parent.Level == LevelInstanceType {
			continue
		}
		var sum Summary
		for _, child := range rows[i+1:] {
			if child.Level <= parent.Level {
				break
			}
			if child.Level != parent.Level+1 {
				continue
			}
			sum.OnDemandCount += child.Summary.OnDemandCount
			sum.ReservedCount += child.Summary.ReservedCount
			sum.OnDemandCost += child.Summary.OnDemandCost
			sum.ReservedCost += child.Summary.ReservedCost
		}
		assert.Equal(t, parent.Summary.OnDemandCount, sum.OnDemandCount, parent.Label)
		assert.Equal(t, parent.Summary.ReservedCount, sum.ReservedCount, parent.Label)
		assert.InDelta(t, parent.Summary.Total(), sum.OnDemandCost+sum.ReservedCost, 1e-9, parent.Label)
	}
}

func TestRollupEmpty(t *testing.T) {
	rows := Rollup(nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "Total", rows[0].Label)
	assert.Equal(t, 0.0, rows[0].Summary.Total())
}
