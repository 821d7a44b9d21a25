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
)

// recordingPricer remembers which terms were asked for.
type recordingPricer struct {
	calls []Term
}

func (p *recordingPricer) Price(_, _, _ string, term Term) float64 {
	p.calls = append(p.calls, term)
	return float64(term) + 1
}

func TestMonthlyCost(t *testing.T) {
	assert.Equal(t, 730.0, HoursPerMonth)
	assert.InDelta(t, 73.0, MonthlyCost(0.1), 1e-9)
	assert.Equal(t, 0.0, MonthlyCost(0))
}

func TestTerm(t *testing.T) {
	assert.False(t, TermNone.Reserved())
	assert.True(t, TermOneYear.Reserved())
	assert.Equal(t, 3, TermThreeYear.Years())
	assert.Equal(t, TermThreeYear, TermFromYears(3))
	assert.Equal(t, "on-demand", TermNone.String())
	assert.Equal(t, "1yr", TermOneYear.String())
	assert.Equal(t, "3yr", TermThreeYear.String())
	assert.Equal(t, "2yr", Term(2).String())
}

func TestNewRecordOnDemandPricesAllTerms(t *testing.T) {
	p := &recordingPricer{}
	r := NewRecord(Resource{Account: "a", Region: "us-east-1", InstanceType: "m4.large", Platform: "linux"}, p)

	assert.Equal(t, []Term{TermNone, TermOneYear, TermThreeYear}, p.calls)
	assert.InDelta(t, MonthlyCost(1), r.Cost(), 1e-9)
	assert.InDelta(t, MonthlyCost(1), r.CostAt(TermNone), 1e-9)
	assert.InDelta(t, MonthlyCost(2), r.CostAt(TermOneYear), 1e-9)
	assert.InDelta(t, MonthlyCost(4), r.CostAt(TermThreeYear), 1e-9)
	assert.False(t, r.Reserved())
	assert.Equal(t, CoverageOnDemand, r.Coverage())
}

func TestNewRecordReservedPricesOwnTermOnly(t *testing.T) {
	p := &recordingPricer{}
	r := NewRecord(Resource{Account: "a", Region: "us-east-1", InstanceType: "m4.large", Platform: "windows", Term: TermThreeYear}, p)

	assert.Equal(t, []Term{TermThreeYear}, p.calls)
	assert.InDelta(t, MonthlyCost(4), r.Cost(), 1e-9)
	assert.Equal(t, 0.0, r.CostAt(TermOneYear))
	assert.Equal(t, 0.0, r.CostAt(TermNone))
	assert.True(t, r.Reserved())
	assert.Equal(t, CoverageReservedInstance, r.Coverage())
	assert.Equal(t, "windows", r.Platform())
}

func TestNewRecordsKeepsOrder(t *testing.T) {
	records := NewRecords([]Resource{
		{InstanceID: "i-2", Account: "b"},
		{InstanceID: "i-1", Account: "a"},
	}, testPricer)

	assert.Len(t, records, 2)
	assert.Equal(t, "i-2", records[0].InstanceID())
	assert.Equal(t, "a", records[1].Account())
}
