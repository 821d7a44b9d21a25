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
	"github.com/nextdoor/cloudcash/pkg/aws"
)

// Slot is one purchased unit of a Reserved Instance.
type Slot struct {
	InstanceType     string
	AvailabilityZone string
	Term             Term
}

// SlotPool is the ordered multiset of unconsumed reservation slots for one
// account/region. It is not safe for concurrent use.
type SlotPool struct {
	slots []Slot
}

// NewSlotPool expands each reservation into InstanceCount slots, keeping the
// order the reservations were listed in.
func NewSlotPool(reservations []aws.ReservedInstance) *SlotPool {
	p := &SlotPool{}
	for _, ri := range reservations {
		slot := Slot{
			InstanceType:     ri.InstanceType,
			AvailabilityZone: ri.AvailabilityZone,
			Term:             TermFromYears(ri.TermYears()),
		}
		for i := int32(0); i < ri.InstanceCount; i++ {
			p.slots = append(p.slots, slot)
		}
	}
	return p
}

// Take consumes the first slot equal to s and reports whether one existed.
func (p *SlotPool) Take(s Slot) bool {
	for i, slot := range p.slots {
		if slot == s {
			p.slots = append(p.slots[:i], p.slots[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of unconsumed slots.
func (p *SlotPool) Len() int {
	return len(p.slots)
}

// Remaining returns the unconsumed slots in their original order.
func (p *SlotPool) Remaining() []Slot {
	return append([]Slot(nil), p.slots...)
}

// matchPreference is the order terms are tried in. A 1-year slot is used
// before a 3-year one even when that leaves a later instance uncovered.
var matchPreference = []Term{TermOneYear, TermThreeYear}

// MatchReservations assigns a term to every non-spot instance, consuming
// slots from pool as it goes.
//
// Instances are walked in the order given (the provider's listing order).
// For each one the first slot with the same instance type and availability
// zone is consumed, preferring 1-year over 3-year. Instances with no slot
// left are on-demand. Spot instances are dropped.
//
// The result depends on instance order: this is a greedy match, not an
// optimal assignment.
func MatchReservations(account string, instances []aws.Instance, pool *SlotPool) []Resource {
	resources := make([]Resource, 0, len(instances))
	for _, inst := range instances {
		if inst.IsSpot() {
			continue
		}

		r := Resource{
			Account:          account,
			Region:           inst.Region,
			InstanceID:       inst.InstanceID,
			InstanceType:     inst.InstanceType,
			AvailabilityZone: inst.AvailabilityZone,
			Platform:         inst.NormalizedPlatform(),
			Term:             TermNone,
		}
		for _, term := range matchPreference {
			if pool.Take(Slot{InstanceType: inst.InstanceType, AvailabilityZone: inst.AvailabilityZone, Term: term}) {
				r.Term = term
				break
			}
		}
		resources = append(resources, r)
	}
	return resources
}
