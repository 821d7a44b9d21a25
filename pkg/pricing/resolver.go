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

// Package pricing resolves hourly EC2 prices from the pricing catalog
// documents.
//
// On-demand prices are read directly. Reserved prices combine the hourly
// rate with the upfront fee amortized over the term:
//
//	hourly + upfront / HoursPerYear / years
//
// A price that cannot be resolved is never fatal: Price logs it, records it
// and returns 0.
package pricing

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/nextdoor/cloudcash/pkg/aws"
	"github.com/nextdoor/cloudcash/pkg/cost"
	"github.com/nextdoor/cloudcash/pkg/naming"
)

// ErrPriceNotFound is returned when no price exists for a lookup.
var ErrPriceNotFound = errors.New("price not found")

// onDemandWindows is the on-demand column name for Windows instances.
const onDemandWindows = "mswin"

// AmortizedHourly spreads an upfront fee over the hours of a term of years
// and adds it to the hourly rate.
func AmortizedHourly(hourly, upfront float64, years int) float64 {
	return hourly + upfront/cost.HoursPerYear/float64(years)
}

// Miss describes a lookup that found no price.
type Miss struct {
	Region       string
	InstanceType string
	Platform     string
	Term         cost.Term
	Err          error
}

// Resolver resolves prices against a loaded Catalog. It implements
// cost.Pricer.
type Resolver struct {
	catalog *Catalog
	names   *naming.Tables
	log     logr.Logger

	mu     sync.Mutex
	misses []Miss
}

var _ cost.Pricer = (*Resolver)(nil)

// NewResolver creates a resolver over catalog using the given name tables.
func NewResolver(catalog *Catalog, names *naming.Tables, log logr.Logger) *Resolver {
	return &Resolver{
		catalog: catalog,
		names:   names,
		log:     log,
	}
}

// Price returns the effective hourly price, or 0 when none can be resolved.
// Misses are logged and recorded (see Misses).
func (r *Resolver) Price(region, instanceType, platform string, term cost.Term) float64 {
	p, err := r.Lookup(region, instanceType, platform, term)
	if err != nil {
		r.log.Error(err, "price not found",
			"region", region,
			"instanceType", instanceType,
			"platform", platform,
			"term", term.String())

		r.mu.Lock()
		r.misses = append(r.misses, Miss{
			Region:       region,
			InstanceType: instanceType,
			Platform:     platform,
			Term:         term,
			Err:          err,
		})
		r.mu.Unlock()
		return 0
	}
	return p
}

// Misses returns every lookup Price could not resolve, in call order.
func (r *Resolver) Misses() []Miss {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Miss(nil), r.misses...)
}

// Lookup resolves the effective hourly price. Every failure, including an
// identifier missing from the name tables, wraps ErrPriceNotFound.
func (r *Resolver) Lookup(region, instanceType, platform string, term cost.Term) (float64, error) {
	family, size, err := naming.SplitInstanceType(instanceType)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPriceNotFound, err)
	}
	familyToken, err := r.names.Families.ToCatalog(family)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPriceNotFound, err)
	}
	sizeToken, err := r.names.Sizes.ToCatalog(size)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPriceNotFound, err)
	}

	switch term {
	case cost.TermNone:
		return r.onDemand(region, familyToken, sizeToken, platform)
	case cost.TermOneYear, cost.TermThreeYear:
		return r.reserved(region, familyToken, sizeToken, platform, term)
	default:
		return 0, fmt.Errorf("%w: unsupported term %s", ErrPriceNotFound, term)
	}
}

func (r *Resolver) onDemand(region, familyToken, sizeToken, platform string) (float64, error) {
	regionToken, err := r.names.Regions.ToCatalog(region)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPriceNotFound, err)
	}

	column := platform
	if platform == aws.PlatformWindows {
		column = onDemandWindows
	}

	p, ok := r.catalog.OnDemand.Lookup(regionToken, familyToken, sizeToken, column)
	if !ok {
		return 0, fmt.Errorf("%w: on-demand %s/%s/%s/%s", ErrPriceNotFound, regionToken, familyToken, sizeToken, column)
	}
	return p, nil
}

func (r *Resolver) reserved(region, familyToken, sizeToken, platform string, term cost.Term) (float64, error) {
	var doc *Index
	switch platform {
	case aws.PlatformLinux:
		doc = r.catalog.ReservedLinux
	case aws.PlatformWindows:
		doc = r.catalog.ReservedWindows
	default:
		return 0, fmt.Errorf("%w: no reserved pricing for platform %q", ErrPriceNotFound, platform)
	}

	regionToken, err := r.names.ReservedRegions.ToCatalog(region)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPriceNotFound, err)
	}
	typeToken := naming.ReservedFamily(familyToken)

	hourlyColumn := fmt.Sprintf("yrTerm%dHourly", term.Years())
	upfrontColumn := fmt.Sprintf("yrTerm%d", term.Years())

	hourly, ok := doc.Lookup(regionToken, typeToken, sizeToken, hourlyColumn)
	if !ok {
		return 0, fmt.Errorf("%w: reserved %s/%s/%s/%s", ErrPriceNotFound, regionToken, typeToken, sizeToken, hourlyColumn)
	}
	upfront, ok := doc.Lookup(regionToken, typeToken, sizeToken, upfrontColumn)
	if !ok {
		return 0, fmt.Errorf("%w: reserved %s/%s/%s/%s", ErrPriceNotFound, regionToken, typeToken, sizeToken, upfrontColumn)
	}
	return AmortizedHourly(hourly, upfront, term.Years()), nil
}
