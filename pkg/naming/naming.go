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

// Package naming translates between public AWS names (us-east-1, m1.large)
// and the vocabulary used inside the EC2 pricing catalog documents
// (us-east, stdODI / lg).
//
// The tables are built once from config.Constants and passed explicitly to
// every component that needs them.
package naming

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nextdoor/cloudcash/pkg/config"
)

// ErrUnknownIdentifier is returned when a name has no counterpart in a table.
var ErrUnknownIdentifier = errors.New("unknown identifier")

// Table is a bijection between catalog names and public names.
type Table struct {
	kind      string
	toCatalog map[string]string
	toPublic  map[string]string
}

// NewTable builds a table from a catalog -> public mapping. kind names the
// table in error messages ("region", "family", "size").
func NewTable(kind string, catalogToPublic map[string]string) (*Table, error) {
	t := &Table{
		kind:      kind,
		toCatalog: make(map[string]string, len(catalogToPublic)),
		toPublic:  make(map[string]string, len(catalogToPublic)),
	}
	for catalog, public := range catalogToPublic {
		if catalog == "" || public == "" {
			return nil, fmt.Errorf("%s table: empty name in mapping %q -> %q", kind, catalog, public)
		}
		if prev, ok := t.toCatalog[public]; ok {
			return nil, fmt.Errorf("%s table: %q is mapped from both %q and %q", kind, public, prev, catalog)
		}
		t.toCatalog[public] = catalog
		t.toPublic[catalog] = public
	}
	return t, nil
}

// ToCatalog returns the catalog name for a public name.
func (t *Table) ToCatalog(public string) (string, error) {
	if v, ok := t.toCatalog[public]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%s %q: %w", t.kind, public, ErrUnknownIdentifier)
}

// ToPublic returns the public name for a catalog name.
func (t *Table) ToPublic(catalog string) (string, error) {
	if v, ok := t.toPublic[catalog]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%s %q: %w", t.kind, catalog, ErrUnknownIdentifier)
}

// PublicNames returns every public name in the table, sorted.
func (t *Table) PublicNames() []string {
	names := make([]string, 0, len(t.toCatalog))
	for public := range t.toCatalog {
		names = append(names, public)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.toCatalog)
}

// Tables groups the four translation tables.
type Tables struct {
	// Regions translates regions for the on-demand document.
	Regions *Table
	// ReservedRegions translates regions for the reserved documents.
	ReservedRegions *Table
	// Families translates the instance family half of an instance type.
	Families *Table
	// Sizes translates the size half of an instance type.
	Sizes *Table
}

// NewTables builds the translation tables from the constants.
//
// The reserved region table is the identity over every public region, with
// the constants' reserved overrides replacing the identity entry of the
// region they name.
func NewTables(c *config.Constants) (*Tables, error) {
	regions, err := NewTable("region", c.Regions)
	if err != nil {
		return nil, err
	}

	overridden := make(map[string]bool, len(c.ReservedRegions))
	for _, public := range c.ReservedRegions {
		overridden[public] = true
	}
	reserved := make(map[string]string, regions.Len())
	for catalog, public := range c.ReservedRegions {
		reserved[catalog] = public
	}
	for _, public := range regions.PublicNames() {
		if overridden[public] {
			continue
		}
		if _, taken := reserved[public]; taken {
			return nil, fmt.Errorf("reserved region table: %q is both an override and a region name", public)
		}
		reserved[public] = public
	}
	reservedRegions, err := NewTable("reserved region", reserved)
	if err != nil {
		return nil, err
	}

	families, err := NewTable("family", c.Types)
	if err != nil {
		return nil, err
	}
	sizes, err := NewTable("size", c.Subtypes)
	if err != nil {
		return nil, err
	}

	return &Tables{
		Regions:         regions,
		ReservedRegions: reservedRegions,
		Families:        families,
		Sizes:           sizes,
	}, nil
}

// ReservedFamily derives the reserved catalog family token from the on-demand
// one: every "OD" becomes "Res" (stdODI -> stdResI).
func ReservedFamily(onDemandToken string) string {
	return strings.ReplaceAll(onDemandToken, "OD", "Res")
}

// SplitInstanceType splits "m4.large" into its family and size.
func SplitInstanceType(instanceType string) (family, size string, err error) {
	parts := strings.Split(instanceType, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("instance type %q: %w", instanceType, ErrUnknownIdentifier)
	}
	return parts[0], parts[1], nil
}
