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

package pricing

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Currency is the only currency prices are read in.
const Currency = "USD"

// document mirrors the EC2 pricing catalog JSON:
//
//	config.regions[].instanceTypes[].sizes[].valueColumns[].prices.USD
type document struct {
	Config struct {
		Regions []regionEntry `json:"regions"`
	} `json:"config"`
}

type regionEntry struct {
	Region        string          `json:"region"`
	InstanceTypes []instanceEntry `json:"instanceTypes"`
}

type instanceEntry struct {
	Type  string      `json:"type"`
	Sizes []sizeEntry `json:"sizes"`
}

type sizeEntry struct {
	Size         string        `json:"size"`
	ValueColumns []valueColumn `json:"valueColumns"`
}

type valueColumn struct {
	Name   string           `json:"name"`
	Prices map[string]price `json:"prices"`
}

// price is a catalog price cell. The catalog quotes prices as strings
// ("0.120", or "N/A" when not offered) but numbers are accepted too.
type price string

func (p *price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = price(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) == 0 || !strings.ContainsRune("-0123456789", rune(data[0])) {
		return fmt.Errorf("price must be a string or a number, got %s", data)
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("price must be a string or a number, got %s: %w", data, err)
	}
	*p = price(n.String())
	return nil
}

// float returns the numeric value of the cell.
func (p price) float() (float64, bool) {
	v, err := strconv.ParseFloat(string(p), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// key addresses one price in a document, in catalog vocabulary.
type key struct {
	region       string
	instanceType string
	size         string
	column       string
}

// cell is an indexed price. numeric is false when the catalog lists the
// column but its value is not a number.
type cell struct {
	value   float64
	numeric bool
}

// Index is a parsed catalog document, distilled for O(1) lookups.
type Index struct {
	cells map[key]cell
}

// ParseDocument parses and indexes a catalog document. When a key appears
// more than once, the first occurrence in document order wins.
func ParseDocument(data []byte) (*Index, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse pricing document: %w", err)
	}

	idx := &Index{cells: make(map[key]cell)}
	for _, r := range doc.Config.Regions {
		for _, it := range r.InstanceTypes {
			for _, s := range it.Sizes {
				for _, col := range s.ValueColumns {
					k := key{region: r.Region, instanceType: it.Type, size: s.Size, column: col.Name}
					if _, seen := idx.cells[k]; seen {
						continue
					}
					v, ok := col.Prices[Currency].float()
					idx.cells[k] = cell{value: v, numeric: ok}
				}
			}
		}
	}
	return idx, nil
}

// Lookup returns the price at (region, instance type, size, column), all in
// catalog vocabulary. Returns (0, false) when the key is absent or the price
// is not numeric.
func (i *Index) Lookup(region, instanceType, size, column string) (float64, bool) {
	c, ok := i.cells[key{region: region, instanceType: instanceType, size: size, column: column}]
	if !ok || !c.numeric {
		return 0, false
	}
	return c.value, true
}

// Len returns the number of indexed price cells.
func (i *Index) Len() int {
	return len(i.cells)
}
