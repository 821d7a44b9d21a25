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
	"context"
	"errors"
	"fmt"

	"github.com/nextdoor/cloudcash/pkg/config"
)

// Fetcher retrieves a catalog document by URL.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Invalidator is implemented by fetchers that keep a copy of what they
// fetched. LoadCatalog drops a copy that does not parse, so the next run
// downloads it again.
type Invalidator interface {
	Invalidate(url string) error
}

// Catalog holds the three pricing documents for a run. It is read-only once
// loaded.
type Catalog struct {
	OnDemand        *Index
	ReservedLinux   *Index
	ReservedWindows *Index
}

// LoadCatalog fetches and indexes the on-demand and reserved documents.
func LoadCatalog(ctx context.Context, fetcher Fetcher, urls config.CatalogURLs) (*Catalog, error) {
	load := func(name, url string) (*Index, error) {
		data, err := fetcher.Get(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s pricing from %s: %w", name, url, err)
		}
		idx, err := ParseDocument(data)
		if err != nil {
			err = fmt.Errorf("%s pricing from %s: %w", name, url, err)
			if inv, ok := fetcher.(Invalidator); ok {
				if ierr := inv.Invalidate(url); ierr != nil {
					return nil, errors.Join(err, ierr)
				}
			}
			return nil, err
		}
		return idx, nil
	}

	var (
		c   Catalog
		err error
	)
	if c.OnDemand, err = load("on-demand", urls.OnDemand); err != nil {
		return nil, err
	}
	if c.ReservedLinux, err = load("reserved linux", urls.HeavyLinux); err != nil {
		return nil, err
	}
	if c.ReservedWindows, err = load("reserved windows", urls.HeavyWindows); err != nil {
		return nil, err
	}
	return &c, nil
}
