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

// Package app runs one cloudcash pass: load the pricing catalog, scan the
// fleet, price it and write the statement.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nextdoor/cloudcash/internal/cache"
	"github.com/nextdoor/cloudcash/internal/scanner"
	"github.com/nextdoor/cloudcash/pkg/aws"
	"github.com/nextdoor/cloudcash/pkg/config"
	"github.com/nextdoor/cloudcash/pkg/cost"
	"github.com/nextdoor/cloudcash/pkg/metrics"
	"github.com/nextdoor/cloudcash/pkg/naming"
	"github.com/nextdoor/cloudcash/pkg/pricing"
	"github.com/nextdoor/cloudcash/pkg/report"
)

// Options carries the collaborators of a run. Zero values select the
// production defaults.
type Options struct {
	// AWSClient lists the fleet. Defaults to a real client.
	AWSClient aws.Client

	// HTTPClient fetches catalog documents. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Stdout receives the console summary. Nil disables it.
	Stdout io.Writer

	// Progress is called before each account/region is listed.
	Progress func(account, region string)

	// RunID identifies the run in logs, AssumeRole session names and the
	// statement footer.
	RunID string

	Log logr.Logger
}

// Result is what a run produced.
type Result struct {
	Records []cost.Record
	Rows    []cost.Row
	Unused  []scanner.UnusedSlot
	Misses  []pricing.Miss
	Cache   cache.Stats
}

// Run performs one pass with cfg. The metrics file, when configured, is
// written even if the run fails.
func Run(ctx context.Context, cfg *config.Config, opts Options) (result *Result, err error) {
	log := opts.Log.WithValues("run_id", opts.RunID)
	startTime := time.Now()

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	defer func() {
		m.RecordRun(err == nil)
		if cfg.MetricsFile == "" {
			return
		}
		if werr := metrics.WriteToTextfile(cfg.MetricsFile, reg); werr != nil {
			log.Error(werr, "failed to write metrics file", "path", cfg.MetricsFile)
			if err == nil {
				err = werr
			}
		}
	}()

	constants, err := config.LoadConstants(cfg.ConstantsFile)
	if err != nil {
		return nil, err
	}
	names, err := naming.NewTables(constants)
	if err != nil {
		return nil, fmt.Errorf("failed to build name tables: %w", err)
	}

	docs, err := cache.NewHTTPCache(cfg.CacheDir, opts.HTTPClient, log)
	if err != nil {
		return nil, err
	}
	catalog, err := pricing.LoadCatalog(ctx, docs, constants.URLs)
	stats := docs.Stats()
	m.RecordCatalogRequests(stats.Hits, stats.Misses)
	if err != nil {
		return nil, err
	}
	log.Info("loaded pricing catalog",
		"on_demand_prices", catalog.OnDemand.Len(),
		"reserved_linux_prices", catalog.ReservedLinux.Len(),
		"reserved_windows_prices", catalog.ReservedWindows.Len())

	awsClient := opts.AWSClient
	if awsClient == nil {
		// coverage:ignore - requires real AWS credentials
		awsClient, err = aws.NewClient(ctx, aws.ClientConfig{DefaultRegion: cfg.DefaultRegion})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS client: %w", err)
		}
	}

	s := &scanner.Scanner{
		AWSClient: awsClient,
		Config:    cfg,
		Names:     names,
		Metrics:   m,
		Log:       log,
		Progress:  opts.Progress,
		RunID:     opts.RunID,
	}
	scan, err := s.Scan(ctx)
	if err != nil {
		return nil, err
	}

	resolver := pricing.NewResolver(catalog, names, log)
	records := cost.NewRecords(scan.Resources, resolver)
	misses := resolver.Misses()
	for _, miss := range misses {
		m.RecordPriceMiss(miss.Region, miss.InstanceType, miss.Platform, miss.Term)
	}
	m.UpdateCostMetrics(records)

	rows := cost.Rollup(records)
	if err := report.WriteHTML(cfg.Output, rows, report.Meta{RunID: opts.RunID, Generated: time.Now()}); err != nil {
		return nil, err
	}
	log.Info("generated statement", "path", cfg.Output)

	if opts.Stdout != nil {
		if err := report.RenderText(opts.Stdout, rows); err != nil {
			return nil, err
		}
	}

	log.Info("run completed",
		"records", len(records),
		"unused_reservations", len(scan.Unused),
		"prices_not_found", len(misses),
		"duration_seconds", time.Since(startTime).Seconds())

	return &Result{
		Records: records,
		Rows:    rows,
		Unused:  scan.Unused,
		Misses:  misses,
		Cache:   stats,
	}, nil
}
