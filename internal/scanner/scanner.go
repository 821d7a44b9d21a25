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

// Package scanner lists reservations and running instances for every
// configured account and region and matches them into priced resources.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/nextdoor/cloudcash/pkg/aws"
	"github.com/nextdoor/cloudcash/pkg/config"
	"github.com/nextdoor/cloudcash/pkg/cost"
	"github.com/nextdoor/cloudcash/pkg/metrics"
	"github.com/nextdoor/cloudcash/pkg/naming"
)

// Scanner walks accounts and regions one after another. It holds no state
// between calls to Scan.
type Scanner struct {
	// AWS client for making API calls
	AWSClient aws.Client

	// Configuration with AWS account details
	Config *config.Config

	// Names validates configured regions and supplies the default region list.
	Names *naming.Tables

	// Metrics for observability. Optional.
	Metrics *metrics.Metrics

	// Logger
	Log logr.Logger

	// Progress, when set, is called before each account/region is listed.
	Progress func(account, region string)

	// RunID is appended to AssumeRole session names so CloudTrail entries
	// can be tied to a run.
	RunID string
}

// UnusedSlot is a reservation unit that no running instance consumed.
type UnusedSlot struct {
	Account string
	Region  string
	cost.Slot
}

// Result is the outcome of a scan.
type Result struct {
	// Resources holds every non-spot instance with its assigned term, in
	// account, region and listing order.
	Resources []cost.Resource

	// Unused holds the reservation slots left over after matching.
	Unused []UnusedSlot
}

// target is one account/region pair to list.
type target struct {
	account config.Account
	region  string
}

// Scan lists every configured account and region and matches instances to
// reservations. Region lists are checked against the region table before
// any API call is made; a provider error aborts the scan.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	log := s.Log.WithValues("component", "scanner")

	targets, err := s.plan()
	if err != nil {
		return nil, err
	}
	log.Info("starting scan", "accounts", len(s.Config.Accounts), "targets", len(targets))

	startTime := time.Now()
	result := &Result{}
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.Progress != nil {
			s.Progress(t.account.Name, t.region)
		}

		resources, unused, err := s.scanRegion(ctx, t.account, t.region)
		if err != nil {
			return nil, err
		}
		result.Resources = append(result.Resources, resources...)
		for _, slot := range unused {
			result.Unused = append(result.Unused, UnusedSlot{Account: t.account.Name, Region: t.region, Slot: slot})
		}
	}

	log.Info("scan completed",
		"resources", len(result.Resources),
		"unused_reservations", len(result.Unused),
		"duration_seconds", time.Since(startTime).Seconds())
	return result, nil
}

// plan expands the configuration into the ordered list of account/region
// pairs, failing on regions the region table does not know.
func (s *Scanner) plan() ([]target, error) {
	var targets []target
	for _, account := range s.Config.Accounts {
		regions := s.Config.RegionsFor(account)
		if len(regions) == 0 {
			regions = s.Names.Regions.PublicNames()
		}
		for _, region := range regions {
			if _, err := s.Names.Regions.ToCatalog(region); err != nil {
				return nil, fmt.Errorf("account %s: %w", account.Name, err)
			}
			targets = append(targets, target{account: account, region: region})
		}
	}
	return targets, nil
}

// scanRegion lists one account/region and matches its instances against its
// reservations. It returns the matched resources and the unused slots.
func (s *Scanner) scanRegion(
	ctx context.Context,
	account config.Account,
	region string,
) ([]cost.Resource, []cost.Slot, error) {
	log := s.Log.WithValues("account_name", account.Name, "region", region)
	startTime := time.Now()

	ec2Client, err := s.AWSClient.EC2(ctx, s.accountConfig(account, region))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create EC2 client for account %s in %s: %w", account.Name, region, err)
	}

	ris, err := ec2Client.DescribeReservedInstances(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to describe reserved instances for account %s in %s: %w", account.Name, region, err)
	}
	pool := cost.NewSlotPool(ris)
	slots := pool.Len()
	for _, slot := range pool.Remaining() {
		log.V(1).Info("reservation slot",
			"instance_type", slot.InstanceType,
			"availability_zone", slot.AvailabilityZone,
			"term", slot.Term.String())
	}

	instances, err := ec2Client.DescribeInstances(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to describe instances for account %s in %s: %w", account.Name, region, err)
	}
	for i := range instances {
		if instances[i].Region == "" {
			instances[i].Region = region
		}
		log.V(1).Info("instance",
			"instance_id", instances[i].InstanceID,
			"instance_type", instances[i].InstanceType,
			"availability_zone", instances[i].AvailabilityZone,
			"platform", instances[i].NormalizedPlatform(),
			"spot", instances[i].IsSpot())
	}

	resources := cost.MatchReservations(account.Name, instances, pool)
	for _, r := range resources {
		if r.Term.Reserved() {
			log.V(1).Info("using reservation",
				"instance_id", r.InstanceID,
				"instance_type", r.InstanceType,
				"availability_zone", r.AvailabilityZone,
				"term", r.Term.String())
		}
	}

	unused := pool.Remaining()
	for _, slot := range unused {
		// logr has no warning level; unused reservations are reported at Info.
		log.Info("unused reservation",
			"instance_type", slot.InstanceType,
			"availability_zone", slot.AvailabilityZone,
			"term", slot.Term.String())
	}

	duration := time.Since(startTime)
	if s.Metrics != nil {
		s.Metrics.RecordScan(account.Name, region, duration)
		s.Metrics.RecordUnusedReservations(account.Name, region, unused)
	}

	log.Info("scanned region",
		"reservation_slots", slots,
		"instances", len(instances),
		"resources", len(resources),
		"duration_seconds", duration.Seconds())
	return resources, unused, nil
}

func (s *Scanner) accountConfig(account config.Account, region string) aws.AccountConfig {
	ac := aws.AccountConfig{
		Name:            account.Name,
		AccountID:       account.AccountID,
		AccessKeyID:     account.AccessKeyID,
		SecretAccessKey: account.SecretAccessKey,
		AssumeRoleARN:   account.AssumeRoleARN,
		Region:          region,
	}
	if s.RunID != "" {
		ac.SessionName = fmt.Sprintf("cloudcash-%s-%s", account.Name, s.RunID)
	}
	return ac
}
