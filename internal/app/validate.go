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

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/nextdoor/cloudcash/pkg/aws"
	"github.com/nextdoor/cloudcash/pkg/config"
	"github.com/nextdoor/cloudcash/pkg/metrics"
)

// ValidateAccounts checks that every configured account can list
// reservations in its first region (or the default region when it has no
// region list). All accounts are tried; the failures are joined.
func ValidateAccounts(
	ctx context.Context,
	cfg *config.Config,
	validator aws.Validator,
	m *metrics.Metrics,
	log logr.Logger,
) error {
	var errs []error
	for _, account := range cfg.Accounts {
		region := cfg.DefaultRegion
		if regions := cfg.RegionsFor(account); len(regions) > 0 {
			region = regions[0]
		}
		accountLog := log.WithValues("account_name", account.Name, "region", region)

		startTime := time.Now()
		err := validator.ValidateAccountAccess(ctx, aws.AccountConfig{
			Name:            account.Name,
			AccountID:       account.AccountID,
			AccessKeyID:     account.AccessKeyID,
			SecretAccessKey: account.SecretAccessKey,
			AssumeRoleARN:   account.AssumeRoleARN,
			Region:          region,
		})
		duration := time.Since(startTime)
		if m != nil {
			m.RecordAccountValidation(account.AccountID, account.Name, err == nil, duration)
		}

		if err != nil {
			accountLog.Error(err, "account validation failed")
			errs = append(errs, err)
			continue
		}
		accountLog.Info("account validated", "duration_seconds", duration.Seconds())
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d accounts failed validation: %w", len(errs), len(cfg.Accounts), errors.Join(errs...))
	}
	return nil
}
