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

package app_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nextdoor/cloudcash/internal/app"
	"github.com/nextdoor/cloudcash/pkg/aws"
	"github.com/nextdoor/cloudcash/pkg/config"
	"github.com/nextdoor/cloudcash/pkg/cost"
	"github.com/nextdoor/cloudcash/pkg/metrics"
	"github.com/nextdoor/cloudcash/pkg/pricing"
)

// Prices chosen so the amortized reserved rates are round numbers:
// 1yr = 0.04 + 175.2/8760 = 0.06, 3yr = 0.02 + 525.6/8760/3 = 0.04.
const (
	onDemandDoc = `{"config":{"regions":[{"region":"us-east","instanceTypes":[
		{"type":"genODI","sizes":[
			{"size":"lg","valueColumns":[{"name":"linux","prices":{"USD":"0.10"}}]},
			{"size":"xl","valueColumns":[{"name":"linux","prices":{"USD":"N/A"}}]}
		]}
	]}]}}`

	reservedLinuxDoc = `{"config":{"regions":[{"region":"us-east","instanceTypes":[
		{"type":"genResI","sizes":[{"size":"lg","valueColumns":[
			{"name":"yrTerm1","prices":{"USD":"175.2"}},
			{"name":"yrTerm1Hourly","prices":{"USD":"0.04"}},
			{"name":"yrTerm3","prices":{"USD":"525.6"}},
			{"name":"yrTerm3Hourly","prices":{"USD":"0.02"}}
		]}]}
	]}]}}`

	reservedWindowsDoc = `{"config":{"regions":[]}}`

	constantsTemplate = `
regions:
  us-east: us-east-1
  us-west-2: us-west-2
types:
  genODI: m4
subtypes:
  lg: large
  xl: xlarge
urls:
  ondemand: %[1]s/pricing-on-demand-instances.json
  heavylinux: %[1]s/ri-heavy-linux.json
  heavywin: %[1]s/ri-heavy-mswin.json
`
)

func monthly(hourly float64) float64 {
	return cost.MonthlyCost(hourly)
}

var _ = Describe("Run", func() {
	var (
		ctx      context.Context
		dir      string
		server   *httptest.Server
		requests atomic.Int32
		mock     *aws.MockClient
		cfg      *config.Config
		stdout   *bytes.Buffer
		docs     map[string]string
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		requests.Store(0)

		docs = map[string]string{
			"/pricing-on-demand-instances.json": onDemandDoc,
			"/ri-heavy-linux.json":              reservedLinuxDoc,
			"/ri-heavy-mswin.json":              reservedWindowsDoc,
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			body, ok := docs[r.URL.Path]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(body))
		}))
		DeferCleanup(server.Close)

		constantsFile := filepath.Join(dir, "constants.yml")
		Expect(os.WriteFile(constantsFile, []byte(fmt.Sprintf(constantsTemplate, server.URL)), 0o644)).To(Succeed())

		mock = aws.NewMockClient()
		east := mock.EC2For("prod", "us-east-1")
		east.ReservedInstances = []aws.ReservedInstance{{
			ReservedInstanceID: "ri-1",
			InstanceType:       "m4.large",
			AvailabilityZone:   "us-east-1a",
			InstanceCount:      1,
			Duration:           aws.SecondsPerYear,
			State:              "active",
		}}
		east.Instances = []aws.Instance{
			{InstanceID: "i-1", InstanceType: "m4.large", AvailabilityZone: "us-east-1a", State: "running"},
			{InstanceID: "i-2", InstanceType: "m4.large", AvailabilityZone: "us-east-1a", State: "running"},
		}

		cfg = &config.Config{
			Accounts:      []config.Account{{Name: "prod"}},
			DefaultRegion: "us-east-1",
			Regions:       []string{"us-east-1"},
			Output:        filepath.Join(dir, "bill.html"),
			CacheDir:      filepath.Join(dir, "cache"),
			ConstantsFile: constantsFile,
			MetricsFile:   filepath.Join(dir, "cloudcash.prom"),
		}
		stdout = &bytes.Buffer{}
	})

	run := func() (*app.Result, error) {
		return app.Run(ctx, cfg, app.Options{
			AWSClient:  mock,
			HTTPClient: server.Client(),
			Stdout:     stdout,
			RunID:      "run-1",
			Log:        logr.Discard(),
		})
	}

	Context("with two on-demand m4.large instances and one 1-year reservation", func() {
		It("splits the fleet between reserved and on-demand", func() {
			result, err := run()
			Expect(err).NotTo(HaveOccurred())

			By("checking the Total row")
			Expect(result.Rows).To(HaveLen(4))
			total := result.Rows[0]
			Expect(total.Label).To(Equal("Total"))
			Expect(total.Summary.ReservedCount).To(Equal(1))
			Expect(total.Summary.OnDemandCount).To(Equal(1))
			Expect(total.Summary.ReservedCost).To(BeNumerically("~", monthly(0.06), 1e-9))
			Expect(total.Summary.OnDemandCost).To(BeNumerically("~", monthly(0.10), 1e-9))
			Expect(total.Summary.Total()).To(BeNumerically("~", monthly(0.16), 1e-9))

			By("checking savings against the reserved equivalents")
			Expect(total.Summary.Savings(cost.TermOneYear)).To(BeNumerically("~", monthly(0.04), 1e-9))
			Expect(total.Summary.Savings(cost.TermThreeYear)).To(BeNumerically("~", monthly(0.06), 1e-9))
			Expect(total.Summary.SavingsPercent(cost.TermOneYear)).To(BeNumerically("~", 25, 1e-9))
			Expect(total.Summary.SavingsPercent(cost.TermThreeYear)).To(BeNumerically("~", 37.5, 1e-9))

			By("checking the hierarchy")
			Expect([]string{result.Rows[1].Label, result.Rows[2].Label, result.Rows[3].Label}).
				To(Equal([]string{"prod", "us-east-1", "m4.large"}))

			Expect(result.Unused).To(BeEmpty())
			Expect(result.Misses).To(BeEmpty())
		})

		It("writes the statement, the console summary and the metrics file", func() {
			_, err := run()
			Expect(err).NotTo(HaveOccurred())

			html, err := os.ReadFile(cfg.Output)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(html)).To(ContainSubstring("<title>Amazon cloudcash statement</title>"))
			Expect(string(html)).To(ContainSubstring(`<td class="label">m4.large</td>`))
			Expect(string(html)).To(ContainSubstring("run run-1 generated"))

			Expect(stdout.String()).To(ContainSubstring("Total"))
			Expect(stdout.String()).To(ContainSubstring("      m4.large"))

			prom, err := os.ReadFile(cfg.MetricsFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(prom)).To(ContainSubstring(metrics.MetricLastRunSuccess + " 1"))
			Expect(string(prom)).To(ContainSubstring(metrics.MetricInstanceCount))
			Expect(string(prom)).To(ContainSubstring(`coverage="reserved_instance"`))
		})

		It("fetches catalog documents once and reuses the cache", func() {
			first, err := run()
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Cache.Misses).To(Equal(3))
			Expect(requests.Load()).To(Equal(int32(3)))

			second, err := run()
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Cache.Hits).To(Equal(3))
			Expect(second.Cache.Misses).To(BeZero())
			Expect(requests.Load()).To(Equal(int32(3)))
		})
	})

	Context("when a price is missing from the catalog", func() {
		BeforeEach(func() {
			east := mock.EC2For("prod", "us-east-1")
			east.Instances = append(east.Instances,
				aws.Instance{InstanceID: "i-3", InstanceType: "m4.xlarge", AvailabilityZone: "us-east-1b"})
		})

		It("costs the instance at zero and reports the miss", func() {
			result, err := run()
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Misses).NotTo(BeEmpty())
			for _, miss := range result.Misses {
				Expect(miss.InstanceType).To(Equal("m4.xlarge"))
				Expect(errors.Is(miss.Err, pricing.ErrPriceNotFound)).To(BeTrue())
			}

			Expect(result.Rows[0].Summary.OnDemandCount).To(Equal(2))
			Expect(result.Rows[0].Summary.OnDemandCost).To(BeNumerically("~", monthly(0.10), 1e-9))

			prom, err := os.ReadFile(cfg.MetricsFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(prom)).To(ContainSubstring(metrics.MetricPriceNotFound))
		})
	})

	Context("when reservations are left over", func() {
		BeforeEach(func() {
			mock.EC2For("prod", "us-east-1").Instances = nil
		})

		It("reports them as unused", func() {
			result, err := run()
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Unused).To(HaveLen(1))
			Expect(result.Unused[0].InstanceType).To(Equal("m4.large"))
			Expect(result.Unused[0].Term).To(Equal(cost.TermOneYear))
			Expect(result.Rows).To(HaveLen(1), "only the Total row")
		})
	})

	Context("when the provider fails", func() {
		BeforeEach(func() {
			mock.EC2Error = errors.New("access denied")
		})

		It("aborts the run and still writes a failed metrics file", func() {
			_, err := run()
			Expect(err).To(MatchError(ContainSubstring("access denied")))

			_, statErr := os.Stat(cfg.Output)
			Expect(os.IsNotExist(statErr)).To(BeTrue())

			prom, err := os.ReadFile(cfg.MetricsFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(prom)).To(ContainSubstring(metrics.MetricLastRunSuccess + " 0"))
		})
	})

	Context("when the catalog serves a document that does not parse", func() {
		BeforeEach(func() {
			docs["/ri-heavy-linux.json"] = "<html>maintenance</html>"
		})

		It("does not keep the broken copy for the next run", func() {
			_, err := run()
			Expect(err).To(MatchError(ContainSubstring("reserved linux pricing")))
			cached, err := os.ReadDir(cfg.CacheDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(cached).To(HaveLen(1), "only the on-demand document stays cached")

			docs["/ri-heavy-linux.json"] = reservedLinuxDoc
			result, err := run()
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Records).To(HaveLen(2))
		})
	})

	Context("when the catalog cannot be fetched", func() {
		BeforeEach(func() {
			server.Close()
		})

		It("fails before scanning", func() {
			_, err := run()
			Expect(err).To(MatchError(ContainSubstring("on-demand pricing")))
			Expect(mock.EC2Calls).To(BeEmpty())
		})
	})
})

var _ = Describe("ValidateAccounts", func() {
	It("validates every account and joins the failures", func() {
		mock := aws.NewMockClient()
		mock.EC2For("broken", "eu-west-1").DescribeReservedInstancesError = errors.New("unauthorized")

		cfg := &config.Config{
			DefaultRegion: "us-east-1",
			Accounts: []config.Account{
				{Name: "prod", AccountID: "111111111111"},
				{Name: "broken", AccountID: "222222222222", Regions: []string{"eu-west-1"}},
			},
		}

		err := app.ValidateAccounts(context.Background(), cfg, aws.NewAccountValidator(mock), nil, logr.Discard())
		Expect(err).To(MatchError(ContainSubstring("1 of 2 accounts failed validation")))
		Expect(err).To(MatchError(ContainSubstring("unauthorized")))

		Expect(mock.EC2Calls).To(HaveLen(2))
		Expect(mock.EC2Calls[0].Region).To(Equal("us-east-1"))
		Expect(mock.EC2Calls[1].Region).To(Equal("eu-west-1"))
	})

	It("succeeds when every account answers", func() {
		mock := aws.NewMockClient()
		cfg := &config.Config{
			DefaultRegion: "us-east-1",
			Accounts:      []config.Account{{Name: "prod"}},
		}
		Expect(app.ValidateAccounts(context.Background(), cfg, aws.NewAccountValidator(mock), nil, logr.Discard())).To(Succeed())
	})
})
