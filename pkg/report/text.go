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

package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/nextdoor/cloudcash/pkg/cost"
)

// RenderText writes a console summary of rows to w, one line per row,
// indented by level.
func RenderText(w io.Writer, rows []cost.Row) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	fmt.Fprintln(tw, "NAME\tON-DEMAND #\tON-DEMAND $/MO\tRESERVED #\tRESERVED $/MO\tTOTAL $/MO\tSAVE 1YR $/MO\tSAVE 1YR %\tSAVE 3YR $/MO\tSAVE 3YR %")
	for _, r := range rows {
		s := r.Summary
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			label(r),
			count(s.OnDemandCount),
			dollars(s.OnDemandCost, s.OnDemandCount),
			count(s.ReservedCount),
			dollars(s.ReservedCost, s.ReservedCount),
			humanize.FormatFloat("#,###.##", s.Total()),
			humanize.FormatFloat("#,###.##", s.Savings(cost.TermOneYear)),
			percent(s.SavingsPercent(cost.TermOneYear)),
			humanize.FormatFloat("#,###.##", s.Savings(cost.TermThreeYear)),
			percent(s.SavingsPercent(cost.TermThreeYear)),
		)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// label indents a row label by its level.
func label(r cost.Row) string {
	return strings.Repeat("  ", r.Level) + r.Label
}

func count(n int) string {
	if n == 0 {
		return "-"
	}
	return humanize.Comma(int64(n))
}

func dollars(v float64, n int) string {
	if n == 0 {
		return "-"
	}
	return humanize.FormatFloat("#,###.##", v)
}
