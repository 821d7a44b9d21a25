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

// Package report renders statement rows as the HTML statement and as a
// console summary.
package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nextdoor/cloudcash/pkg/cost"
)

// Title is the statement's document title.
const Title = "Amazon cloudcash statement"

//go:embed templates/statement.html.tmpl templates/style.css
var templates embed.FS

var statementTemplate = template.Must(template.ParseFS(templates, "templates/statement.html.tmpl"))

// Meta is run information printed in the statement footer.
type Meta struct {
	RunID     string
	Generated time.Time
}

type statement struct {
	Title     string
	Style     template.CSS
	Rows      []rowView
	RunID     string
	Generated string
}

type rowView struct {
	Level            int
	Label            string
	OnDemand         units
	Reserved         units
	Total            string
	SavingsOneYear   string
	PercentOneYear   string
	SavingsThreeYear string
	PercentThreeYear string
}

// units is a count and its monthly cost; a zero count renders as "-".
type units struct {
	Count int
	Cost  string
}

// RenderHTML writes the statement for rows to w. The stylesheet is inlined
// so the document can be mailed as is.
func RenderHTML(w io.Writer, rows []cost.Row, meta Meta) error {
	style, err := templates.ReadFile("templates/style.css")
	if err != nil {
		return fmt.Errorf("failed to read stylesheet: %w", err)
	}

	doc := statement{
		Title: Title,
		Style: template.CSS(style),
		Rows:  make([]rowView, 0, len(rows)),
		RunID: meta.RunID,
	}
	if !meta.Generated.IsZero() {
		doc.Generated = meta.Generated.UTC().Format(time.RFC3339)
	}
	for _, r := range rows {
		doc.Rows = append(doc.Rows, newRowView(r))
	}

	if err := statementTemplate.Execute(w, doc); err != nil {
		return fmt.Errorf("failed to render statement: %w", err)
	}
	return nil
}

// WriteHTML renders the statement to path, replacing any previous file
// only once rendering has succeeded.
func WriteHTML(path string, rows []cost.Row, meta Meta) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".statement-*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := RenderHTML(tmp, rows, meta); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func newRowView(r cost.Row) rowView {
	s := r.Summary
	return rowView{
		Level:            r.Level,
		Label:            r.Label,
		OnDemand:         units{Count: s.OnDemandCount, Cost: money(s.OnDemandCost)},
		Reserved:         units{Count: s.ReservedCount, Cost: money(s.ReservedCost)},
		Total:            money(s.Total()),
		SavingsOneYear:   money(s.Savings(cost.TermOneYear)),
		PercentOneYear:   percent(s.SavingsPercent(cost.TermOneYear)),
		SavingsThreeYear: money(s.Savings(cost.TermThreeYear)),
		PercentThreeYear: percent(s.SavingsPercent(cost.TermThreeYear)),
	}
}

// money formats a dollar amount with two decimals.
func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// percent formats a percentage truncated toward zero.
func percent(v float64) string {
	return fmt.Sprintf("%d%%", int(v))
}
