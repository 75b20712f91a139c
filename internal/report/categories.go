package report

import (
	"fmt"

	"github.com/Veraticus/freightflow/internal/classification"
	"github.com/Veraticus/freightflow/internal/model"
	"github.com/Veraticus/freightflow/internal/pattern"
	"github.com/Veraticus/freightflow/internal/pivot"
	"github.com/Veraticus/freightflow/internal/rollup"
	"github.com/Veraticus/freightflow/internal/table"
)

// Default columns of the service-class report besides the rule fields.
const (
	DefaultCategoryDateField     = "Datum"
	DefaultCategoryCustomerField = "Klant"
	DefaultCategoryMeasureField  = "LM"
)

// Categories classifies shipments into service classes and counts them per
// class and month.
type Categories struct {
	Rules         model.RuleSet
	DateField     string
	CustomerField string
	// MeasureField is summed per shipment when the input carries it.
	MeasureField string
}

// NewCategories returns the service-class report over the default rules.
func NewCategories() *Categories {
	return &Categories{
		Rules:         classification.DefaultRuleSet(),
		DateField:     DefaultCategoryDateField,
		CustomerField: DefaultCategoryCustomerField,
		MeasureField:  DefaultCategoryMeasureField,
	}
}

// Name implements Variant.
func (c *Categories) Name() string {
	return "categories"
}

// Schema implements Variant.
func (c *Categories) Schema() table.Schema {
	required := []string{c.Rules.IDField}
	if c.Rules.TypeField != "" {
		required = append(required, c.Rules.TypeField)
	}
	required = append(required, c.DateField, c.CustomerField)

	schema := table.Schema{
		Required: required,
		Dates:    []string{c.DateField},
	}
	if c.MeasureField != "" {
		schema.Numeric = []string{c.MeasureField}
		schema.Optional = []string{c.MeasureField}
	}
	return schema
}

// Build implements Variant.
func (c *Categories) Build(t *table.Table) (*Report, error) {
	if err := c.Rules.Validate(); err != nil {
		return nil, err
	}
	if t.Empty() {
		return noDataReport("The input contains no records."), nil
	}

	classified, err := pattern.NewMatcher(c.Rules).ClassifyAll(t.Records)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	fields := []rollup.Field{
		{Source: model.FieldCategory, Policy: rollup.PolicyFirst},
		{Source: c.DateField, Policy: rollup.PolicyFirst},
		{Source: c.CustomerField, Policy: rollup.PolicyFirst},
	}
	measured := c.MeasureField != "" && t.Has(c.MeasureField)
	if measured {
		fields = append(fields, rollup.Field{Source: c.MeasureField, Policy: rollup.PolicySum})
	}

	shipments, err := rollup.Rollup(classified, rollup.Spec{
		Keys:   []string{c.Rules.IDField},
		Fields: fields,
	})
	if err != nil {
		return nil, fmt.Errorf("shipment rollup: %w", err)
	}
	if len(shipments) == 0 {
		return noDataReport(fmt.Sprintf("No records carry a %q.", c.Rules.IDField)), nil
	}

	rep := newReport()

	totals, err := c.totals(shipments, measured)
	if err != nil {
		return nil, err
	}
	rep.Sections = append(rep.Sections, totals)

	monthly, err := c.perMonth(shipments)
	if err != nil {
		return nil, err
	}
	rep.Sections = append(rep.Sections, monthly)

	return rep, nil
}

func (c *Categories) totals(shipments []model.Record, measured bool) (Section, error) {
	columns := []string{"Category", "Shipments", "Customers"}
	fields := []rollup.Field{
		{Source: c.CustomerField, As: "customers", Policy: rollup.PolicyCountDistinct},
	}
	if measured {
		columns = append(columns, c.MeasureField)
		fields = append(fields, rollup.Field{Source: c.MeasureField, Policy: rollup.PolicySum})
	}

	categories, err := rollup.Rollup(shipments, rollup.Spec{
		Keys:   []string{model.FieldCategory},
		Fields: fields,
	})
	if err != nil {
		return Section{}, fmt.Errorf("category rollup: %w", err)
	}

	rows := make([][]Cell, 0, len(categories))
	for _, cat := range categories {
		row := []Cell{
			textCell(cat.Category()),
			countCell(int(cat.Get(model.FieldRows).FloatOrZero())),
			countCell(int(cat.Get("customers").FloatOrZero())),
		}
		if measured {
			row = append(row, quantityCell(cat.Get(c.MeasureField).FloatOrZero(), ""))
		}
		rows = append(rows, row)
	}
	return section("Shipments per category", columns, rows), nil
}

func (c *Categories) perMonth(shipments []model.Record) (Section, error) {
	title := "Shipments per category and month"

	pt, err := pivot.Build(shipments, pivot.Spec{
		RowKey:    model.FieldCategory,
		DateField: c.DateField,
		Percent:   true,
	})
	if err != nil {
		return Section{}, fmt.Errorf("category pivot: %w", err)
	}

	columns := []string{"Category"}
	for _, p := range pt.Periods {
		columns = append(columns, p.String()+" A", p.String()+" P")
	}
	if len(pt.Rows) == 0 {
		return noDataSection(title, "No dated shipments.", columns), nil
	}

	rows := make([][]Cell, 0, len(pt.Rows))
	for _, pr := range pt.Rows {
		row := []Cell{textCell(pr.Key)}
		for _, cell := range pr.Cells {
			row = append(row, countCell(cell.Count), percentCell(cell.Percent))
		}
		rows = append(rows, row)
	}
	return section(title, columns, rows), nil
}
