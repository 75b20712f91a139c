package report

import (
	"fmt"

	"github.com/Veraticus/freightflow/internal/model"
	"github.com/Veraticus/freightflow/internal/rollup"
	"github.com/Veraticus/freightflow/internal/table"
)

// Column names of the shipment export.
const (
	ColShipment = "Verzending-ID"
	ColWeight   = "Kg"
	ColVolume   = "m³"
	ColType     = "Type"
)

// Shipments reports weight, volume and load meters per unique shipment.
type Shipments struct{}

// NewShipments returns the shipments report.
func NewShipments() *Shipments {
	return &Shipments{}
}

// Name implements Variant.
func (s *Shipments) Name() string {
	return "shipments"
}

// Schema implements Variant.
func (s *Shipments) Schema() table.Schema {
	return table.Schema{
		Required: []string{ColShipment, ColWeight, ColVolume, ColLM, ColType},
		Numeric:  []string{ColWeight, ColVolume, ColLM},
	}
}

// Build implements Variant.
func (s *Shipments) Build(t *table.Table) (*Report, error) {
	if t.Empty() {
		return noDataReport("The input contains no records."), nil
	}

	shipments, err := rollup.Rollup(t.Records, rollup.Spec{
		Keys: []string{ColShipment},
		Fields: []rollup.Field{
			{Source: ColWeight, Policy: rollup.PolicySum},
			{Source: ColVolume, Policy: rollup.PolicySum},
			{Source: ColLM, Policy: rollup.PolicySum},
			{Source: ColType, Policy: rollup.PolicyFirst},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("shipment rollup: %w", err)
	}
	if len(shipments) == 0 {
		return noDataReport(fmt.Sprintf("No records carry a %q.", ColShipment)), nil
	}

	rep := newReport()
	rep.Sections = append(rep.Sections, shipmentTotals(shipments))

	perType, err := shipmentsPerType(shipments)
	if err != nil {
		return nil, err
	}
	rep.Sections = append(rep.Sections, perType)

	return rep, nil
}

func shipmentTotals(shipments []model.Record) Section {
	var kg, m3, lm float64
	for _, s := range shipments {
		kg += s.Get(ColWeight).FloatOrZero()
		m3 += s.Get(ColVolume).FloatOrZero()
		lm += s.Get(ColLM).FloatOrZero()
	}

	return section("Totals",
		[]string{"Unique shipments", "Total Kg", "Total m³", "Total LM"},
		[][]Cell{{
			countCell(len(shipments)),
			quantityCell(kg, "kg"),
			quantityCell(m3, "m³"),
			quantityCell(lm, ""),
		}})
}

// shipmentsPerType groups unique shipments by the type of their first row.
// Shipments without a type are left out.
func shipmentsPerType(shipments []model.Record) (Section, error) {
	title := "Totals per type"
	columns := []string{ColType, "Shipments", "Kg", "m³", "LM"}

	types, err := rollup.Rollup(shipments, rollup.Spec{
		Keys: []string{ColType},
		Fields: []rollup.Field{
			{Source: ColWeight, Policy: rollup.PolicySum},
			{Source: ColVolume, Policy: rollup.PolicySum},
			{Source: ColLM, Policy: rollup.PolicySum},
		},
	})
	if err != nil {
		return Section{}, fmt.Errorf("type rollup: %w", err)
	}
	if len(types) == 0 {
		return noDataSection(title, "No shipments carry a type.", columns), nil
	}

	rows := make([][]Cell, 0, len(types))
	for _, typ := range types {
		rows = append(rows, []Cell{
			valueCell(typ.Get(ColType)),
			countCell(int(typ.Get(model.FieldRows).FloatOrZero())),
			quantityCell(typ.Get(ColWeight).FloatOrZero(), "kg"),
			quantityCell(typ.Get(ColVolume).FloatOrZero(), "m³"),
			quantityCell(typ.Get(ColLM).FloatOrZero(), ""),
		})
	}
	return section(title, columns, rows), nil
}
