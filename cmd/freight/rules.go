package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/freightflow/internal/classification"
	"github.com/Veraticus/freightflow/internal/cli"
	"github.com/Veraticus/freightflow/internal/common"
	"github.com/Veraticus/freightflow/internal/config"
	"github.com/Veraticus/freightflow/internal/model"
	"github.com/Veraticus/freightflow/internal/pattern"
	"github.com/Veraticus/freightflow/internal/report"
	"github.com/Veraticus/freightflow/internal/table"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the service-class rules",
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesTestCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the active rules in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			return writeRules(cmd.OutOrStdout(), activeRules(), format)
		},
	}
	cmd.Flags().StringP("format", "f", cli.FormatTable, "Output format (table, yaml, json)")
	return cmd
}

func rulesTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test ID [TYPE]",
		Short: "Show which rule classifies a shipment",
		Example: `  freight rules test 2510600000 Laden
  freight rules test 2450000000`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			label := ""
			if len(args) == 2 {
				label = args[1]
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), explainRule(activeRules(), args[0], label))
			return err
		},
	}
}

func activeRules() model.RuleSet {
	if cfg != nil {
		return cfg.Classification
	}
	return classification.DefaultRuleSet()
}

// explainRule classifies a single identifier and type label.
func explainRule(set model.RuleSet, id, label string) string {
	var idValue model.Value
	if n, ok := table.ParseNumber(id); ok {
		idValue = model.Number(n)
	} else {
		idValue = model.Text(id)
	}

	fields := map[string]model.Value{set.IDField: idValue}
	if set.TypeField != "" {
		fields[set.TypeField] = model.Text(label)
	}
	rec := model.NewRecord("command line", 1, fields)

	category, rule := pattern.NewMatcher(set).Explain(rec)
	if rule == nil {
		return fmt.Sprintf("%s %s", cli.BoldStyle.Render(category), cli.SubtleStyle.Render("(no rule matched, default class)"))
	}
	return fmt.Sprintf("%s %s", cli.BoldStyle.Render(category), cli.SubtleStyle.Render(fmt.Sprintf("(rule %q)", rule.Name)))
}

func writeRules(w io.Writer, set model.RuleSet, format string) error {
	switch format {
	case cli.FormatTable, "":
		_, err := fmt.Fprintf(w, "%s\n%s %s\n", cli.RenderSection(rulesSection(set)),
			cli.BoldStyle.Render("Classes:"), strings.Join(set.Categories(), ", "))
		return err
	case "yaml":
		out, err := config.MarshalRules(set)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case cli.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(set)
	default:
		return common.NewUserError(fmt.Sprintf("unknown rules format %q", format), common.ErrInvalidConfig)
	}
}

// rulesSection lays the rules out as a report section so they render like one.
func rulesSection(set model.RuleSet) report.Section {
	s := report.Section{
		Title:   fmt.Sprintf("Rules on %q and %q (default %s)", set.IDField, set.TypeField, set.DefaultCategory),
		Status:  report.StatusOK,
		Columns: []string{"#", "Name", "ID range", "Type", "Category"},
	}
	for i, r := range set.Rules {
		s.Rows = append(s.Rows, []report.Cell{
			{Value: i + 1, Display: strconv.Itoa(i + 1)},
			{Value: r.Name, Display: r.Name},
			{Value: idRange(r), Display: idRange(r)},
			{Value: typeCondition(r), Display: typeCondition(r)},
			{Value: r.Category, Display: r.Category},
		})
	}
	if len(s.Rows) == 0 {
		s.Status = report.StatusNoData
		s.Notice = "No rules; every shipment gets the default class."
	}
	return s
}

func idRange(r model.ClassificationRule) string {
	bound := func(f *float64) string {
		if f == nil {
			return "*"
		}
		return strconv.FormatFloat(*f, 'f', -1, 64)
	}
	if !r.HasRange() {
		return "any"
	}
	return bound(r.IDMin) + " - " + bound(r.IDMax)
}

func typeCondition(r model.ClassificationRule) string {
	switch r.TypeCondition {
	case model.TypeEqual:
		return "= " + r.TypeValue
	case model.TypeNotEqual:
		return "!= " + r.TypeValue
	default:
		return "any"
	}
}
