package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/freightflow/internal/report"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories FILE...",
		Short: "Shipments per service class and month",
		Long: `Classify every row with the configured rules, roll rows up to unique
shipments and count shipments and customers per service class, overall and
per month.

Rules are checked in order and the first match wins; rows no rule matches
get the default class. See 'freight rules list' for the active rules.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCategories,
	}

	cmd.Flags().String("date-field", "", "Date column (default: "+report.DefaultCategoryDateField+")")
	cmd.Flags().String("customer-field", "", "Customer column (default: "+report.DefaultCategoryCustomerField+")")
	cmd.Flags().String("measure-field", "", "Column summed per shipment (default: "+report.DefaultCategoryMeasureField+")")
	addReportFlags(cmd)

	_ = viper.BindPFlag("categories.date_field", cmd.Flags().Lookup("date-field"))
	_ = viper.BindPFlag("categories.customer_field", cmd.Flags().Lookup("customer-field"))
	_ = viper.BindPFlag("categories.measure_field", cmd.Flags().Lookup("measure-field"))

	return cmd
}

func runCategories(cmd *cobra.Command, args []string) error {
	variant := report.NewCategories()
	if cfg != nil {
		variant = cfg.CategoriesReport()
	}
	return runReport(cmd.Context(), cmd.OutOrStdout(), variant, args, reportOptions(cmd))
}
