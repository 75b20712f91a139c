package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/freightflow/internal/common"
	"github.com/Veraticus/freightflow/internal/config"
	"github.com/Veraticus/freightflow/internal/report"
	"github.com/Veraticus/freightflow/internal/table"
)

func revenueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revenue FILE...",
		Short: "Revenue and file counts per customer and month",
		Long: `Count files and sum revenue per customer and month, and list the files
that earned nothing.

Files with an excluded financial status are left out of every section.
--year and --months restrict the overview columns; --from and --to bound
the zero-revenue listing.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRevenue,
	}

	cmd.Flags().IntP("year", "y", 0, "Year to show (default: current year when --months is set)")
	cmd.Flags().IntSliceP("months", "m", nil, "Months to show, e.g. 1,2,3")
	cmd.Flags().String("from", "", "First load date of the zero-revenue listing (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Last load date of the zero-revenue listing (YYYY-MM-DD)")
	cmd.Flags().Bool("percent", false, "Add the share of each customer's busiest month")
	cmd.Flags().IntSlice("exclude-status", []int{report.DefaultExcludedStatus}, "Financial status codes to leave out")
	addReportFlags(cmd)

	_ = viper.BindPFlag("revenue.year", cmd.Flags().Lookup("year"))
	_ = viper.BindPFlag("revenue.months", cmd.Flags().Lookup("months"))
	_ = viper.BindPFlag("revenue.from", cmd.Flags().Lookup("from"))
	_ = viper.BindPFlag("revenue.to", cmd.Flags().Lookup("to"))
	_ = viper.BindPFlag("revenue.percent", cmd.Flags().Lookup("percent"))
	_ = viper.BindPFlag("revenue.exclude_status", cmd.Flags().Lookup("exclude-status"))

	return cmd
}

func runRevenue(cmd *cobra.Command, args []string) error {
	variant, err := revenueVariant(viper.GetViper(), cfg, time.Now())
	if err != nil {
		return err
	}
	return runReport(cmd.Context(), cmd.OutOrStdout(), variant, args, reportOptions(cmd))
}

// revenueVariant builds the revenue report from the revenue.* settings.
func revenueVariant(v *viper.Viper, c *config.Config, now time.Time) (*report.Revenue, error) {
	rev := report.NewRevenue()
	if c != nil {
		rev.ExcludeStatus = c.Revenue.ExcludeStatus
		rev.Percent = c.Revenue.Percent
	}

	period, err := periodFilter(v, now)
	if err != nil {
		return nil, err
	}
	rev.Period = period

	if rev.From, err = dateSetting(v, "revenue.from"); err != nil {
		return nil, err
	}
	if rev.To, err = dateSetting(v, "revenue.to"); err != nil {
		return nil, err
	}
	return rev, nil
}

// periodFilter returns nil when neither a year nor months are set, so the
// overview shows every month in the data.
func periodFilter(v *viper.Viper, now time.Time) (*report.PeriodFilter, error) {
	year := v.GetInt("revenue.year")
	monthsSet := v.IsSet("revenue.months")
	if year == 0 && !monthsSet {
		return nil, nil
	}
	if year == 0 {
		year = now.Year()
	}

	filter := &report.PeriodFilter{Year: year}
	if monthsSet {
		filter.Months = []int{}
		for _, m := range v.GetIntSlice("revenue.months") {
			if m < 1 || m > 12 {
				return nil, common.NewUserError(fmt.Sprintf("month %d is not between 1 and 12", m), common.ErrInvalidConfig)
			}
			filter.Months = append(filter.Months, m)
		}
	}
	return filter, nil
}

func dateSetting(v *viper.Viper, key string) (time.Time, error) {
	s := v.GetString(key)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := table.ParseDate(s)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("%s is not a date", key), err)
	}
	return t, nil
}
