package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/freightflow/internal/report"
)

func waitingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "waiting FILE...",
		Short: "Waiting time and load meters per trip",
		Long: `Roll rows up to unique trips and report the waiting time per month and
per client, load meters per client and month, trips per day, and trips per
client and month with the share of the client's busiest month.

The wait of a row is the time from Arrival to Departure in hours; a trip
keeps the longest wait of its rows.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), cmd.OutOrStdout(), report.NewWaiting(), args, reportOptions(cmd))
		},
	}
	addReportFlags(cmd)
	return cmd
}

func shipmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shipments FILE...",
		Short: "Weight, volume and load meters per shipment",
		Long: `Roll rows up to unique shipments, summing weight, volume and load meters,
and report the totals overall and per shipment type.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), cmd.OutOrStdout(), report.NewShipments(), args, reportOptions(cmd))
		},
	}
	addReportFlags(cmd)
	return cmd
}
