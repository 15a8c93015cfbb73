package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/compliance-engine/api"
	"github.com/warp/compliance-engine/factory"
	"github.com/warp/compliance-engine/logging"
)

var (
	flagProperty string
	flagSnapshot string
	flagView     string
)

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import a rent roll snapshot document",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a stored snapshot's report as JSON",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&flagProperty, "property", "", "Property ID")
	reportCmd.Flags().StringVar(&flagSnapshot, "snapshot", "", "Snapshot ID (default: most recent)")
	reportCmd.Flags().StringVar(&flagView, "view", "compliance", "Report view: compliance or verification")
	_ = reportCmd.MarkFlagRequired("property")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	f := factory.NewSnapshotFactory()
	f.DefaultRentAnalysis = cfg.Engine.DefaultRentAnalysis
	ps, err := f.ParseSnapshot(data)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.SavePropertySnapshot(cmd.Context(), ps); err != nil {
		return err
	}

	logging.Logger.WithField("units", len(ps.Units)).
		Infof("imported snapshot %s for property %s", ps.Snapshot.ID, ps.Property.ID)
	return nil
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	snapshotID := flagSnapshot
	if snapshotID == "" {
		snaps, err := store.ListSnapshots(ctx, flagProperty)
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			return fmt.Errorf("property %s has no snapshots", flagProperty)
		}
		snapshotID = snaps[0].ID
	}

	if flagView != "compliance" && flagView != "verification" {
		return fmt.Errorf("unknown view %q", flagView)
	}

	ps, err := store.LoadPropertySnapshot(ctx, flagProperty, snapshotID)
	if err != nil {
		return err
	}
	rep, err := newEngine(cfg).Analyze(ctx, ps)
	if err != nil {
		return err
	}

	var out any = api.NewComplianceReportDTO(ps, rep)
	if flagView == "verification" {
		out = api.NewVerificationReportDTO(rep)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
