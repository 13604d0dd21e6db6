package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	app "github.com/okian/talentboard/internal/app"
	"github.com/okian/talentboard/pkg/logger"
)

var statsTZ string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo athletes and assessments into an empty store",
	Long: `Seeds the configured store with demo records. A store that already
holds users or assessments is left untouched. Without db_path the records
only live for the duration of the command.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := startOffline(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = svc.Stop(cmd.Context()) }()

		seeded, err := svc.SeedDemoData(cmd.Context())
		if err != nil {
			return err
		}
		if seeded {
			fmt.Fprintln(cmd.OutOrStdout(), "demo data seeded")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "store not empty; nothing seeded")
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the dashboard counters of the configured store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		loc, err := time.LoadLocation(statsTZ)
		if err != nil {
			return fmt.Errorf("invalid --tz: %w", err)
		}
		svc, err := startOffline(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = svc.Stop(cmd.Context()) }()

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(svc.Stats(cmd.Context(), loc))
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsTZ, "tz", "Local", "IANA zone that defines \"today\" for verifiedToday")
}

// startOffline starts a service over the configured store without startup
// seeding, so callers decide what to write.
func startOffline(cmd *cobra.Command) (*app.Service, error) {
	cfg, err := setup(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	opts := append(serviceOptions(cfg, logger.Get()), app.WithSeedDemo(false))
	svc := app.New(opts...)
	if err := svc.Start(cmd.Context()); err != nil {
		return nil, fmt.Errorf("failed to start service: %w", err)
	}
	return svc, nil
}
