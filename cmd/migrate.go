package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jmehdipour/billing-sync/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply (up, default) or roll back (down) the relational schema",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := db.Up
		if len(args) == 1 && args[0] == "down" {
			dir = db.Down
		}

		_, log, conn, dialect, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		defer conn.Close()

		if err := db.Migrate(conn, dialect, dir); err != nil {
			return err
		}

		log.Info("migration complete", zap.String("driver", string(dialect)), zap.String("direction", string(dir)))
		return nil
	},
}
