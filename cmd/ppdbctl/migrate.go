package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fathussalafi/yayasan-api/pkg/database"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}
	cmd.AddCommand(migrateDirectionCmd(database.MigrateUp, "Apply pending migrations"))
	cmd.AddCommand(migrateDirectionCmd(database.MigrateDown, "Roll back migrations"))
	return cmd
}

func migrateDirectionCmd(direction, short string) *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   direction,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if direction == database.MigrateDown && steps <= 0 {
				all, _ := cmd.Flags().GetBool("all")
				if !all {
					return fmt.Errorf("refusing to drop the whole schema without --all")
				}
			}
			e, cleanup, err := connect()
			if err != nil {
				return err
			}
			defer cleanup()

			version, err := database.Migrate(e.db, direction, steps)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", 0, "number of migrations to apply (0 = all)")
	if direction == database.MigrateDown {
		cmd.Flags().Bool("all", false, "roll back every migration")
	}
	return cmd
}
