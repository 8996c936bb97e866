package main

import (
	"errors"
	"log"

	"bienesraices/internal/config"
	"bienesraices/internal/database"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var importData, drop bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load or drop the catalog data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !importData && !drop {
				return errors.New("nothing to do: pass --import or --drop")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg)
			if err != nil {
				return err
			}

			if drop {
				if err := database.Reset(db); err != nil {
					return err
				}
				log.Println("Tables dropped and recreated")
			}
			if importData {
				if err := database.Migrate(db); err != nil {
					return err
				}
				if err := database.Seed(cmd.Context(), db); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&importData, "import", "i", false, "insert the default categories and prices")
	cmd.Flags().BoolVarP(&drop, "drop", "e", false, "drop every table and recreate an empty schema")
	return cmd
}
