package cmd

import (
	"fmt"
	"os"

	"github.com/ridoystarlord/seedato/seeder"
	"github.com/spf13/cobra"
)

var dryRunSeed bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Apply pending seed files",
	Run: func(cmd *cobra.Command, args []string) {

		if dryRunSeed {
			err := seeder.PreviewSeeds()
			if err != nil {
				fmt.Println("❌ Dry run failed:", err)
				os.Exit(1)
			}
			return
		}

		err := seeder.ApplySeeds()
		if err != nil {
			fmt.Println("❌ Seeding failed:", err)
			os.Exit(1)
		}
	},
}

func init() {
	seedCmd.Flags().BoolVar(&dryRunSeed, "dry-run", false, "Preview the SQL that would be executed without applying seeds")
}
