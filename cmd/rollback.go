package cmd

import (
	"fmt"
	"os"

	"github.com/ridoystarlord/seedato/seeder"
	"github.com/spf13/cobra"
)

var steps int

func init() {
	rollbackCmd.Flags().IntVarP(&steps, "steps", "s", 1, "Number of seed runs to roll back")
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Roll back applied seed runs",
	Long: `Roll back the last seed run or multiple seed runs.

Each seed file carries its own cleanup section; rolling back executes
that section and forgets the run, so the file shows up as pending again.

Examples:
  seedato rollback           # Roll back the last seed run
  seedato rollback --steps=3 # Roll back the last 3 seed runs
  seedato rollback -s 5      # Roll back the last 5 seed runs
`,
	Run: func(cmd *cobra.Command, args []string) {
		if steps < 1 {
			fmt.Println("❌ Steps must be at least 1")
			os.Exit(1)
		}

		err := seeder.RollbackSeeds(steps)
		if err != nil {
			fmt.Println("❌ Rollback failed:", err)
			os.Exit(1)
		}

		if steps == 1 {
			fmt.Println("✅ Rolled back 1 seed run.")
		} else {
			fmt.Printf("✅ Rolled back %d seed runs.\n", steps)
		}
	},
}
