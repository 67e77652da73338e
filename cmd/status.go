package cmd

import (
	"fmt"
	"os"

	"github.com/ridoystarlord/seedato/seeder"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending seed files",
	Run: func(cmd *cobra.Command, args []string) {

		applied, pending, failed, err := seeder.Status()
		if err != nil {
			fmt.Println("❌ Status error:", err)
			os.Exit(1)
		}

		fmt.Println("✅ Applied seeds:")
		for _, f := range applied {
			fmt.Println("   -", f)
		}

		if len(failed) > 0 {
			fmt.Println("\n❌ Failed seeds:")
			for _, f := range failed {
				fmt.Printf("   - %s: %s\n", f.Filename, f.ErrorMessage)
			}
		}

		fmt.Println("\n🕒 Pending seeds:")
		for _, f := range pending {
			fmt.Println("   -", f)
		}
	},
}
