package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/seedato/seeder"
)

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent seeding activities",
	Long: `Show recent seeding activities and logs.

Examples:
  seedato log                    # Show recent seed logs
  seedato log --limit 20         # Show last 20 log entries
`,
	Run: func(cmd *cobra.Command, args []string) {
		logs, err := seeder.GetSeedLogs(logLimit)
		if err != nil {
			fmt.Printf("❌ Error getting seed logs: %v\n", err)
			os.Exit(1)
		}

		if len(logs) == 0 {
			fmt.Println("📋 No seed logs found")
			return
		}

		showSeedLogs(logs)
	},
}

func showSeedLogs(logs []seeder.SeedLog) {
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	blue := color.New(color.FgBlue, color.Bold)
	cyan := color.New(color.FgCyan)

	fmt.Println("📋 Recent Seeding Activities")
	fmt.Println(strings.Repeat("=", 60))

	for i, log := range logs {
		fmt.Printf("\n%d. ", i+1)

		// Level indicator
		switch log.Level {
		case "INFO":
			blue.Print("ℹ️  ")
		case "WARN":
			yellow.Print("⚠️  ")
		case "ERROR":
			red.Print("❌ ")
		case "SUCCESS":
			green.Print("✅ ")
		default:
			fmt.Print("📝 ")
		}

		// Timestamp
		cyan.Printf("[%s] ", log.Timestamp.Format("2006-01-02 15:04:05"))

		// Message
		fmt.Printf("%s", log.Message)

		// User if available
		if log.User != "" {
			fmt.Printf(" (by %s)", log.User)
		}

		fmt.Println()

		// Additional details if available
		if log.Details != "" {
			cyan.Printf("   📄 Details: %s\n", log.Details)
		}
	}

	// Summary
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("📊 Showing %d recent log entries\n", len(logs))
}

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "l", 50, "Limit number of log entries to show")
}
