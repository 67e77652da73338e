package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/seedato/seeder"
)

var (
	historyLimit    int
	historyDetailed bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show detailed seed run history",
	Long: `Show detailed seed run history with timestamps, execution times, and user information.

Examples:
  seedato history                    # Show all seed run history
  seedato history --limit 10         # Show last 10 seed runs
  seedato history --detailed         # Show detailed information
`,
	Run: func(cmd *cobra.Command, args []string) {
		history, err := seeder.GetSeedHistory(historyLimit)
		if err != nil {
			fmt.Printf("❌ Error getting seed history: %v\n", err)
			os.Exit(1)
		}

		if len(history) == 0 {
			fmt.Println("📋 No seed history found")
			return
		}

		showSeedHistory(history, historyDetailed)
	},
}

func showSeedHistory(history []seeder.SeedRecord, detailed bool) {
	fmt.Println("📋 Seed Run History")
	fmt.Println(strings.Repeat("=", 60))

	if detailed {
		showDetailedHistory(history)
	} else {
		showSummaryHistory(history)
	}
}

func showDetailedHistory(history []seeder.SeedRecord) {
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	blue := color.New(color.FgBlue, color.Bold)
	cyan := color.New(color.FgCyan)

	for i, record := range history {
		fmt.Printf("\n%d. ", i+1)

		// Status indicator
		if record.Status == "success" {
			green.Print("✅ ")
		} else if record.Status == "failed" {
			red.Print("❌ ")
		} else {
			yellow.Print("⚠️ ")
		}

		// Seed file name
		blue.Printf("%s\n", record.Filename)

		// Timestamp
		cyan.Printf("   📅 Applied: %s\n", record.AppliedAt.Format("2006-01-02 15:04:05"))

		// Execution time
		if record.ExecutionTime > 0 {
			cyan.Printf("   ⏱️  Duration: %v\n", record.ExecutionTime)
		}

		// User
		if record.ExecutedBy != "" {
			cyan.Printf("   👤 User: %s\n", record.ExecutedBy)
		}

		// Status
		cyan.Printf("   📊 Status: %s\n", record.Status)

		// Error message if failed
		if record.Status == "failed" && record.ErrorMessage != "" {
			red.Printf("   💥 Error: %s\n", record.ErrorMessage)
		}

		// Checksum
		if record.Checksum != "" {
			cyan.Printf("   🔍 Checksum: %s\n", record.Checksum[:8]+"...")
		}
	}
}

func showSummaryHistory(history []seeder.SeedRecord) {
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	blue := color.New(color.FgBlue, color.Bold)

	fmt.Printf("%-4s %-8s %-25s %-12s %-10s %s\n", "ID", "Status", "Seed", "Duration", "User", "Date")
	fmt.Println(strings.Repeat("-", 80))

	for i, record := range history {
		// Status indicator
		var status string
		if record.Status == "success" {
			status = green.Sprint("✅")
		} else if record.Status == "failed" {
			status = red.Sprint("❌")
		} else {
			status = yellow.Sprint("⚠️")
		}

		// Duration
		var duration string
		if record.ExecutionTime > 0 {
			duration = record.ExecutionTime.String()
		} else {
			duration = "N/A"
		}

		// User
		user := record.ExecutedBy
		if user == "" {
			user = "N/A"
		}

		// Seed file name (truncate if too long)
		seedName := record.Filename
		if len(seedName) > 23 {
			seedName = seedName[:20] + "..."
		}

		fmt.Printf("%-4d %-8s %-25s %-12s %-10s %s\n",
			i+1,
			status,
			blue.Sprint(seedName),
			duration,
			user,
			record.AppliedAt.Format("2006-01-02 15:04"),
		)
	}

	// Summary statistics
	fmt.Println(strings.Repeat("-", 80))

	successCount := 0
	failedCount := 0
	totalDuration := time.Duration(0)

	for _, record := range history {
		if record.Status == "success" {
			successCount++
		} else if record.Status == "failed" {
			failedCount++
		}
		if record.ExecutionTime > 0 {
			totalDuration += record.ExecutionTime
		}
	}

	fmt.Printf("📊 Summary: %d total, %d successful, %d failed\n",
		len(history), successCount, failedCount)

	if totalDuration > 0 {
		fmt.Printf("⏱️  Total execution time: %v\n", totalDuration)
	}
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 0, "Limit number of records to show (0 = all)")
	historyCmd.Flags().BoolVarP(&historyDetailed, "detailed", "d", false, "Show detailed information")
}
