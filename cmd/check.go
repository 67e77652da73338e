package cmd

import (
	"fmt"
	"os"

	"github.com/ridoystarlord/seedato/engine"
	"github.com/ridoystarlord/seedato/introspect"
	"github.com/ridoystarlord/seedato/loader"
	"github.com/ridoystarlord/seedato/plan"
	"github.com/ridoystarlord/seedato/schema"
	"github.com/spf13/cobra"
)

var checkSchemaFile string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a schema document against the live database",
	Long: `Check whether the data a schema document would generate fits the
current state of your database.

This command will:
- Verify database connectivity
- Compare planned tables and columns with the live schema
- Flag type conflicts, missing columns and NOT NULL columns the
  generated inserts would leave unpopulated
- Warn about foreign key constraints left over from earlier seed runs

Examples:
  seedato check                    # Check seedato.yaml against the database
  seedato check -f staging.yaml    # Check another document
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := checkAgainstDatabase(); err != nil {
			fmt.Printf("❌ Schema check failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	checkCmd.Flags().StringVarP(&checkSchemaFile, "file", "f", "seedato.yaml", "Schema file to check")
}

func checkAgainstDatabase() error {
	doc, err := loader.LoadDocument(checkSchemaFile)
	if err != nil {
		return fmt.Errorf("failed to load schema: %v", err)
	}

	reg, err := schema.BuildRegistry(doc)
	if err != nil {
		return fmt.Errorf("failed to resolve schema: %v", err)
	}

	// A throwaway generation run pins down the exact tables and columns
	// a real run would produce.
	g, err := engine.Build(reg, engine.Options{Seed: 1})
	if err != nil {
		return fmt.Errorf("failed to populate data: %v", err)
	}

	ops, err := plan.FromGraph(g)
	if err != nil {
		return fmt.Errorf("failed to plan inserts: %v", err)
	}

	report, err := introspect.CheckPlan(ops)
	if err != nil {
		return fmt.Errorf("failed to inspect database: %v", err)
	}

	if len(report.Findings) == 0 {
		fmt.Println("✅ Database matches the planned seed data")
		return nil
	}

	for _, f := range report.Findings {
		icon := "🔵"
		switch f.Severity {
		case "error":
			icon = "🔴"
		case "warning":
			icon = "🟡"
		}
		where := f.Table
		if f.Column != "" {
			where += "." + f.Column
		}
		fmt.Printf("%s %s: %s\n", icon, where, f.Message)
	}

	if errs := report.Errors(); len(errs) > 0 {
		return fmt.Errorf("%d blocking finding(s), fix them before seeding", len(errs))
	}

	fmt.Println("✅ No blocking findings, seeding should succeed")
	return nil
}
