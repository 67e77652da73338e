package cmd

import (
	"fmt"
	"os"

	"github.com/ridoystarlord/seedato/engine"
	"github.com/ridoystarlord/seedato/loader"
	"github.com/ridoystarlord/seedato/plan"
	"github.com/ridoystarlord/seedato/schema"
	"github.com/ridoystarlord/seedato/sqlgen"
	"github.com/ridoystarlord/seedato/utils"
	"github.com/spf13/cobra"
)

var schemaFile string
var generateSeed int64
var dryRunGenerate bool

func init() {
	generateCmd.Flags().StringVarP(&schemaFile, "file", "f", "seedato.yaml", "Schema file to load (.yaml, .yml or .json)")
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 0, "Random seed for reproducible output (0 reads SEEDATO_SEED, else the clock)")
	generateCmd.Flags().BoolVar(&dryRunGenerate, "dry-run", false, "Preview the SQL that would be generated without writing files")
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a seed file from a schema document",
	Long: `Generate a seed file from a schema document.

The document is loaded with its includes, resolved into entity types,
populated into a connected object graph and rendered as SQL. The seed
file carries both the insert statements and a cleanup section, so a
run can be rolled back later.

Examples:
  seedato generate                    # Generate from seedato.yaml
  seedato generate -f staging.yaml    # Generate from another document
  seedato generate --seed 42          # Reproducible output
  seedato generate --dry-run          # Print the SQL without writing a file
`,
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := loader.LoadDocument(schemaFile)
		if err != nil {
			fmt.Println("❌ Loading schema:", err)
			os.Exit(1)
		}

		reg, err := schema.BuildRegistry(doc)
		if err != nil {
			fmt.Println("❌ Resolving schema:", err)
			os.Exit(1)
		}

		seed := generateSeed
		if seed == 0 {
			seed = utils.GetSeed()
		}

		g, err := engine.Build(reg, engine.Options{Seed: seed})
		if err != nil {
			fmt.Println("❌ Populating data:", err)
			os.Exit(1)
		}

		ops, err := plan.FromGraph(g)
		if err != nil {
			fmt.Println("❌ Planning inserts:", err)
			os.Exit(1)
		}

		sqls, err := sqlgen.GenerateSQL(ops)
		if err != nil {
			fmt.Println("❌ Generating SQL:", err)
			os.Exit(1)
		}

		cleanupSqls, err := sqlgen.GenerateCleanupSQL(ops)
		if err != nil {
			fmt.Println("❌ Generating cleanup SQL:", err)
			os.Exit(1)
		}

		if dryRunGenerate {
			fmt.Println("\n================ DRY RUN: Seed Preview ================")
			fmt.Println("-- Seed SQL --")
			for _, stmt := range sqls {
				fmt.Println(stmt)
			}
			fmt.Println("\n-- Cleanup (Rollback) SQL --")
			for _, stmt := range cleanupSqls {
				fmt.Println(stmt)
			}
			fmt.Println("============================================================")
			fmt.Println("(Dry run only. No files were written.)")
			return
		}

		filename, err := sqlgen.WriteSeedFile(sqls, cleanupSqls)
		if err != nil {
			fmt.Println("❌ Writing seed file:", err)
			os.Exit(1)
		}

		rows := 0
		for _, t := range g.Tables() {
			rows += len(t.Instances)
		}
		fmt.Printf("✅ Seed file generated: %s (%d tables, %d rows)\n", filename, len(g.Tables()), rows)
	},
}
