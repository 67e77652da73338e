package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/ridoystarlord/seedato/loader"
	"github.com/ridoystarlord/seedato/schema"
	"github.com/ridoystarlord/seedato/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a schema document before generating data",
	Long: `Validate your schema document against the generation rules.

This command performs comprehensive validation including:
- Entity and table naming (PostgreSQL identifier rules)
- Field types and duplicate declarations
- Generator references, value lists, ranges and recursion
- Relationship targets, singular/default descriptors
- Trigger script syntax and addressing
- Assignment target paths
- Table presence in the database (when connected)

The validator works in two modes:
- Offline: Validates the document itself (no database required)
- Online: Also checks against existing database state (requires DATABASE_URL)

Examples:
  seedato validate                    # Validate seedato.yaml (offline)
  seedato validate --schema custom.yaml  # Validate a custom document
  seedato validate --format json      # Output validation results as JSON
  DATABASE_URL=postgres://... seedato validate  # Online validation
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := validateDocument(); err != nil {
			fmt.Printf("❌ Schema validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

var (
	validateSchemaFile string
	validateFormat     string
)

func init() {
	validateCmd.Flags().StringVarP(&validateSchemaFile, "schema", "s", "seedato.yaml", "Schema file to validate")
	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "text", "Output format (text, json)")
}

func validateDocument() error {
	doc, err := loader.LoadDocument(validateSchemaFile)
	if err != nil {
		return fmt.Errorf("failed to load schema: %v", err)
	}

	// Check for DATABASE_URL in environment
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		fmt.Println("[DEBUG] DATABASE_URL not set, using offline document validation.")
		return validateOffline(doc)
	}

	// Only create DB validator if DATABASE_URL is set
	dbValidator, err := validator.NewDocumentValidator()
	if err != nil {
		return fmt.Errorf("failed to create document validator: %v", err)
	}

	result, err := dbValidator.ValidateDocument(doc)
	if err != nil {
		return fmt.Errorf("failed to validate document: %v", err)
	}

	if validateFormat == "json" {
		return outputJSON(result)
	}
	return outputText(result)
}

func validateOffline(doc *schema.Document) error {
	offline := &validator.DocumentValidator{} // No DB connection
	result, err := offline.ValidateDocumentWithoutDB(doc)
	if err != nil {
		return fmt.Errorf("failed to validate document: %v", err)
	}
	if validateFormat == "json" {
		return outputJSON(result)
	}
	return outputText(result)
}

func outputJSON(result *validator.ValidationResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputText(result *validator.ValidationResult) error {
	if result.Valid {
		color.Green("✅ Document validation passed!")
	} else {
		color.Red("❌ Document validation failed!")
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\n🔴 Errors (%d):\n", len(result.Errors))
		for i, err := range result.Errors {
			fmt.Printf("  %d. ", i+1)
			if err.Entity != "" {
				fmt.Printf("[%s]", err.Entity)
			}
			if err.Field != "" {
				fmt.Printf(".%s", err.Field)
			}
			fmt.Printf(": %s\n", err.Message)
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("\n🟡 Warnings (%d):\n", len(result.Warnings))
		for i, warning := range result.Warnings {
			fmt.Printf("  %d. ", i+1)
			if warning.Entity != "" {
				fmt.Printf("[%s]", warning.Entity)
			}
			if warning.Field != "" {
				fmt.Printf(".%s", warning.Field)
			}
			fmt.Printf(": %s\n", warning.Message)
		}
	}

	if len(result.Info) > 0 {
		fmt.Printf("\n🔵 Info (%d):\n", len(result.Info))
		for i, info := range result.Info {
			fmt.Printf("  %d. ", i+1)
			if info.Entity != "" {
				fmt.Printf("[%s]", info.Entity)
			}
			if info.Field != "" {
				fmt.Printf(".%s", info.Field)
			}
			fmt.Printf(": %s\n", info.Message)
		}
	}

	fmt.Printf("\n📊 Summary:\n")
	fmt.Printf("  • Errors: %d\n", len(result.Errors))
	fmt.Printf("  • Warnings: %d\n", len(result.Warnings))
	fmt.Printf("  • Info: %d\n", len(result.Info))

	if result.Valid {
		fmt.Printf("\n🎉 Your document is valid and ready for data generation!\n")
	} else {
		fmt.Printf("\n💡 Fix the errors above before generating seed files.\n")
	}

	return nil
}
