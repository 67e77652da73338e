package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/seedato/engine"
	"github.com/ridoystarlord/seedato/loader"
	"github.com/ridoystarlord/seedato/plan"
	"github.com/ridoystarlord/seedato/schema"
)

var (
	docsFormat string
	docsOutput string
	docsFile   string
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Generate documentation from a schema document",
	Long: `Generate ERD diagrams and a data dictionary from your schema document.

Supported formats:
  - plantuml: PlantUML ERD diagram
  - mermaid: Mermaid ERD diagram
  - graphviz: Graphviz DOT format
  - dictionary: Markdown data dictionary

Examples:
  seedato docs --format plantuml --output erd.puml
  seedato docs --format mermaid --output erd.md
  seedato docs --format dictionary --output tables.md
  seedato docs --format all --output docs/
`,
	Run: func(cmd *cobra.Command, args []string) {
		schemaFilePath := docsFile
		if schemaFilePath == "" {
			schemaFilePath = "seedato.yaml"
		}

		doc, err := loader.LoadDocument(schemaFilePath)
		if err != nil {
			fmt.Printf("❌ Error loading schema: %v\n", err)
			os.Exit(1)
		}

		reg, err := schema.BuildRegistry(doc)
		if err != nil {
			fmt.Printf("❌ Error resolving schema: %v\n", err)
			os.Exit(1)
		}

		g, err := engine.Build(reg, engine.Options{Seed: 1})
		if err != nil {
			fmt.Printf("❌ Error populating data: %v\n", err)
			os.Exit(1)
		}

		ops, err := plan.FromGraph(g)
		if err != nil {
			fmt.Printf("❌ Error planning tables: %v\n", err)
			os.Exit(1)
		}

		if len(ops) == 0 {
			fmt.Println("❌ No tables found in schema")
			os.Exit(1)
		}

		// Create output directory if needed
		if docsFormat == "all" {
			if err := os.MkdirAll(docsOutput, 0755); err != nil {
				fmt.Printf("❌ Error creating output directory: %v\n", err)
				os.Exit(1)
			}
		}

		switch docsFormat {
		case "plantuml":
			generatePlantUML(ops)
		case "mermaid":
			generateMermaid(ops)
		case "graphviz":
			generateGraphviz(ops)
		case "dictionary":
			generateDictionary(ops)
		case "all":
			generateAllFormats(ops)
		default:
			fmt.Printf("❌ Unsupported format: %s\n", docsFormat)
			fmt.Println("Supported formats: plantuml, mermaid, graphviz, dictionary, all")
			os.Exit(1)
		}

		fmt.Println("✅ Documentation generated successfully!")
	},
}

func generatePlantUML(ops []plan.Operation) {
	output := docsOutput
	if output == "" {
		output = "erd.puml"
	}

	content := generatePlantUMLContent(ops)

	if err := os.WriteFile(output, []byte(content), 0644); err != nil {
		fmt.Printf("❌ Error writing PlantUML file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ PlantUML ERD saved to: %s\n", output)
}

func generatePlantUMLContent(ops []plan.Operation) string {
	var content strings.Builder

	content.WriteString("@startuml\n")
	content.WriteString("!theme plain\n")
	content.WriteString("skinparam linetype ortho\n\n")

	// Generate entities
	for _, op := range ops {
		if op.Type != plan.CreateTable {
			continue
		}
		content.WriteString(fmt.Sprintf("entity \"%s\" {\n", op.TableName))

		for _, col := range op.Columns {
			// Determine column type display
			displayType := col.SQLType
			if col.SQLType == "integer" {
				displayType = "INTEGER"
			} else if col.SQLType == "text" {
				displayType = "TEXT"
			} else if col.SQLType == "numeric" {
				displayType = "NUMERIC"
			} else if col.SQLType == "timestamp" {
				displayType = "TIMESTAMP"
			} else if col.SQLType == "jsonb" {
				displayType = "JSONB"
			}

			// Build column line
			line := fmt.Sprintf("  %s : %s", col.Name, displayType)

			if col.Primary {
				line += " <<PK>>"
			}
			if col.Unique {
				line += " <<UQ>>"
			}
			if col.NotNull {
				line += " <<NN>>"
			}

			content.WriteString(line + "\n")
		}
		content.WriteString("}\n\n")
	}

	// Generate relationships
	for _, op := range ops {
		if op.Type != plan.AddForeignKey {
			continue
		}
		content.WriteString(fmt.Sprintf("\"%s\" ||--o{ \"%s\" : \"%s\"\n",
			op.RefTable,
			op.TableName,
			op.Column))
	}

	content.WriteString("@enduml\n")
	return content.String()
}

func generateMermaid(ops []plan.Operation) {
	output := docsOutput
	if output == "" {
		output = "erd.md"
	}

	content := generateMermaidContent(ops)

	if err := os.WriteFile(output, []byte(content), 0644); err != nil {
		fmt.Printf("❌ Error writing Mermaid file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Mermaid ERD saved to: %s\n", output)
}

func generateMermaidContent(ops []plan.Operation) string {
	var content strings.Builder

	content.WriteString("# Seed Data ERD\n\n")
	content.WriteString("```mermaid\nerDiagram\n")

	// Generate entities
	for _, op := range ops {
		if op.Type != plan.CreateTable {
			continue
		}
		content.WriteString(fmt.Sprintf("    %s {\n", op.TableName))

		for _, col := range op.Columns {
			// Determine column type display
			displayType := col.SQLType
			if col.SQLType == "integer" {
				displayType = "INTEGER"
			} else if col.SQLType == "text" {
				displayType = "TEXT"
			} else if col.SQLType == "numeric" {
				displayType = "NUMERIC"
			} else if col.SQLType == "timestamp" {
				displayType = "TIMESTAMP"
			} else if col.SQLType == "jsonb" {
				displayType = "JSONB"
			}

			// Build column line
			line := fmt.Sprintf("        %s %s", displayType, col.Name)

			if col.Primary {
				line += " PK"
			}
			if col.Unique {
				line += " UQ"
			}

			content.WriteString(line + "\n")
		}
		content.WriteString("    }\n")
	}

	// Generate relationships
	for _, op := range ops {
		if op.Type != plan.AddForeignKey {
			continue
		}
		content.WriteString(fmt.Sprintf("    %s ||--o{ %s : %s\n",
			op.RefTable,
			op.TableName,
			op.Column))
	}

	content.WriteString("```\n")
	return content.String()
}

func generateGraphviz(ops []plan.Operation) {
	output := docsOutput
	if output == "" {
		output = "erd.dot"
	}

	content := generateGraphvizContent(ops)

	if err := os.WriteFile(output, []byte(content), 0644); err != nil {
		fmt.Printf("❌ Error writing Graphviz file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Graphviz ERD saved to: %s\n", output)
}

func generateGraphvizContent(ops []plan.Operation) string {
	var content strings.Builder

	content.WriteString("digraph ERD {\n")
	content.WriteString("  rankdir=LR;\n")
	content.WriteString("  node [shape=record];\n\n")

	// Generate entities
	for _, op := range ops {
		if op.Type != plan.CreateTable {
			continue
		}
		content.WriteString(fmt.Sprintf("  %s [label=\"%s|", op.TableName, op.TableName))

		var columns []string
		for _, col := range op.Columns {
			displayType := col.SQLType
			if col.SQLType == "integer" {
				displayType = "INTEGER"
			} else if col.SQLType == "text" {
				displayType = "TEXT"
			} else if col.SQLType == "numeric" {
				displayType = "NUMERIC"
			} else if col.SQLType == "timestamp" {
				displayType = "TIMESTAMP"
			} else if col.SQLType == "jsonb" {
				displayType = "JSONB"
			}

			line := fmt.Sprintf("%s: %s", col.Name, displayType)

			if col.Primary {
				line += " (PK)"
			}
			if col.Unique {
				line += " (UQ)"
			}
			if col.NotNull {
				line += " (NN)"
			}

			columns = append(columns, line)
		}

		content.WriteString(strings.Join(columns, "\\l"))
		content.WriteString("\"];\n")
	}

	// Generate relationships
	for _, op := range ops {
		if op.Type != plan.AddForeignKey {
			continue
		}
		content.WriteString(fmt.Sprintf("  %s -> %s [label=\"%s\"];\n",
			op.RefTable,
			op.TableName,
			op.Column))
	}

	content.WriteString("}\n")
	return content.String()
}

func generateDictionary(ops []plan.Operation) {
	output := docsOutput
	if output == "" {
		output = "dictionary.md"
	}

	content := generateDictionaryContent(ops)

	if err := os.WriteFile(output, []byte(content), 0644); err != nil {
		fmt.Printf("❌ Error writing data dictionary: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Data dictionary saved to: %s\n", output)
}

func generateDictionaryContent(ops []plan.Operation) string {
	var content strings.Builder

	content.WriteString("# Seed Data Dictionary\n\n")
	content.WriteString("Tables and columns the seed file creates, with the number of generated rows per table.\n\n")

	for _, op := range ops {
		if op.Type != plan.CreateTable {
			continue
		}

		rows := 0
		for _, ins := range ops {
			if ins.Type == plan.InsertRows && ins.TableName == op.TableName {
				rows += len(ins.Rows)
			}
		}

		content.WriteString(fmt.Sprintf("## %s\n\n", op.TableName))
		content.WriteString(fmt.Sprintf("Seeded rows: %d\n\n", rows))
		content.WriteString("| Column | Type | Constraints |\n")
		content.WriteString("|--------|------|-------------|\n")

		for _, col := range op.Columns {
			var constraints []string
			if col.Primary {
				constraints = append(constraints, "PRIMARY KEY")
			}
			if col.Unique {
				constraints = append(constraints, "UNIQUE")
			}
			if col.NotNull {
				constraints = append(constraints, "NOT NULL")
			}
			content.WriteString(fmt.Sprintf("| %s | %s | %s |\n", col.Name, col.SQLType, strings.Join(constraints, ", ")))
		}
		content.WriteString("\n")
	}

	var edges []string
	for _, op := range ops {
		if op.Type == plan.AddForeignKey {
			edges = append(edges, fmt.Sprintf("- `%s.%s` → `%s.%s`", op.TableName, op.Column, op.RefTable, op.RefColumn))
		}
	}
	if len(edges) > 0 {
		content.WriteString("## Relationships\n\n")
		for _, e := range edges {
			content.WriteString(e + "\n")
		}
	}

	return content.String()
}

func generateAllFormats(ops []plan.Operation) {
	// Generate PlantUML
	plantUMLPath := filepath.Join(docsOutput, "erd.puml")
	content := generatePlantUMLContent(ops)
	if err := os.WriteFile(plantUMLPath, []byte(content), 0644); err != nil {
		fmt.Printf("❌ Error writing PlantUML file: %v\n", err)
		os.Exit(1)
	}

	// Generate Mermaid
	mermaidPath := filepath.Join(docsOutput, "erd.md")
	content = generateMermaidContent(ops)
	if err := os.WriteFile(mermaidPath, []byte(content), 0644); err != nil {
		fmt.Printf("❌ Error writing Mermaid file: %v\n", err)
		os.Exit(1)
	}

	// Generate Graphviz
	graphvizPath := filepath.Join(docsOutput, "erd.dot")
	content = generateGraphvizContent(ops)
	if err := os.WriteFile(graphvizPath, []byte(content), 0644); err != nil {
		fmt.Printf("❌ Error writing Graphviz file: %v\n", err)
		os.Exit(1)
	}

	// Generate data dictionary
	dictPath := filepath.Join(docsOutput, "dictionary.md")
	content = generateDictionaryContent(ops)
	if err := os.WriteFile(dictPath, []byte(content), 0644); err != nil {
		fmt.Printf("❌ Error writing data dictionary: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ All documentation generated in: %s/\n", docsOutput)
	fmt.Printf("  - PlantUML: %s\n", plantUMLPath)
	fmt.Printf("  - Mermaid: %s\n", mermaidPath)
	fmt.Printf("  - Graphviz: %s\n", graphvizPath)
	fmt.Printf("  - Dictionary: %s\n", dictPath)
}

func init() {
	docsCmd.Flags().StringVar(&docsFormat, "format", "plantuml", "Output format (plantuml, mermaid, graphviz, dictionary, all)")
	docsCmd.Flags().StringVarP(&docsOutput, "output", "o", "", "Output file or directory (defaults per format)")
	docsCmd.Flags().StringVar(&docsFile, "file", "", "Schema file to document (default seedato.yaml)")
}
