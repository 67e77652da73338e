package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/ridoystarlord/seedato/engine"
	"github.com/ridoystarlord/seedato/loader"
	"github.com/ridoystarlord/seedato/plan"
	"github.com/ridoystarlord/seedato/schema"
	"github.com/spf13/cobra"
)

var outputDir string
var packageName string

func init() {
	structsCmd.Flags().StringVarP(&schemaFile, "file", "f", "seedato.yaml", "Schema file to load")
	structsCmd.Flags().StringVarP(&outputDir, "output", "o", "models", "Output directory for generated structs")
	structsCmd.Flags().StringVarP(&packageName, "package", "p", "models", "Package name for generated structs")
}

var structsCmd = &cobra.Command{
	Use:   "structs",
	Short: "Generate Go structs matching the seeded tables",
	Long: `Generate Go structs from your schema document with db and json tags.

Each generated struct mirrors one seeded table, so test code can scan
rows straight into it.

Examples:
  seedato structs                    # Generate structs in ./models/
  seedato structs -o ./internal/models  # Custom output directory
  seedato structs -p fixtures        # Custom package name
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

		g, err := engine.Build(reg, engine.Options{Seed: 1})
		if err != nil {
			fmt.Println("❌ Populating data:", err)
			os.Exit(1)
		}

		ops, err := plan.FromGraph(g)
		if err != nil {
			fmt.Println("❌ Planning tables:", err)
			os.Exit(1)
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			fmt.Println("❌ Creating output directory:", err)
			os.Exit(1)
		}

		if err := generateStructs(ops, outputDir); err != nil {
			fmt.Println("❌ Generating structs:", err)
			os.Exit(1)
		}

		fmt.Printf("✅ Generated Go structs in %s/\n", outputDir)
	},
}

type StructData struct {
	PackageName string
	Model       ModelData
}

type ModelData struct {
	Name      string
	TableName string
	NeedsTime bool
	Fields    []FieldData
}

type FieldData struct {
	Name string
	Type string
	Tags string
}

func generateStructs(ops []plan.Operation, dir string) error {
	// Foreign keys indexed by table and column, for tag generation.
	fks := map[string]plan.Operation{}
	for _, op := range ops {
		if op.Type == plan.AddForeignKey {
			fks[op.TableName+"."+op.Column] = op
		}
	}

	for _, op := range ops {
		if op.Type != plan.CreateTable {
			continue
		}

		md := ModelData{
			Name:      toPascalCase(op.TableName),
			TableName: op.TableName,
		}

		for _, col := range op.Columns {
			goType := mapColumnTypeToGoType(col.SQLType)
			if goType == "time.Time" {
				md.NeedsTime = true
			}
			fk, isFK := fks[op.TableName+"."+col.Name]
			md.Fields = append(md.Fields, FieldData{
				Name: toPascalCase(col.Name),
				Type: goType,
				Tags: generateTags(col, fk, isFK),
			})
		}

		data := StructData{
			PackageName: packageName,
			Model:       md,
		}

		if err := generateModelFile(data, dir); err != nil {
			return fmt.Errorf("generating model %s: %v", md.Name, err)
		}
	}

	return nil
}

func generateModelFile(data StructData, dir string) error {
	const modelTemplate = `package {{.PackageName}}
{{if .Model.NeedsTime}}
import (
	"time"
)
{{end}}
// {{.Model.Name}} maps one row of the {{.Model.TableName}} table.
type {{.Model.Name}} struct {
{{range .Model.Fields}}	{{.Name}} {{.Type}} {{.Tags}}
{{end}}}

// TableName returns the table name for {{.Model.Name}}
func ({{.Model.Name}}) TableName() string {
	return "{{.Model.TableName}}"
}
`

	tmpl, err := template.New("model").Parse(modelTemplate)
	if err != nil {
		return fmt.Errorf("parsing model template: %v", err)
	}

	outputFile := filepath.Join(dir, strings.ToLower(data.Model.Name)+".go")
	file, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("creating model file: %v", err)
	}
	defer file.Close()

	return tmpl.Execute(file, data)
}

func mapColumnTypeToGoType(dbType string) string {
	switch strings.ToLower(dbType) {
	case "serial", "bigserial", "integer", "int", "int4":
		return "int"
	case "bigint", "int8":
		return "int64"
	case "text", "varchar", "character varying", "uuid":
		return "string"
	case "boolean", "bool":
		return "bool"
	case "timestamp", "timestamptz", "date":
		return "time.Time"
	case "numeric", "decimal", "double precision", "float8":
		return "float64"
	case "json", "jsonb":
		return "string"
	default:
		return "string" // fallback
	}
}

func generateTags(col plan.Column, fk plan.Operation, isFK bool) string {
	var tags []string

	tags = append(tags, fmt.Sprintf("db:\"%s\"", col.Name))
	tags = append(tags, fmt.Sprintf("json:\"%s\"", col.Name))

	var customTags []string
	if col.Primary {
		customTags = append(customTags, "primary")
	}
	if col.Unique {
		customTags = append(customTags, "unique")
	}
	if isFK {
		customTags = append(customTags, fmt.Sprintf("fk:%s.%s", fk.RefTable, fk.RefColumn))
	}

	if len(customTags) > 0 {
		tags = append(tags, fmt.Sprintf("seedato:\"%s\"", strings.Join(customTags, ";")))
	}

	return fmt.Sprintf("`%s`", strings.Join(tags, " "))
}

func toPascalCase(s string) string {
	// Convert snake_case to PascalCase
	parts := strings.Split(s, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
		}
	}
	return strings.Join(parts, "")
}
