package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example seedato.yaml schema",
	Long: `Create an example seedato.yaml schema file in the current directory.

The example describes a small company directory and shows most of the
schema features:
- value generators (literal lists, numeric ranges, composite templates)
- reusable field snippets and abstract base entities
- row counts, fixed or derived from a generator's value list
- one and many relationships, singular/default target selection
- creation triggers and post-generation assignments

Examples:
  seedato init                  # Create seedato.yaml
  seedato generate              # Turn it into a seed file
  seedato seed                  # Apply the seed file to your database`,
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat("seedato.yaml"); err == nil {
			fmt.Println("❌ seedato.yaml already exists!")
			return
		}

		content := `# Example schema: a small company directory.
#
# Generators produce field values. A value list picks one entry at
# random, low>high rolls an integer in [low, high), and templates may
# embed other generators with [name].
generators:
  - name: first
    values: Ada; Grace; Linus; Barbara; Alan; Edsger
  - name: last
    values: Lovelace; Hopper; Torvalds; Liskov; Turing; Dijkstra
  - name: role
    values: CEO; Manager; Staff
  - name: org_num
    values: 1>9000
  - name: domain
    values: example.com; example.org

# Snippets are reusable field groups, spliced in where referenced.
snippets:
  timestamps:
    created_at:
      type: timestamp
      generator: "[timestamp]"

entities:
  # Abstract entities produce no rows; they only lend their fields to
  # entities that inherit from them.
  Base:
    abstract: true
    fields:
      id:
        key: true
        generator: "[uuid]"

  # count: "[role]" creates one row per value in the role generator.
  Role:
    table: roles
    count: "[role]"
    inherits: [Base]
    fields:
      name:
        unique: true
        generator: "[role]"

  Organisation:
    table: organisations
    count: 2
    inherits: [Base]
    snippets: [timestamps]
    fields:
      name:
        unique: true
        generator: "Org [org_num]"

  Employee:
    table: employees
    count: 6
    inherits: [Base]
    snippets: [timestamps]
    fields:
      first_name:
        generator: "[first]"
      last_name:
        generator: "[last]"
      # [!field] reads a sibling field, ~ lowercases and strips spaces.
      email:
        unique: true
        generator: "[~!first_name].[~!last_name]@[domain]"
      status:
        default: active
    relationships:
      - type: one
        to: Organisation
        required: true
      # Every employee not connected by a trigger gets the Staff role.
      - type: one
        to: Role
        default:
          field: name
          value: Staff

  Project:
    table: projects
    count: 3
    inherits: [Base]
    fields:
      name:
        unique: true
        generator: "Project [org_num]"
    relationships:
      # many creates a join table with two rows per project.
      - type: many
        to: Employee
        count: 2

# Triggers run once per created row. This one gives each organisation
# an employee in position 0 connected to the CEO role.
triggers:
  - entity: Organisation
    scripts:
      - "employees(0).Role?name=CEO"

# Assignments run last and overwrite fields of one addressed row.
assign:
  - target: "organisations(0)"
    fields:
      name: Acme Corp
`
		err := os.WriteFile("seedato.yaml", []byte(content), 0644)
		if err != nil {
			fmt.Println("❌ Error creating seedato.yaml:", err)
			return
		}
		fmt.Println("✅ Created seedato.yaml example file.")
		fmt.Println("📝 Edit seedato.yaml to describe your test data")
		fmt.Println("🚀 Run 'seedato generate' to build a seed file from it")
	},
}
