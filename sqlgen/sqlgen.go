package sqlgen

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ridoystarlord/seedato/plan"
)

// GenerateSQL converts a seed plan into raw SQL statements.
func GenerateSQL(ops []plan.Operation) ([]string, error) {
	var sqlStatements []string

	for _, op := range ops {
		switch op.Type {
		case plan.CreateTable:
			sqlStatements = append(sqlStatements, generateCreateTable(op))

		case plan.InsertRows:
			stmt, err := generateInsert(op)
			if err != nil {
				return nil, fmt.Errorf("generate INSERT: %v", err)
			}
			sqlStatements = append(sqlStatements, stmt)

		case plan.AddForeignKey:
			stmt := fmt.Sprintf(`ALTER TABLE "%s" ADD CONSTRAINT "%s" FOREIGN KEY ("%s") REFERENCES "%s" ("%s");`,
				op.TableName,
				constraintName(op),
				op.Column,
				op.RefTable,
				op.RefColumn,
			)
			sqlStatements = append(sqlStatements, stmt)

		default:
			return nil, fmt.Errorf("unsupported operation: %s", op.Type)
		}
	}

	return sqlStatements, nil
}

// GenerateCleanupSQL converts a seed plan into its rollback statements, in
// reverse order: foreign keys drop first, then the seeded rows. Tables stay
// in place because they are created with IF NOT EXISTS and may have existed
// before seeding.
func GenerateCleanupSQL(ops []plan.Operation) ([]string, error) {
	var sqlStatements []string

	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		switch op.Type {
		case plan.AddForeignKey:
			stmt := fmt.Sprintf(`ALTER TABLE "%s" DROP CONSTRAINT IF EXISTS "%s";`,
				op.TableName,
				constraintName(op),
			)
			sqlStatements = append(sqlStatements, stmt)

		case plan.InsertRows:
			sqlStatements = append(sqlStatements, generateDelete(op))

		case plan.CreateTable:
			// left in place, see above

		default:
			return nil, fmt.Errorf("unsupported cleanup operation: %s", op.Type)
		}
	}

	return sqlStatements, nil
}

func constraintName(op plan.Operation) string {
	return fmt.Sprintf("fk_%s_%s", op.TableName, op.Column)
}

func generateCreateTable(op plan.Operation) string {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s" (`, op.TableName)

	for i, col := range op.Columns {
		stmt += fmt.Sprintf(`"%s" %s`, col.Name, col.SQLType)
		if col.Primary {
			stmt += " PRIMARY KEY"
		}
		if col.Unique {
			stmt += " UNIQUE"
		}
		if col.NotNull {
			stmt += " NOT NULL"
		}
		if i < len(op.Columns)-1 {
			stmt += ", "
		}
	}

	stmt += ");"
	return stmt
}

func generateInsert(op plan.Operation) (string, error) {
	if len(op.Rows) == 0 {
		return "", fmt.Errorf("insert into %s has no rows", op.TableName)
	}

	var cols []string
	for _, c := range op.Columns {
		cols = append(cols, fmt.Sprintf(`"%s"`, c.Name))
	}

	var tuples []string
	for _, row := range op.Rows {
		if len(row) != len(op.Columns) {
			return "", fmt.Errorf("insert into %s: row has %d values for %d columns", op.TableName, len(row), len(op.Columns))
		}
		var vals []string
		for _, v := range row {
			vals = append(vals, renderValue(v))
		}
		tuples = append(tuples, "("+strings.Join(vals, ", ")+")")
	}

	return fmt.Sprintf("INSERT INTO \"%s\" (%s) VALUES\n  %s;",
		op.TableName,
		strings.Join(cols, ", "),
		strings.Join(tuples, ",\n  "),
	), nil
}

// generateDelete scopes the cleanup to the seeded rows through the primary
// key when the table has one; keyless tables are cleared whole.
func generateDelete(op plan.Operation) string {
	keyIdx := -1
	for i, c := range op.Columns {
		if c.Primary {
			keyIdx = i
			break
		}
	}
	if keyIdx < 0 {
		return fmt.Sprintf(`DELETE FROM "%s";`, op.TableName)
	}

	var keys []string
	for _, row := range op.Rows {
		keys = append(keys, renderValue(row[keyIdx]))
	}
	return fmt.Sprintf(`DELETE FROM "%s" WHERE "%s" IN (%s);`,
		op.TableName,
		op.Columns[keyIdx].Name,
		strings.Join(keys, ", "),
	)
}

// renderValue quotes every non-null cell as a string literal and lets
// Postgres cast it to the column type.
func renderValue(v plan.Value) string {
	if v.Null {
		return "NULL"
	}
	return "'" + strings.ReplaceAll(v.Text, "'", "''") + "'"
}

// WriteSeedFile saves the statements into a timestamped .sql file with apply
// and cleanup sections.
func WriteSeedFile(seedStatements []string, cleanupStatements []string) (string, error) {
	if _, err := os.Stat("seeds"); os.IsNotExist(err) {
		if err := os.Mkdir("seeds", 0755); err != nil {
			return "", fmt.Errorf("creating seeds folder: %v", err)
		}
	}

	timestamp := time.Now().Format("20060102150405")
	filename := fmt.Sprintf("seeds/%s_seed.sql", timestamp)

	content := "-- Seedfile: " + timestamp + "\n"
	content += "-- Description: Auto-generated seed data\n\n"

	content += "-- Seed (Apply)\n"
	content += "-- ============\n"
	for _, stmt := range seedStatements {
		content += stmt + "\n"
	}

	content += "\n-- Cleanup (Rollback)\n"
	content += "-- ==================\n"
	for _, stmt := range cleanupStatements {
		content += stmt + "\n"
	}

	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing seed file: %v", err)
	}

	return filename, nil
}
