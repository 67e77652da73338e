package introspect

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ridoystarlord/seedato/database"
	"github.com/ridoystarlord/seedato/plan"
)

type ExistingTable struct {
	TableName   string
	Columns     []ExistingColumn
	ForeignKeys []ExistingForeignKey
}

type ExistingColumn struct {
	ColumnName    string
	DataType      string
	IsNullable    bool
	ColumnDefault *string
	IsPrimaryKey  bool
	IsUnique      bool
}

type ExistingForeignKey struct {
	ConstraintName   string
	ColumnName       string
	ReferencesTable  string
	ReferencesColumn string
}

// CheckFinding is one conflict between the generation plan and the database
type CheckFinding struct {
	Table    string
	Column   string
	Message  string
	Severity string // "error", "warning", "info"
}

// CheckReport collects the findings of a pre-flight check
type CheckReport struct {
	Findings []CheckFinding
}

// Errors returns only the findings that would make an apply fail
func (r *CheckReport) Errors() []CheckFinding {
	var errors []CheckFinding
	for _, f := range r.Findings {
		if f.Severity == "error" {
			errors = append(errors, f)
		}
	}
	return errors
}

func IntrospectDatabase() ([]ExistingTable, error) {
	ctx := context.Background()
	pool, err := database.GetPool()
	if err != nil {
		return nil, fmt.Errorf("unable to get connection pool: %v", err)
	}

	tablesQuery := `
	SELECT table_name
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_type='BASE TABLE'
	ORDER BY table_name;
	`

	rows, err := pool.Query(ctx, tablesQuery)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %v", err)
	}
	defer rows.Close()

	var tableNames []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("scanning table name: %v", err)
		}
		tableNames = append(tableNames, tableName)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating table rows: %v", rows.Err())
	}

	var tables []ExistingTable
	for _, tableName := range tableNames {
		columns, err := getColumns(ctx, pool, tableName)
		if err != nil {
			return nil, fmt.Errorf("getting columns for table %s: %v", tableName, err)
		}

		foreignKeys, err := getForeignKeys(ctx, pool, tableName)
		if err != nil {
			return nil, fmt.Errorf("getting foreign keys for table %s: %v", tableName, err)
		}

		tables = append(tables, ExistingTable{
			TableName:   tableName,
			Columns:     columns,
			ForeignKeys: foreignKeys,
		})
	}

	return tables, nil
}

// CheckPlan introspects the database and reports conflicts between the
// generation plan and the existing schema. CREATE TABLE IF NOT EXISTS keeps
// whatever table is already there, so mismatched columns surface here instead
// of as failed inserts.
func CheckPlan(ops []plan.Operation) (*CheckReport, error) {
	tables, err := IntrospectDatabase()
	if err != nil {
		return nil, err
	}
	return ComparePlan(ops, tables), nil
}

// compatibleTypes maps each planned column type to the existing column types
// it can insert into.
var compatibleTypes = map[string]map[string]bool{
	"text":      {"text": true, "character varying": true, "character": true, "uuid": true},
	"integer":   {"integer": true, "bigint": true, "smallint": true, "numeric": true},
	"numeric":   {"numeric": true, "real": true, "double precision": true},
	"timestamp": {"timestamp without time zone": true, "timestamp with time zone": true},
	"jsonb":     {"jsonb": true, "json": true},
}

// ComparePlan matches the plan's operations against introspected tables
func ComparePlan(ops []plan.Operation, existing []ExistingTable) *CheckReport {
	report := &CheckReport{Findings: []CheckFinding{}}

	byName := make(map[string]*ExistingTable)
	for i := range existing {
		byName[existing[i].TableName] = &existing[i]
	}

	for _, op := range ops {
		switch op.Type {
		case plan.CreateTable:
			table, ok := byName[op.TableName]
			if !ok {
				report.Findings = append(report.Findings, CheckFinding{
					Table:    op.TableName,
					Message:  fmt.Sprintf("Table '%s' does not exist yet and will be created", op.TableName),
					Severity: "info",
				})
				continue
			}
			compareColumns(&op, table, report)

		case plan.AddForeignKey:
			table, ok := byName[op.TableName]
			if !ok {
				continue
			}
			constraint := fmt.Sprintf("fk_%s_%s", op.TableName, op.Column)
			for _, fk := range table.ForeignKeys {
				if fk.ConstraintName == constraint {
					report.Findings = append(report.Findings, CheckFinding{
						Table:    op.TableName,
						Column:   op.Column,
						Message:  fmt.Sprintf("Constraint '%s' already exists, apply will fail unless the previous seed is rolled back", constraint),
						Severity: "warning",
					})
				}
			}
		}
	}

	return report
}

func compareColumns(op *plan.Operation, table *ExistingTable, report *CheckReport) {
	existingCols := make(map[string]*ExistingColumn)
	for i := range table.Columns {
		existingCols[table.Columns[i].ColumnName] = &table.Columns[i]
	}

	planned := make(map[string]bool)
	for _, col := range op.Columns {
		planned[col.Name] = true

		existing, ok := existingCols[col.Name]
		if !ok {
			report.Findings = append(report.Findings, CheckFinding{
				Table:    op.TableName,
				Column:   col.Name,
				Message:  fmt.Sprintf("Column '%s' is missing from existing table '%s', inserts will fail", col.Name, op.TableName),
				Severity: "error",
			})
			continue
		}

		if compatible := compatibleTypes[col.SQLType]; compatible != nil && !compatible[existing.DataType] {
			report.Findings = append(report.Findings, CheckFinding{
				Table:    op.TableName,
				Column:   col.Name,
				Message:  fmt.Sprintf("Column '%s' is planned as %s but exists as %s", col.Name, col.SQLType, existing.DataType),
				Severity: "warning",
			})
		}
	}

	for _, existing := range table.Columns {
		if planned[existing.ColumnName] {
			continue
		}
		if !existing.IsNullable && existing.ColumnDefault == nil {
			report.Findings = append(report.Findings, CheckFinding{
				Table:    op.TableName,
				Column:   existing.ColumnName,
				Message:  fmt.Sprintf("Existing NOT NULL column '%s' is not populated by the seed and has no default", existing.ColumnName),
				Severity: "error",
			})
		}
	}
}

func getColumns(ctx context.Context, pool *pgxpool.Pool, tableName string) ([]ExistingColumn, error) {
	columnsQuery := `
	SELECT
		c.column_name,
		c.data_type,
		(c.is_nullable = 'YES') as is_nullable,
		c.column_default,
		(CASE WHEN tc.constraint_type = 'PRIMARY KEY' THEN true ELSE false END) as is_primary,
		(CASE WHEN tc.constraint_type = 'UNIQUE' THEN true ELSE false END) as is_unique
	FROM information_schema.columns c
	LEFT JOIN information_schema.key_column_usage kcu
		ON c.table_name = kcu.table_name AND c.column_name = kcu.column_name
	LEFT JOIN information_schema.table_constraints tc
		ON kcu.constraint_name = tc.constraint_name AND kcu.table_name = tc.table_name
	WHERE c.table_schema = 'public' AND c.table_name = $1
	ORDER BY c.ordinal_position;
	`

	rows, err := pool.Query(ctx, columnsQuery, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %v", err)
	}
	defer rows.Close()

	var columns []ExistingColumn
	for rows.Next() {
		var col ExistingColumn
		var nullable bool
		if err := rows.Scan(
			&col.ColumnName,
			&col.DataType,
			&nullable,
			&col.ColumnDefault,
			&col.IsPrimaryKey,
			&col.IsUnique,
		); err != nil {
			return nil, fmt.Errorf("scanning column: %v", err)
		}
		col.IsNullable = nullable
		columns = append(columns, col)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating column rows: %v", rows.Err())
	}

	return columns, nil
}

func getForeignKeys(ctx context.Context, pool *pgxpool.Pool, tableName string) ([]ExistingForeignKey, error) {
	foreignKeysQuery := `
	SELECT
		tc.constraint_name,
		kcu.column_name,
		ccu.table_name AS foreign_table_name,
		ccu.column_name AS foreign_column_name
	FROM information_schema.table_constraints AS tc
	JOIN information_schema.key_column_usage AS kcu
		ON tc.constraint_name = kcu.constraint_name
		AND tc.table_schema = kcu.table_schema
	JOIN information_schema.constraint_column_usage AS ccu
		ON ccu.constraint_name = tc.constraint_name
		AND ccu.table_schema = tc.table_schema
	WHERE tc.constraint_type = 'FOREIGN KEY'
		AND tc.table_schema = 'public'
		AND tc.table_name = $1;
	`

	rows, err := pool.Query(ctx, foreignKeysQuery, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys: %v", err)
	}
	defer rows.Close()

	var foreignKeys []ExistingForeignKey
	for rows.Next() {
		var fk ExistingForeignKey
		if err := rows.Scan(
			&fk.ConstraintName,
			&fk.ColumnName,
			&fk.ReferencesTable,
			&fk.ReferencesColumn,
		); err != nil {
			return nil, fmt.Errorf("scanning foreign key: %v", err)
		}
		foreignKeys = append(foreignKeys, fk)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating foreign key rows: %v", rows.Err())
	}

	return foreignKeys, nil
}
