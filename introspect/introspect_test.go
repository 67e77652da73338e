package introspect_test

import (
	"testing"

	"github.com/ridoystarlord/seedato/introspect"
	"github.com/ridoystarlord/seedato/plan"
	"github.com/stretchr/testify/assert"
)

func usersCreate() plan.Operation {
	return plan.Operation{
		Type:      plan.CreateTable,
		TableName: "users",
		Columns: []plan.Column{
			{Name: "id", SQLType: "text", Primary: true},
			{Name: "age", SQLType: "integer"},
		},
	}
}

func usersTable(columns ...introspect.ExistingColumn) introspect.ExistingTable {
	return introspect.ExistingTable{TableName: "users", Columns: columns}
}

func messages(report *introspect.CheckReport) []string {
	var msgs []string
	for _, f := range report.Findings {
		msgs = append(msgs, f.Severity+": "+f.Message)
	}
	return msgs
}

func TestCompareReportsMissingTableAsInfo(t *testing.T) {
	report := introspect.ComparePlan([]plan.Operation{usersCreate()}, nil)

	assert.Len(t, report.Findings, 1)
	assert.Equal(t, "info", report.Findings[0].Severity)
	assert.Empty(t, report.Errors())
}

func TestCompareReportsMissingColumn(t *testing.T) {
	existing := []introspect.ExistingTable{
		usersTable(introspect.ExistingColumn{ColumnName: "id", DataType: "text", IsNullable: true}),
	}

	report := introspect.ComparePlan([]plan.Operation{usersCreate()}, existing)

	errors := report.Errors()
	assert.Len(t, errors, 1)
	assert.Equal(t, "age", errors[0].Column)
}

func TestCompareAcceptsCompatibleTypes(t *testing.T) {
	existing := []introspect.ExistingTable{
		usersTable(
			introspect.ExistingColumn{ColumnName: "id", DataType: "character varying", IsNullable: true},
			introspect.ExistingColumn{ColumnName: "age", DataType: "bigint", IsNullable: true},
		),
	}

	report := introspect.ComparePlan([]plan.Operation{usersCreate()}, existing)

	assert.Empty(t, report.Findings, "findings: %v", messages(report))
}

func TestCompareWarnsOnTypeMismatch(t *testing.T) {
	existing := []introspect.ExistingTable{
		usersTable(
			introspect.ExistingColumn{ColumnName: "id", DataType: "text", IsNullable: true},
			introspect.ExistingColumn{ColumnName: "age", DataType: "boolean", IsNullable: true},
		),
	}

	report := introspect.ComparePlan([]plan.Operation{usersCreate()}, existing)

	assert.Len(t, report.Findings, 1)
	assert.Equal(t, "warning", report.Findings[0].Severity)
	assert.Empty(t, report.Errors())
}

func TestCompareFlagsUnpopulatedNotNullColumn(t *testing.T) {
	def := "now()"
	existing := []introspect.ExistingTable{
		usersTable(
			introspect.ExistingColumn{ColumnName: "id", DataType: "text", IsNullable: true},
			introspect.ExistingColumn{ColumnName: "age", DataType: "integer", IsNullable: true},
			introspect.ExistingColumn{ColumnName: "tenant", DataType: "text", IsNullable: false},
			introspect.ExistingColumn{ColumnName: "created_at", DataType: "timestamp without time zone", IsNullable: false, ColumnDefault: &def},
		),
	}

	report := introspect.ComparePlan([]plan.Operation{usersCreate()}, existing)

	errors := report.Errors()
	assert.Len(t, errors, 1)
	assert.Equal(t, "tenant", errors[0].Column)
}

func TestCompareWarnsOnExistingConstraint(t *testing.T) {
	ops := []plan.Operation{
		{Type: plan.AddForeignKey, TableName: "users", Column: "organisation_id", RefTable: "organisations", RefColumn: "id"},
	}
	existing := []introspect.ExistingTable{
		{
			TableName: "users",
			ForeignKeys: []introspect.ExistingForeignKey{
				{ConstraintName: "fk_users_organisation_id", ColumnName: "organisation_id"},
			},
		},
	}

	report := introspect.ComparePlan(ops, existing)

	assert.Len(t, report.Findings, 1)
	assert.Equal(t, "warning", report.Findings[0].Severity)
	assert.Contains(t, report.Findings[0].Message, "fk_users_organisation_id")
}
