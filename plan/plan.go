package plan

import (
	"fmt"

	"github.com/go-openapi/inflect"
	"github.com/ridoystarlord/seedato/engine"
	"github.com/ridoystarlord/seedato/schema"
)

type OperationType string

const (
	CreateTable   OperationType = "CREATE_TABLE"
	InsertRows    OperationType = "INSERT_ROWS"
	AddForeignKey OperationType = "ADD_FOREIGN_KEY"
)

// Column is one rendered column of a seed table.
type Column struct {
	Name    string
	SQLType string
	Primary bool
	Unique  bool
	NotNull bool
}

// Value is one rendered cell. Null distinguishes an absent reference from an
// empty string.
type Value struct {
	Text string
	Null bool
}

type Operation struct {
	Type      OperationType
	TableName string
	Columns   []Column  // for CREATE_TABLE, INSERT_ROWS
	Rows      [][]Value // for INSERT_ROWS, aligned with Columns
	Column    string    // for ADD_FOREIGN_KEY
	RefTable  string    // for ADD_FOREIGN_KEY
	RefColumn string    // for ADD_FOREIGN_KEY
}

var sqlTypes = map[schema.FieldType]string{
	schema.TypeString:    "text",
	schema.TypeInteger:   "integer",
	schema.TypeNumber:    "numeric",
	schema.TypeTimestamp: "timestamp",
	schema.TypeJSON:      "jsonb",
}

// FromGraph flattens a populated graph into an ordered operation list: every
// CREATE TABLE first, then the INSERTs in registration order, and all
// foreign keys last so insert order never trips over references between
// tables.
func FromGraph(g *engine.Graph) ([]Operation, error) {
	var creates, inserts, fks []Operation

	for _, tbl := range g.Tables() {
		tp, err := planTable(g.Registry(), tbl.Type)
		if err != nil {
			return nil, err
		}
		name := TableName(tbl.Type)

		creates = append(creates, Operation{
			Type:      CreateTable,
			TableName: name,
			Columns:   tp.columns,
		})

		rows, err := renderRows(g, tbl, tp)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			inserts = append(inserts, Operation{
				Type:      InsertRows,
				TableName: name,
				Columns:   tp.columns,
				Rows:      rows,
			})
		}

		for i, rel := range tp.rels {
			target := g.Registry().Type(rel.To)
			fks = append(fks, Operation{
				Type:      AddForeignKey,
				TableName: name,
				Column:    tp.columns[len(tp.fields)+i].Name,
				RefTable:  TableName(target),
				RefColumn: inflect.Underscore(target.KeyField().Name),
			})
		}
	}

	ops := append(creates, inserts...)
	return append(ops, fks...), nil
}

// TableName renders an entity type's SQL table name in snake_case.
func TableName(t *schema.EntityType) string {
	return inflect.Underscore(t.TableName)
}

// tablePlan pins the column layout of one table: declared fields first, then
// one foreign-key column per one-relationship, both in declaration order.
type tablePlan struct {
	columns []Column
	fields  []string              // source field per field column
	rels    []schema.Relationship // one-relationships, aligned with FK columns
}

func planTable(reg *schema.Registry, t *schema.EntityType) (*tablePlan, error) {
	tp := &tablePlan{}

	for _, f := range t.Fields {
		sqlType, ok := sqlTypes[f.Type]
		if !ok {
			return nil, fmt.Errorf("table %s field %s: no SQL type for %q", t.TableName, f.Name, f.Type)
		}
		tp.columns = append(tp.columns, Column{
			Name:    inflect.Underscore(f.Name),
			SQLType: sqlType,
			Primary: f.Key,
			Unique:  f.Unique,
			NotNull: f.Required || f.Key,
		})
		tp.fields = append(tp.fields, f.Name)
	}

	for _, rel := range t.Relationships {
		if rel.Type != schema.RelOne {
			continue
		}
		target := reg.Type(rel.To)
		key := target.KeyField()
		if key == nil {
			return nil, fmt.Errorf("table %s relationship %s: target %s has no key field to reference", t.TableName, rel.Name, rel.To)
		}
		tp.columns = append(tp.columns, Column{
			Name:    inflect.Underscore(rel.To) + "_id",
			SQLType: sqlTypes[key.Type],
			NotNull: rel.Required,
		})
		tp.rels = append(tp.rels, rel)
	}

	return tp, nil
}

func renderRows(g *engine.Graph, tbl *engine.Table, tp *tablePlan) ([][]Value, error) {
	rows := make([][]Value, 0, len(tbl.Instances))
	for _, inst := range tbl.Instances {
		row := make([]Value, 0, len(tp.columns))
		for _, fieldName := range tp.fields {
			row = append(row, Value{Text: inst.FieldValue(fieldName)})
		}
		for _, rel := range tp.rels {
			ref, ok := inst.ForwardRef(rel.To)
			if !ok {
				if rel.Required {
					return nil, fmt.Errorf("table %s row %d: required relationship %s is not connected", tbl.Type.TableName, inst.Index, rel.Name)
				}
				row = append(row, Value{Null: true})
				continue
			}
			target, _ := g.Instance(ref)
			key := g.Registry().Type(rel.To).KeyField()
			row = append(row, Value{Text: target.FieldValue(key.Name)})
		}
		rows = append(rows, row)
	}
	return rows, nil
}
