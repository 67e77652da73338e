package engine

import (
	"fmt"

	"github.com/ridoystarlord/seedato/schema"
)

// Table owns the instances of one concrete entity type. Instance order is
// creation order, which indexed script addressing depends on.
type Table struct {
	Type      *schema.EntityType
	Instances []*Instance

	// filled is set once the population pass has created the type's row
	// count; rows added by trigger scripts do not count as filling.
	filled bool
}

// Instance is one concrete record. Values maps field names to resolved or
// still-unresolved literals, forward references (schema.Ref) and
// back-reference lists (*RefList). Instances never own each other; the table
// owns them all.
type Instance struct {
	Type   *schema.EntityType
	Index  int
	Values map[string]any

	// resolved marks the row as token-expanded; expansion is idempotent.
	resolved bool
	// scratch holds one uniqueness attempt's values; discarded on retry.
	scratch map[string]string
}

// Ref returns the instance's stable graph address.
func (i *Instance) Ref() schema.Ref {
	return schema.Ref{Type: i.Type.Name, Index: i.Index}
}

// FieldValue returns the literal value of a field, or "" when the field is
// absent or holds a reference.
func (i *Instance) FieldValue(name string) string {
	s, _ := i.Values[name].(string)
	return s
}

// ForwardRef returns the forward reference stored under name.
func (i *Instance) ForwardRef(name string) (schema.Ref, bool) {
	r, ok := i.Values[name].(schema.Ref)
	return r, ok
}

// BackRefs returns the back-reference list stored under name, in append
// order, or nil.
func (i *Instance) BackRefs(name string) []schema.Ref {
	if l, ok := i.Values[name].(*RefList); ok {
		return l.Refs
	}
	return nil
}

// RefList is a growable, ordered collection of back-references.
type RefList struct {
	Refs []schema.Ref
}

func (l *RefList) contains(r schema.Ref) bool {
	for _, have := range l.Refs {
		if have == r {
			return true
		}
	}
	return false
}

// fillTable creates the table's declared number of instances, each field
// initialized to its unresolved generator expression. Trigger scripts run per
// created instance, before its siblings exist. A table that was already
// filled, lazily or otherwise, is never re-filled.
func (c *Context) fillTable(t *Table) error {
	if t.filled {
		return nil
	}
	t.filled = true

	count, err := c.resolveCount(t.Type)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		if _, err := c.newInstance(t); err != nil {
			return err
		}
	}
	return nil
}

// newInstance appends a fresh instance to the table and immediately runs the
// type's creation scripts against it.
func (c *Context) newInstance(t *Table) (*Instance, error) {
	inst := &Instance{
		Type:   t.Type,
		Index:  len(t.Instances),
		Values: map[string]any{},
	}
	for _, f := range t.Type.Fields {
		expr := f.Generator
		if expr == "" {
			expr = f.Default
		}
		inst.Values[f.Name] = expr
	}
	t.Instances = append(t.Instances, inst)

	if err := c.runScripts(inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// resolveCount applies the row-count policy. Generator-bound counts resolve
// to the number of literal values the generator's list can produce; zero is
// an error.
func (c *Context) resolveCount(t *schema.EntityType) (int, error) {
	switch t.Count.Kind {
	case schema.CountFixed:
		return t.Count.Fixed, nil
	case schema.CountGenerator:
		g := c.reg.Generator(t.Count.Generator)
		if g == nil {
			return 0, fmt.Errorf("table %s: count references unknown generator %q", t.TableName, t.Count.Generator)
		}
		n := len(splitList(g.Values))
		if n == 0 {
			return 0, fmt.Errorf("table %s: generator %q resolves to a row count of zero", t.TableName, t.Count.Generator)
		}
		return n, nil
	default:
		return schema.DefaultRowCount, nil
	}
}
