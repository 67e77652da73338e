package engine

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/ridoystarlord/seedato/schema"
)

// Context carries everything a generation run needs: the resolved registry,
// the table arena, the random source and the per-type unique-value sets. It
// is threaded explicitly through every stage instead of living in globals, so
// two runs never share state.
type Context struct {
	reg    *schema.Registry
	rand   *rand.Rand
	tables map[string]*Table
	order  []*Table

	// used tracks normalized values already taken per type and field, for
	// fields declared unique.
	used map[string]map[string]map[string]struct{}

	// scriptDepth guards against trigger scripts that create instances of
	// types whose own triggers create more, without a bounded index ever
	// stopping the chain.
	scriptDepth int
}

func newContext(reg *schema.Registry, rnd *rand.Rand) *Context {
	c := &Context{
		reg:    reg,
		rand:   rnd,
		tables: map[string]*Table{},
		used:   map[string]map[string]map[string]struct{}{},
	}
	for _, t := range reg.Types() {
		tbl := &Table{Type: t}
		c.tables[t.Name] = tbl
		c.order = append(c.order, tbl)
	}
	return c
}

// acquire returns the table for an entity type, populating it on first
// access. Lazy population runs both the fill and the token expansion, so a
// table pulled in early by a trigger query is immediately usable; tables the
// main population pass already filled come back untouched.
func (c *Context) acquire(typeName string) (*Table, error) {
	t, ok := c.tables[typeName]
	if !ok {
		return nil, fmt.Errorf("no table registered for type %q", typeName)
	}
	if !t.filled && !t.Type.IsJoin() {
		if err := c.fillTable(t); err != nil {
			return nil, err
		}
		if err := c.ensureExpanded(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// instance dereferences a graph address. Refs are only minted by this
// package, so a dangling one is an internal invariant violation.
func (c *Context) instance(ref schema.Ref) *Instance {
	t, ok := c.tables[ref.Type]
	if !ok || ref.Index < 0 || ref.Index >= len(t.Instances) {
		panic(fmt.Sprintf("engine: dangling reference %s[%d]", ref.Type, ref.Index))
	}
	return t.Instances[ref.Index]
}

// connectRows wires source to target in both directions: a forward reference
// on the source under the target's type name, and an appended back-reference
// on the target under the source's table name. Reconnecting an existing pair
// is a no-op on the list side and an overwrite on the pointer side.
func (c *Context) connectRows(source, target *Instance) {
	source.Values[target.Type.Name] = target.Ref()

	key := source.Type.TableName
	list, ok := target.Values[key].(*RefList)
	if !ok {
		list = &RefList{}
		target.Values[key] = list
	}
	if !list.contains(source.Ref()) {
		list.Refs = append(list.Refs, source.Ref())
	}
}

// fillAll populates every non-join table in registration order. Join tables
// stay empty until the relationship connector synthesizes their rows.
func (c *Context) fillAll() error {
	for _, t := range c.order {
		if t.Type.IsJoin() {
			continue
		}
		if err := c.fillTable(t); err != nil {
			return err
		}
	}
	return nil
}

// expandAll resolves every placeholder in every populated table. Rows that
// were already expanded, by lazy access or by a trigger script, are skipped.
func (c *Context) expandAll() error {
	for _, t := range c.order {
		if err := c.ensureExpanded(t); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) ensureExpanded(t *Table) error {
	for _, inst := range t.Instances {
		if err := c.expandInstance(inst); err != nil {
			return err
		}
	}
	return nil
}

// queryInstance finds the first instance of a type whose field equals value,
// expanding the table if needed so generated fields are queryable.
func (c *Context) queryInstance(typeName, field, value string) (*Instance, error) {
	t, err := c.acquire(typeName)
	if err != nil {
		return nil, err
	}
	if err := c.ensureExpanded(t); err != nil {
		return nil, err
	}
	for _, inst := range t.Instances {
		if v, ok := inst.Values[field].(string); ok && v == value {
			return inst, nil
		}
	}
	return nil, fmt.Errorf("no %s row matching %s=%q", typeName, field, value)
}

func normalizeUnique(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func (c *Context) isUsed(typeName, field, norm string) bool {
	_, ok := c.used[typeName][field][norm]
	return ok
}

func (c *Context) markUsed(typeName, field, norm string) {
	byField, ok := c.used[typeName]
	if !ok {
		byField = map[string]map[string]struct{}{}
		c.used[typeName] = byField
	}
	values, ok := byField[field]
	if !ok {
		values = map[string]struct{}{}
		byField[field] = values
	}
	values[norm] = struct{}{}
}
