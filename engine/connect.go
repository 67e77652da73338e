package engine

import (
	"fmt"

	"github.com/ridoystarlord/seedato/schema"
)

// connectDefaults is the first connection pass: every one-relationship
// without a singular or default descriptor gets wired here. Sources take
// target rows in round-robin order until every target has been used once,
// then fall back to uniformly random targets. Rows a trigger script already
// connected keep their connection.
func (c *Context) connectDefaults() error {
	for _, t := range c.order {
		if t.Type.IsJoin() {
			continue
		}
		for i := range t.Type.Relationships {
			rel := &t.Type.Relationships[i]
			if rel.Type != schema.RelOne || rel.Singular != nil || rel.Default != nil {
				continue
			}
			target, err := c.acquire(rel.To)
			if err != nil {
				return err
			}
			if len(target.Instances) == 0 {
				return fmt.Errorf("relationship %s.%s: target table %s has no rows", t.Type.Name, rel.Name, rel.To)
			}
			next := 0
			for _, src := range t.Instances {
				if _, connected := src.Values[rel.To].(schema.Ref); connected {
					continue
				}
				var tgt *Instance
				if next < len(target.Instances) {
					tgt = target.Instances[next]
					next++
				} else {
					tgt = target.Instances[c.rand.Intn(len(target.Instances))]
				}
				c.connectRows(src, tgt)
			}
		}
	}
	return nil
}

// connectJoins is the second pass: it synthesizes the rows of every join
// table. Each source row gets the relationship's declared count of join rows,
// capped at the number of target rows, each pointing at a distinct random
// target. Join rows expand immediately so later passes can query them.
func (c *Context) connectJoins() error {
	for _, t := range c.order {
		if !t.Type.IsJoin() {
			continue
		}
		rel := t.Type.JoinOf
		source, err := c.acquire(rel.From)
		if err != nil {
			return fmt.Errorf("join table %s: %v", t.Type.TableName, err)
		}
		target, err := c.acquire(rel.To)
		if err != nil {
			return fmt.Errorf("join table %s: %v", t.Type.TableName, err)
		}
		t.filled = true

		count := rel.Count
		if count < 1 {
			count = 1
		}
		if count > len(target.Instances) {
			count = len(target.Instances)
		}
		if count == 0 {
			continue
		}
		for _, src := range source.Instances {
			for _, pick := range c.rand.Perm(len(target.Instances))[:count] {
				join, err := c.newInstance(t)
				if err != nil {
					return err
				}
				c.connectRows(join, src)
				c.connectRows(join, target.Instances[pick])
				if err := c.expandInstance(join); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// connectSingulars is the third pass: relationships carrying a singular or
// default descriptor. For each row of the enumerated context table, the i-th
// singular value picks the lookup row for the i-th related instance; rows
// beyond the singular list fall back to the default field=value lookup.
func (c *Context) connectSingulars() error {
	for _, t := range c.order {
		if t.Type.IsJoin() {
			continue
		}
		for i := range t.Type.Relationships {
			rel := &t.Type.Relationships[i]
			if rel.Type != schema.RelOne || (rel.Singular == nil && rel.Default == nil) {
				continue
			}
			if err := c.connectSingular(t, rel); err != nil {
				return fmt.Errorf("relationship %s.%s: %v", t.Type.Name, rel.Name, err)
			}
		}
	}
	return nil
}

func (c *Context) connectSingular(t *Table, rel *schema.Relationship) error {
	if rel.Singular == nil {
		// Default-only descriptor: every row not already connected, for
		// instance by a creation script, gets the same lookup target.
		def, err := c.queryInstance(rel.To, rel.Default.Field, rel.Default.Value)
		if err != nil {
			return err
		}
		for _, src := range t.Instances {
			if _, connected := src.Values[rel.To].(schema.Ref); connected {
				continue
			}
			c.connectRows(src, def)
		}
		return nil
	}

	enum, err := c.acquire(rel.Singular.Enumerate)
	if err != nil {
		return err
	}
	for _, ctxRow := range enum.Instances {
		related := ctxRow.BackRefs(t.Type.TableName)
		if len(rel.Singular.Values) > len(related) {
			return fmt.Errorf("%d singular values but only %d %s rows under %s row %d",
				len(rel.Singular.Values), len(related), t.Type.TableName, rel.Singular.Enumerate, ctxRow.Index)
		}
		for vi, v := range rel.Singular.Values {
			tgt, err := c.queryInstance(rel.To, rel.Singular.Field, v)
			if err != nil {
				return err
			}
			c.connectRows(c.instance(related[vi]), tgt)
		}
		if rel.Default == nil {
			continue
		}
		def, err := c.queryInstance(rel.To, rel.Default.Field, rel.Default.Value)
		if err != nil {
			return err
		}
		for _, ref := range related[len(rel.Singular.Values):] {
			src := c.instance(ref)
			if _, connected := src.Values[rel.To].(schema.Ref); connected {
				continue
			}
			c.connectRows(src, def)
		}
	}
	return nil
}
