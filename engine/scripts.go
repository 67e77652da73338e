package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// maxScriptDepth caps nested trigger execution. A script creating children
// whose own triggers create more children recurses; a bounded index normally
// stops the chain, but a cyclic document would not.
const maxScriptDepth = 100

// script is one parsed trigger statement of the form
//
//	Table(index).Relationship?field=value
//	Table(start-end).Relationship?field=value
//
// addressing rows of the parent's back-reference list under Table.
type script struct {
	raw        string
	table      string
	start, end int
	relation   string
	queryField string
	queryValue string
}

var scriptPattern = regexp.MustCompile(`^([A-Za-z_]\w*)\((\d+)(?:-(\d+))?\)\.([A-Za-z_]\w*)\?([A-Za-z_]\w*)=(.+)$`)

func parseScript(raw string) (*script, error) {
	m := scriptPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return nil, fmt.Errorf("malformed script %q, want Table(index).Relationship?field=value", raw)
	}
	s := &script{raw: raw, table: m[1], relation: m[4], queryField: m[5], queryValue: m[6]}
	s.start, _ = strconv.Atoi(m[2])
	s.end = s.start
	if m[3] != "" {
		s.end, _ = strconv.Atoi(m[3])
		if s.end < s.start {
			return nil, fmt.Errorf("script %q: descending index range %d-%d", raw, s.start, s.end)
		}
	}
	return s, nil
}

// runScripts executes every trigger registered for the instance's type,
// immediately on creation. The parent may still hold unresolved placeholders;
// scripts only touch its back-reference lists.
func (c *Context) runScripts(parent *Instance) error {
	scripts := c.reg.Scripts(parent.Type.Name)
	if len(scripts) == 0 {
		return nil
	}
	if c.scriptDepth >= maxScriptDepth {
		return fmt.Errorf("trigger scripts on %s nested deeper than %d levels, document likely cyclic", parent.Type.Name, maxScriptDepth)
	}
	c.scriptDepth++
	defer func() { c.scriptDepth-- }()

	for _, raw := range scripts {
		s, err := parseScript(raw)
		if err != nil {
			return err
		}
		if err := c.executeScript(parent, s); err != nil {
			return fmt.Errorf("script %q on %s: %v", raw, parent.Type.Name, err)
		}
	}
	return nil
}

// executeScript applies one statement to one parent instance. Indices that
// already exist in the parent's list get their connection to the query target
// re-established; missing indices are created as fresh child rows, connected
// to both the parent and the target, and expanded on the spot. New children
// run their own triggers, so creation cascades.
func (c *Context) executeScript(parent *Instance, s *script) error {
	childType := c.reg.TypeByTable(s.table)
	if childType == nil {
		return fmt.Errorf("no table named %q", s.table)
	}
	childTable := c.tables[childType.Name]
	rel := childType.Relationship(s.relation)
	if rel == nil {
		return fmt.Errorf("%s has no relationship %q", childType.Name, s.relation)
	}
	target, err := c.queryInstance(rel.To, s.queryField, s.queryValue)
	if err != nil {
		return err
	}

	for idx := s.start; idx <= s.end; idx++ {
		refs := parent.BackRefs(s.table)
		if idx < len(refs) {
			c.connectRows(c.instance(refs[idx]), target)
			continue
		}
		for len(parent.BackRefs(s.table)) <= idx {
			child, err := c.newInstance(childTable)
			if err != nil {
				return err
			}
			c.connectRows(child, parent)
			c.connectRows(child, target)
			if err := c.expandInstance(child); err != nil {
				return err
			}
		}
	}
	return nil
}
