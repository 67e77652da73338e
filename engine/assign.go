package engine

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ridoystarlord/seedato/schema"
)

// segmentPattern matches one assignment path segment: a bare member name or
// name(index) for stepping into a back-reference list.
var segmentPattern = regexp.MustCompile(`^([A-Za-z_]\w*)(?:\((\d+)\))?$`)

// applyAssignments runs last in the pipeline: each assignment resolves its
// dotted path to a single instance and overwrites the listed fields with
// literal values. No generation happens here, so re-running an assignment is
// idempotent.
func (c *Context) applyAssignments() error {
	for _, a := range c.reg.Assignments() {
		inst, err := c.resolvePath(a.Target)
		if err != nil {
			return fmt.Errorf("assignment %q: %v", a.Target, err)
		}
		order := a.Order
		if len(order) == 0 {
			for f := range a.Fields {
				order = append(order, f)
			}
			sort.Strings(order)
		}
		for _, f := range order {
			inst.Values[f] = a.Fields[f]
		}
	}
	return nil
}

// resolvePath walks a dotted, indexed path through the graph: the first
// segment names a table with a row index, later segments follow forward
// references (no index) or back-reference lists (index required).
func (c *Context) resolvePath(path string) (*Instance, error) {
	parts := strings.Split(path, ".")
	name, idx, hasIdx, err := parseSegment(parts[0])
	if err != nil {
		return nil, err
	}
	root := c.reg.TypeByTable(name)
	if root == nil {
		root = c.reg.Type(name)
	}
	if root == nil {
		return nil, fmt.Errorf("unknown table %q", name)
	}
	if !hasIdx {
		return nil, fmt.Errorf("root segment %q needs a row index", parts[0])
	}
	tbl, err := c.acquire(root.Name)
	if err != nil {
		return nil, err
	}
	if idx >= len(tbl.Instances) {
		return nil, fmt.Errorf("row %d out of range, table %s has %d rows", idx, root.TableName, len(tbl.Instances))
	}

	cur := tbl.Instances[idx]
	for _, seg := range parts[1:] {
		name, idx, hasIdx, err = parseSegment(seg)
		if err != nil {
			return nil, err
		}
		switch m := cur.Values[name].(type) {
		case schema.Ref:
			if hasIdx {
				return nil, fmt.Errorf("segment %q: %q is a single reference, drop the index", seg, name)
			}
			cur = c.instance(m)
		case *RefList:
			if !hasIdx {
				return nil, fmt.Errorf("segment %q: %q is a reference list, an index is required", seg, name)
			}
			if idx >= len(m.Refs) {
				return nil, fmt.Errorf("segment %q: index %d out of range, list has %d entries", seg, idx, len(m.Refs))
			}
			cur = c.instance(m.Refs[idx])
		default:
			return nil, fmt.Errorf("%s has no connected member %q", cur.Type.Name, name)
		}
	}
	return cur, nil
}

func parseSegment(seg string) (name string, idx int, hasIdx bool, err error) {
	m := segmentPattern.FindStringSubmatch(seg)
	if m == nil {
		return "", 0, false, fmt.Errorf("malformed path segment %q", seg)
	}
	if m[2] == "" {
		return m[1], 0, false, nil
	}
	idx, _ = strconv.Atoi(m[2])
	return m[1], idx, true, nil
}
