package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Registry holds the fully resolved entity types of one schema document,
// together with the generators, triggers and assignments the generation
// engine needs. Types are immutable once built.
type Registry struct {
	types       []*EntityType
	byName      map[string]*EntityType
	generators  map[string]*Generator
	triggers    map[string][]string
	assignments []Assignment
}

// BuildRegistry resolves a merged schema document into the full list of
// entity types: snippets spliced, inheritance flattened, row-count policies
// parsed, and one join type synthesized per many-to-many relationship.
func BuildRegistry(doc *Document) (*Registry, error) {
	r := &Registry{
		byName:     map[string]*EntityType{},
		generators: map[string]*Generator{},
		triggers:   map[string][]string{},
	}

	for i := range doc.Generators {
		g := &doc.Generators[i]
		if _, ok := r.generators[g.Name]; ok {
			return nil, fmt.Errorf("duplicate generator %q", g.Name)
		}
		r.generators[g.Name] = g
	}

	for _, ent := range doc.Entities {
		et, err := r.resolveEntity(doc, ent)
		if err != nil {
			return nil, err
		}
		if _, ok := r.byName[et.Name]; ok {
			return nil, fmt.Errorf("duplicate entity type %q", et.Name)
		}
		r.byName[et.Name] = et
		// Abstract types exist only for inheritance; they never get a
		// table of their own.
		if !et.Abstract {
			r.types = append(r.types, et)
		}
	}

	if err := r.synthesizeJoins(); err != nil {
		return nil, err
	}
	if err := r.checkRelationships(); err != nil {
		return nil, err
	}

	for _, tr := range doc.Triggers {
		if _, ok := r.byName[tr.Entity]; !ok {
			return nil, fmt.Errorf("trigger references unknown entity %q", tr.Entity)
		}
		r.triggers[tr.Entity] = append(r.triggers[tr.Entity], tr.Scripts...)
	}
	r.assignments = doc.Assignments

	return r, nil
}

// Types returns the concrete entity types in registration order; synthesized
// join types follow the declared ones. Abstract types are resolvable through
// Type but own no table.
func (r *Registry) Types() []*EntityType { return r.types }

// Type returns the entity type with the given name, or nil.
func (r *Registry) Type(name string) *EntityType { return r.byName[name] }

// TypeByTable returns the entity type owning the given table name, or nil.
func (r *Registry) TypeByTable(table string) *EntityType {
	for _, t := range r.types {
		if t.TableName == table {
			return t
		}
	}
	return nil
}

// Generator returns the named generator, or nil.
func (r *Registry) Generator(name string) *Generator { return r.generators[name] }

// Scripts returns the creation scripts registered for an entity type, in
// declaration order.
func (r *Registry) Scripts(entity string) []string { return r.triggers[entity] }

// Assignments returns the post-generation literal overrides in order.
func (r *Registry) Assignments() []Assignment { return r.assignments }

// resolveEntity expands snippets, flattens inheritance and parses the
// row-count policy of a single entity declaration.
func (r *Registry) resolveEntity(doc *Document, ent EntityDoc) (*EntityType, error) {
	et := &EntityType{
		Name:      ent.Name,
		TableName: ent.TableName,
		Abstract:  ent.Abstract,
	}
	if et.TableName == "" {
		et.TableName = ent.Name
	}

	// Snippet expansion happens before inheritance: the referenced field
	// group is spliced in verbatim, ahead of the entity's own fields.
	var own []Field
	for _, name := range ent.Snippets {
		sn := doc.Snippet(name)
		if sn == nil {
			return nil, fmt.Errorf("entity %q references unknown snippet %q", ent.Name, name)
		}
		own = append(own, sn.Fields...)
	}
	own = append(own, ent.Fields...)

	// Inherited fields come first, in base declaration order. The same
	// field arriving through two bases (diamond) is kept once; an entity
	// re-declaring an inherited field is an error.
	seen := map[string]bool{}
	for _, base := range ent.Inherits {
		bt, ok := r.byName[base]
		if !ok {
			return nil, fmt.Errorf("entity %q inherits unknown type %q (bases must be declared first)", ent.Name, base)
		}
		for _, f := range bt.Fields {
			if seen[f.Name] {
				continue
			}
			seen[f.Name] = true
			et.Fields = append(et.Fields, f)
		}
	}
	for _, f := range own {
		if seen[f.Name] {
			return nil, fmt.Errorf("duplicate field %q on entity %q", f.Name, ent.Name)
		}
		seen[f.Name] = true
		if f.Type == "" {
			f.Type = TypeString
		}
		if !ValidFieldTypes[f.Type] {
			return nil, fmt.Errorf("entity %q field %q has unknown type %q", ent.Name, f.Name, f.Type)
		}
		et.Fields = append(et.Fields, f)
	}

	keys := 0
	for _, f := range et.Fields {
		if f.Key {
			keys++
		}
	}
	if keys > 1 {
		return nil, fmt.Errorf("entity %q declares %d key fields, at most one is allowed", ent.Name, keys)
	}

	count, err := parseRowCount(ent.Count)
	if err != nil {
		return nil, fmt.Errorf("entity %q: %v", ent.Name, err)
	}
	et.Count = count

	for _, rel := range ent.Relationships {
		rel.From = ent.Name
		if rel.Name == "" {
			rel.Name = rel.From + rel.To
		}
		if rel.Type != RelOne && rel.Type != RelMany {
			return nil, fmt.Errorf("entity %q relationship to %q has invalid type %q", ent.Name, rel.To, rel.Type)
		}
		et.Relationships = append(et.Relationships, rel)
	}

	return et, nil
}

// parseRowCount interprets the raw count value: empty means the default,
// "[name]" defers to a generator's value list, anything else must be a
// positive integer.
func parseRowCount(raw string) (RowCount, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return RowCount{Kind: CountDefault}, nil
	}
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		name := strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
		if name == "" {
			return RowCount{}, fmt.Errorf("empty generator reference in count")
		}
		return RowCount{Kind: CountGenerator, Generator: name}, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return RowCount{}, fmt.Errorf("invalid count %q", raw)
	}
	if n <= 0 {
		return RowCount{}, fmt.Errorf("count must be positive, got %d", n)
	}
	return RowCount{Kind: CountFixed, Fixed: n}, nil
}

// synthesizeJoins emits one join entity type per declared many-to-many
// relationship: a UUID key plus two required one-relationships back to the
// endpoints. The join type keeps a reference to its originating relationship
// for the join-population pass.
func (r *Registry) synthesizeJoins() error {
	for _, t := range r.types {
		if t.IsJoin() {
			continue
		}
		for i := range t.Relationships {
			rel := &t.Relationships[i]
			if rel.Type != RelMany {
				continue
			}
			// The relationship name doubles as the join type name; it
			// defaults to the concatenation of the two endpoint names.
			name := rel.Name
			if _, ok := r.byName[name]; ok {
				return fmt.Errorf("join type %q for relationship %s->%s collides with an existing entity", name, rel.From, rel.To)
			}
			join := &EntityType{
				Name:      name,
				TableName: name,
				Fields: []Field{
					{Name: "id", Type: TypeString, Key: true, Generator: "[uuid]"},
				},
				Relationships: []Relationship{
					{Type: RelOne, From: name, To: rel.From, Name: name + rel.From, Required: true},
					{Type: RelOne, From: name, To: rel.To, Name: name + rel.To, Required: true},
				},
				JoinOf: rel,
			}
			r.types = append(r.types, join)
			r.byName[name] = join
		}
	}
	return nil
}

// checkRelationships verifies every relationship endpoint resolves to a
// concrete entity type. Abstract types cannot be targeted because they own
// no rows to connect to.
func (r *Registry) checkRelationships() error {
	for _, t := range r.types {
		for _, rel := range t.Relationships {
			if err := r.checkEndpoint(t.Name, rel.To); err != nil {
				return err
			}
			if rel.Singular != nil {
				if err := r.checkEndpoint(t.Name, rel.Singular.Enumerate); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *Registry) checkEndpoint(from, to string) error {
	target, ok := r.byName[to]
	if !ok {
		return fmt.Errorf("entity %q relationship references unknown entity %q", from, to)
	}
	if target.Abstract {
		return fmt.Errorf("entity %q relationship references abstract entity %q", from, to)
	}
	return nil
}
