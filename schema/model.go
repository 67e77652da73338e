package schema

// FieldType is the declared storage type of a field.
type FieldType string

const (
	TypeString    FieldType = "string"
	TypeInteger   FieldType = "integer"
	TypeNumber    FieldType = "number"
	TypeTimestamp FieldType = "timestamp"
	TypeJSON      FieldType = "json"
)

// ValidFieldTypes is the set of accepted field type names.
var ValidFieldTypes = map[FieldType]bool{
	TypeString:    true,
	TypeInteger:   true,
	TypeNumber:    true,
	TypeTimestamp: true,
	TypeJSON:      true,
}

// CountKind selects how the row count of an entity type is resolved.
type CountKind int

const (
	// CountDefault means no count was declared; DefaultRowCount applies.
	CountDefault CountKind = iota
	// CountFixed is a literal integer count.
	CountFixed
	// CountGenerator derives the count from a generator's value list at
	// population time (count = number of distinct literal values).
	CountGenerator
)

// DefaultRowCount is the number of rows created for an entity type that
// declares no count.
const DefaultRowCount = 50

// RowCount is the row-count policy of an entity type.
type RowCount struct {
	Kind      CountKind
	Fixed     int
	Generator string // generator name, for CountGenerator
}

// Field is a single column-like member of an entity type.
type Field struct {
	Name      string
	Type      FieldType
	Key       bool
	Unique    bool
	Required  bool
	Generator string // placeholder expression, e.g. "[first] [last]"
	Default   string // literal fallback when no generator is declared
}

// RelationshipType distinguishes one-to-many links from many-to-many links.
type RelationshipType string

const (
	RelOne  RelationshipType = "one"
	RelMany RelationshipType = "many"
)

// Singular constrains a one-relationship so that specific, named targets are
// assigned to exactly one source row per enumerated context row (e.g. one CEO
// per organisation).
type Singular struct {
	Enumerate string   // entity type iterated row by row (the context)
	Field     string   // lookup field on the target type
	Values    []string // ordered target values, one related row each
}

// DefaultAssign is the field=value query connecting every source row not
// consumed by the singular value list.
type DefaultAssign struct {
	Field string
	Value string
}

// Relationship links two entity types. For RelMany, Count is the number of
// join rows created per source row (0 means the engine default of 1).
type Relationship struct {
	Type     RelationshipType
	From     string // source entity type name
	To       string // target entity type name
	Name     string // defaults to From+To concatenated
	Count    int
	Required bool
	Singular *Singular
	Default  *DefaultAssign
}

// EntityType is a fully resolved record kind: snippets spliced, inheritance
// flattened, row-count policy parsed. Join types synthesized for many-to-many
// relationships carry the originating relationship in JoinOf.
type EntityType struct {
	Name          string
	TableName     string
	Abstract      bool
	Fields        []Field
	Relationships []Relationship
	Count         RowCount
	JoinOf        *Relationship
}

// IsJoin reports whether the type was synthesized for a many-to-many
// relationship.
func (t *EntityType) IsJoin() bool { return t.JoinOf != nil }

// Field returns the field with the given name, or nil.
func (t *EntityType) Field(name string) *Field {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i]
		}
	}
	return nil
}

// KeyField returns the key field of the type, or nil if none is declared.
func (t *EntityType) KeyField() *Field {
	for i := range t.Fields {
		if t.Fields[i].Key {
			return &t.Fields[i]
		}
	}
	return nil
}

// Relationship returns the relationship matching the given name. Both the
// declared relationship name and the bare target type name are accepted,
// which is how trigger scripts address relationships.
func (t *EntityType) Relationship(name string) *Relationship {
	for i := range t.Relationships {
		if t.Relationships[i].Name == name || t.Relationships[i].To == name {
			return &t.Relationships[i]
		}
	}
	return nil
}

// Generator is a named value template: a semicolon-separated literal list, a
// "low>high" numeric range, or a composite string embedding further
// placeholders.
type Generator struct {
	Name   string
	Values string
}

// Trigger binds an ordered list of creation scripts to an entity type. Each
// script runs once per newly created instance of that type.
type Trigger struct {
	Entity  string
	Scripts []string
}

// Assignment overwrites fields of one addressed instance with literal values
// after all generation has finished.
type Assignment struct {
	Target string
	Fields map[string]string
	Order  []string // field application order from the document
}

// Ref identifies an instance by its owning type and creation index. Instances
// reference each other through Refs rather than pointers, so the populated
// graph stays cycle-free for serialization.
type Ref struct {
	Type  string
	Index int
}

// Snippet is a reusable, named field group spliced into entity field lists
// before inheritance resolution.
type Snippet struct {
	Name   string
	Fields []Field
}

// EntityDoc is the raw, loader-normalized form of one entity declaration.
// Field and entity order follow the source document.
type EntityDoc struct {
	Name          string
	Abstract      bool
	Count         string // "", a decimal integer, or a "[generator]" reference
	TableName     string
	Inherits      []string
	Snippets      []string
	Fields        []Field
	Relationships []Relationship
}

// Document is a fully merged schema document: includes resolved, sections
// concatenated, entity order preserved.
type Document struct {
	Generators  []Generator
	Snippets    []Snippet
	Entities    []EntityDoc
	Triggers    []Trigger
	Assignments []Assignment
}

// Generator returns the named generator, or nil.
func (d *Document) Generator(name string) *Generator {
	for i := range d.Generators {
		if d.Generators[i].Name == name {
			return &d.Generators[i]
		}
	}
	return nil
}

// Entity returns the named entity declaration, or nil.
func (d *Document) Entity(name string) *EntityDoc {
	for i := range d.Entities {
		if d.Entities[i].Name == name {
			return &d.Entities[i]
		}
	}
	return nil
}

// Snippet returns the named snippet, or nil.
func (d *Document) Snippet(name string) *Snippet {
	for i := range d.Snippets {
		if d.Snippets[i].Name == name {
			return &d.Snippets[i]
		}
	}
	return nil
}
