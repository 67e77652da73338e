package validator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ridoystarlord/seedato/database"
	"github.com/ridoystarlord/seedato/schema"
)

// ValidationError represents a validation finding with details
type ValidationError struct {
	Type     string `json:"type"`
	Entity   string `json:"entity,omitempty"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // "error", "warning", "info"
}

// ValidationResult contains all validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
	Info     []ValidationError `json:"info"`
}

// DocumentValidator validates schema documents before generation
type DocumentValidator struct {
	pool *pgxpool.Pool
}

// NewDocumentValidator creates a validator with a database connection
func NewDocumentValidator() (*DocumentValidator, error) {
	pool, err := database.GetPool()
	if err != nil {
		return nil, fmt.Errorf("failed to get database pool: %v", err)
	}

	return &DocumentValidator{
		pool: pool,
	}, nil
}

var (
	tokenPattern   = regexp.MustCompile(`\[([^\[\]]*)\]`)
	scriptPattern  = regexp.MustCompile(`^([A-Za-z_]\w*)\((\d+)(?:-(\d+))?\)\.([A-Za-z_]\w*)\?([A-Za-z_]\w*)=(.+)$`)
	segmentPattern = regexp.MustCompile(`^([A-Za-z_]\w*)(?:\((\d+)\))?$`)
)

var builtinGenerators = map[string]bool{
	"uuid":      true,
	"date":      true,
	"time":      true,
	"timestamp": true,
}

// ValidateDocument validates a document and additionally checks the database
// for conflicting state
func (v *DocumentValidator) ValidateDocument(doc *schema.Document) (*ValidationResult, error) {
	result, err := v.ValidateDocumentWithoutDB(doc)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	dbTables, err := v.getDatabaseTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get database tables: %v", err)
	}

	for _, ent := range doc.Entities {
		if ent.Abstract {
			continue
		}
		table := inflect.Underscore(tableName(&ent))
		if dbTables[table] {
			result.Info = append(result.Info, ValidationError{
				Type:     "table_exists",
				Entity:   ent.Name,
				Message:  fmt.Sprintf("Table '%s' already exists in database, seed inserts will append to it", table),
				Severity: "info",
			})
		}
	}

	return result, nil
}

// ValidateDocumentWithoutDB validates a document without a database connection
func (v *DocumentValidator) ValidateDocumentWithoutDB(doc *schema.Document) (*ValidationResult, error) {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
		Info:     []ValidationError{},
	}

	v.validateGenerators(doc, result)

	for _, ent := range doc.Entities {
		v.validateEntity(doc, &ent, result)
	}

	v.validateTableCollisions(doc, result)
	v.validateTriggers(doc, result)
	v.validateAssignments(doc, result)

	result.Valid = len(result.Errors) == 0

	return result, nil
}

// validateEntity validates a single entity declaration
func (v *DocumentValidator) validateEntity(doc *schema.Document, ent *schema.EntityDoc, result *ValidationResult) {
	if err := validIdentifier("entity", ent.Name); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Type:     "entity_name",
			Entity:   ent.Name,
			Message:  err.Error(),
			Severity: "error",
		})
	}

	if table := inflect.Underscore(tableName(ent)); len(table) > 63 {
		result.Errors = append(result.Errors, ValidationError{
			Type:     "table_name",
			Entity:   ent.Name,
			Message:  fmt.Sprintf("table name '%s' is too long (max 63 characters)", table),
			Severity: "error",
		})
	}

	v.validateRowCount(doc, ent, result)

	for _, base := range ent.Inherits {
		if doc.Entity(base) == nil {
			result.Errors = append(result.Errors, ValidationError{
				Type:     "unknown_inherits",
				Entity:   ent.Name,
				Message:  fmt.Sprintf("Entity '%s' inherits from undeclared entity '%s'", ent.Name, base),
				Severity: "error",
			})
		}
	}

	for _, sn := range ent.Snippets {
		if doc.Snippet(sn) == nil {
			result.Errors = append(result.Errors, ValidationError{
				Type:     "unknown_snippet",
				Entity:   ent.Name,
				Message:  fmt.Sprintf("Entity '%s' uses undeclared snippet '%s'", ent.Name, sn),
				Severity: "error",
			})
		}
	}

	v.validateFields(doc, ent, result)
	v.validateRelationships(doc, ent, result)

	if !ent.Abstract && !hasKeyField(doc, ent.Name, map[string]bool{}) {
		result.Warnings = append(result.Warnings, ValidationError{
			Type:     "no_key_field",
			Entity:   ent.Name,
			Message:  fmt.Sprintf("Entity '%s' has no key field, cleanup SQL will clear its whole table", ent.Name),
			Severity: "warning",
		})
	}
}

// validateRowCount validates the declared row count of an entity
func (v *DocumentValidator) validateRowCount(doc *schema.Document, ent *schema.EntityDoc, result *ValidationResult) {
	count := strings.TrimSpace(ent.Count)
	if count == "" {
		return
	}

	if strings.HasPrefix(count, "[") && strings.HasSuffix(count, "]") {
		gen := strings.TrimSuffix(strings.TrimPrefix(count, "["), "]")
		if doc.Generator(gen) == nil {
			result.Errors = append(result.Errors, ValidationError{
				Type:     "row_count",
				Entity:   ent.Name,
				Message:  fmt.Sprintf("Row count of '%s' references undeclared generator '%s'", ent.Name, gen),
				Severity: "error",
			})
		}
		return
	}

	if n, err := strconv.Atoi(count); err != nil || n <= 0 {
		result.Errors = append(result.Errors, ValidationError{
			Type:     "row_count",
			Entity:   ent.Name,
			Message:  fmt.Sprintf("Row count of '%s' must be a positive integer or a [generator] reference, got '%s'", ent.Name, count),
			Severity: "error",
		})
	}
}

// validateFields validates the declared fields of an entity
func (v *DocumentValidator) validateFields(doc *schema.Document, ent *schema.EntityDoc, result *ValidationResult) {
	fieldNames := make(map[string]bool)
	keyCount := 0

	for _, field := range ent.Fields {
		if fieldNames[field.Name] {
			result.Errors = append(result.Errors, ValidationError{
				Type:     "duplicate_field",
				Entity:   ent.Name,
				Field:    field.Name,
				Message:  fmt.Sprintf("Duplicate field name '%s' in entity '%s'", field.Name, ent.Name),
				Severity: "error",
			})
			continue
		}
		fieldNames[field.Name] = true

		if err := validIdentifier("field", field.Name); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Type:     "field_name",
				Entity:   ent.Name,
				Field:    field.Name,
				Message:  err.Error(),
				Severity: "error",
			})
		}

		if field.Type != "" && !schema.ValidFieldTypes[field.Type] {
			result.Errors = append(result.Errors, ValidationError{
				Type:     "field_type",
				Entity:   ent.Name,
				Field:    field.Name,
				Message:  fmt.Sprintf("Unsupported field type '%s', must be one of string, integer, number, timestamp, json", field.Type),
				Severity: "error",
			})
		}

		if field.Key {
			keyCount++
			if !field.Unique && strings.Contains(field.Generator, ";") {
				result.Warnings = append(result.Warnings, ValidationError{
					Type:     "key_collision",
					Entity:   ent.Name,
					Field:    field.Name,
					Message:  fmt.Sprintf("Key field '%s' draws from a finite value list without unique, generated keys may collide", field.Name),
					Severity: "warning",
				})
			}
		}

		v.validateFieldTemplate(doc, ent, field.Name, field.Generator, result)
	}

	if keyCount > 1 {
		result.Errors = append(result.Errors, ValidationError{
			Type:     "multiple_keys",
			Entity:   ent.Name,
			Message:  fmt.Sprintf("Entity '%s' declares %d key fields, at most one is allowed", ent.Name, keyCount),
			Severity: "error",
		})
	}
}

// validateFieldTemplate checks every placeholder of a field template against
// the declared generators, sibling fields and relationship targets
func (v *DocumentValidator) validateFieldTemplate(doc *schema.Document, ent *schema.EntityDoc, fieldName, template string, result *ValidationResult) {
	if template == "" {
		return
	}

	var siblings, targets map[string]bool

	for _, m := range tokenPattern.FindAllStringSubmatch(template, -1) {
		token := m[1]

		if strings.HasPrefix(token, "?") {
			path := strings.TrimPrefix(token, "?")
			first := strings.SplitN(path, ".", 2)[0]
			if targets == nil {
				targets = relationshipTargets(doc, ent.Name, map[string]bool{})
			}
			if !targets[first] {
				result.Warnings = append(result.Warnings, ValidationError{
					Type:     "query_path",
					Entity:   ent.Name,
					Field:    fieldName,
					Message:  fmt.Sprintf("Query path '%s' starts at '%s' which is not a relationship target of '%s'", path, first, ent.Name),
					Severity: "warning",
				})
			}
			continue
		}

		name := strings.TrimLeft(token, "!~")
		if strings.Contains(strings.TrimSuffix(token, name), "!") {
			if siblings == nil {
				siblings = entityFields(doc, ent.Name, map[string]bool{})
			}
			if !siblings[name] {
				result.Errors = append(result.Errors, ValidationError{
					Type:     "unknown_field_token",
					Entity:   ent.Name,
					Field:    fieldName,
					Message:  fmt.Sprintf("Placeholder [%s] references '%s' which is not a field of '%s'", token, name, ent.Name),
					Severity: "error",
				})
			}
			continue
		}

		if !builtinGenerators[name] && doc.Generator(name) == nil {
			result.Errors = append(result.Errors, ValidationError{
				Type:     "unknown_generator",
				Entity:   ent.Name,
				Field:    fieldName,
				Message:  fmt.Sprintf("Placeholder [%s] references undeclared generator '%s'", token, name),
				Severity: "error",
			})
		}
	}
}

// validateRelationships validates the relationship declarations of an entity
func (v *DocumentValidator) validateRelationships(doc *schema.Document, ent *schema.EntityDoc, result *ValidationResult) {
	for _, rel := range ent.Relationships {
		target := doc.Entity(rel.To)
		if target == nil {
			result.Errors = append(result.Errors, ValidationError{
				Type:     "relationship_target",
				Entity:   ent.Name,
				Message:  fmt.Sprintf("Relationship of '%s' references undeclared entity '%s'", ent.Name, rel.To),
				Severity: "error",
			})
			continue
		}
		if target.Abstract {
			result.Errors = append(result.Errors, ValidationError{
				Type:     "relationship_target",
				Entity:   ent.Name,
				Message:  fmt.Sprintf("Relationship of '%s' references abstract entity '%s' which has no rows", ent.Name, rel.To),
				Severity: "error",
			})
			continue
		}

		if rel.Type == schema.RelMany && rel.To == ent.Name {
			result.Warnings = append(result.Warnings, ValidationError{
				Type:     "self_reference",
				Entity:   ent.Name,
				Message:  fmt.Sprintf("Many-to-many relationship of '%s' targets its own type, join rows keep only one side of each link", ent.Name),
				Severity: "warning",
			})
		}

		if rel.Singular != nil {
			if rel.Singular.Enumerate != "" && doc.Entity(rel.Singular.Enumerate) == nil {
				result.Errors = append(result.Errors, ValidationError{
					Type:     "singular_enumerate",
					Entity:   ent.Name,
					Message:  fmt.Sprintf("Singular descriptor of '%s' enumerates undeclared entity '%s'", ent.Name, rel.Singular.Enumerate),
					Severity: "error",
				})
			}
			if rel.Singular.Field != "" && !entityFields(doc, rel.To, map[string]bool{})[rel.Singular.Field] {
				result.Errors = append(result.Errors, ValidationError{
					Type:     "singular_field",
					Entity:   ent.Name,
					Message:  fmt.Sprintf("Singular lookup field '%s' does not exist on '%s'", rel.Singular.Field, rel.To),
					Severity: "error",
				})
			}
		}

		if rel.Default != nil && !entityFields(doc, rel.To, map[string]bool{})[rel.Default.Field] {
			result.Errors = append(result.Errors, ValidationError{
				Type:     "default_field",
				Entity:   ent.Name,
				Message:  fmt.Sprintf("Default lookup field '%s' does not exist on '%s'", rel.Default.Field, rel.To),
				Severity: "error",
			})
		}
	}
}

// validateGenerators validates generator declarations and their references
func (v *DocumentValidator) validateGenerators(doc *schema.Document, result *ValidationResult) {
	seen := make(map[string]bool)

	for _, g := range doc.Generators {
		if seen[g.Name] {
			result.Errors = append(result.Errors, ValidationError{
				Type:     "duplicate_generator",
				Message:  fmt.Sprintf("Duplicate generator name '%s'", g.Name),
				Severity: "error",
			})
			continue
		}
		seen[g.Name] = true

		if err := validIdentifier("generator", g.Name); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Type:     "generator_name",
				Message:  err.Error(),
				Severity: "error",
			})
		}

		v.validateGeneratorValues(doc, &g, result)
	}

	for _, g := range doc.Generators {
		if generatorOnCycle(doc, g.Name) {
			result.Errors = append(result.Errors, ValidationError{
				Type:     "generator_cycle",
				Message:  fmt.Sprintf("Generator '%s' recursively references itself", g.Name),
				Severity: "error",
			})
		}
	}
}

// validateGeneratorValues checks ranges and placeholder references inside one
// generator's value template. Sibling and query placeholders resolve against
// the instance being expanded, so they cannot be checked here.
func (v *DocumentValidator) validateGeneratorValues(doc *schema.Document, g *schema.Generator, result *ValidationResult) {
	values := g.Values

	if !strings.Contains(values, ";") && strings.Contains(values, ">") && !strings.Contains(values, "[") {
		parts := strings.SplitN(values, ">", 2)
		lo, loErr := strconv.Atoi(strings.TrimSpace(parts[0]))
		hi, hiErr := strconv.Atoi(strings.TrimSpace(parts[1]))
		if loErr == nil && hiErr == nil && hi <= lo {
			result.Errors = append(result.Errors, ValidationError{
				Type:     "generator_range",
				Message:  fmt.Sprintf("Generator '%s' range '%s' needs an upper bound greater than its lower bound", g.Name, values),
				Severity: "error",
			})
		}
	}

	for _, ref := range generatorRefs(doc, g, true) {
		if !builtinGenerators[ref] && doc.Generator(ref) == nil {
			result.Errors = append(result.Errors, ValidationError{
				Type:     "unknown_generator",
				Message:  fmt.Sprintf("Generator '%s' references undeclared generator '%s'", g.Name, ref),
				Severity: "error",
			})
		}
	}
}

// validateTableCollisions reports entities whose snake_cased table names
// collide
func (v *DocumentValidator) validateTableCollisions(doc *schema.Document, result *ValidationResult) {
	tables := make(map[string]string)

	for _, ent := range doc.Entities {
		if ent.Abstract {
			continue
		}
		table := inflect.Underscore(tableName(&ent))
		if other, ok := tables[table]; ok {
			result.Errors = append(result.Errors, ValidationError{
				Type:     "table_collision",
				Entity:   ent.Name,
				Message:  fmt.Sprintf("Entities '%s' and '%s' both map to table '%s'", other, ent.Name, table),
				Severity: "error",
			})
			continue
		}
		tables[table] = ent.Name
	}
}

// validateTriggers validates trigger declarations and their creation scripts
func (v *DocumentValidator) validateTriggers(doc *schema.Document, result *ValidationResult) {
	for _, tr := range doc.Triggers {
		if doc.Entity(tr.Entity) == nil {
			result.Errors = append(result.Errors, ValidationError{
				Type:     "trigger_entity",
				Entity:   tr.Entity,
				Message:  fmt.Sprintf("Trigger references undeclared entity '%s'", tr.Entity),
				Severity: "error",
			})
			continue
		}

		for _, script := range tr.Scripts {
			v.validateScript(doc, &tr, script, result)
		}
	}
}

// validateScript validates one creation script of a trigger
func (v *DocumentValidator) validateScript(doc *schema.Document, tr *schema.Trigger, script string, result *ValidationResult) {
	m := scriptPattern.FindStringSubmatch(script)
	if m == nil {
		result.Errors = append(result.Errors, ValidationError{
			Type:     "script_syntax",
			Entity:   tr.Entity,
			Message:  fmt.Sprintf("Script %q is not of the form Table(index).Relationship?field=value", script),
			Severity: "error",
		})
		return
	}

	if m[3] != "" {
		start, _ := strconv.Atoi(m[2])
		end, _ := strconv.Atoi(m[3])
		if end < start {
			result.Errors = append(result.Errors, ValidationError{
				Type:     "script_range",
				Entity:   tr.Entity,
				Message:  fmt.Sprintf("Script %q has a descending index range", script),
				Severity: "error",
			})
		}
	}

	child := entityByTable(doc, m[1])
	if child == nil {
		result.Errors = append(result.Errors, ValidationError{
			Type:     "script_table",
			Entity:   tr.Entity,
			Message:  fmt.Sprintf("Script %q addresses unknown table '%s'", script, m[1]),
			Severity: "error",
		})
		return
	}

	rel := findRelationship(doc, child.Name, m[4])
	if rel == nil {
		result.Errors = append(result.Errors, ValidationError{
			Type:     "script_relation",
			Entity:   tr.Entity,
			Message:  fmt.Sprintf("Script %q uses relationship '%s' which '%s' does not declare", script, m[4], child.Name),
			Severity: "error",
		})
		return
	}

	if !entityFields(doc, rel.To, map[string]bool{})[m[5]] {
		result.Errors = append(result.Errors, ValidationError{
			Type:     "script_query_field",
			Entity:   tr.Entity,
			Message:  fmt.Sprintf("Script %q queries field '%s' which does not exist on '%s'", script, m[5], rel.To),
			Severity: "error",
		})
	}

	if child.Name == tr.Entity {
		result.Warnings = append(result.Warnings, ValidationError{
			Type:     "script_recursion",
			Entity:   tr.Entity,
			Message:  fmt.Sprintf("Script %q creates rows of '%s' whose own triggers fire again", script, child.Name),
			Severity: "warning",
		})
	}
}

// validateAssignments validates assignment targets and field overrides
func (v *DocumentValidator) validateAssignments(doc *schema.Document, result *ValidationResult) {
	for _, a := range doc.Assignments {
		segments := strings.Split(a.Target, ".")

		m := segmentPattern.FindStringSubmatch(segments[0])
		if m == nil || m[2] == "" {
			result.Errors = append(result.Errors, ValidationError{
				Type:     "assignment_target",
				Message:  fmt.Sprintf("Assignment target '%s' must start with an indexed segment like Table(0)", a.Target),
				Severity: "error",
			})
			continue
		}

		current := entityByTable(doc, m[1])
		if current == nil {
			current = doc.Entity(m[1])
		}
		if current == nil {
			result.Errors = append(result.Errors, ValidationError{
				Type:     "assignment_target",
				Message:  fmt.Sprintf("Assignment target '%s' addresses unknown entity '%s'", a.Target, m[1]),
				Severity: "error",
			})
			continue
		}

		resolved := true
		for _, seg := range segments[1:] {
			sm := segmentPattern.FindStringSubmatch(seg)
			if sm == nil {
				result.Errors = append(result.Errors, ValidationError{
					Type:     "assignment_target",
					Message:  fmt.Sprintf("Assignment target '%s' has a malformed segment '%s'", a.Target, seg),
					Severity: "error",
				})
				resolved = false
				break
			}
			next := pathStep(doc, current, sm[1])
			if next == nil {
				// Join types are synthesized later, so an unmatched
				// segment is not proof of a broken path.
				result.Warnings = append(result.Warnings, ValidationError{
					Type:     "assignment_path",
					Message:  fmt.Sprintf("Assignment target '%s': no connection named '%s' found under '%s'", a.Target, sm[1], current.Name),
					Severity: "warning",
				})
				resolved = false
				break
			}
			current = next
		}
		if !resolved {
			continue
		}

		fields := entityFields(doc, current.Name, map[string]bool{})
		for _, f := range a.Order {
			if !fields[f] {
				result.Warnings = append(result.Warnings, ValidationError{
					Type:     "assignment_field",
					Entity:   current.Name,
					Field:    f,
					Message:  fmt.Sprintf("Assignment sets '%s' which is not a declared field of '%s', the value never reaches SQL", f, current.Name),
					Severity: "warning",
				})
			}
		}
	}
}

// validIdentifier validates a declared name against identifier rules
func validIdentifier(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s name cannot be empty", kind)
	}

	if len(name) > 63 {
		return fmt.Errorf("%s name '%s' is too long (max 63 characters)", kind, name)
	}

	// Scripts and assignment paths cannot address digit-leading names.
	if name[0] >= '0' && name[0] <= '9' {
		return fmt.Errorf("%s name '%s' cannot start with a digit", kind, name)
	}

	for _, char := range name {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '_') {
			return fmt.Errorf("%s name '%s' contains invalid character '%c'", kind, name, char)
		}
	}

	return nil
}

func tableName(ent *schema.EntityDoc) string {
	if ent.TableName != "" {
		return ent.TableName
	}
	return ent.Name
}

func entityByTable(doc *schema.Document, table string) *schema.EntityDoc {
	for i := range doc.Entities {
		if tableName(&doc.Entities[i]) == table {
			return &doc.Entities[i]
		}
	}
	return nil
}

// entityFields collects the field names of an entity including inherited and
// snippet fields
func entityFields(doc *schema.Document, name string, seen map[string]bool) map[string]bool {
	fields := make(map[string]bool)
	if seen[name] {
		return fields
	}
	seen[name] = true

	ent := doc.Entity(name)
	if ent == nil {
		return fields
	}

	for _, base := range ent.Inherits {
		for f := range entityFields(doc, base, seen) {
			fields[f] = true
		}
	}
	for _, sn := range ent.Snippets {
		if s := doc.Snippet(sn); s != nil {
			for _, f := range s.Fields {
				fields[f.Name] = true
			}
		}
	}
	for _, f := range ent.Fields {
		fields[f.Name] = true
	}

	return fields
}

// collectRelationships collects the relationships of an entity including
// inherited ones
func collectRelationships(doc *schema.Document, name string, seen map[string]bool) []schema.Relationship {
	if seen[name] {
		return nil
	}
	seen[name] = true

	ent := doc.Entity(name)
	if ent == nil {
		return nil
	}

	var rels []schema.Relationship
	for _, base := range ent.Inherits {
		rels = append(rels, collectRelationships(doc, base, seen)...)
	}
	rels = append(rels, ent.Relationships...)
	return rels
}

func relationshipTargets(doc *schema.Document, name string, seen map[string]bool) map[string]bool {
	targets := make(map[string]bool)
	for _, rel := range collectRelationships(doc, name, seen) {
		targets[rel.To] = true
	}
	return targets
}

func findRelationship(doc *schema.Document, name, relName string) *schema.Relationship {
	rels := collectRelationships(doc, name, map[string]bool{})
	for i := range rels {
		if rels[i].Name == relName || rels[i].To == relName {
			return &rels[i]
		}
	}
	return nil
}

// pathStep resolves one assignment path segment: either a forward link to a
// relationship target or a back link from an entity whose table carries the
// segment name
func pathStep(doc *schema.Document, current *schema.EntityDoc, segment string) *schema.EntityDoc {
	for _, rel := range collectRelationships(doc, current.Name, map[string]bool{}) {
		if rel.To == segment {
			return doc.Entity(rel.To)
		}
	}

	for i := range doc.Entities {
		ent := &doc.Entities[i]
		if tableName(ent) != segment {
			continue
		}
		for _, rel := range collectRelationships(doc, ent.Name, map[string]bool{}) {
			if rel.To == current.Name {
				return ent
			}
		}
	}

	return nil
}

func hasKeyField(doc *schema.Document, name string, seen map[string]bool) bool {
	if seen[name] {
		return false
	}
	seen[name] = true

	ent := doc.Entity(name)
	if ent == nil {
		return false
	}

	for _, f := range ent.Fields {
		if f.Key {
			return true
		}
	}
	for _, sn := range ent.Snippets {
		if s := doc.Snippet(sn); s != nil {
			for _, f := range s.Fields {
				if f.Key {
					return true
				}
			}
		}
	}
	for _, base := range ent.Inherits {
		if hasKeyField(doc, base, seen) {
			return true
		}
	}

	return false
}

// generatorRefs lists the plain generator names a generator's template
// references. Builtins are included only when withBuiltins is set.
func generatorRefs(doc *schema.Document, g *schema.Generator, withBuiltins bool) []string {
	var refs []string
	for _, m := range tokenPattern.FindAllStringSubmatch(g.Values, -1) {
		token := m[1]
		if strings.HasPrefix(token, "?") {
			continue
		}
		name := strings.TrimLeft(token, "!~")
		if strings.Contains(strings.TrimSuffix(token, name), "!") {
			continue
		}
		if builtinGenerators[name] && !withBuiltins {
			continue
		}
		refs = append(refs, name)
	}
	return refs
}

// generatorOnCycle reports whether the named generator can reach itself
// through composite references
func generatorOnCycle(doc *schema.Document, name string) bool {
	visited := make(map[string]bool)
	stack := []string{name}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		g := doc.Generator(current)
		if g == nil {
			continue
		}
		for _, ref := range generatorRefs(doc, g, false) {
			if ref == name {
				return true
			}
			if !visited[ref] {
				visited[ref] = true
				stack = append(stack, ref)
			}
		}
	}

	return false
}

// getDatabaseTables gets the list of existing tables from the database
func (v *DocumentValidator) getDatabaseTables(ctx context.Context) (map[string]bool, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_type = 'BASE TABLE'
	`

	rows, err := v.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make(map[string]bool)
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return nil, err
		}
		tables[table] = true
	}

	return tables, nil
}
