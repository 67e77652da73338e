package validator_test

import (
	"testing"

	"github.com/ridoystarlord/seedato/schema"
	"github.com/ridoystarlord/seedato/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lint(t *testing.T, doc *schema.Document) *validator.ValidationResult {
	t.Helper()
	v := &validator.DocumentValidator{}
	result, err := v.ValidateDocumentWithoutDB(doc)
	require.NoError(t, err)
	return result
}

func findingTypes(findings []validator.ValidationError) []string {
	var types []string
	for _, f := range findings {
		types = append(types, f.Type)
	}
	return types
}

func petStoreDocument() *schema.Document {
	return &schema.Document{
		Generators: []schema.Generator{
			{Name: "first", Values: "Ana; Bo; Cleo"},
			{Name: "species", Values: "cat; dog"},
			{Name: "full", Values: "[first] [species]"},
		},
		Entities: []schema.EntityDoc{
			{
				Name:  "Owner",
				Count: "3",
				Fields: []schema.Field{
					{Name: "id", Type: schema.TypeString, Key: true, Generator: "[uuid]"},
					{Name: "name", Type: schema.TypeString, Generator: "[first]"},
				},
			},
			{
				Name:  "Pet",
				Count: "6",
				Fields: []schema.Field{
					{Name: "id", Type: schema.TypeString, Key: true, Generator: "[uuid]"},
					{Name: "kind", Type: schema.TypeString, Generator: "[species]"},
					{Name: "tag", Type: schema.TypeString, Generator: "[!kind]-[first]"},
				},
				Relationships: []schema.Relationship{
					{Type: schema.RelOne, From: "Pet", To: "Owner"},
				},
			},
		},
		Triggers: []schema.Trigger{
			{Entity: "Owner", Scripts: []string{"Pet(0).Owner?name=Ana"}},
		},
		Assignments: []schema.Assignment{
			{Target: "Pet(0)", Fields: map[string]string{"kind": "axolotl"}, Order: []string{"kind"}},
		},
	}
}

func TestWellFormedDocumentPasses(t *testing.T) {
	result := lint(t, petStoreDocument())

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestUndeclaredGeneratorInFieldTemplate(t *testing.T) {
	doc := petStoreDocument()
	doc.Entities[0].Fields[1].Generator = "[nickname]"

	result := lint(t, doc)

	assert.False(t, result.Valid)
	assert.Contains(t, findingTypes(result.Errors), "unknown_generator")
}

func TestSiblingTokenMustNameAField(t *testing.T) {
	doc := petStoreDocument()
	doc.Entities[1].Fields[2].Generator = "[!color]-[first]"

	result := lint(t, doc)

	assert.False(t, result.Valid)
	assert.Contains(t, findingTypes(result.Errors), "unknown_field_token")
}

func TestSiblingTokenSeesInheritedFields(t *testing.T) {
	doc := petStoreDocument()
	doc.Entities = append(doc.Entities, schema.EntityDoc{
		Name:     "Base",
		Abstract: true,
		Fields:   []schema.Field{{Name: "code", Type: schema.TypeString}},
	})
	doc.Entities[1].Inherits = []string{"Base"}
	doc.Entities[1].Fields[2].Generator = "[!code]-[first]"

	result := lint(t, doc)

	assert.True(t, result.Valid, "inherited fields should satisfy sibling lookups: %v", result.Errors)
}

func TestGeneratorCycleDetected(t *testing.T) {
	doc := petStoreDocument()
	doc.Generators = append(doc.Generators,
		schema.Generator{Name: "ping", Values: "x [pong]"},
		schema.Generator{Name: "pong", Values: "y [ping]"},
	)

	result := lint(t, doc)

	assert.False(t, result.Valid)
	assert.Contains(t, findingTypes(result.Errors), "generator_cycle")
}

func TestGeneratorRangeBounds(t *testing.T) {
	doc := petStoreDocument()
	doc.Generators = append(doc.Generators, schema.Generator{Name: "age", Values: "9>3"})

	result := lint(t, doc)

	assert.False(t, result.Valid)
	assert.Contains(t, findingTypes(result.Errors), "generator_range")
}

func TestRelationshipTargets(t *testing.T) {
	t.Run("unknown entity", func(t *testing.T) {
		doc := petStoreDocument()
		doc.Entities[1].Relationships[0].To = "Clinic"

		result := lint(t, doc)
		assert.Contains(t, findingTypes(result.Errors), "relationship_target")
	})

	t.Run("abstract entity", func(t *testing.T) {
		doc := petStoreDocument()
		doc.Entities[0].Abstract = true

		result := lint(t, doc)
		assert.Contains(t, findingTypes(result.Errors), "relationship_target")
	})
}

func TestSelfManyToManyWarns(t *testing.T) {
	doc := petStoreDocument()
	doc.Entities[1].Relationships = append(doc.Entities[1].Relationships, schema.Relationship{
		Type: schema.RelMany, From: "Pet", To: "Pet", Name: "PetFriend",
	})

	result := lint(t, doc)

	assert.True(t, result.Valid)
	assert.Contains(t, findingTypes(result.Warnings), "self_reference")
}

func TestScriptValidation(t *testing.T) {
	cases := []struct {
		name   string
		script string
		want   string
	}{
		{"malformed", "Pet[0].Owner?name=Ana", "script_syntax"},
		{"unknown table", "Toys(0).Owner?name=Ana", "script_table"},
		{"unknown relation", "Pet(0).Clinic?name=Ana", "script_relation"},
		{"unknown query field", "Pet(0).Owner?email=x", "script_query_field"},
		{"descending range", "Pet(4-1).Owner?name=Ana", "script_range"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := petStoreDocument()
			doc.Triggers[0].Scripts = []string{tc.script}

			result := lint(t, doc)
			assert.Contains(t, findingTypes(result.Errors), tc.want)
		})
	}
}

func TestScriptOnOwnEntityWarns(t *testing.T) {
	doc := petStoreDocument()
	doc.Entities[0].Relationships = []schema.Relationship{
		{Type: schema.RelOne, From: "Owner", To: "Owner", Name: "Sponsor"},
	}
	doc.Triggers = []schema.Trigger{
		{Entity: "Owner", Scripts: []string{"Owner(0).Sponsor?name=Ana"}},
	}

	result := lint(t, doc)

	assert.Contains(t, findingTypes(result.Warnings), "script_recursion")
}

func TestAssignmentTargets(t *testing.T) {
	t.Run("unknown root entity", func(t *testing.T) {
		doc := petStoreDocument()
		doc.Assignments[0].Target = "Toys(0)"

		result := lint(t, doc)
		assert.Contains(t, findingTypes(result.Errors), "assignment_target")
	})

	t.Run("missing root index", func(t *testing.T) {
		doc := petStoreDocument()
		doc.Assignments[0].Target = "Pet"

		result := lint(t, doc)
		assert.Contains(t, findingTypes(result.Errors), "assignment_target")
	})

	t.Run("back reference path resolves", func(t *testing.T) {
		doc := petStoreDocument()
		doc.Assignments[0].Target = "Owner(0).Pet(0)"

		result := lint(t, doc)
		assert.True(t, result.Valid)
		assert.Empty(t, result.Warnings)
	})

	t.Run("undeclared field warns", func(t *testing.T) {
		doc := petStoreDocument()
		doc.Assignments[0].Fields = map[string]string{"mood": "grumpy"}
		doc.Assignments[0].Order = []string{"mood"}

		result := lint(t, doc)
		assert.True(t, result.Valid)
		assert.Contains(t, findingTypes(result.Warnings), "assignment_field")
	})
}

func TestTableNameCollision(t *testing.T) {
	doc := petStoreDocument()
	doc.Entities = append(doc.Entities, schema.EntityDoc{
		Name:      "MedicalRecord",
		TableName: "pet_record",
		Fields:    []schema.Field{{Name: "id", Key: true}},
	}, schema.EntityDoc{
		Name:   "PetRecord", // snake_cases to pet_record as well
		Fields: []schema.Field{{Name: "id", Key: true}},
	})

	result := lint(t, doc)

	assert.Contains(t, findingTypes(result.Errors), "table_collision")
}

func TestRowCountDeclarations(t *testing.T) {
	cases := []struct {
		name  string
		count string
		valid bool
	}{
		{"blank uses default", "", true},
		{"fixed", "12", true},
		{"generator reference", "[species]", true},
		{"zero", "0", false},
		{"negative", "-4", false},
		{"unknown generator", "[missing]", false},
		{"word", "dozen", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := petStoreDocument()
			doc.Entities[0].Count = tc.count

			result := lint(t, doc)
			if tc.valid {
				assert.True(t, result.Valid)
			} else {
				assert.Contains(t, findingTypes(result.Errors), "row_count")
			}
		})
	}
}

func TestMissingKeyFieldWarns(t *testing.T) {
	doc := petStoreDocument()
	doc.Entities[0].Fields[0].Key = false

	result := lint(t, doc)

	assert.True(t, result.Valid)
	assert.Contains(t, findingTypes(result.Warnings), "no_key_field")
}

func TestFiniteKeyListWarns(t *testing.T) {
	doc := petStoreDocument()
	doc.Entities[0].Fields[0].Generator = "a; b; c"

	result := lint(t, doc)

	assert.True(t, result.Valid)
	assert.Contains(t, findingTypes(result.Warnings), "key_collision")
}
