package engine_test

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ridoystarlord/seedato/engine"
	"github.com/ridoystarlord/seedato/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, doc *schema.Document) *engine.Graph {
	t.Helper()
	reg, err := schema.BuildRegistry(doc)
	require.NoError(t, err)
	g, err := engine.Build(reg, engine.Options{Seed: 42})
	require.NoError(t, err)
	return g
}

func buildErr(t *testing.T, doc *schema.Document) error {
	t.Helper()
	reg, err := schema.BuildRegistry(doc)
	require.NoError(t, err)
	_, err = engine.Build(reg, engine.Options{Seed: 42})
	require.Error(t, err)
	return err
}

func TestRowCountFromGeneratorList(t *testing.T) {
	doc := &schema.Document{
		Generators: []schema.Generator{{Name: "tag", Values: "cars;pets;food"}},
		Entities: []schema.EntityDoc{{
			Name:  "Tag",
			Count: "[tag]",
			Fields: []schema.Field{
				{Name: "id", Key: true, Generator: "[uuid]"},
				{Name: "name", Unique: true, Generator: "[tag]"},
			},
		}},
	}
	g := build(t, doc)

	tags := g.Table("Tag")
	require.NotNil(t, tags)
	require.Len(t, tags.Instances, 3)

	names := map[string]bool{}
	for _, inst := range tags.Instances {
		names[inst.FieldValue("name")] = true
		_, err := uuid.Parse(inst.FieldValue("id"))
		assert.NoError(t, err)
	}
	assert.Equal(t, map[string]bool{"cars": true, "pets": true, "food": true}, names)
}

func TestDefaultRowCount(t *testing.T) {
	doc := &schema.Document{
		Entities: []schema.EntityDoc{{
			Name:   "Widget",
			Fields: []schema.Field{{Name: "id", Key: true, Generator: "[uuid]"}},
		}},
	}
	g := build(t, doc)
	require.Len(t, g.Table("Widget").Instances, schema.DefaultRowCount)
}

func TestRoundRobinConnection(t *testing.T) {
	doc := &schema.Document{
		Entities: []schema.EntityDoc{
			{
				Name:  "Shelf",
				Count: "3",
				Fields: []schema.Field{
					{Name: "id", Key: true, Generator: "[uuid]"},
				},
			},
			{
				Name:  "Book",
				Count: "6",
				Fields: []schema.Field{
					{Name: "id", Key: true, Generator: "[uuid]"},
				},
				Relationships: []schema.Relationship{{Type: schema.RelOne, To: "Shelf"}},
			},
		},
	}
	g := build(t, doc)

	books := g.Table("Book")
	shelves := g.Table("Shelf")

	// The first three sources take shelves 0, 1, 2 in order; overflow picks
	// randomly, so only membership is asserted for those.
	for i, book := range books.Instances {
		ref, ok := book.ForwardRef("Shelf")
		require.True(t, ok, "book %d not connected", i)
		if i < 3 {
			assert.Equal(t, i, ref.Index)
		}
		assert.Less(t, ref.Index, len(shelves.Instances))
	}

	total := 0
	for _, shelf := range shelves.Instances {
		refs := shelf.BackRefs("Book")
		assert.NotEmpty(t, refs)
		total += len(refs)
	}
	assert.Equal(t, 6, total)
}

func ceoDocument() *schema.Document {
	return &schema.Document{
		Generators: []schema.Generator{
			{Name: "role", Values: "CEO;Staff;Manager"},
			{Name: "first", Values: "Ada;Grace;Linus;Barbara"},
			{Name: "org_num", Values: "1>100"},
		},
		Entities: []schema.EntityDoc{
			{
				Name:  "OrganisationRole",
				Count: "[role]",
				Fields: []schema.Field{
					{Name: "id", Key: true, Generator: "[uuid]"},
					{Name: "name", Unique: true, Generator: "[role]"},
				},
			},
			{
				Name:  "Organisation",
				Count: "2",
				Fields: []schema.Field{
					{Name: "id", Key: true, Generator: "[uuid]"},
					{Name: "name", Generator: "Org [org_num]"},
				},
			},
			{
				Name:      "User",
				TableName: "Users",
				Count:     "4",
				Fields: []schema.Field{
					{Name: "id", Key: true, Generator: "[uuid]"},
					{Name: "name", Generator: "[first]"},
				},
				Relationships: []schema.Relationship{
					{Type: schema.RelOne, To: "Organisation"},
					{Type: schema.RelOne, To: "OrganisationRole"},
				},
			},
		},
		Triggers: []schema.Trigger{{
			Entity:  "Organisation",
			Scripts: []string{"Users(0).OrganisationRole?name=CEO"},
		}},
	}
}

func TestTriggerCreatesAndConnectsChild(t *testing.T) {
	g := build(t, ceoDocument())

	// Lazy population during the trigger query must not double-fill the
	// role table when the main pass reaches it later.
	require.Len(t, g.Table("OrganisationRole").Instances, 3)

	// Each organisation's trigger created one user; the declared four were
	// appended afterwards.
	require.Len(t, g.Table("Users").Instances, 6)

	for _, org := range g.Table("Organisation").Instances {
		users := org.BackRefs("Users")
		require.NotEmpty(t, users)

		first, ok := g.Instance(users[0])
		require.True(t, ok)
		roleRef, ok := first.ForwardRef("OrganisationRole")
		require.True(t, ok)
		role, ok := g.Instance(roleRef)
		require.True(t, ok)
		assert.Equal(t, "CEO", role.FieldValue("name"))

		orgRef, ok := first.ForwardRef("Organisation")
		require.True(t, ok)
		assert.Equal(t, org.Index, orgRef.Index)
	}
}

func TestTriggerIndexRangeCreatesMissingRows(t *testing.T) {
	doc := ceoDocument()
	doc.Triggers = []schema.Trigger{{
		Entity:  "Organisation",
		Scripts: []string{"Users(1-3).OrganisationRole?name=Staff"},
	}}
	doc.Entities[1].Count = "1"
	g := build(t, doc)

	orgs := g.Table("Organisation").Instances
	require.Len(t, orgs, 1)

	// Index 3 forces creation of rows 0 through 3; fillers are connected to
	// the query target too. The declared users join the same organisation
	// later, behind the trigger-created ones.
	users := orgs[0].BackRefs("Users")
	require.Len(t, users, 8)
	for i, ref := range users[:4] {
		user, ok := g.Instance(ref)
		require.True(t, ok)
		roleRef, ok := user.ForwardRef("OrganisationRole")
		require.True(t, ok, "user %d not connected to a role", i)
		role, _ := g.Instance(roleRef)
		assert.Equal(t, "Staff", role.FieldValue("name"))
	}

	// 4 trigger-created plus the declared 4.
	assert.Len(t, g.Table("Users").Instances, 8)
}

func TestManyToManyJoins(t *testing.T) {
	doc := &schema.Document{
		Generators: []schema.Generator{{Name: "interest", Values: "chess;rowing;gardening"}},
		Entities: []schema.EntityDoc{
			{
				Name:  "Interest",
				Count: "[interest]",
				Fields: []schema.Field{
					{Name: "id", Key: true, Generator: "[uuid]"},
					{Name: "name", Unique: true, Generator: "[interest]"},
				},
			},
			{
				Name:  "User",
				Count: "4",
				Fields: []schema.Field{
					{Name: "id", Key: true, Generator: "[uuid]"},
				},
				Relationships: []schema.Relationship{{
					Type:  schema.RelMany,
					To:    "Interest",
					Name:  "UserInterests",
					Count: 5, // more than the target table holds
				}},
			},
		},
	}
	g := build(t, doc)

	joins := g.Table("UserInterests")
	require.NotNil(t, joins)
	// Capped at the three available targets.
	require.Len(t, joins.Instances, 4*3)

	for _, user := range g.Table("User").Instances {
		rows := user.BackRefs("UserInterests")
		require.Len(t, rows, 3)
		seen := map[int]bool{}
		for _, jr := range rows {
			join, ok := g.Instance(jr)
			require.True(t, ok)
			_, err := uuid.Parse(join.FieldValue("id"))
			assert.NoError(t, err)
			tgt, ok := join.ForwardRef("Interest")
			require.True(t, ok)
			assert.False(t, seen[tgt.Index], "duplicate target for one source")
			seen[tgt.Index] = true
		}
	}
}

func TestSingularWithDefaultFallback(t *testing.T) {
	doc := ceoDocument()
	doc.Entities[2].Count = "6"
	doc.Triggers = nil
	doc.Entities[2].Relationships[1].Singular = &schema.Singular{
		Enumerate: "Organisation",
		Field:     "name",
		Values:    []string{"CEO"},
	}
	doc.Entities[2].Relationships[1].Default = &schema.DefaultAssign{Field: "name", Value: "Staff"}
	g := build(t, doc)

	for _, org := range g.Table("Organisation").Instances {
		users := org.BackRefs("Users")
		require.NotEmpty(t, users)
		for i, ref := range users {
			user, ok := g.Instance(ref)
			require.True(t, ok)
			roleRef, ok := user.ForwardRef("OrganisationRole")
			require.True(t, ok)
			role, _ := g.Instance(roleRef)
			if i == 0 {
				assert.Equal(t, "CEO", role.FieldValue("name"))
			} else {
				assert.Equal(t, "Staff", role.FieldValue("name"))
			}
		}
	}
}

func TestSingularValuesExceedingRelatedRowsFails(t *testing.T) {
	doc := ceoDocument()
	doc.Triggers = nil
	doc.Entities[1].Count = "1"
	doc.Entities[2].Count = "1"
	doc.Entities[2].Relationships[1].Singular = &schema.Singular{
		Enumerate: "Organisation",
		Field:     "name",
		Values:    []string{"CEO", "Manager"},
	}
	err := buildErr(t, doc)
	assert.Contains(t, err.Error(), "singular values")
}

func TestIntegerRangeGenerator(t *testing.T) {
	doc := &schema.Document{
		Generators: []schema.Generator{{Name: "age", Values: "18>66"}},
		Entities: []schema.EntityDoc{{
			Name:  "Person",
			Count: "30",
			Fields: []schema.Field{
				{Name: "id", Key: true, Generator: "[uuid]"},
				{Name: "age", Type: schema.TypeInteger, Generator: "[age]"},
			},
		}},
	}
	g := build(t, doc)

	for _, p := range g.Table("Person").Instances {
		age, err := strconv.Atoi(p.FieldValue("age"))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, age, 18)
		assert.Less(t, age, 66) // high bound is exclusive
	}
}

func TestCompositeTemplatesAndCleanModifier(t *testing.T) {
	doc := &schema.Document{
		Generators: []schema.Generator{
			{Name: "fname", Values: "Mary Jane;Bobby Lee;Ada"},
			{Name: "lname", Values: "van Rossum;Hopper"},
		},
		Entities: []schema.EntityDoc{{
			Name:  "Person",
			Count: "20",
			Fields: []schema.Field{
				{Name: "id", Key: true, Generator: "[uuid]"},
				{Name: "first", Generator: "[fname]"},
				{Name: "last", Generator: "[lname]"},
				{Name: "email", Generator: "[~!first].[~!last]@example.com"},
			},
		}},
	}
	g := build(t, doc)

	clean := func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, " ", ""))
	}
	for _, p := range g.Table("Person").Instances {
		want := clean(p.FieldValue("first")) + "." + clean(p.FieldValue("last")) + "@example.com"
		assert.Equal(t, want, p.FieldValue("email"))
	}
}

func TestAdjacentTokensConcatenate(t *testing.T) {
	doc := &schema.Document{
		Generators: []schema.Generator{{Name: "hex", Values: "0A;1B;2C;3D;E4;F5"}},
		Entities: []schema.EntityDoc{{
			Name:  "Chip",
			Count: "40",
			Fields: []schema.Field{
				{Name: "id", Key: true, Generator: "[uuid]"},
				{Name: "code", Generator: "[hex][hex]"},
			},
		}},
	}
	g := build(t, doc)

	for _, chip := range g.Table("Chip").Instances {
		code := chip.FieldValue("code")
		require.Len(t, code, 4)
		for _, r := range code {
			assert.Contains(t, "0123456789ABCDEF", string(r))
		}
	}
}

func TestQueryTokenGeneratorIndirection(t *testing.T) {
	doc := &schema.Document{
		Generators: []schema.Generator{
			{Name: "kind", Values: "phone;laptop"},
			{Name: "phone", Values: "iPhone;Pixel"},
			{Name: "laptop", Values: "ThinkPad;XPS"},
		},
		Entities: []schema.EntityDoc{
			{
				Name:  "DeviceType",
				Count: "[kind]",
				Fields: []schema.Field{
					{Name: "id", Key: true, Generator: "[uuid]"},
					{Name: "name", Unique: true, Generator: "[kind]"},
				},
			},
			{
				Name:  "Device",
				Count: "10",
				Fields: []schema.Field{
					{Name: "id", Key: true, Generator: "[uuid]"},
					{Name: "model", Generator: "[?DeviceType.name]"},
				},
				Relationships: []schema.Relationship{{Type: schema.RelOne, To: "DeviceType"}},
			},
		},
	}
	g := build(t, doc)

	models := map[string][]string{
		"phone":  {"iPhone", "Pixel"},
		"laptop": {"ThinkPad", "XPS"},
	}
	for _, d := range g.Table("Device").Instances {
		ref, ok := d.ForwardRef("DeviceType")
		require.True(t, ok)
		dt, _ := g.Instance(ref)
		assert.Contains(t, models[dt.FieldValue("name")], d.FieldValue("model"))
	}
}

func TestUniqueAttemptsExhausted(t *testing.T) {
	doc := &schema.Document{
		Generators: []schema.Generator{{Name: "shade", Values: "gray"}},
		Entities: []schema.EntityDoc{{
			Name:      "Color",
			TableName: "Colors",
			Count:     "2",
			Fields: []schema.Field{
				{Name: "id", Key: true, Generator: "[uuid]"},
				{Name: "name", Unique: true, Generator: "[shade]"},
			},
		}},
	}
	err := buildErr(t, doc)
	assert.Contains(t, err.Error(), "no unique value")
	assert.Contains(t, err.Error(), "Colors")
}

func TestUniqueComparisonIsCaseInsensitive(t *testing.T) {
	doc := &schema.Document{
		Generators: []schema.Generator{{Name: "shade", Values: "Gray; gray"}},
		Entities: []schema.EntityDoc{{
			Name:  "Color",
			Count: "2",
			Fields: []schema.Field{
				{Name: "id", Key: true, Generator: "[uuid]"},
				{Name: "name", Unique: true, Generator: "[shade]"},
			},
		}},
	}
	// Both values normalize to "gray", so the second row can never settle.
	err := buildErr(t, doc)
	assert.Contains(t, err.Error(), "no unique value")
}

func TestAssignmentOverwritesFields(t *testing.T) {
	doc := &schema.Document{
		Generators: []schema.Generator{
			{Name: "st", Values: "active;dormant"},
			{Name: "seq", Values: "1>1000"},
		},
		Entities: []schema.EntityDoc{
			{
				Name:  "Organisation",
				Count: "1",
				Fields: []schema.Field{
					{Name: "id", Key: true, Generator: "[uuid]"},
				},
			},
			{
				Name:      "User",
				TableName: "Users",
				Count:     "2",
				Fields: []schema.Field{
					{Name: "id", Key: true, Generator: "[uuid]"},
					{Name: "name", Generator: "user [seq]"},
					{Name: "status", Generator: "[st]"},
				},
				Relationships: []schema.Relationship{{Type: schema.RelOne, To: "Organisation"}},
			},
		},
		Assignments: []schema.Assignment{
			{
				Target: "Users(1)",
				Fields: map[string]string{"status": "suspended"},
				Order:  []string{"status"},
			},
			{
				Target: "Organisation(0).Users(0)",
				Fields: map[string]string{"name": "Root"},
				Order:  []string{"name"},
			},
		},
	}
	g := build(t, doc)

	users := g.Table("Users").Instances
	assert.Equal(t, "suspended", users[1].FieldValue("status"))
	assert.Contains(t, []string{"active", "dormant"}, users[0].FieldValue("status"))
	assert.Equal(t, "Root", users[0].FieldValue("name"))
}

func TestAssignmentAppliedTwiceIsStable(t *testing.T) {
	assign := schema.Assignment{
		Target: "Organisation(0).Users(0)",
		Fields: map[string]string{"name": "Root", "status": "locked"},
		Order:  []string{"name", "status"},
	}
	doc := &schema.Document{
		Entities: []schema.EntityDoc{
			{
				Name:  "Organisation",
				Count: "1",
				Fields: []schema.Field{
					{Name: "id", Key: true, Generator: "[uuid]"},
				},
			},
			{
				Name:      "User",
				TableName: "Users",
				Count:     "3",
				Fields: []schema.Field{
					{Name: "id", Key: true, Generator: "[uuid]"},
					{Name: "name", Default: "user"},
					{Name: "status", Default: "active"},
				},
				Relationships: []schema.Relationship{{Type: schema.RelOne, To: "Organisation"}},
			},
		},
		Assignments: []schema.Assignment{assign, assign},
	}
	g := build(t, doc)

	// The second application resolves the same path to the same row and
	// writes the same literals; no rows appear or shift.
	users := g.Table("Users").Instances
	require.Len(t, users, 3)
	assert.Equal(t, "Root", users[0].FieldValue("name"))
	assert.Equal(t, "locked", users[0].FieldValue("status"))
	assert.Equal(t, "user", users[1].FieldValue("name"))
}

func TestBuiltinGenerators(t *testing.T) {
	doc := &schema.Document{
		Entities: []schema.EntityDoc{{
			Name:  "Event",
			Count: "3",
			Fields: []schema.Field{
				{Name: "id", Key: true, Generator: "[uuid]"},
				{Name: "day", Generator: "[date]"},
				{Name: "at", Generator: "[time]"},
				{Name: "created", Type: schema.TypeTimestamp, Generator: "[timestamp]"},
			},
		}},
	}
	g := build(t, doc)

	for _, e := range g.Table("Event").Instances {
		_, err := uuid.Parse(e.FieldValue("id"))
		assert.NoError(t, err)
		_, err = time.Parse("2006-01-02", e.FieldValue("day"))
		assert.NoError(t, err)
		_, err = time.Parse("15:04:05", e.FieldValue("at"))
		assert.NoError(t, err)
		_, err = time.Parse(time.RFC3339, e.FieldValue("created"))
		assert.NoError(t, err)
	}
}

func TestUnknownGeneratorFails(t *testing.T) {
	doc := &schema.Document{
		Entities: []schema.EntityDoc{{
			Name:  "Thing",
			Count: "1",
			Fields: []schema.Field{
				{Name: "id", Key: true, Generator: "[uuid]"},
				{Name: "label", Generator: "[missing]"},
			},
		}},
	}
	err := buildErr(t, doc)
	assert.Contains(t, err.Error(), `unknown generator "missing"`)
}

func TestUnbalancedBracketsFail(t *testing.T) {
	doc := &schema.Document{
		Entities: []schema.EntityDoc{{
			Name:  "Thing",
			Count: "1",
			Fields: []schema.Field{
				{Name: "id", Key: true, Generator: "[uuid]"},
				{Name: "label", Generator: "broken [token"},
			},
		}},
	}
	err := buildErr(t, doc)
	assert.Contains(t, err.Error(), "detokenization failed")
}

func TestMutuallyRecursiveGeneratorsFail(t *testing.T) {
	doc := &schema.Document{
		Generators: []schema.Generator{
			{Name: "ping", Values: "[pong]"},
			{Name: "pong", Values: "[ping]"},
		},
		Entities: []schema.EntityDoc{{
			Name:  "Thing",
			Count: "1",
			Fields: []schema.Field{
				{Name: "id", Key: true, Generator: "[uuid]"},
				{Name: "label", Generator: "[ping]"},
			},
		}},
	}
	err := buildErr(t, doc)
	assert.Contains(t, err.Error(), "detokenization failed")
}

func TestReproducibleWithFixedSeed(t *testing.T) {
	doc := func() *schema.Document {
		return &schema.Document{
			Generators: []schema.Generator{
				{Name: "word", Values: "alpha;beta;gamma;delta"},
				{Name: "n", Values: "1>10000"},
			},
			Entities: []schema.EntityDoc{{
				Name:  "Sample",
				Count: "25",
				Fields: []schema.Field{
					{Name: "id", Key: true, Generator: "[n]"},
					{Name: "word", Generator: "[word]"},
				},
			}},
		}
	}

	run := func() []string {
		reg, err := schema.BuildRegistry(doc())
		require.NoError(t, err)
		g, err := engine.Build(reg, engine.Options{Seed: 7})
		require.NoError(t, err)
		var out []string
		for _, inst := range g.Table("Sample").Instances {
			out = append(out, inst.FieldValue("id")+"/"+inst.FieldValue("word"))
		}
		return out
	}

	assert.Equal(t, run(), run())
}
