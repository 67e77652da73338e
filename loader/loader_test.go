package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ridoystarlord/seedato/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAMLDocument(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lookups.yaml", `
generators:
  - name: org
    values: Acme;Globex
entities:
  Organisation:
    count: "[org]"
    fields:
      id:
        key: true
        generator: "[uuid]"
`)
	main := writeFile(t, dir, "schema.yaml", `
include: lookups.yaml
generators:
  - name: first
    values: Ada;Grace;Linus
  - name: age
    values: 18>66
snippets:
  audit:
    created:
      type: timestamp
      generator: "[timestamp]"
entities:
  Base:
    abstract: true
    fields:
      id:
        key: true
        generator: "[uuid]"
  User:
    table: Users
    count: 12
    inherits: Base
    snippets: audit
    fields:
      name:
        generator: "[first]"
      email:
        unique: true
        generator: "[~!name]@example.com"
    relationships:
      - type: one
        to: Organisation
      - type: many
        to: Interest
        name: UserInterests
        count: 2
triggers:
  - entity: Organisation
    scripts:
      - Users(0).OrganisationRole?name=CEO
assign:
  - target: Users(0)
    fields:
      name: Root
      status: active
`)

	doc, err := LoadDocument(main)
	require.NoError(t, err)

	// Included sections land ahead of the including file's own.
	require.Len(t, doc.Entities, 3)
	assert.Equal(t, "Organisation", doc.Entities[0].Name)
	assert.Equal(t, "Base", doc.Entities[1].Name)
	assert.Equal(t, "User", doc.Entities[2].Name)

	require.Len(t, doc.Generators, 3)
	assert.Equal(t, "org", doc.Generators[0].Name)
	assert.Equal(t, "Acme;Globex", doc.Generators[0].Values)

	assert.Equal(t, "[org]", doc.Entities[0].Count)

	user := doc.Entity("User")
	require.NotNil(t, user)
	assert.Equal(t, "Users", user.TableName)
	assert.Equal(t, "12", user.Count)
	assert.Equal(t, []string{"Base"}, user.Inherits)
	assert.Equal(t, []string{"audit"}, user.Snippets)

	require.Len(t, user.Fields, 2)
	assert.Equal(t, "name", user.Fields[0].Name)
	assert.Equal(t, "email", user.Fields[1].Name)
	assert.True(t, user.Fields[1].Unique)

	require.Len(t, user.Relationships, 2)
	assert.Equal(t, schema.RelOne, user.Relationships[0].Type)
	assert.Equal(t, "Organisation", user.Relationships[0].To)
	assert.Equal(t, schema.RelMany, user.Relationships[1].Type)
	assert.Equal(t, "UserInterests", user.Relationships[1].Name)
	assert.Equal(t, 2, user.Relationships[1].Count)

	audit := doc.Snippet("audit")
	require.NotNil(t, audit)
	require.Len(t, audit.Fields, 1)
	assert.Equal(t, schema.TypeTimestamp, audit.Fields[0].Type)

	require.Len(t, doc.Triggers, 1)
	assert.Equal(t, "Organisation", doc.Triggers[0].Entity)
	assert.Equal(t, []string{"Users(0).OrganisationRole?name=CEO"}, doc.Triggers[0].Scripts)

	require.Len(t, doc.Assignments, 1)
	assert.Equal(t, "Users(0)", doc.Assignments[0].Target)
	assert.Equal(t, []string{"name", "status"}, doc.Assignments[0].Order)
	assert.Equal(t, "Root", doc.Assignments[0].Fields["name"])
}

func TestLoadJSONDocument(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "schema.json", `{
  "generators": [
    {"name": "tag", "values": "cars;pets;food"}
  ],
  "entities": {
    "Tag": {
      "count": "[tag]",
      "fields": {
        "id": {"key": true, "generator": "[uuid]"},
        "name": {"unique": true, "generator": "[tag]"},
        "weight": {"type": "integer", "default": 10}
      }
    },
    "Post": {
      "count": 5,
      "fields": {
        "id": {"key": true, "generator": "[uuid]"}
      },
      "relationships": [
        {
          "type": "one",
          "to": "Tag",
          "singular": {"enumerate": "Tag", "field": "name", "values": ["cars"]},
          "default": {"field": "name", "value": "pets"}
        }
      ]
    }
  },
  "assign": [
    {"target": "Post(0)", "fields": {"id": "fixed", "flag": true}}
  ]
}`)

	doc, err := LoadDocument(main)
	require.NoError(t, err)

	require.Len(t, doc.Entities, 2)
	tag := doc.Entities[0]
	assert.Equal(t, "Tag", tag.Name)
	assert.Equal(t, "[tag]", tag.Count)
	require.Len(t, tag.Fields, 3)
	assert.Equal(t, "weight", tag.Fields[2].Name)
	// Scalar defaults keep their literal spelling.
	assert.Equal(t, "10", tag.Fields[2].Default)

	post := doc.Entities[1]
	assert.Equal(t, "5", post.Count)
	require.Len(t, post.Relationships, 1)
	rel := post.Relationships[0]
	require.NotNil(t, rel.Singular)
	assert.Equal(t, "Tag", rel.Singular.Enumerate)
	assert.Equal(t, []string{"cars"}, rel.Singular.Values)
	require.NotNil(t, rel.Default)
	assert.Equal(t, "pets", rel.Default.Value)

	require.Len(t, doc.Assignments, 1)
	assert.Equal(t, []string{"id", "flag"}, doc.Assignments[0].Order)
	assert.Equal(t, "true", doc.Assignments[0].Fields["flag"])
}

func TestFieldOrderSurvivesParsing(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "schema.json", `{
  "entities": {
    "Wide": {
      "fields": {
        "zulu": {}, "alpha": {}, "mike": {}, "bravo": {},
        "yankee": {}, "charlie": {}, "xray": {}, "delta": {}
      }
    }
  }
}`)
	doc, err := LoadDocument(main)
	require.NoError(t, err)

	var names []string
	for _, f := range doc.Entities[0].Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"zulu", "alpha", "mike", "bravo", "yankee", "charlie", "xray", "delta"}, names)
}

func TestIncludeRelativeToIncludingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sub/sibling.yaml", `
generators:
  - name: deep
    values: a;b
`)
	writeFile(t, dir, "sub/child.yaml", `
include: sibling.yaml
generators:
  - name: child
    values: c;d
`)
	main := writeFile(t, dir, "root.yaml", `
include: sub/child.yaml
generators:
  - name: root
    values: e;f
`)

	doc, err := LoadDocument(main)
	require.NoError(t, err)
	require.Len(t, doc.Generators, 3)
	assert.Equal(t, "deep", doc.Generators[0].Name)
	assert.Equal(t, "child", doc.Generators[1].Name)
	assert.Equal(t, "root", doc.Generators[2].Name)
}

func TestDiamondIncludeMergedOnce(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "common.yaml", `
generators:
  - name: shared
    values: x;y
`)
	writeFile(t, dir, "left.yaml", "include: common.yaml\n")
	writeFile(t, dir, "right.yaml", "include: common.yaml\n")
	main := writeFile(t, dir, "root.yaml", `
include:
  - left.yaml
  - right.yaml
`)

	doc, err := LoadDocument(main)
	require.NoError(t, err)
	require.Len(t, doc.Generators, 1)
	assert.Equal(t, "shared", doc.Generators[0].Name)
}

func TestCircularIncludeFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "include: b.yaml\n")
	writeFile(t, dir, "b.yaml", "include: a.yaml\n")

	_, err := LoadDocument(filepath.Join(dir, "a.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular include")
}

func TestUnsupportedExtensionFails(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "schema.toml", "anything")
	_, err := LoadDocument(main)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported schema file extension")
}

func TestFieldNameOverride(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "schema.yaml", `
entities:
  Thing:
    fields:
      displayName:
        name: display_name
        generator: "[word]"
`)
	doc, err := LoadDocument(main)
	require.NoError(t, err)
	require.Len(t, doc.Entities[0].Fields, 1)
	assert.Equal(t, "display_name", doc.Entities[0].Fields[0].Name)
}
