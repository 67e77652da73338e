package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ridoystarlord/seedato/schema"
)

type jsonFile struct {
	Include    stringList      `json:"include"`
	Generators []jsonGenerator `json:"generators"`
	Snippets   json.RawMessage `json:"snippets"`
	Entities   json.RawMessage `json:"entities"`
	Triggers   []jsonTrigger   `json:"triggers"`
	Assign     []jsonAssign    `json:"assign"`
}

type jsonGenerator struct {
	Name   string          `json:"name"`
	Values json.RawMessage `json:"values"`
}

type jsonTrigger struct {
	Entity  string   `json:"entity"`
	Scripts []string `json:"scripts"`
}

type jsonAssign struct {
	Target string          `json:"target"`
	Fields json.RawMessage `json:"fields"`
}

type jsonEntity struct {
	Abstract      bool               `json:"abstract"`
	Count         json.RawMessage    `json:"count"`
	Table         string             `json:"table"`
	Inherits      stringList         `json:"inherits"`
	Snippets      stringList         `json:"snippets"`
	Fields        json.RawMessage    `json:"fields"`
	Relationships []jsonRelationship `json:"relationships"`
}

type jsonRelationship struct {
	Type     string        `json:"type"`
	To       string        `json:"to"`
	Name     string        `json:"name"`
	Count    int           `json:"count"`
	Required bool          `json:"required"`
	Singular *jsonSingular `json:"singular"`
	Default  *jsonDefault  `json:"default"`
}

type jsonSingular struct {
	Enumerate string   `json:"enumerate"`
	Field     string   `json:"field"`
	Values    []string `json:"values"`
}

type jsonDefault struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type jsonField struct {
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Key       bool            `json:"key"`
	Unique    bool            `json:"unique"`
	Required  bool            `json:"required"`
	Generator string          `json:"generator"`
	Default   json.RawMessage `json:"default"`
}

// stringList accepts either a single string or an array of strings, the way
// loosely typed schema documents tend to spell one-element lists.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = []string{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

func parseJSON(data []byte) (*fileDoc, error) {
	var jf jsonFile
	if err := json.Unmarshal(data, &jf); err != nil {
		return nil, fmt.Errorf("unmarshalling JSON: %w", err)
	}

	fd := &fileDoc{include: jf.Include}

	for _, g := range jf.Generators {
		values, err := jsonLiteral(g.Values)
		if err != nil {
			return nil, fmt.Errorf("generator %q: %v", g.Name, err)
		}
		fd.generators = append(fd.generators, schema.Generator{Name: g.Name, Values: values})
	}

	err := eachMember(jf.Snippets, func(name string, raw json.RawMessage) error {
		fields, err := parseJSONFields(raw)
		if err != nil {
			return fmt.Errorf("snippet %q: %v", name, err)
		}
		fd.snippets = append(fd.snippets, schema.Snippet{Name: name, Fields: fields})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachMember(jf.Entities, func(name string, raw json.RawMessage) error {
		var je jsonEntity
		if err := json.Unmarshal(raw, &je); err != nil {
			return fmt.Errorf("entity %q: %v", name, err)
		}
		ent := schema.EntityDoc{
			Name:      name,
			Abstract:  je.Abstract,
			TableName: je.Table,
			Inherits:  je.Inherits,
			Snippets:  je.Snippets,
		}
		if ent.Count, err = jsonCount(je.Count); err != nil {
			return fmt.Errorf("entity %q: %v", name, err)
		}
		if ent.Fields, err = parseJSONFields(je.Fields); err != nil {
			return fmt.Errorf("entity %q: %v", name, err)
		}
		for _, jr := range je.Relationships {
			rel := schema.Relationship{
				Type:     schema.RelationshipType(jr.Type),
				To:       jr.To,
				Name:     jr.Name,
				Count:    jr.Count,
				Required: jr.Required,
			}
			if jr.Singular != nil {
				rel.Singular = &schema.Singular{
					Enumerate: jr.Singular.Enumerate,
					Field:     jr.Singular.Field,
					Values:    jr.Singular.Values,
				}
			}
			if jr.Default != nil {
				rel.Default = &schema.DefaultAssign{Field: jr.Default.Field, Value: jr.Default.Value}
			}
			ent.Relationships = append(ent.Relationships, rel)
		}
		fd.entities = append(fd.entities, ent)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, t := range jf.Triggers {
		fd.triggers = append(fd.triggers, schema.Trigger{Entity: t.Entity, Scripts: t.Scripts})
	}

	for _, a := range jf.Assign {
		asn := schema.Assignment{Target: a.Target, Fields: map[string]string{}}
		err := eachMember(a.Fields, func(field string, raw json.RawMessage) error {
			v, err := jsonLiteral(raw)
			if err != nil {
				return fmt.Errorf("assignment %q field %q: %v", a.Target, field, err)
			}
			asn.Fields[field] = v
			asn.Order = append(asn.Order, field)
			return nil
		})
		if err != nil {
			return nil, err
		}
		fd.assignments = append(fd.assignments, asn)
	}

	return fd, nil
}

// parseJSONFields decodes a field object preserving document order. The
// member key names the field unless an explicit name entry overrides it.
func parseJSONFields(raw json.RawMessage) ([]schema.Field, error) {
	var fields []schema.Field
	err := eachMember(raw, func(name string, spec json.RawMessage) error {
		var jf jsonField
		if err := json.Unmarshal(spec, &jf); err != nil {
			return fmt.Errorf("field %q: %v", name, err)
		}
		f := schema.Field{
			Name:      name,
			Type:      schema.FieldType(jf.Type),
			Key:       jf.Key,
			Unique:    jf.Unique,
			Required:  jf.Required,
			Generator: jf.Generator,
		}
		if jf.Name != "" {
			f.Name = jf.Name
		}
		def, err := jsonLiteral(jf.Default)
		if err != nil {
			return fmt.Errorf("field %q: %v", name, err)
		}
		f.Default = def
		fields = append(fields, f)
		return nil
	})
	return fields, err
}

// eachMember invokes fn for every member of a JSON object in document order.
// Plain map unmarshalling would lose the order, and entity registration
// depends on it (bases before children).
func eachMember(raw json.RawMessage, fn func(key string, value json.RawMessage) error) error {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected a JSON object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected an object key, got %v", keyTok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("member %q: %v", key, err)
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

// jsonCount normalizes the count member: an integer or a "[generator]"
// reference string.
func jsonCount(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.Itoa(n), nil
	}
	return "", fmt.Errorf("count must be an integer or a generator reference string")
}

// jsonLiteral renders a scalar JSON value as its literal string form.
func jsonLiteral(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	trimmed := strings.TrimSpace(string(raw))
	switch trimmed {
	case "null":
		return "", nil
	case "true", "false":
		return trimmed, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("expected a scalar value, got %s", trimmed)
}
