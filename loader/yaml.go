package loader

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ridoystarlord/seedato/schema"
)

type yamlFile struct {
	Include    yamlStringList  `yaml:"include"`
	Generators []yamlGenerator `yaml:"generators"`
	Snippets   yaml.Node       `yaml:"snippets"`
	Entities   yaml.Node       `yaml:"entities"`
	Triggers   []yamlTrigger   `yaml:"triggers"`
	Assign     []yamlAssign    `yaml:"assign"`
}

type yamlGenerator struct {
	Name   string    `yaml:"name"`
	Values yaml.Node `yaml:"values"`
}

type yamlTrigger struct {
	Entity  string   `yaml:"entity"`
	Scripts []string `yaml:"scripts"`
}

type yamlAssign struct {
	Target string    `yaml:"target"`
	Fields yaml.Node `yaml:"fields"`
}

type yamlEntity struct {
	Abstract      bool               `yaml:"abstract"`
	Count         yaml.Node          `yaml:"count"`
	Table         string             `yaml:"table"`
	Inherits      yamlStringList     `yaml:"inherits"`
	Snippets      yamlStringList     `yaml:"snippets"`
	Fields        yaml.Node          `yaml:"fields"`
	Relationships []yamlRelationship `yaml:"relationships"`
}

type yamlRelationship struct {
	Type     string        `yaml:"type"`
	To       string        `yaml:"to"`
	Name     string        `yaml:"name"`
	Count    int           `yaml:"count"`
	Required bool          `yaml:"required"`
	Singular *yamlSingular `yaml:"singular"`
	Default  *yamlDefault  `yaml:"default"`
}

type yamlSingular struct {
	Enumerate string   `yaml:"enumerate"`
	Field     string   `yaml:"field"`
	Values    []string `yaml:"values"`
}

type yamlDefault struct {
	Field string `yaml:"field"`
	Value string `yaml:"value"`
}

type yamlField struct {
	Name      string    `yaml:"name"`
	Type      string    `yaml:"type"`
	Key       bool      `yaml:"key"`
	Unique    bool      `yaml:"unique"`
	Required  bool      `yaml:"required"`
	Generator string    `yaml:"generator"`
	Default   yaml.Node `yaml:"default"`
}

// yamlStringList accepts a single scalar or a sequence of scalars.
type yamlStringList []string

func (l *yamlStringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*l = []string{node.Value}
		return nil
	}
	var many []string
	if err := node.Decode(&many); err != nil {
		return err
	}
	*l = many
	return nil
}

func parseYAML(data []byte) (*fileDoc, error) {
	var yf yamlFile
	if err := yaml.Unmarshal(data, &yf); err != nil {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}

	fd := &fileDoc{include: yf.Include}

	for _, g := range yf.Generators {
		fd.generators = append(fd.generators, schema.Generator{Name: g.Name, Values: scalarValue(&g.Values)})
	}

	err := eachMapping(&yf.Snippets, func(name string, node *yaml.Node) error {
		fields, err := parseYAMLFields(node)
		if err != nil {
			return fmt.Errorf("snippet %q: %v", name, err)
		}
		fd.snippets = append(fd.snippets, schema.Snippet{Name: name, Fields: fields})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachMapping(&yf.Entities, func(name string, node *yaml.Node) error {
		var ye yamlEntity
		if err := node.Decode(&ye); err != nil {
			return fmt.Errorf("entity %q: %v", name, err)
		}
		ent := schema.EntityDoc{
			Name:      name,
			Abstract:  ye.Abstract,
			Count:     scalarValue(&ye.Count),
			TableName: ye.Table,
			Inherits:  ye.Inherits,
			Snippets:  ye.Snippets,
		}
		fields, err := parseYAMLFields(&ye.Fields)
		if err != nil {
			return fmt.Errorf("entity %q: %v", name, err)
		}
		ent.Fields = fields
		for _, yr := range ye.Relationships {
			rel := schema.Relationship{
				Type:     schema.RelationshipType(yr.Type),
				To:       yr.To,
				Name:     yr.Name,
				Count:    yr.Count,
				Required: yr.Required,
			}
			if yr.Singular != nil {
				rel.Singular = &schema.Singular{
					Enumerate: yr.Singular.Enumerate,
					Field:     yr.Singular.Field,
					Values:    yr.Singular.Values,
				}
			}
			if yr.Default != nil {
				rel.Default = &schema.DefaultAssign{Field: yr.Default.Field, Value: yr.Default.Value}
			}
			ent.Relationships = append(ent.Relationships, rel)
		}
		fd.entities = append(fd.entities, ent)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, t := range yf.Triggers {
		fd.triggers = append(fd.triggers, schema.Trigger{Entity: t.Entity, Scripts: t.Scripts})
	}

	for _, a := range yf.Assign {
		asn := schema.Assignment{Target: a.Target, Fields: map[string]string{}}
		err := eachMapping(&a.Fields, func(field string, node *yaml.Node) error {
			asn.Fields[field] = scalarValue(node)
			asn.Order = append(asn.Order, field)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("assignment %q: %v", a.Target, err)
		}
		fd.assignments = append(fd.assignments, asn)
	}

	return fd, nil
}

func parseYAMLFields(node *yaml.Node) ([]schema.Field, error) {
	var fields []schema.Field
	err := eachMapping(node, func(name string, spec *yaml.Node) error {
		var yf yamlField
		if err := spec.Decode(&yf); err != nil {
			return fmt.Errorf("field %q: %v", name, err)
		}
		f := schema.Field{
			Name:      name,
			Type:      schema.FieldType(yf.Type),
			Key:       yf.Key,
			Unique:    yf.Unique,
			Required:  yf.Required,
			Generator: yf.Generator,
			Default:   scalarValue(&yf.Default),
		}
		if yf.Name != "" {
			f.Name = yf.Name
		}
		fields = append(fields, f)
		return nil
	})
	return fields, err
}

// eachMapping invokes fn for every entry of a YAML mapping in document
// order. yaml.Node is used instead of a map so registration order survives.
func eachMapping(node *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if node == nil || node.IsZero() {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected a mapping, got %s", nodeKind(node))
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := fn(node.Content[i].Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// scalarValue returns the raw text of a scalar node, so counts and defaults
// keep their literal spelling whether the document quotes them or not.
func scalarValue(node *yaml.Node) string {
	if node == nil || node.IsZero() {
		return ""
	}
	return node.Value
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
