package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ridoystarlord/seedato/schema"
)

// fileDoc is the normalized content of one schema file before merging.
// Section order inside each slice follows the source document.
type fileDoc struct {
	include     []string
	generators  []schema.Generator
	snippets    []schema.Snippet
	entities    []schema.EntityDoc
	triggers    []schema.Trigger
	assignments []schema.Assignment
}

// LoadDocument reads a schema file (JSON or YAML, by extension), resolves its
// include chain and returns the merged document. Includes are processed
// before the including file's own sections, relative to the including file's
// directory. A file reached twice through different paths is merged once; a
// file including itself, directly or transitively, is a circular-include
// error.
func LoadDocument(filename string) (*schema.Document, error) {
	st := &loadState{
		visited: map[string]bool{},
		doc:     &schema.Document{},
	}
	if err := st.loadFile(filename); err != nil {
		return nil, err
	}
	return st.doc, nil
}

type loadState struct {
	visited map[string]bool
	stack   []string
	doc     *schema.Document
}

func (s *loadState) loadFile(filename string) error {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return fmt.Errorf("resolving %s: %v", filename, err)
	}
	for _, f := range s.stack {
		if f == abs {
			return fmt.Errorf("circular include: %s", strings.Join(append(append([]string{}, s.stack...), abs), " -> "))
		}
	}
	if s.visited[abs] {
		return nil
	}
	s.visited[abs] = true

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading schema file: %v", err)
	}

	var fd *fileDoc
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		fd, err = parseYAML(data)
	case ".json":
		fd, err = parseJSON(data)
	default:
		return fmt.Errorf("unsupported schema file extension %q (want .json, .yaml or .yml)", filepath.Ext(filename))
	}
	if err != nil {
		return fmt.Errorf("parsing %s: %v", filename, err)
	}

	s.stack = append(s.stack, abs)
	for _, inc := range fd.include {
		if err := s.loadFile(filepath.Join(filepath.Dir(filename), inc)); err != nil {
			return err
		}
	}
	s.stack = s.stack[:len(s.stack)-1]

	s.doc.Generators = append(s.doc.Generators, fd.generators...)
	s.doc.Snippets = append(s.doc.Snippets, fd.snippets...)
	s.doc.Entities = append(s.doc.Entities, fd.entities...)
	s.doc.Triggers = append(s.doc.Triggers, fd.triggers...)
	s.doc.Assignments = append(s.doc.Assignments, fd.assignments...)
	return nil
}
