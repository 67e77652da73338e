// Package engine turns a resolved schema registry into a fully populated,
// fully connected object graph. Generation runs as a fixed pipeline: table
// creation, population with per-instance trigger scripts, default
// one-to-many connection, placeholder expansion, join-row synthesis,
// singular connection, and finally literal assignments.
package engine

import (
	"math/rand"
	"time"

	"github.com/ridoystarlord/seedato/schema"
)

// Options tunes one generation run.
type Options struct {
	// Seed fixes the random source for reproducible output. Zero means
	// seed from the clock.
	Seed int64
}

// Graph is the finished result: every table populated, every placeholder
// expanded and every relationship connected. Tables come back in
// registration order, which is also a safe insert order for lookup-style
// dependencies created through lazy population.
type Graph struct {
	reg    *schema.Registry
	tables []*Table
	byName map[string]*Table
}

// Build runs the whole pipeline over a registry.
func Build(reg *schema.Registry, opts Options) (*Graph, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	c := newContext(reg, rand.New(rand.NewSource(seed)))

	if err := c.fillAll(); err != nil {
		return nil, err
	}
	if err := c.connectDefaults(); err != nil {
		return nil, err
	}
	if err := c.expandAll(); err != nil {
		return nil, err
	}
	if err := c.connectJoins(); err != nil {
		return nil, err
	}
	if err := c.connectSingulars(); err != nil {
		return nil, err
	}
	if err := c.applyAssignments(); err != nil {
		return nil, err
	}

	g := &Graph{reg: reg, tables: c.order, byName: map[string]*Table{}}
	for _, t := range c.order {
		g.byName[t.Type.Name] = t
		g.byName[t.Type.TableName] = t
	}
	return g, nil
}

// Registry returns the schema the graph was generated from.
func (g *Graph) Registry() *schema.Registry { return g.reg }

// Tables returns every table in registration order.
func (g *Graph) Tables() []*Table { return g.tables }

// Table finds a table by type name or table name.
func (g *Graph) Table(name string) *Table { return g.byName[name] }

// Instance dereferences a graph address.
func (g *Graph) Instance(ref schema.Ref) (*Instance, bool) {
	t, ok := g.byName[ref.Type]
	if !ok || ref.Index < 0 || ref.Index >= len(t.Instances) {
		return nil, false
	}
	return t.Instances[ref.Index], true
}
