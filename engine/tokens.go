package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ridoystarlord/seedato/schema"
)

const (
	// maxExpandRounds bounds iterative placeholder expansion so mutually
	// recursive generators fail fast instead of looping.
	maxExpandRounds = 50
	// maxUniqueAttempts bounds the whole-row re-roll loop for unique fields.
	maxUniqueAttempts = 1000
)

// tokenPattern matches one innermost bracketed placeholder. Nested
// placeholders resolve inside-out because a token body never contains
// brackets.
var tokenPattern = regexp.MustCompile(`\[([^\[\]]*)\]`)

// Resolve expands every [...] placeholder in expr against the given instance
// until none remain. Tokens resolve innermost-first, and resolved values are
// rescanned, so generators may emit further placeholders. Text that still
// holds brackets once nothing more resolves is a hard error.
func (c *Context) Resolve(expr string, inst *Instance) (string, error) {
	out := expr
	for round := 0; round < maxExpandRounds; round++ {
		if !strings.ContainsAny(out, "[]") {
			return out, nil
		}
		replaced := false
		var tokenErr error
		out = tokenPattern.ReplaceAllStringFunc(out, func(m string) string {
			if tokenErr != nil {
				return m
			}
			v, err := c.resolveToken(m[1:len(m)-1], inst)
			if err != nil {
				tokenErr = err
				return m
			}
			replaced = true
			return v
		})
		if tokenErr != nil {
			return "", tokenErr
		}
		if !replaced {
			break
		}
	}
	if strings.ContainsAny(out, "[]") {
		return "", fmt.Errorf("detokenization failed: unresolvable placeholder left in %q", out)
	}
	return out, nil
}

// resolveToken evaluates one placeholder body. Prefixes: ? walks a
// relationship path, ! reads a sibling field, ~ strips spaces and lowercases
// the result. ! and ~ compose in either order.
func (c *Context) resolveToken(body string, inst *Instance) (string, error) {
	if strings.HasPrefix(body, "?") {
		return c.resolveQuery(body[1:], inst)
	}

	name := body
	lookup, clean := false, false
	for len(name) > 0 && (name[0] == '!' || name[0] == '~') {
		if name[0] == '!' {
			lookup = true
		} else {
			clean = true
		}
		name = name[1:]
	}
	if name == "" {
		return "", fmt.Errorf("empty placeholder [%s]", body)
	}

	var value string
	var err error
	if lookup {
		if inst == nil {
			return "", fmt.Errorf("field lookup [%s] outside an instance context", body)
		}
		value, err = c.fieldValue(inst, name)
	} else {
		value, err = c.generatorValue(name, inst)
	}
	if err != nil {
		return "", err
	}
	if clean {
		value = cleanValue(value)
	}
	return value, nil
}

func cleanValue(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", ""))
}

// generatorValue produces one value from a named generator. uuid, date, time
// and timestamp are built in; everything else must be declared in the
// document.
func (c *Context) generatorValue(name string, inst *Instance) (string, error) {
	now := time.Now().UTC()
	switch name {
	case "uuid":
		return uuid.NewString(), nil
	case "date":
		return now.Format("2006-01-02"), nil
	case "time":
		return now.Format("15:04:05"), nil
	case "timestamp":
		return now.Format(time.RFC3339), nil
	}
	g := c.reg.Generator(name)
	if g == nil {
		return "", fmt.Errorf("unknown generator %q", name)
	}
	return c.evaluateTemplate(name, g.Values)
}

// evaluateTemplate interprets a generator template: a ;-delimited list picks
// one element at random, low>high rolls an integer in [low, high), and
// anything else passes through for the expansion loop to rescan.
func (c *Context) evaluateTemplate(name, tpl string) (string, error) {
	if strings.Contains(tpl, ";") {
		values := splitList(tpl)
		if len(values) == 0 {
			return "", fmt.Errorf("generator %q has no values", name)
		}
		return values[c.rand.Intn(len(values))], nil
	}
	if lo, hi, isRange := splitRange(tpl); isRange {
		if hi <= lo {
			return "", fmt.Errorf("generator %q: invalid range %s (high bound must exceed low)", name, tpl)
		}
		return strconv.Itoa(lo + c.rand.Intn(hi-lo)), nil
	}
	return tpl, nil
}

// splitList breaks a ;-delimited template into its values, dropping empties
// produced by stray leading or trailing separators.
func splitList(s string) []string {
	trimmed := strings.Trim(s, ";")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, ";")
}

// splitRange reports whether tpl has the low>high shape with both bounds
// numeric. The high bound is exclusive.
func splitRange(tpl string) (lo, hi int, ok bool) {
	parts := strings.Split(tpl, ">")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo, errLo := strconv.Atoi(strings.TrimSpace(parts[0]))
	hi, errHi := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errLo != nil || errHi != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

// fieldValue returns the resolved literal for one field of an instance,
// resolving it on demand. During a uniqueness attempt values land in the
// instance's scratch map so a failed attempt can be thrown away; outside one
// the resolved value is pinned into the row, which is how cross-row [?path]
// queries keep the same answer across the querying row's retries.
func (c *Context) fieldValue(inst *Instance, name string) (string, error) {
	if inst.scratch != nil {
		if v, ok := inst.scratch[name]; ok {
			return v, nil
		}
	}
	raw, ok := inst.Values[name]
	if !ok {
		return "", fmt.Errorf("%s has no field %q", inst.Type.Name, name)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("field %q of %s holds a relationship, not a value", name, inst.Type.Name)
	}
	if !strings.Contains(s, "[") {
		if inst.scratch != nil {
			inst.scratch[name] = s
		}
		return s, nil
	}
	v, err := c.Resolve(s, inst)
	if err != nil {
		return "", err
	}
	if inst.scratch != nil {
		inst.scratch[name] = v
	} else {
		inst.Values[name] = v
	}
	return v, nil
}

// resolveQuery follows a dotted path of forward references off the current
// instance and reads the final segment as a field on the row it lands on.
// The result comes back re-bracketed for another substitution round, so a
// queried value naming a generator picks from that generator: the related
// field selects which value space to draw from.
func (c *Context) resolveQuery(path string, inst *Instance) (string, error) {
	if inst == nil {
		return "", fmt.Errorf("path query [?%s] outside an instance context", path)
	}
	parts := strings.Split(path, ".")
	cur := inst
	for _, p := range parts[:len(parts)-1] {
		ref, ok := cur.Values[p].(schema.Ref)
		if !ok {
			return "", fmt.Errorf("query path %q: %s has no connected relationship %q", path, cur.Type.Name, p)
		}
		cur = c.instance(ref)
	}
	v, err := c.fieldValue(cur, parts[len(parts)-1])
	if err != nil {
		return "", fmt.Errorf("query path %q: %v", path, err)
	}
	return "[" + v + "]", nil
}

// expandInstance resolves every field of one row, retrying the whole row when
// a unique field collides with a value already taken by the type. Derived
// fields (name parts flowing into emails and usernames) stay consistent
// because each attempt re-rolls everything together.
func (c *Context) expandInstance(inst *Instance) error {
	if inst.resolved {
		return nil
	}
	var uniqueFields []string
	for _, f := range inst.Type.Fields {
		if f.Unique {
			uniqueFields = append(uniqueFields, f.Name)
		}
	}

	for attempt := 1; ; attempt++ {
		inst.scratch = map[string]string{}
		var err error
		for _, f := range inst.Type.Fields {
			if _, err = c.fieldValue(inst, f.Name); err != nil {
				break
			}
		}
		if err != nil {
			inst.scratch = nil
			return err
		}

		collision := ""
		for _, fn := range uniqueFields {
			if c.isUsed(inst.Type.Name, fn, normalizeUnique(inst.scratch[fn])) {
				collision = fn
				break
			}
		}
		if collision == "" {
			for k, v := range inst.scratch {
				inst.Values[k] = v
			}
			for _, fn := range uniqueFields {
				c.markUsed(inst.Type.Name, fn, normalizeUnique(inst.scratch[fn]))
			}
			inst.scratch = nil
			inst.resolved = true
			return nil
		}
		if attempt >= maxUniqueAttempts {
			inst.scratch = nil
			return fmt.Errorf("table %s: no unique value for field %q after %d attempts, widen the generator's value space",
				inst.Type.TableName, collision, maxUniqueAttempts)
		}
	}
}
