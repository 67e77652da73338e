package engine

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitList(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"cars;pets;food", []string{"cars", "pets", "food"}},
		{"cars;pets;food;", []string{"cars", "pets", "food"}},
		{";cars", []string{"cars"}},
		{"solo", []string{"solo"}},
		{"", nil},
		{";;;", nil},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, splitList(tc.in), "input %q", tc.in)
	}
}

func TestSplitRange(t *testing.T) {
	lo, hi, ok := splitRange("1>255")
	require.True(t, ok)
	assert.Equal(t, 1, lo)
	assert.Equal(t, 255, hi)

	lo, hi, ok = splitRange(" 18 > 66 ")
	require.True(t, ok)
	assert.Equal(t, 18, lo)
	assert.Equal(t, 66, hi)

	for _, in := range []string{"plain", "a>b", "10", "1>2>3", ">5"} {
		_, _, ok := splitRange(in)
		assert.False(t, ok, "input %q", in)
	}
}

func TestCleanValue(t *testing.T) {
	assert.Equal(t, "maryjane", cleanValue("Mary Jane"))
	assert.Equal(t, "abc", cleanValue("A B C"))
	assert.Equal(t, "", cleanValue("  "))
}

func TestNormalizeUnique(t *testing.T) {
	assert.Equal(t, "gray", normalizeUnique(" Gray "))
	assert.Equal(t, normalizeUnique("RED"), normalizeUnique("red"))
}

func TestEvaluateTemplate(t *testing.T) {
	c := &Context{rand: rand.New(rand.NewSource(1))}

	v, err := c.evaluateTemplate("g", "a;b;c")
	require.NoError(t, err)
	assert.Contains(t, []string{"a", "b", "c"}, v)

	v, err = c.evaluateTemplate("g", "1>255")
	require.NoError(t, err)
	n, err := strconv.Atoi(v)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
	assert.Less(t, n, 255)

	// A list wins over a range reading, so elements may contain '>'.
	v, err = c.evaluateTemplate("g", "1>3;4>6")
	require.NoError(t, err)
	assert.Contains(t, []string{"1>3", "4>6"}, v)

	// Composites pass through untouched for the expansion loop.
	v, err = c.evaluateTemplate("g", "[first] [last]")
	require.NoError(t, err)
	assert.Equal(t, "[first] [last]", v)

	_, err = c.evaluateTemplate("g", "5>5")
	assert.Error(t, err)
}

func TestParseScript(t *testing.T) {
	s, err := parseScript("Users(0).OrganisationRole?name=CEO")
	require.NoError(t, err)
	assert.Equal(t, "Users", s.table)
	assert.Equal(t, 0, s.start)
	assert.Equal(t, 0, s.end)
	assert.Equal(t, "OrganisationRole", s.relation)
	assert.Equal(t, "name", s.queryField)
	assert.Equal(t, "CEO", s.queryValue)

	s, err = parseScript("Users(6-10).OrganisationRole?name=Staff")
	require.NoError(t, err)
	assert.Equal(t, 6, s.start)
	assert.Equal(t, 10, s.end)

	// Query values may contain spaces.
	s, err = parseScript("Users(0).Role?title=Chief Executive")
	require.NoError(t, err)
	assert.Equal(t, "Chief Executive", s.queryValue)

	for _, in := range []string{
		"Users.OrganisationRole?name=CEO",  // missing index
		"Users(2).OrganisationRole",        // missing query
		"Users(5-2).Role?name=x",           // descending range
		"Users(a).Role?name=x",             // non-numeric index
		"(0).Role?name=x",                  // missing table
		"Users(0)Role?name=x",              // missing dot
	} {
		_, err := parseScript(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParseSegment(t *testing.T) {
	name, _, hasIdx, err := parseSegment("Users")
	require.NoError(t, err)
	assert.Equal(t, "Users", name)
	assert.False(t, hasIdx)

	name, idx, hasIdx, err := parseSegment("Users(3)")
	require.NoError(t, err)
	assert.Equal(t, "Users", name)
	assert.True(t, hasIdx)
	assert.Equal(t, 3, idx)

	for _, in := range []string{"Users(x)", "9Users", "Users(", "Users(3", ""} {
		_, _, _, err := parseSegment(in)
		assert.Error(t, err, "input %q", in)
	}
}
