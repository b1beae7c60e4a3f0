package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Render(t *testing.T) {
	e := NewEngine(0)

	data := map[string]interface{}{
		"expression": "14 4 6 8 + * /",
		"result":     0.25,
		"target":     "small_values",
		"error":      "",
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"plain fields", "{{expression}} -> {{target}}", "14 4 6 8 + * / -> small_values"},
		{"round", "{{round result 1}}", "0.2"},
		{"round zero places", "{{round result 0}}", "0"},
		{"number", "{{number result}}", "0.25"},
		{"uppercase", "{{uppercase target}}", "SMALL_VALUES"},
		{"lowercase", "{{lowercase \"ABC\"}}", "abc"},
		{"default", "{{default error \"none\"}}", "none"},
		{"eq", "{{#if (eq target \"small_values\")}}small{{else}}big{{/if}}", "small"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Render(tt.template, data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_MultipleEngines(t *testing.T) {
	first := NewEngine(0)
	second := NewEngine(0)

	a, err := first.Render("{{number value}}", map[string]interface{}{"value": 14.0})
	require.NoError(t, err)
	b, err := second.Render("{{number value}}", map[string]interface{}{"value": 14.0})
	require.NoError(t, err)

	assert.Equal(t, "14", a)
	assert.Equal(t, a, b)
}

func TestEngine_Cache(t *testing.T) {
	e := NewEngine(0)

	_, err := e.Render("{{target}}", map[string]interface{}{"target": "a"})
	require.NoError(t, err)
	got, err := e.Render("{{target}}", map[string]interface{}{"target": "b"})
	require.NoError(t, err)
	assert.Equal(t, "b", got)

	assert.Equal(t, 1, e.CacheSize())

	e.ClearCache()
	assert.Equal(t, 0, e.CacheSize())
	got, err = e.Render("{{target}}", map[string]interface{}{"target": "c"})
	require.NoError(t, err)
	assert.Equal(t, "c", got)
}

func TestEngine_CacheEviction(t *testing.T) {
	e := NewEngine(3)
	data := map[string]interface{}{"n": 1.0}

	for i := 0; i < 10; i++ {
		got, err := e.Render(strings.Repeat("x", i)+"{{number n}}", data)
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("x", i)+"1", got)
	}
	assert.Equal(t, 3, e.CacheSize())
}

func TestEngine_ValidateTemplate(t *testing.T) {
	e := NewEngine(0)

	assert.NoError(t, e.ValidateTemplate("{{result}}"))
	assert.Error(t, e.ValidateTemplate("{{#if result}}unclosed"))

	_, err := e.Render("{{#if result}}unclosed", nil)
	assert.Error(t, err)
}
