package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterEvaluator_Match(t *testing.T) {
	filters, err := NewFilterEvaluator(8)
	require.NoError(t, err)

	datum := map[string]any{
		"title":     "Write report",
		"completed": false,
		"priority":  "HIGH",
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{name: "empty matches all", expr: "", want: true},
		{name: "equality", expr: `priority == "HIGH"`, want: true},
		{name: "inequality", expr: `priority != "HIGH"`, want: false},
		{name: "boolean", expr: `completed == false`, want: true},
		{name: "conjunction", expr: `priority == "HIGH" and completed == true`, want: false},
		{name: "missing selector", expr: `category == "WORK"`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filters.Match(tt.expr, datum)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterEvaluator_InvalidExpression(t *testing.T) {
	filters, err := NewFilterEvaluator(8)
	require.NoError(t, err)

	_, err = filters.Match(`priority ==`, map[string]any{})
	assert.ErrorIs(t, err, ErrInvalidFilter)
	assert.Equal(t, 0, filters.Len())
}

func TestFilterEvaluator_CachesCompiled(t *testing.T) {
	filters, err := NewFilterEvaluator(2)
	require.NoError(t, err)

	first, err := filters.Compile(`a == "1"`)
	require.NoError(t, err)
	second, err := filters.Compile(` a == "1" `)
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = filters.Compile(`b == "2"`)
	require.NoError(t, err)
	_, err = filters.Compile(`c == "3"`)
	require.NoError(t, err)
	assert.Equal(t, 2, filters.Len())
}
