package tabular

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferColumnType(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		want   TypeTag
	}{
		{"no values", []any{}, TypeEmpty},
		{"only empties", []any{nil, "", nil}, TypeEmpty},
		{"numbers", []any{"1", "2", "3"}, TypeNumber},
		{"mixed number and text", []any{"1", "abc", "3"}, TypeString},
		{"thousands separated", []any{"1,000", "25,300.5", "-7"}, TypeNumber},
		{"native numbers", []any{1.5, 2, "3"}, TypeNumber},
		{"booleans any case", []any{"TRUE", "no", "Yes", "false"}, TypeBoolean},
		{"native booleans", []any{true, false}, TypeBoolean},
		{"iso dates", []any{"2024-01-15", "2024-02-01T10:00:00Z"}, TypeDate},
		{"slash dates", []any{"1/2/24", "12/31/2024"}, TypeDate},
		{"dates and numbers", []any{"2024-01-15", "12"}, TypeString},
		{"empties ignored", []any{"", "10", nil, "20"}, TypeNumber},
		{"plain strings", []any{"Ana", "Beto"}, TypeString},
		{"whitespace is a string", []any{" "}, TypeString},
		{"padded numbers", []any{" 10 ", "20"}, TypeNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferColumnType(tt.values))
		})
	}
}

func TestInferSchema(t *testing.T) {
	grid := Grid{
		{"Name", "Age", "", "Joined", "Active"},
		{"Ana", "30", "x", "2023-05-01", "yes"},
		{"Beto", "41", "", "2022-11-20", "no"},
		{"Caio"},
	}

	schema, err := InferSchema(grid, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, schema.SampleRowCount)

	want := []Column{
		{Name: "Name", Type: TypeString, Index: 0},
		{Name: "Age", Type: TypeNumber, Index: 1},
		{Name: "Column 3", Type: TypeString, Index: 2},
		{Name: "Joined", Type: TypeDate, Index: 3},
		{Name: "Active", Type: TypeBoolean, Index: 4},
	}
	assert.Equal(t, want, schema.Columns)
}

func TestInferSchema_SampleWindow(t *testing.T) {
	grid := Grid{
		{"Value"},
		{"1"},
		{"2"},
		{"not a number"},
	}

	schema, err := InferSchema(grid, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, schema.SampleRowCount)
	assert.Equal(t, TypeNumber, schema.Columns[0].Type)
}

func TestInferSchema_HeaderOnly(t *testing.T) {
	schema, err := InferSchema(Grid{{"A", "B"}}, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, schema.SampleRowCount)
	for _, c := range schema.Columns {
		assert.Equal(t, TypeEmpty, c.Type)
	}
}

func TestInferSchema_EmptySheet(t *testing.T) {
	_, err := InferSchema(nil, 5)
	assert.True(t, errors.Is(err, ErrEmptySheet))
}
