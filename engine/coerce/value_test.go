package coerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlmongo-engine/sqlmongo/engine/ast"
	"github.com/sqlmongo-engine/sqlmongo/engine/models"
)

func TestValue(t *testing.T) {
	types := models.FieldTypeMap{
		Types: map[string]models.FieldType{
			"age":        models.FieldNumber,
			"active":     models.FieldBoolean,
			"created_at": models.FieldDate,
			"name":       models.FieldString,
		},
	}

	tables := []struct {
		name   string
		expr   *ast.Expr
		column string
		want   interface{}
	}{
		{"string passthrough", &ast.Expr{Type: "String", Text: "bob"}, "name", "bob"},
		{"escaped quote", &ast.Expr{Type: "String", Text: "it''s"}, "name", "it's"},
		{"number from string literal", &ast.Expr{Type: "String", Text: "42"}, "age", int64(42)},
		{"boolean from string literal", &ast.Expr{Type: "String", Text: "true"}, "active", true},
		{"unknown long passthrough", &ast.Expr{Type: "Long", Long: 7}, "other", int64(7)},
		{"signed negative number", &ast.Expr{Type: "Signed", Sign: "-", Inner: &ast.Expr{Type: "Long", Long: 5}}, "other", int64(-5)},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			got, err := Value(table.expr, table.column, types)
			require.NoError(t, err)
			assert.Equal(t, table.want, got)
		})
	}
}

func TestValueDate(t *testing.T) {
	types := models.FieldTypeMap{Types: map[string]models.FieldType{"created_at": models.FieldDate}}
	got, err := Value(&ast.Expr{Type: "String", Text: "2024-01-15"}, "created_at", types)
	require.NoError(t, err)
	assert.Equal(t, 2024, got.(interface{ Year() int }).Year())
}

func TestIntOverflowCheck(t *testing.T) {
	assert.NoError(t, IntOverflowCheck(100))
	assert.Error(t, IntOverflowCheck(1<<40))
	assert.Error(t, IntOverflowCheck(-(1 << 40)))
}
