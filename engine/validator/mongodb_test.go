package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlmongo-engine/sqlmongo/engine/ast"
)

func col(parts ...string) *ast.Expr { return &ast.Expr{Type: "Column", Parts: parts} }

func TestValidateMongoDBRejectsBareLiteral(t *testing.T) {
	stmt := &ast.Statement{
		Kind:      "Select",
		FromTable: "t",
		Items:     []ast.SelectItem{{Expr: &ast.Expr{Type: "Long", Long: 1}}},
	}
	err := ValidateMongoDB(stmt)
	require.Error(t, err)
	assert.Equal(t, "illegal expression(s) found in select clause. Only column names supported", err.Error())
}

func TestValidateMongoDBAllowsColumnCaseSubtract(t *testing.T) {
	stmt := &ast.Statement{
		Kind:      "Select",
		FromTable: "t",
		Items: []ast.SelectItem{
			{Expr: col("a")},
			{Expr: &ast.Expr{Type: "Case"}, Alias: "level"},
			{Expr: &ast.Expr{Type: "Subtract", Left: col("a"), Right: col("b")}, Alias: "diff"},
		},
	}
	assert.NoError(t, ValidateMongoDB(stmt))
}

func TestValidateMongoDBAllowsCountAllWithoutGroupBy(t *testing.T) {
	stmt := &ast.Statement{
		Kind:      "Select",
		FromTable: "t",
		Items: []ast.SelectItem{
			{Expr: &ast.Expr{Type: "Function", Name: "COUNT", Args: []*ast.Expr{col("*")}}},
		},
	}
	assert.NoError(t, ValidateMongoDB(stmt))
}
