package lowering

import (
	"github.com/sqlmongo-engine/sqlmongo/engine/ast"
	"github.com/sqlmongo-engine/sqlmongo/engine/models"
)

// Shape chooses the output operation: a decision table evaluated top to
// bottom, first match wins.
func Shape(stmt *ast.Statement, hasAlias bool) models.Op {
	switch {
	case stmt.Kind == "Delete":
		return models.OpDelete
	case stmt.Distinct:
		return models.OpDistinct
	case stmt.IsCountAll():
		return models.OpCount
	case len(stmt.GroupBys) > 0 || hasAlias || len(stmt.Joins) > 0:
		return models.OpAggregate
	default:
		return models.OpFind
	}
}
