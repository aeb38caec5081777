package validator

import (
	"fmt"

	"github.com/sqlmongo-engine/sqlmongo/engine/ast"
)

// ValidateMongoDB runs the semantic checks against a parsed statement:
// distinct arity, and non-aggregate projection shape without GROUP BY. With
// no GROUP BY and no bare COUNT(*), every select item must be a column, a
// CASE expression, or a subtraction. Anything else (a bare function call, a
// literal, other arithmetic) is rejected here rather than surfacing as a
// less specific error once lowering runs.
//
// Multi-table FROM, a sub-select in FROM, and a sub-select in the SELECT
// list have no representation in engine/ast.Statement at all — this
// module's AST only carries one FromTable plus an explicit Joins list, and
// SelectItem.Expr has no subquery variant — so a Statement violating them
// can't be constructed once a frontend has produced one. engine/sqlfrontend
// is responsible for raising those errors at the point where it would
// otherwise have to invent a representation for them. Double-equals is a
// raw-text concern and is likewise handled in engine/sqlfrontend, ahead of
// parsing.
func ValidateMongoDB(stmt *ast.Statement) error {
	if stmt.Kind != "Select" {
		return nil
	}

	if stmt.Distinct && (len(stmt.Items) != 1 || stmt.Items[0].All || stmt.Items[0].Expr.Type != "Column") {
		return fmt.Errorf("cannot run distinct one more than one column")
	}

	if len(stmt.GroupBys) == 0 && !stmt.IsCountAll() {
		for _, item := range stmt.Items {
			if item.All {
				continue
			}
			switch item.Expr.Type {
			case "Column", "Case", "Subtract":
			default:
				return fmt.Errorf("illegal expression(s) found in select clause. Only column names supported")
			}
		}
	}

	return nil
}
