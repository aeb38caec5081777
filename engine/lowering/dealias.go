package lowering

import "github.com/sqlmongo-engine/sqlmongo/engine/ast"

// Dealias strips a redundant leading table-alias segment from every column
// reference in the statement (WHERE, ORDER BY, SELECT list, GROUP BY).
// Joins are out of scope for this rewrite — a statement with joins keeps
// its alias segments, since multiple base tables make a leading segment
// ambiguous to strip safely; the JoinPipeline collaborator is responsible
// for alias resolution in that case.
func Dealias(stmt *ast.Statement) {
	if stmt.FromAlias == "" || len(stmt.Joins) > 0 {
		return
	}
	alias := stmt.FromAlias

	if stmt.Where != nil {
		dealiasExpr(stmt.Where, alias)
	}
	for i := range stmt.Items {
		if stmt.Items[i].Expr != nil {
			dealiasExpr(stmt.Items[i].Expr, alias)
		}
	}
	for i := range stmt.OrderBys {
		dealiasExpr(stmt.OrderBys[i].Expr, alias)
	}
	for i, col := range stmt.GroupBys {
		stmt.GroupBys[i] = stripAliasPrefix(col, alias)
	}
}

func dealiasExpr(expr *ast.Expr, alias string) {
	if expr == nil {
		return
	}
	if expr.Type == "Column" && len(expr.Parts) > 1 && expr.Parts[0] == alias {
		expr.Parts = expr.Parts[1:]
	}
	dealiasExpr(expr.Left, alias)
	dealiasExpr(expr.Right, alias)
	dealiasExpr(expr.Inner, alias)
	for _, arg := range expr.Args {
		dealiasExpr(arg, alias)
	}
	for _, item := range expr.Items {
		dealiasExpr(item, alias)
	}
	for _, branch := range expr.Branches {
		dealiasExpr(branch.When, alias)
		dealiasExpr(branch.Then, alias)
	}
	dealiasExpr(expr.Else, alias)
}

func stripAliasPrefix(column, alias string) string {
	prefix := alias + "."
	if len(column) > len(prefix) && column[:len(prefix)] == prefix {
		return column[len(prefix):]
	}
	return column
}
