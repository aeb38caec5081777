// Package sqlfrontend turns SQL text into the engine/ast.Statement shape
// the lowering core consumes, walking github.com/pingcap/tidb/parser's AST
// directly into this module's narrower engine/ast.Statement/Expr. It also
// raises the error text for statement shapes the Validator defers here —
// multi-table FROM without an explicit JOIN, a sub-select in FROM or the
// SELECT list, and double-equals — because engine/ast cannot represent
// those shapes at all.
package sqlfrontend

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/parser"
	tidbast "github.com/pingcap/tidb/parser/ast"
	"github.com/pingcap/tidb/parser/opcode"
	"github.com/pingcap/tidb/parser/test_driver"

	"github.com/sqlmongo-engine/sqlmongo/engine/ast"
)

func init() {
	// the test_driver package registers the literal value types the
	// parser needs to evaluate constant expressions; it is imported for
	// this side effect only.
	_ = test_driver.ValueExpr{}
}

// Parse turns raw SQL text into an ast.Statement. It rejects the shapes
// the Validator cannot represent before they can ever reach it: a literal
// double-equals anywhere in the text, any statement that isn't SELECT or
// DELETE, and a multi-table FROM clause without an explicit JOIN.
func Parse(sql string) (*ast.Statement, error) {
	if strings.Contains(sql, "==") {
		return nil, fmt.Errorf("unable to parse complete sql string. one reason for this is the use of double equals (==).")
	}

	p := parser.New()
	stmts, _, err := p.Parse(sql, "", "")
	if err != nil {
		return nil, fmt.Errorf("unable to parse complete sql string: %w", err)
	}
	if len(stmts) == 0 {
		return nil, fmt.Errorf("unable to parse complete sql string: empty statement")
	}

	switch stmt := stmts[0].(type) {
	case *tidbast.SelectStmt:
		return convertSelect(stmt)
	case *tidbast.DeleteStmt:
		return convertDelete(stmt)
	default:
		return nil, fmt.Errorf("Only select statements are supported.")
	}
}

func convertSelect(stmt *tidbast.SelectStmt) (*ast.Statement, error) {
	out := &ast.Statement{Kind: "Select", Distinct: stmt.Distinct}

	table, alias, joins, err := convertFrom(stmt.From)
	if err != nil {
		return nil, err
	}
	out.FromTable = table
	out.FromAlias = alias
	out.Joins = joins

	if stmt.Fields != nil {
		for _, field := range stmt.Fields.Fields {
			item, err := convertSelectItem(field)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, item)
		}
	}

	if stmt.Where != nil {
		where, err := convertExpr(stmt.Where)
		if err != nil {
			return nil, err
		}
		out.Where = where
	}

	if stmt.GroupBy != nil {
		for _, item := range stmt.GroupBy.Items {
			col, ok := columnPath(item.Expr)
			if !ok {
				return nil, fmt.Errorf("illegal expression(s) found in group by clause. Only column names supported")
			}
			out.GroupBys = append(out.GroupBys, strings.Join(col, "."))
		}
	}

	if stmt.OrderBy != nil {
		for _, item := range stmt.OrderBy.Items {
			expr, err := convertExpr(item.Expr)
			if err != nil {
				return nil, err
			}
			out.OrderBys = append(out.OrderBys, ast.OrderBy{Expr: expr, Ascending: !item.Desc})
		}
	}

	if stmt.Limit != nil {
		if stmt.Limit.Count != nil {
			if v, ok := stmt.Limit.Count.(*test_driver.ValueExpr); ok {
				n := v.Datum.GetInt64()
				out.Limit = &n
			}
		}
		if stmt.Limit.Offset != nil {
			if v, ok := stmt.Limit.Offset.(*test_driver.ValueExpr); ok {
				n := v.Datum.GetInt64()
				out.Offset = &n
			}
		}
	}

	return out, nil
}

func convertDelete(stmt *tidbast.DeleteStmt) (*ast.Statement, error) {
	out := &ast.Statement{Kind: "Delete"}

	table, alias, joins, err := convertFrom(stmt.TableRefs)
	if err != nil {
		return nil, err
	}
	out.FromTable = table
	out.FromAlias = alias
	out.Joins = joins

	if stmt.Where != nil {
		where, err := convertExpr(stmt.Where)
		if err != nil {
			return nil, err
		}
		out.Where = where
	}

	return out, nil
}

// convertFrom rejects a comma-joined multi-table FROM while accepting an
// explicit JOIN chain, walking the *tidbast.Join tree the parser builds
// for the FROM clause.
func convertFrom(from *tidbast.TableRefsClause) (table, alias string, joins []ast.Join, err error) {
	if from == nil {
		return "", "", nil, nil
	}
	return walkJoin(from.TableRefs)
}

func walkJoin(join *tidbast.Join) (table, alias string, joins []ast.Join, err error) {
	if join == nil {
		return "", "", nil, nil
	}

	if join.Right == nil {
		return tableSourceName(join.Left)
	}

	leftTable, leftAlias, leftJoins, err := joinSideName(join.Left)
	if err != nil {
		return "", "", nil, err
	}
	rightTable, rightAlias, rightJoins, err := joinSideName(join.Right)
	if err != nil {
		return "", "", nil, err
	}

	joinType := "INNER"
	switch join.Tp {
	case tidbast.LeftJoin:
		joinType = "LEFT"
	case tidbast.RightJoin:
		joinType = "RIGHT"
	}

	var on *ast.Expr
	if join.On != nil {
		on, err = convertExpr(join.On.Expr)
		if err != nil {
			return "", "", nil, err
		}
	} else {
		return "", "", nil, fmt.Errorf("Join type not suported")
	}

	all := append(append([]ast.Join{}, leftJoins...), rightJoins...)
	all = append(all, ast.Join{Type: joinType, Table: rightTable, Alias: rightAlias, On: on})
	return leftTable, leftAlias, all, nil
}

func joinSideName(node tidbast.ResultSetNode) (string, string, []ast.Join, error) {
	if j, ok := node.(*tidbast.Join); ok {
		return walkJoin(j)
	}
	return tableSourceName(node)
}

func tableSourceName(node tidbast.ResultSetNode) (string, string, []ast.Join, error) {
	ts, ok := node.(*tidbast.TableSource)
	if !ok {
		return "", "", nil, fmt.Errorf("Join type not suported")
	}
	tn, ok := ts.Source.(*tidbast.TableName)
	if !ok {
		return "", "", nil, fmt.Errorf("Only one simple table name is supported.")
	}
	return tn.Name.O, ts.AsName.O, nil, nil
}

func convertSelectItem(field *tidbast.SelectField) (ast.SelectItem, error) {
	if field.WildCard != nil {
		return ast.SelectItem{All: true}, nil
	}
	expr, err := convertExpr(field.Expr)
	if err != nil {
		return ast.SelectItem{}, err
	}
	alias := ""
	if field.AsName.O != "" {
		alias = field.AsName.O
	}
	return ast.SelectItem{Expr: expr, Alias: alias}, nil
}

func columnPath(expr tidbast.ExprNode) ([]string, bool) {
	col, ok := expr.(*tidbast.ColumnNameExpr)
	if !ok {
		return nil, false
	}
	var parts []string
	if col.Name.Table.O != "" {
		parts = append(parts, col.Name.Table.O)
	}
	parts = append(parts, col.Name.Name.O)
	return parts, true
}

func convertExpr(expr tidbast.ExprNode) (*ast.Expr, error) {
	switch e := expr.(type) {
	case *tidbast.ColumnNameExpr:
		parts, _ := columnPath(e)
		return &ast.Expr{Type: "Column", Parts: parts}, nil

	case *test_driver.ValueExpr:
		return convertValue(e)

	case *tidbast.ParenthesesExpr:
		inner, err := convertExpr(e.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.Expr{Type: "Parens", Inner: inner}, nil

	case *tidbast.UnaryOperationExpr:
		inner, err := convertExpr(e.V)
		if err != nil {
			return nil, err
		}
		if e.Op == opcode.Minus {
			return &ast.Expr{Type: "Signed", Sign: "-", Inner: inner}, nil
		}
		return inner, nil

	case *tidbast.BinaryOperationExpr:
		return convertBinaryOp(e)

	case *tidbast.FuncCallExpr:
		return convertFuncCall(e)

	case *tidbast.AggregateFuncExpr:
		var args []*ast.Expr
		for _, a := range e.Args {
			arg, err := convertExpr(a)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		return &ast.Expr{Type: "Function", Name: e.F, Args: args}, nil

	case *tidbast.PatternInExpr:
		return convertInExpr(e)

	case *tidbast.PatternLikeOrIlikeExpr:
		left, err := convertExpr(e.Expr)
		if err != nil {
			return nil, err
		}
		right, err := convertExpr(e.Pattern)
		if err != nil {
			return nil, err
		}
		kind := "LIKE"
		expr := &ast.Expr{Type: "Comparison", Kind: kind, Left: left, Right: right}
		if e.Not {
			return &ast.Expr{Type: "Not", Inner: expr}, nil
		}
		return expr, nil

	case *tidbast.IsNullExpr:
		inner, err := convertExpr(e.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.Expr{Type: "IsNull", Inner: inner, Negated: e.Not}, nil

	case *tidbast.CaseExpr:
		return convertCase(e)

	default:
		return nil, fmt.Errorf("Unsupported subselect expression")
	}
}

func convertValue(e *test_driver.ValueExpr) (*ast.Expr, error) {
	d := e.Datum
	switch d.Kind() {
	case test_driver.KindInt64:
		return &ast.Expr{Type: "Long", Long: d.GetInt64()}, nil
	case test_driver.KindUint64:
		return &ast.Expr{Type: "Long", Long: int64(d.GetUint64())}, nil
	case test_driver.KindFloat64:
		return &ast.Expr{Type: "Double", Double: d.GetFloat64()}, nil
	case test_driver.KindString:
		return &ast.Expr{Type: "String", Text: d.GetString()}, nil
	case test_driver.KindBytes:
		return &ast.Expr{Type: "String", Text: string(d.GetBytes())}, nil
	case test_driver.KindNull:
		return &ast.Expr{Type: "String", Text: "NULL"}, nil
	default:
		return &ast.Expr{Type: "String", Text: fmt.Sprintf("%v", d.GetValue())}, nil
	}
}

func convertBinaryOp(e *tidbast.BinaryOperationExpr) (*ast.Expr, error) {
	left, err := convertExpr(e.L)
	if err != nil {
		return nil, err
	}
	right, err := convertExpr(e.R)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case opcode.LogicAnd:
		return &ast.Expr{Type: "Logical", Kind: "AND", Left: left, Right: right}, nil
	case opcode.LogicOr:
		return &ast.Expr{Type: "Logical", Kind: "OR", Left: left, Right: right}, nil
	case opcode.Minus:
		return &ast.Expr{Type: "Subtract", Left: left, Right: right}, nil
	}

	kind, ok := comparisonKind(e.Op)
	if !ok {
		return nil, fmt.Errorf("illegal expression(s) found in select clause. Only column names supported")
	}
	return &ast.Expr{Type: "Comparison", Kind: kind, Left: left, Right: right}, nil
}

func comparisonKind(op opcode.Op) (string, bool) {
	switch op {
	case opcode.EQ:
		return "=", true
	case opcode.NE:
		return "!=", true
	case opcode.LT:
		return "<", true
	case opcode.GT:
		return ">", true
	case opcode.LE:
		return "<=", true
	case opcode.GE:
		return ">=", true
	default:
		return "", false
	}
}

func convertFuncCall(e *tidbast.FuncCallExpr) (*ast.Expr, error) {
	var args []*ast.Expr
	for _, a := range e.Args {
		arg, err := convertExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return &ast.Expr{Type: "Function", Name: e.FnName.O, Args: args}, nil
}

func convertInExpr(e *tidbast.PatternInExpr) (*ast.Expr, error) {
	left, err := convertExpr(e.Expr)
	if err != nil {
		return nil, err
	}
	var items []*ast.Expr
	for _, v := range e.List {
		item, err := convertExpr(v)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return &ast.Expr{Type: "InList", Left: left, Items: items, Negated: e.Not}, nil
}

func convertCase(e *tidbast.CaseExpr) (*ast.Expr, error) {
	out := &ast.Expr{Type: "Case"}
	for _, w := range e.WhenClauses {
		cond, err := convertExpr(w.Expr)
		if err != nil {
			return nil, err
		}
		then, err := convertExpr(w.Result)
		if err != nil {
			return nil, err
		}
		out.Branches = append(out.Branches, ast.CaseBranch{When: cond, Then: then})
	}
	if e.ElseClause != nil {
		elseExpr, err := convertExpr(e.ElseClause)
		if err != nil {
			return nil, err
		}
		out.Else = elseExpr
	}
	return out, nil
}
