// Package lowering implements the Where Lowerer, Select Lowerer,
// Group/Aggregate Lowerer, Sort/Offset/Limit Lowerer, and Shape Selector of
// the translation engine. The Validator lives in engine/validator (Lower
// runs it before the lowerers), and pipeline stage assembly lives in
// engine/render's AssemblePipeline.
package lowering

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sqlmongo-engine/sqlmongo/engine/ast"
	"github.com/sqlmongo-engine/sqlmongo/engine/coerce"
	"github.com/sqlmongo-engine/sqlmongo/engine/models"
	"github.com/sqlmongo-engine/sqlmongo/engine/specialty"
	"github.com/sqlmongo-engine/sqlmongo/mapping"
)

// Where lowers a WHERE expression into a MongoDB filter document. A
// nil expr lowers to an empty document. Recursive descent, one case per
// ast.Expr variant; within each case, Specialty Recognizers run first.
func Where(expr *ast.Expr, types models.FieldTypeMap) (bson.D, error) {
	if expr == nil {
		return bson.D{}, nil
	}
	e, err := lowerWhere(expr, types)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func lowerWhere(expr *ast.Expr, types models.FieldTypeMap) (bson.D, error) {
	switch expr.Type {
	case "Comparison":
		return lowerComparison(expr, types)
	case "InList":
		return lowerInList(expr, types)
	case "IsNull":
		return lowerIsNull(expr)
	case "Logical":
		return lowerLogical(expr, types)
	case "Not":
		return lowerBareNot(expr)
	case "Parens":
		return lowerParens(expr, types)
	case "Function":
		return lowerFreeFunction(expr, types)
	case "Column":
		return bson.D{{Key: columnKey(expr), Value: true}}, nil
	default:
		return nil, fmt.Errorf("unsupported WHERE expression: %s", expr.Type)
	}
}

func lowerComparison(expr *ast.Expr, types models.FieldTypeMap) (bson.D, error) {
	if rx, ok, err := specialty.RecognizeRegexMatch(expr); ok {
		if err != nil {
			return nil, err
		}
		return regexDoc(rx.Column, rx.Pattern, rx.Options), nil
	}
	if df, ok, err := specialty.RecognizeDateFunction(expr); ok {
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: df.Column, Value: bson.D{{Key: df.MongoOp, Value: df.Value}}}}, nil
	}
	if dl, ok, err := specialty.RecognizeDateLiteral(expr); ok {
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: dl.Column, Value: bson.D{{Key: dl.MongoOp, Value: dl.Value}}}}, nil
	}
	if oid, ok, err := specialty.RecognizeObjectID(expr); ok {
		if err != nil {
			return nil, err
		}
		return lowerObjectIDComparison(oid.Column, expr)
	}
	if bd, ok, err := specialty.RecognizeBindata(expr); ok {
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: bd.Column, Value: bson.D{{Key: "$eq", Value: bd.Value}}}}, nil
	}

	switch expr.Kind {
	case "=":
		return lowerEquals(expr, types, false)
	case "!=":
		return lowerEquals(expr, types, true)
	case ">", ">=", "<", "<=":
		op, _ := mapping.MongoOperator(expr.Kind)
		return lowerOrdering(expr, types, op)
	case "LIKE":
		return lowerLike(expr, types)
	case "NOT LIKE":
		return nil, fmt.Errorf("NOT LIKE queries not supported")
	default:
		return nil, fmt.Errorf("unsupported comparison operator: %s", expr.Kind)
	}
}

func lowerObjectIDComparison(column string, expr *ast.Expr) (bson.D, error) {
	switch expr.Kind {
	case "=":
		oid, err := specialty.ToObjectID(expr.Right.Text)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: column, Value: oid}}, nil
	case "!=":
		oid, err := specialty.ToObjectID(expr.Right.Text)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: column, Value: bson.D{{Key: "$ne", Value: oid}}}}, nil
	default:
		return nil, fmt.Errorf("unsupported OBJECTID comparison operator: %s", expr.Kind)
	}
}

func lowerEquals(expr *ast.Expr, types models.FieldTypeMap, negate bool) (bson.D, error) {
	leftIsFunc := expr.Left.Type == "Function"
	rightIsFunc := expr.Right.Type == "Function"
	bothColumns := expr.Left.Type == "Column" && expr.Right.Type == "Column"

	if leftIsFunc || rightIsFunc || bothColumns {
		lhs, err := exprValue(expr.Left, types)
		if err != nil {
			return nil, err
		}
		rhs, err := exprValue(expr.Right, types)
		if err != nil {
			return nil, err
		}
		op := "$eq"
		if negate {
			op = "$ne"
		}
		return bson.D{{Key: "$expr", Value: bson.D{{Key: op, Value: bson.A{lhs, rhs}}}}}, nil
	}

	column, literal, err := columnAndLiteral(expr.Left, expr.Right)
	if err != nil {
		return nil, err
	}
	value, err := coerce.Value(literal, column, types)
	if err != nil {
		return nil, err
	}
	if negate {
		return bson.D{{Key: column, Value: bson.D{{Key: "$ne", Value: value}}}}, nil
	}
	return bson.D{{Key: column, Value: value}}, nil
}

func lowerOrdering(expr *ast.Expr, types models.FieldTypeMap, op string) (bson.D, error) {
	column, literal, err := columnAndLiteral(expr.Left, expr.Right)
	if err != nil {
		return nil, err
	}
	value, err := coerce.Value(literal, column, types)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: column, Value: bson.D{{Key: op, Value: value}}}}, nil
}

func lowerLike(expr *ast.Expr, types models.FieldTypeMap) (bson.D, error) {
	if expr.Left.Type != "Column" {
		return nil, fmt.Errorf("LIKE requires a column on the left-hand side")
	}
	if expr.Right.Type != "String" {
		return nil, fmt.Errorf("LIKE requires a string pattern")
	}
	pattern := likeToRegex(expr.Right.Text)
	return regexDoc(columnKey(expr.Left), pattern, ""), nil
}

// likeToRegex translates SQL LIKE wildcards to an anchored regex: % -> .*,
// _ -> .{1}, character classes [...] preserved but quantified {1}.
func likeToRegex(pattern string) string {
	var b strings.Builder
	b.WriteByte('^')
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".{1}")
		case '[':
			j := i
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			if j < len(runes) {
				b.WriteString(string(runes[i : j+1]))
				b.WriteString("{1}")
				i = j
			} else {
				b.WriteRune(runes[i])
			}
		default:
			b.WriteRune(runes[i])
		}
	}
	b.WriteByte('$')
	return b.String()
}

func lowerIsNull(expr *ast.Expr) (bson.D, error) {
	if expr.Inner.Type != "Column" {
		return nil, fmt.Errorf("IS NULL requires a column operand")
	}
	exists := expr.Negated
	return bson.D{{Key: columnKey(expr.Inner), Value: bson.D{{Key: "$exists", Value: exists}}}}, nil
}

func lowerInList(expr *ast.Expr, types models.FieldTypeMap) (bson.D, error) {
	if oid, ok, err := specialty.RecognizeObjectID(expr); ok {
		if err != nil {
			return nil, err
		}
		return lowerObjectIDInList(oid.Column, expr)
	}

	op := "$in"
	if expr.Negated {
		op = "$nin"
	}

	if expr.Left.Type == "Function" {
		fnOp := "$fin"
		if expr.Negated {
			fnOp = "$fnin"
		}
		fn, err := exprValue(expr.Left, types)
		if err != nil {
			return nil, err
		}
		values, err := coerceList(expr.Items, "", types)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: fnOp, Value: bson.D{
			{Key: "function", Value: fn},
			{Key: "list", Value: values},
		}}}, nil
	}

	column := columnKey(expr.Left)
	values, err := coerceList(expr.Items, column, types)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: column, Value: bson.D{{Key: op, Value: values}}}}, nil
}

func lowerObjectIDInList(column string, expr *ast.Expr) (bson.D, error) {
	ids := make(bson.A, 0, len(expr.Items))
	for _, item := range expr.Items {
		if item.Type != "String" {
			return nil, fmt.Errorf("OBJECTID IN list requires string literals")
		}
		oid, err := specialty.ToObjectID(item.Text)
		if err != nil {
			return nil, err
		}
		ids = append(ids, oid)
	}
	op := "$in"
	if expr.Negated {
		op = "$nin"
	}
	return bson.D{{Key: column, Value: bson.D{{Key: op, Value: ids}}}}, nil
}

func coerceList(items []*ast.Expr, column string, types models.FieldTypeMap) (bson.A, error) {
	values := make(bson.A, 0, len(items))
	for _, item := range items {
		v, err := coerce.Value(item, column, types)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func lowerLogical(expr *ast.Expr, types models.FieldTypeMap) (bson.D, error) {
	operands := flattenLogical(expr)
	docs := make(bson.A, 0, len(operands))
	for _, operand := range operands {
		doc, err := lowerWhere(operand, types)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	op := "$and"
	if expr.Kind == "OR" {
		op = "$or"
	}
	return bson.D{{Key: op, Value: docs}}, nil
}

// flattenLogical builds the flat operand list for a left-associated chain
// of the same logical connective: A AND B AND C AND D parses as
// (((A AND B) AND C) AND D), and this collects [A, B, C, D] rather than
// nesting $and documents.
func flattenLogical(expr *ast.Expr) []*ast.Expr {
	var operands []*ast.Expr
	if expr.Left.Type == "Logical" && expr.Left.Kind == expr.Kind {
		operands = flattenLogical(expr.Left)
	} else {
		operands = []*ast.Expr{expr.Left}
	}
	return append(operands, expr.Right)
}

func lowerBareNot(expr *ast.Expr) (bson.D, error) {
	if expr.Inner.Type == "Comparison" && expr.Inner.Kind == "LIKE" {
		return nil, fmt.Errorf("NOT LIKE queries not supported")
	}
	if expr.Inner.Type != "Column" {
		return nil, fmt.Errorf("unsupported NOT expression")
	}
	return bson.D{{Key: columnKey(expr.Inner), Value: bson.D{{Key: "$ne", Value: true}}}}, nil
}

func lowerParens(expr *ast.Expr, types models.FieldTypeMap) (bson.D, error) {
	inner, err := lowerWhere(expr.Inner, types)
	if err != nil {
		return nil, err
	}
	if !expr.Negated {
		return inner, nil
	}
	return bson.D{{Key: "$nor", Value: bson.A{inner}}}, nil
}

// lowerFreeFunction lowers a free-standing function call with no enclosing
// comparison: {$name: recursiveLowerArgs(...)}. A single argument emits
// directly (not wrapped in a list); zero arguments emit null; multiple
// arguments emit a list.
func lowerFreeFunction(expr *ast.Expr, types models.FieldTypeMap) (bson.D, error) {
	if rx, ok, err := specialty.RecognizeRegexMatch(expr); ok {
		if err != nil {
			return nil, err
		}
		return regexDoc(rx.Column, rx.Pattern, rx.Options), nil
	}

	switch len(expr.Args) {
	case 0:
		return bson.D{{Key: "$" + expr.Name, Value: nil}}, nil
	case 1:
		arg, err := lowerFunctionArg(expr.Args[0], types)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: "$" + expr.Name, Value: arg}}, nil
	default:
		args := make(bson.A, 0, len(expr.Args))
		for _, a := range expr.Args {
			v, err := lowerFunctionArg(a, types)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		return bson.D{{Key: "$" + expr.Name, Value: args}}, nil
	}
}

// lowerFunctionArg recursively lowers a function argument: a nested
// function call lowers like a free-standing one (its single-element {$op:
// v} document becomes the value v wrapped again), a column becomes its
// dotted name, a literal is coerced with no declared column type.
func lowerFunctionArg(expr *ast.Expr, types models.FieldTypeMap) (interface{}, error) {
	switch expr.Type {
	case "Function":
		doc, err := lowerFreeFunction(expr, types)
		if err != nil {
			return nil, err
		}
		return doc, nil
	case "Column":
		return columnKey(expr), nil
	default:
		return coerce.Value(expr, "", types)
	}
}

func regexDoc(column, pattern, options string) bson.D {
	value := primitive.Regex{Pattern: pattern, Options: options}
	return bson.D{{Key: column, Value: bson.D{{Key: "$regex", Value: value}}}}
}

func columnKey(expr *ast.Expr) string {
	return strings.Join(expr.Parts, ".")
}

func columnAndLiteral(left, right *ast.Expr) (string, *ast.Expr, error) {
	if left.Type == "Column" {
		return columnKey(left), right, nil
	}
	if right.Type == "Column" {
		return columnKey(right), left, nil
	}
	return "", nil, fmt.Errorf("comparison requires a column operand")
}

// exprValue builds the value used inside an $expr document: a column
// becomes "$col", a literal is coerced with no declared type, a function
// call lowers to its {$name: args} form.
func exprValue(expr *ast.Expr, types models.FieldTypeMap) (interface{}, error) {
	switch expr.Type {
	case "Column":
		return "$" + columnKey(expr), nil
	case "Function":
		doc, err := lowerFreeFunction(expr, types)
		if err != nil {
			return nil, err
		}
		return doc, nil
	default:
		return coerce.Value(expr, "", types)
	}
}
