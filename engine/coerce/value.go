// Package coerce implements the Value Coercer: turning a literal or
// identifier AST node into a typed value suitable for embedding in a
// MongoDB document, driven by an optional field-type map.
package coerce

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sqlmongo-engine/sqlmongo/engine/ast"
	"github.com/sqlmongo-engine/sqlmongo/engine/models"
)

// Value coerces expr (a literal or column reference) into a typed value,
// using column's FieldType from types (or the configured default) to pick
// the coercion rule. column may be empty when no comparison target is
// known, in which case the default FieldType applies.
func Value(expr *ast.Expr, column string, types models.FieldTypeMap) (interface{}, error) {
	fieldType := types.Lookup(column)
	switch fieldType {
	case models.FieldString:
		return coerceString(expr)
	case models.FieldNumber:
		return coerceNumber(expr)
	case models.FieldDate:
		return coerceDate(expr)
	case models.FieldBoolean:
		return coerceBoolean(expr)
	default:
		return coerceUnknown(expr)
	}
}

func coerceUnknown(expr *ast.Expr) (interface{}, error) {
	text, isText := literalText(expr)
	if isText && isBoolWord(text) {
		return strings.EqualFold(text, "true"), nil
	}
	switch expr.Type {
	case "Long":
		return expr.Long, nil
	case "Double":
		return expr.Double, nil
	case "Boolean":
		return expr.Bool, nil
	case "String":
		return unescapeQuotes(expr.Text), nil
	case "Column":
		return strings.Join(expr.Parts, "."), nil
	case "Signed":
		inner, err := coerceUnknown(expr.Inner)
		if err != nil {
			return nil, err
		}
		return applySign(inner, expr.Sign)
	default:
		return nil, fmt.Errorf("cannot coerce expression of type %s", expr.Type)
	}
}

func coerceString(expr *ast.Expr) (interface{}, error) {
	text, _ := literalText(expr)
	return unescapeQuotes(text), nil
}

func coerceNumber(expr *ast.Expr) (interface{}, error) {
	text, ok := literalText(expr)
	if !ok {
		switch expr.Type {
		case "Long":
			return expr.Long, nil
		case "Double":
			return expr.Double, nil
		}
		return nil, fmt.Errorf("cannot coerce %s to a number", expr.Type)
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i, nil
	}
	if d, err := strconv.ParseFloat(text, 64); err == nil {
		return d, nil
	}
	if f, err := strconv.ParseFloat(text, 32); err == nil {
		return float32(f), nil
	}
	return nil, fmt.Errorf("could not convert %s to a number", text)
}

func coerceBoolean(expr *ast.Expr) (interface{}, error) {
	text, _ := literalText(expr)
	b, err := strconv.ParseBool(text)
	if err != nil {
		return nil, fmt.Errorf("could not convert %s to a boolean", text)
	}
	return b, nil
}

func coerceDate(expr *ast.Expr) (interface{}, error) {
	text, _ := literalText(expr)
	return ParseDate(text)
}

// literalText extracts the textual form of a literal expression: numeric
// literals are formatted, string literals pass through verbatim, columns
// return their dotted name.
func literalText(expr *ast.Expr) (string, bool) {
	switch expr.Type {
	case "String":
		return expr.Text, true
	case "Long":
		return strconv.FormatInt(expr.Long, 10), true
	case "Double":
		return strconv.FormatFloat(expr.Double, 'f', -1, 64), true
	case "Boolean":
		return strconv.FormatBool(expr.Bool), true
	case "Column":
		return strings.Join(expr.Parts, "."), true
	case "Signed":
		inner, ok := literalText(expr.Inner)
		if !ok {
			return "", false
		}
		if expr.Sign == "-" {
			return "-" + inner, true
		}
		return inner, true
	default:
		return "", false
	}
}

func isBoolWord(text string) bool {
	return strings.EqualFold(text, "true") || strings.EqualFold(text, "false")
}

// unescapeQuotes collapses doubled single-quotes ('' -> ') the way SQL
// string literals escape an embedded quote.
func unescapeQuotes(text string) string {
	return strings.ReplaceAll(text, "''", "'")
}

func applySign(v interface{}, sign string) (interface{}, error) {
	if sign != "-" {
		return v, nil
	}
	switch n := v.(type) {
	case int64:
		return -n, nil
	case float64:
		return -n, nil
	case float32:
		return -n, nil
	default:
		return v, nil
	}
}

// IntOverflowCheck asserts v fits a signed 32-bit integer, matching the
// LIMIT/OFFSET range assertion that produces a ValueOutOfRange error.
func IntOverflowCheck(v int64) error {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return fmt.Errorf("%d: value is too large", v)
	}
	return nil
}
