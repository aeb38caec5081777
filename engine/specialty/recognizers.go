// Package specialty implements the Specialty Recognizers: pattern
// matchers over WHERE sub-expressions for the functions the translator
// treats natively — regexMatch, date, OBJECTID, Bindata — instead of
// passing them through as generic comparisons.
package specialty

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sqlmongo-engine/sqlmongo/engine/ast"
	"github.com/sqlmongo-engine/sqlmongo/engine/coerce"
	"github.com/sqlmongo-engine/sqlmongo/mapping"
)

// Regex is the recognized form of regexMatch(col, 'pat'[, 'opts']) = true
// or the bare call regexMatch(col, 'pat').
type Regex struct {
	Column  string
	Pattern string
	Options string
}

// RecognizeRegexMatch matches either a Comparison `regexMatch(...) = true`
// or a bare Function `regexMatch(...)`. Returns ok=false (no error) when
// expr isn't shaped like a regexMatch call at all; returns an error once it
// is recognized as regexMatch but violates the recognizer's own rules (RHS
// not literal true, wrong arity, invalid pattern).
func RecognizeRegexMatch(expr *ast.Expr) (*Regex, bool, error) {
	var call *ast.Expr
	switch expr.Type {
	case "Comparison":
		if expr.Kind != "=" || !isCall(expr.Left, "regexMatch") {
			return nil, false, nil
		}
		if expr.Right.Type != "Boolean" || !expr.Right.Bool {
			return nil, true, fmt.Errorf("regexMatch comparison must be against true")
		}
		call = expr.Left
	case "Function":
		if !strings.EqualFold(expr.Name, "regexMatch") {
			return nil, false, nil
		}
		call = expr
	default:
		return nil, false, nil
	}

	if len(call.Args) != 2 && len(call.Args) != 3 {
		return nil, true, fmt.Errorf("regexMatch requires 2 or 3 arguments")
	}
	column, err := columnName(call.Args[0])
	if err != nil {
		return nil, true, err
	}
	pattern := literalString(call.Args[1])
	options := ""
	if len(call.Args) == 3 {
		options = literalString(call.Args[2])
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, true, fmt.Errorf("%s", err.Error())
	}
	return &Regex{Column: column, Pattern: pattern, Options: options}, true, nil
}

// DateFunctionComparison is the recognized form of date(col, 'fmt') OP
// 'literal'.
type DateFunctionComparison struct {
	Column   string
	MongoOp  string
	Value    primitive.DateTime
}

// RecognizeDateFunction matches a Comparison whose LHS is `date(col, 'fmt')`
// — a two-argument call — and whose RHS is a string literal.
func RecognizeDateFunction(expr *ast.Expr) (*DateFunctionComparison, bool, error) {
	if expr.Type != "Comparison" || !isCall(expr.Left, "date") {
		return nil, false, nil
	}
	call := expr.Left
	if len(call.Args) != 2 {
		return nil, false, nil
	}
	mongoOp, ok := dateOperator(expr.Kind)
	if !ok {
		return nil, true, fmt.Errorf("unsupported comparison operator %s for date()", expr.Kind)
	}
	column, err := columnName(call.Args[0])
	if err != nil {
		return nil, true, err
	}
	if expr.Right.Type != "String" {
		return nil, true, fmt.Errorf("date() comparison requires a string literal")
	}
	parsed, err := coerce.ParseDate(expr.Right.Text)
	if err != nil {
		return nil, true, err
	}
	return &DateFunctionComparison{
		Column:  column,
		MongoOp: mongoOp,
		Value:   primitive.NewDateTimeFromTime(parsed),
	}, true, nil
}

// DateLiteral is the recognized form of `col OP date('str')`.
type DateLiteral struct {
	Column  string
	MongoOp string
	Value   primitive.DateTime
}

// RecognizeDateLiteral matches a Comparison whose RHS is `date('str')` — a
// single-argument call.
func RecognizeDateLiteral(expr *ast.Expr) (*DateLiteral, bool, error) {
	if expr.Type != "Comparison" || !isCall(expr.Right, "date") {
		return nil, false, nil
	}
	call := expr.Right
	if len(call.Args) != 1 {
		return nil, false, nil
	}
	mongoOp, ok := dateOperator(expr.Kind)
	if !ok {
		return nil, true, fmt.Errorf("unsupported comparison operator %s for date()", expr.Kind)
	}
	column, err := columnName(expr.Left)
	if err != nil {
		return nil, true, err
	}
	if call.Args[0].Type != "String" {
		return nil, true, fmt.Errorf("date() requires a string literal argument")
	}
	parsed, err := coerce.ParseDate(call.Args[0].Text)
	if err != nil {
		return nil, true, err
	}
	return &DateLiteral{
		Column:  column,
		MongoOp: mongoOp,
		Value:   primitive.NewDateTimeFromTime(parsed),
	}, true, nil
}

// dateOperator resolves a comparison operator against the shared
// mapping.MongoOperators table; both date recognizers only accept the
// five ordering/equality operators (=, >, >=, <, <=), so != is rejected.
func dateOperator(kind string) (string, bool) {
	if kind == "!=" {
		return "", false
	}
	return mapping.MongoOperator(kind)
}

// ObjectIDComparison is the recognized form of OBJECTID('col') OP 'hex24' or
// OBJECTID('col') [NOT] IN (...).
type ObjectIDComparison struct {
	Column string
}

// RecognizeObjectID matches a Comparison or InList whose LHS is
// `OBJECTID('col')` — a single string-literal-argument call.
func RecognizeObjectID(expr *ast.Expr) (*ObjectIDComparison, bool, error) {
	var lhs *ast.Expr
	switch expr.Type {
	case "Comparison":
		lhs = expr.Left
	case "InList":
		lhs = expr.Left
	default:
		return nil, false, nil
	}
	if !isCall(lhs, "OBJECTID") {
		return nil, false, nil
	}
	if len(lhs.Args) != 1 || lhs.Args[0].Type != "String" {
		return nil, true, fmt.Errorf("OBJECTID requires a single string argument")
	}
	return &ObjectIDComparison{Column: lhs.Args[0].Text}, true, nil
}

// ToObjectID converts a hex24 string literal (or an object-id expression
// argument) to a primitive.ObjectID, validating its shape.
func ToObjectID(hex string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%s is not a valid ObjectId", hex)
	}
	return oid, nil
}

// Bindata is the recognized form of `col = Bindata('base64')`.
type Bindata struct {
	Column string
	Value  primitive.Binary
}

// RecognizeBindata matches an equality Comparison whose RHS is
// `Bindata('base64')`.
func RecognizeBindata(expr *ast.Expr) (*Bindata, bool, error) {
	if expr.Type != "Comparison" || expr.Kind != "=" || !isCall(expr.Right, "Bindata") {
		return nil, false, nil
	}
	call := expr.Right
	if len(call.Args) != 1 || call.Args[0].Type != "String" {
		return nil, true, fmt.Errorf("Bindata requires a single base64 string argument")
	}
	column, err := columnName(expr.Left)
	if err != nil {
		return nil, true, err
	}
	data, err := base64.StdEncoding.DecodeString(call.Args[0].Text)
	if err != nil {
		return nil, true, fmt.Errorf("invalid base64 value for Bindata: %s", err.Error())
	}
	return &Bindata{Column: column, Value: primitive.Binary{Subtype: 0x03, Data: data}}, true, nil
}

func isCall(expr *ast.Expr, name string) bool {
	return expr != nil && expr.Type == "Function" && strings.EqualFold(expr.Name, name)
}

func columnName(expr *ast.Expr) (string, error) {
	if expr.Type != "Column" {
		return "", fmt.Errorf("expected a column reference, got %s", expr.Type)
	}
	return strings.Join(expr.Parts, "."), nil
}

func literalString(expr *ast.Expr) string {
	if expr.Type == "String" {
		return expr.Text
	}
	return ""
}
