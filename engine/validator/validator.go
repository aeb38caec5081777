// Package validator implements semantic rules checked against a parsed
// statement after parsing, ahead of (and, for the distinct check,
// informing) lowering. There is only ever one lowering target, MongoDB,
// so Validate below is the only entry point.
package validator

import "github.com/sqlmongo-engine/sqlmongo/engine/ast"

// Validate runs the semantic checks against a parsed statement.
func Validate(stmt *ast.Statement) error {
	return ValidateMongoDB(stmt)
}
