package lowering

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/sqlmongo-engine/sqlmongo/engine/ast"
	"github.com/sqlmongo-engine/sqlmongo/engine/coerce"
	"github.com/sqlmongo-engine/sqlmongo/engine/models"
	"github.com/sqlmongo-engine/sqlmongo/mapping"
)

// stripTableAlias removes a leading segment that matches the FROM alias.
// dealias.go runs this over the whole statement up front; this copy exists
// for expressions built after that pass has already run (e.g. select-item
// aliases referenced verbatim).
func stripTableAlias(parts []string, fromAlias string) []string {
	if fromAlias != "" && len(parts) > 1 && parts[0] == fromAlias {
		return parts[1:]
	}
	return parts
}

// caseOperand lowers one operand of a CASE WHEN comparison or THEN/ELSE
// value: a column becomes a "$"-prefixed field reference, a literal is
// coerced with no declared field type.
//
// CASE is only ever built here as a pre-$group key-contributing expression
// (see group.go) or as a plain $project-stage item (see select.go); in
// both positions the $_id subdocument either doesn't exist yet or isn't
// being referenced, so the plain "$" prefix is always correct for this
// module's scope. A "$_id."-prefixed form would only make sense for a CASE
// expression built in a $project stage that runs after $group, which this
// module never constructs.
func caseOperand(expr *ast.Expr, types models.FieldTypeMap) (interface{}, error) {
	if expr.Type == "Column" {
		return "$" + strings.Join(expr.Parts, "."), nil
	}
	return coerce.Value(expr, "", types)
}

// caseWhenDoc lowers a Case expression to a $switch document.
func caseWhenDoc(expr *ast.Expr, types models.FieldTypeMap) (bson.D, error) {
	branches := make(bson.A, 0, len(expr.Branches))
	for _, branch := range expr.Branches {
		cond, err := caseCondition(branch.When, types)
		if err != nil {
			return nil, err
		}
		then, err := caseOperand(branch.Then, types)
		if err != nil {
			return nil, err
		}
		branches = append(branches, bson.D{{Key: "case", Value: cond}, {Key: "then", Value: then}})
	}
	switchDoc := bson.D{{Key: "branches", Value: branches}}
	if expr.Else != nil {
		elseVal, err := caseOperand(expr.Else, types)
		if err != nil {
			return nil, err
		}
		switchDoc = append(switchDoc, bson.E{Key: "default", Value: elseVal})
	}
	return bson.D{{Key: "$switch", Value: switchDoc}}, nil
}

func caseCondition(cond *ast.Expr, types models.FieldTypeMap) (bson.D, error) {
	if cond.Type != "Comparison" {
		return nil, fmt.Errorf("unsupported CASE WHEN condition: %s", cond.Type)
	}
	op, ok := mapping.MongoOperator(cond.Kind)
	if !ok {
		return nil, fmt.Errorf("unsupported CASE WHEN comparison operator: %s", cond.Kind)
	}
	left, err := caseOperand(cond.Left, types)
	if err != nil {
		return nil, err
	}
	right, err := caseOperand(cond.Right, types)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: op, Value: bson.A{left, right}}}, nil
}

// subtractDoc lowers a Subtract expression to a $subtract document. Column
// operands always get a plain "$" prefix.
func subtractDoc(expr *ast.Expr, types models.FieldTypeMap) (bson.D, error) {
	left, err := caseOperand(expr.Left, types)
	if err != nil {
		return nil, err
	}
	right, err := caseOperand(expr.Right, types)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: "$subtract", Value: bson.A{left, right}}}, nil
}
