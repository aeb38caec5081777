package lowering

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/sqlmongo-engine/sqlmongo/engine/ast"
	"github.com/sqlmongo-engine/sqlmongo/engine/models"
)

// Select lowers the SELECT list of a non-GROUP-BY statement: plain
// columns, aliased columns, CASE WHEN, and subtraction. It reports whether
// any item carried an alias, which forces the output shape to Aggregate.
func Select(items []ast.SelectItem, fromAlias string, types models.FieldTypeMap) (projection bson.D, hasAlias bool, err error) {
	if len(items) == 1 && items[0].All {
		return bson.D{}, false, nil
	}

	sawID := false
	for _, item := range items {
		if item.All {
			continue
		}
		if item.Alias != "" {
			hasAlias = true
		}
		entry, key, err := lowerSelectItem(item, fromAlias, types)
		if err != nil {
			return nil, false, err
		}
		if key == "_id" {
			sawID = true
		}
		projection = append(projection, entry)
	}
	if len(projection) > 0 && !sawID {
		projection = append(projection, bson.E{Key: "_id", Value: 0})
	}
	return projection, hasAlias, nil
}

func lowerSelectItem(item ast.SelectItem, fromAlias string, types models.FieldTypeMap) (bson.E, string, error) {
	expr := item.Expr
	switch expr.Type {
	case "Column":
		parts := stripTableAlias(expr.Parts, fromAlias)
		key := strings.Join(parts, ".")
		if item.Alias != "" {
			return bson.E{Key: item.Alias, Value: "$" + key}, item.Alias, nil
		}
		return bson.E{Key: key, Value: 1}, key, nil
	case "Case":
		alias := item.Alias
		if alias == "" {
			alias = "case"
		}
		doc, err := caseWhenDoc(expr, types)
		if err != nil {
			return bson.E{}, "", err
		}
		return bson.E{Key: alias, Value: doc}, alias, nil
	case "Subtract":
		alias := item.Alias
		if alias == "" {
			alias = "subtract"
		}
		doc, err := subtractDoc(expr, types)
		if err != nil {
			return bson.E{}, "", err
		}
		return bson.E{Key: alias, Value: doc}, alias, nil
	default:
		return bson.E{}, "", fmt.Errorf("Unsupported project expression")
	}
}
