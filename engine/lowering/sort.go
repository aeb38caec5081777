package lowering

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/sqlmongo-engine/sqlmongo/engine/ast"
)

// Sort lowers ORDER BY elements into a $sort document, rewriting sort
// keys that reference grouped columns to their _id/_id.<key> form. group is
// nil when the statement has no GROUP BY.
func Sort(orderBys []ast.OrderBy, fromAlias string, group *GroupResult) (bson.D, error) {
	doc := bson.D{}
	for _, ob := range orderBys {
		key, err := sortKey(ob.Expr, fromAlias, group)
		if err != nil {
			return nil, err
		}
		direction := -1
		if ob.Ascending {
			direction = 1
		}
		doc = append(doc, bson.E{Key: key, Value: direction})
	}
	return doc, nil
}

func sortKey(expr *ast.Expr, fromAlias string, group *GroupResult) (string, error) {
	switch expr.Type {
	case "Column":
		path := strings.Join(stripTableAlias(expr.Parts, fromAlias), ".")
		if group != nil {
			if flattened, ok := group.KeyColumns[path]; ok {
				if group.Scalar {
					return "_id", nil
				}
				return "_id." + flattened, nil
			}
		}
		return path, nil
	case "Function":
		if group == nil {
			return "", fmt.Errorf("ORDER BY function requires GROUP BY")
		}
		text := normalizeFunctionText(expr)
		if keyName, ok := group.FunctionKeys[text]; ok {
			return keyName, nil
		}
		return "", fmt.Errorf("could not resolve ORDER BY function %s", text)
	default:
		return "", fmt.Errorf("unsupported ORDER BY expression: %s", expr.Type)
	}
}

// OffsetLimit validates and returns the OFFSET/LIMIT pair, applying the
// -1-means-unset sentinel and the signed 32-bit overflow assertion.
func OffsetLimit(offset, limit *int64, checkRange func(int64) error) (int64, int64, error) {
	off := int64(-1)
	if offset != nil {
		off = *offset
		if err := checkRange(off); err != nil {
			return 0, 0, err
		}
	}
	lim := int64(-1)
	if limit != nil {
		lim = *limit
		if err := checkRange(lim); err != nil {
			return 0, 0, err
		}
	}
	return off, lim, nil
}
