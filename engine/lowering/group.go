package lowering

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/sqlmongo-engine/sqlmongo/engine/ast"
	"github.com/sqlmongo-engine/sqlmongo/engine/models"
)

var aggregateFunctions = map[string]string{
	"SUM": "$sum",
	"AVG": "$avg",
	"MIN": "$min",
	"MAX": "$max",
}

// GroupResult is the output of the Group/Aggregate Lowerer: the $group
// stage, the alias-restoring $project stage, and the bookkeeping
// Sort/Offset/Limit needs to rewrite ORDER BY targets.
type GroupResult struct {
	Stage           bson.D
	AliasProjection bson.D
	Scalar          bool
	KeyColumns      map[string]string // dotted column path -> flattened _id.<key> name (empty string in the scalar form)
	FunctionKeys    map[string]string // normalized function text -> output key name, for ORDER BY lookup
}

// Group lowers GROUP BY + SELECT aggregate items into a $group stage plus
// the alias projection restoring user-visible names.
func Group(items []ast.SelectItem, groupBys []string, fromAlias string, types models.FieldTypeMap) (*GroupResult, error) {
	var nonFunc []ast.SelectItem
	var funcs []ast.SelectItem
	for _, item := range items {
		if item.All {
			return nil, fmt.Errorf("Unsupported project expression")
		}
		switch item.Expr.Type {
		case "Function":
			funcs = append(funcs, item)
		case "Column", "Case":
			nonFunc = append(nonFunc, item)
		default:
			return nil, fmt.Errorf("Unsupported project expression")
		}
	}

	keys, caseKeys, err := buildGroupKeys(nonFunc, groupBys, fromAlias)
	if err != nil {
		return nil, err
	}

	result := &GroupResult{
		KeyColumns:   map[string]string{},
		FunctionKeys: map[string]string{},
	}

	idField, aliasEntries, scalar := buildIDDocument(keys, caseKeys, types, result)
	result.Scalar = scalar
	stage := bson.D{{Key: "_id", Value: idField}}

	for _, item := range funcs {
		keyName, value, err := lowerAggregateFunction(item)
		if err != nil {
			return nil, err
		}
		stage = append(stage, bson.E{Key: keyName, Value: value})
		aliasEntries = append(aliasEntries, bson.E{Key: keyName, Value: 1})
		result.FunctionKeys[normalizeFunctionText(item.Expr)] = keyName
	}

	aliasEntries = append(aliasEntries, bson.E{Key: "_id", Value: 0})
	result.Stage = stage
	result.AliasProjection = aliasEntries
	return result, nil
}

type groupKey struct {
	outputName string
	columnPath string // empty for a bare CASE key with no underlying column
	value      interface{}
	fromSelect bool // true when the key came from a SELECT item, false when synthesized from a bare GROUP BY column
}

// buildGroupKeys merges non-function SELECT items with any GROUP BY column
// not already present among them, in source order, columns first.
func buildGroupKeys(nonFunc []ast.SelectItem, groupBys []string, fromAlias string) (columnKeys []groupKey, caseKeys []groupKey, err error) {
	seen := map[string]bool{}

	for _, item := range nonFunc {
		switch item.Expr.Type {
		case "Column":
			parts := stripTableAlias(item.Expr.Parts, fromAlias)
			path := strings.Join(parts, ".")
			name := item.Alias
			if name == "" {
				name = flattenUnderscore(path)
			}
			columnKeys = append(columnKeys, groupKey{outputName: name, columnPath: path, value: "$" + path, fromSelect: true})
			seen[path] = true
		case "Case":
			name := item.Alias
			if name == "" {
				name = "case"
			}
			doc, cerr := caseWhenDoc(item.Expr, models.FieldTypeMap{})
			if cerr != nil {
				return nil, nil, cerr
			}
			caseKeys = append(caseKeys, groupKey{outputName: name, value: doc, fromSelect: true})
		}
	}

	for _, col := range groupBys {
		if seen[col] {
			continue
		}
		name := flattenUnderscore(col)
		columnKeys = append(columnKeys, groupKey{outputName: name, columnPath: col, value: "$" + col})
		seen[col] = true
	}

	return columnKeys, caseKeys, nil
}

// buildIDDocument applies the scalar-vs-subdocument rule: the scalar form is
// used only for exactly one column key and no CASE key. Any CASE key,
// including one that only references a grouped column, forces the
// subdocument form and contributes its own field to it. A key synthesized from a bare
// GROUP BY column that never appeared in the SELECT list is still grouped
// on (it lands in the _id document) but is never restored by name in the
// alias projection, since the caller never asked to see it.
func buildIDDocument(columnKeys, caseKeys []groupKey, types models.FieldTypeMap, result *GroupResult) (idField interface{}, aliasEntries bson.D, scalar bool) {
	if len(columnKeys) == 1 && len(caseKeys) == 0 {
		key := columnKeys[0]
		result.KeyColumns[key.columnPath] = ""
		if !key.fromSelect {
			return key.value, bson.D{}, true
		}
		return key.value, bson.D{{Key: key.outputName, Value: "$_id"}}, true
	}

	sub := bson.D{}
	for _, key := range columnKeys {
		sub = append(sub, bson.E{Key: key.outputName, Value: key.value})
		result.KeyColumns[key.columnPath] = key.outputName
		if key.fromSelect {
			aliasEntries = append(aliasEntries, bson.E{Key: key.outputName, Value: "$_id." + key.outputName})
		}
	}
	for _, key := range caseKeys {
		sub = append(sub, bson.E{Key: key.outputName, Value: key.value})
		aliasEntries = append(aliasEntries, bson.E{Key: key.outputName, Value: "$_id." + key.outputName})
	}
	return sub, aliasEntries, false
}

func lowerAggregateFunction(item ast.SelectItem) (string, bson.D, error) {
	fn := item.Expr
	name := strings.ToUpper(fn.Name)

	if name == "COUNT" {
		if len(fn.Args) != 1 {
			return "", nil, fmt.Errorf("%s function can only have one parameter", strings.ToLower(name))
		}
		keyName := item.Alias
		if keyName == "" {
			keyName = "count"
		}
		return keyName, bson.D{{Key: "$sum", Value: 1}}, nil
	}

	mongoOp, ok := aggregateFunctions[name]
	if !ok {
		return "", nil, fmt.Errorf("could not understand function: %s", fn.Name)
	}
	if len(fn.Args) != 1 {
		return "", nil, fmt.Errorf("%s function can only have one parameter", strings.ToLower(name))
	}
	arg := fn.Args[0]
	if arg.Type != "Column" {
		return "", nil, fmt.Errorf("%s requires a column argument", strings.ToLower(name))
	}
	colPath := strings.Join(arg.Parts, ".")
	keyName := item.Alias
	if keyName == "" {
		keyName = strings.ToLower(name) + "_" + flattenUnderscore(colPath)
	}
	return keyName, bson.D{{Key: mongoOp, Value: "$" + colPath}}, nil
}

func flattenUnderscore(path string) string {
	return strings.ReplaceAll(path, ".", "_")
}

// normalizeFunctionText renders a function call's source form (e.g.
// "COUNT(advance_amount)") for ORDER BY lookup against SELECT aliases, so
// an ORDER BY referencing the same function call can be matched against
// the SELECT list instead of recomputing it.
func normalizeFunctionText(expr *ast.Expr) string {
	args := make([]string, 0, len(expr.Args))
	for _, a := range expr.Args {
		if a.Type == "Column" {
			args = append(args, strings.Join(a.Parts, "."))
		} else {
			args = append(args, a.Text)
		}
	}
	return strings.ToUpper(expr.Name) + "(" + strings.Join(args, ",") + ")"
}
