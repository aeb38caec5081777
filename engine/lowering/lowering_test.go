package lowering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sqlmongo-engine/sqlmongo/engine/ast"
	"github.com/sqlmongo-engine/sqlmongo/engine/models"
	"github.com/sqlmongo-engine/sqlmongo/engine/render"
)

func col(parts ...string) *ast.Expr { return &ast.Expr{Type: "Column", Parts: parts} }
func long(n int64) *ast.Expr        { return &ast.Expr{Type: "Long", Long: n} }
func str(s string) *ast.Expr        { return &ast.Expr{Type: "String", Text: s} }

func cmp(kind string, left, right *ast.Expr) *ast.Expr {
	return &ast.Expr{Type: "Comparison", Kind: kind, Left: left, Right: right}
}

func logical(kind string, left, right *ast.Expr) *ast.Expr {
	return &ast.Expr{Type: "Logical", Kind: kind, Left: left, Right: right}
}

// scenario 1: select * from t
func TestLowerSelectStar(t *testing.T) {
	stmt := &ast.Statement{Kind: "Select", FromTable: "t", Items: []ast.SelectItem{{All: true}}}
	plan, err := Lower(stmt, models.FieldTypeMap{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "t", plan.Collection)
	assert.Equal(t, models.OpFind, plan.Op)
	assert.Equal(t, bson.D{}, plan.Filter)
	assert.Equal(t, bson.D{}, plan.Projection)
	assert.EqualValues(t, -1, plan.Offset)
	assert.EqualValues(t, -1, plan.Limit)
}

// scenario 2: select * from t where value=1 (default FieldType)
func TestLowerWhereDefaultType(t *testing.T) {
	stmt := &ast.Statement{
		Kind:      "Select",
		FromTable: "t",
		Items:     []ast.SelectItem{{All: true}},
		Where:     cmp("=", col("value"), long(1)),
	}
	plan, err := Lower(stmt, models.FieldTypeMap{}, nil)
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "value", Value: int64(1)}}, plan.Filter)
}

// scenario 3: select * from t where value="1" with value: NUMBER -> coerced
func TestLowerWhereNumberCoercion(t *testing.T) {
	types := models.FieldTypeMap{Types: map[string]models.FieldType{"value": models.FieldNumber}}
	stmt := &ast.Statement{
		Kind:      "Select",
		FromTable: "t",
		Items:     []ast.SelectItem{{All: true}},
		Where:     cmp("=", col("value"), str("1")),
	}
	plan, err := Lower(stmt, types, nil)
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "value", Value: int64(1)}}, plan.Filter)
}

// scenario 4: value like 'st_rt%' -> ^st.{1}rt.*$
func TestLowerWhereLike(t *testing.T) {
	stmt := &ast.Statement{
		Kind:      "Select",
		FromTable: "t",
		Items:     []ast.SelectItem{{All: true}},
		Where:     cmp("LIKE", col("value"), str("st_rt%")),
	}
	plan, err := Lower(stmt, models.FieldTypeMap{}, nil)
	require.NoError(t, err)
	require.Len(t, plan.Filter, 1)
	assert.Equal(t, "value", plan.Filter[0].Key)
	inner := plan.Filter[0].Value.(bson.D)
	regex := inner[0].Value.(primitive.Regex)
	assert.Equal(t, "^st.{1}rt.*$", regex.Pattern)
}

// scenario 5: SELECT agent_code, COUNT(*) FROM orders WHERE agent_code LIKE
// 'AW_%' GROUP BY agent_code
func TestLowerGroupByCount(t *testing.T) {
	stmt := &ast.Statement{
		Kind:      "Select",
		FromTable: "orders",
		Items: []ast.SelectItem{
			{Expr: col("agent_code")},
			{Expr: &ast.Expr{Type: "Function", Name: "COUNT", Args: []*ast.Expr{col("*")}}},
		},
		Where:    cmp("LIKE", col("agent_code"), str("AW_%")),
		GroupBys: []string{"agent_code"},
	}
	plan, err := Lower(stmt, models.FieldTypeMap{}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OpAggregate, plan.Op)
	assert.Equal(t, bson.D{{Key: "_id", Value: "$agent_code"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}, plan.Projection)
	assert.Equal(t, bson.D{{Key: "agent_code", Value: "$_id"}, {Key: "count", Value: 1}, {Key: "_id", Value: 0}}, plan.AliasProjection)

	stages := render.AssemblePipeline(plan)
	require.Len(t, stages, 3)
	assert.Equal(t, bson.D{{Key: "$match", Value: plan.Filter}}, stages[0])
	assert.Equal(t, bson.D{{Key: "$group", Value: plan.Projection}}, stages[1])
	assert.Equal(t, bson.D{{Key: "$project", Value: plan.AliasProjection}}, stages[2])
}

// scenario 6: value=1 OR value=2 OR value=3 -> flat 3-element $or
func TestLowerFlatOr(t *testing.T) {
	where := logical("OR", logical("OR", cmp("=", col("value"), long(1)), cmp("=", col("value"), long(2))), cmp("=", col("value"), long(3)))
	stmt := &ast.Statement{Kind: "Select", FromTable: "t", Items: []ast.SelectItem{{All: true}}, Where: where}
	plan, err := Lower(stmt, models.FieldTypeMap{}, nil)
	require.NoError(t, err)
	require.Len(t, plan.Filter, 1)
	assert.Equal(t, "$or", plan.Filter[0].Key)
	or := plan.Filter[0].Value.(bson.A)
	require.Len(t, or, 3)
	assert.Equal(t, bson.D{{Key: "value", Value: int64(1)}}, or[0])
	assert.Equal(t, bson.D{{Key: "value", Value: int64(2)}}, or[1])
	assert.Equal(t, bson.D{{Key: "value", Value: int64(3)}}, or[2])
}

// scenario 7: select c.sub.a as x from t as c order by c.sub.a asc limit 4 offset 3
func TestLowerAliasedDealiasedOrderLimit(t *testing.T) {
	offset := int64(3)
	limit := int64(4)
	stmt := &ast.Statement{
		Kind:      "Select",
		FromTable: "t",
		FromAlias: "c",
		Items:     []ast.SelectItem{{Expr: col("c", "sub", "a"), Alias: "x"}},
		OrderBys:  []ast.OrderBy{{Expr: col("c", "sub", "a"), Ascending: true}},
		Offset:    &offset,
		Limit:     &limit,
	}
	plan, err := Lower(stmt, models.FieldTypeMap{}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OpAggregate, plan.Op)
	assert.Equal(t, bson.D{{Key: "sub.a", Value: 1}}, plan.Sort)
	assert.EqualValues(t, 3, plan.Offset)
	assert.EqualValues(t, 4, plan.Limit)

	stages := render.AssemblePipeline(plan)
	require.Len(t, stages, 4)
	assert.Equal(t, bson.D{{Key: "$sort", Value: plan.Sort}}, stages[0])
	assert.Equal(t, bson.D{{Key: "$skip", Value: int64(3)}}, stages[1])
	assert.Equal(t, bson.D{{Key: "$limit", Value: int64(4)}}, stages[2])
	assert.Equal(t, bson.D{{Key: "$project", Value: plan.Projection}}, stages[3])

	found := false
	for _, e := range plan.Projection {
		if e.Key == "x" {
			assert.Equal(t, "$sub.a", e.Value)
			found = true
		}
	}
	assert.True(t, found)
}

func TestLowerDistinctRequiresOneColumn(t *testing.T) {
	stmt := &ast.Statement{
		Kind:     "Select",
		FromTable: "t",
		Distinct: true,
		Items:    []ast.SelectItem{{Expr: col("a")}, {Expr: col("b")}},
	}
	_, err := Lower(stmt, models.FieldTypeMap{}, nil)
	assert.EqualError(t, err, "cannot run distinct one more than one column")
}

func TestLowerDelete(t *testing.T) {
	stmt := &ast.Statement{Kind: "Delete", FromTable: "t", Where: cmp("=", col("id"), long(1))}
	plan, err := Lower(stmt, models.FieldTypeMap{}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OpDelete, plan.Op)
	assert.Equal(t, bson.D{{Key: "id", Value: int64(1)}}, plan.Filter)
}

// SELECT COUNT(*) FROM orders (no GROUP BY) must still lower to OpCount,
// not fail the non-aggregate projection-shape check.
func TestLowerCountAllWithoutGroupBy(t *testing.T) {
	stmt := &ast.Statement{
		Kind:      "Select",
		FromTable: "orders",
		Items: []ast.SelectItem{
			{Expr: &ast.Expr{Type: "Function", Name: "COUNT", Args: []*ast.Expr{col("*")}}},
		},
	}
	plan, err := Lower(stmt, models.FieldTypeMap{}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OpCount, plan.Op)
	assert.True(t, plan.CountAll)
}

// A GROUP BY column that never appears in the SELECT list must not leak
// into the alias projection.
func TestLowerGroupByColumnNotSelected(t *testing.T) {
	stmt := &ast.Statement{
		Kind:      "Select",
		FromTable: "orders",
		Items: []ast.SelectItem{
			{Expr: &ast.Expr{Type: "Function", Name: "COUNT", Args: []*ast.Expr{col("*")}}, Alias: "cnt"},
		},
		GroupBys: []string{"agent_code"},
	}
	plan, err := Lower(stmt, models.FieldTypeMap{}, nil)
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "cnt", Value: 1}, {Key: "_id", Value: 0}}, plan.AliasProjection)
	for _, e := range plan.AliasProjection {
		assert.NotEqual(t, "agent_code", e.Key)
	}
}

// select case when value > 5 then 'high' else 'low' end as level from t
// (CASE WHEN, no GROUP BY)
func TestLowerCaseWhenPlain(t *testing.T) {
	caseExpr := &ast.Expr{
		Type:     "Case",
		Branches: []ast.CaseBranch{{When: cmp(">", col("value"), long(5)), Then: str("high")}},
		Else:     str("low"),
	}
	stmt := &ast.Statement{
		Kind:      "Select",
		FromTable: "t",
		Items:     []ast.SelectItem{{Expr: caseExpr, Alias: "level"}},
	}
	plan, err := Lower(stmt, models.FieldTypeMap{}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OpAggregate, plan.Op)
	require.Len(t, plan.Projection, 2)
	assert.Equal(t, "level", plan.Projection[0].Key)
	assert.Equal(t, "_id", plan.Projection[1].Key)
	assert.Equal(t, 0, plan.Projection[1].Value)

	switchWrapper := plan.Projection[0].Value.(bson.D)
	assert.Equal(t, "$switch", switchWrapper[0].Key)
	inner := switchWrapper[0].Value.(bson.D)
	branches := inner[0].Value.(bson.A)
	require.Len(t, branches, 1)
	branch := branches[0].(bson.D)
	cond := branch[0].Value.(bson.D)
	assert.Equal(t, "$gt", cond[0].Key)
	operands := cond[0].Value.(bson.A)
	assert.Equal(t, "$value", operands[0])
	assert.Equal(t, int64(5), operands[1])
	assert.Equal(t, "high", branch[1].Value)
	assert.Equal(t, "default", inner[1].Key)
	assert.Equal(t, "low", inner[1].Value)
}

// select agent_code, case when value>5 then 'high' else 'low' end as level,
// count(*) as cnt from orders group by agent_code
func TestLowerCaseWhenGrouped(t *testing.T) {
	caseExpr := &ast.Expr{
		Type:     "Case",
		Branches: []ast.CaseBranch{{When: cmp(">", col("value"), long(5)), Then: str("high")}},
		Else:     str("low"),
	}
	stmt := &ast.Statement{
		Kind:      "Select",
		FromTable: "orders",
		Items: []ast.SelectItem{
			{Expr: col("agent_code")},
			{Expr: caseExpr, Alias: "level"},
			{Expr: &ast.Expr{Type: "Function", Name: "COUNT", Args: []*ast.Expr{col("*")}}, Alias: "cnt"},
		},
		GroupBys: []string{"agent_code"},
	}
	plan, err := Lower(stmt, models.FieldTypeMap{}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OpAggregate, plan.Op)

	idDoc := plan.Projection[0].Value.(bson.D)
	require.Len(t, idDoc, 2)
	assert.Equal(t, "agent_code", idDoc[0].Key)
	assert.Equal(t, "$agent_code", idDoc[0].Value)
	assert.Equal(t, "level", idDoc[1].Key)
	levelDoc := idDoc[1].Value.(bson.D)
	assert.Equal(t, "$switch", levelDoc[0].Key)

	assert.Equal(t, bson.D{
		{Key: "agent_code", Value: "$_id.agent_code"},
		{Key: "level", Value: "$_id.level"},
		{Key: "cnt", Value: 1},
		{Key: "_id", Value: 0},
	}, plan.AliasProjection)
}

// select a - b as diff from t
func TestLowerSubtraction(t *testing.T) {
	stmt := &ast.Statement{
		Kind:      "Select",
		FromTable: "t",
		Items:     []ast.SelectItem{{Expr: &ast.Expr{Type: "Subtract", Left: col("a"), Right: col("b")}, Alias: "diff"}},
	}
	plan, err := Lower(stmt, models.FieldTypeMap{}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OpAggregate, plan.Op)
	require.Len(t, plan.Projection, 2)
	assert.Equal(t, "diff", plan.Projection[0].Key)
	doc := plan.Projection[0].Value.(bson.D)
	assert.Equal(t, "$subtract", doc[0].Key)
	operands := doc[0].Value.(bson.A)
	assert.Equal(t, "$a", operands[0])
	assert.Equal(t, "$b", operands[1])
}

// value NOT LIKE 'a%' has no MongoDB equivalent and must fail lowering
// rather than silently matching nothing.
func TestLowerNotLike(t *testing.T) {
	stmt := &ast.Statement{
		Kind:      "Select",
		FromTable: "t",
		Items:     []ast.SelectItem{{All: true}},
		Where:     &ast.Expr{Type: "Not", Inner: cmp("LIKE", col("value"), str("a%"))},
	}
	_, err := Lower(stmt, models.FieldTypeMap{}, nil)
	require.Error(t, err)
	assert.Equal(t, "NOT LIKE queries not supported", err.Error())
}
