package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/sqlmongo-engine/sqlmongo/engine/models"
)

func TestShellFind(t *testing.T) {
	plan := models.NewQueryPlan("t")
	plan.Op = models.OpFind
	plan.Filter = bson.D{{Key: "value", Value: int64(1)}}

	out, err := Shell(plan, models.RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, out, `db.t.find(`)
	assert.Contains(t, out, `"value": 1`)
}

func TestShellCount(t *testing.T) {
	plan := models.NewQueryPlan("t")
	plan.Op = models.OpCount
	plan.Filter = bson.D{}

	out, err := Shell(plan, models.RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "db.t.count({})", out)
}

func TestShellDelete(t *testing.T) {
	plan := models.NewQueryPlan("t")
	plan.Op = models.OpDelete
	plan.Filter = bson.D{{Key: "id", Value: int64(1)}}

	out, err := Shell(plan, models.RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, out, "db.t.deleteMany(")
}

func TestShellAggregateWithOptions(t *testing.T) {
	plan := models.NewQueryPlan("orders")
	plan.Op = models.OpAggregate
	plan.GroupBys = []string{"agent_code"}
	plan.Filter = bson.D{}
	plan.Projection = bson.D{{Key: "_id", Value: "$agent_code"}}
	plan.AliasProjection = bson.D{{Key: "agent_code", Value: "$_id"}, {Key: "_id", Value: 0}}

	batchSize := int32(50)
	out, err := Shell(plan, models.RenderOptions{AggregationAllowDiskUse: true, AggregationBatchSize: &batchSize})
	require.NoError(t, err)
	assert.Contains(t, out, "db.orders.aggregate(")
	assert.Contains(t, out, `"allowDiskUse": true`)
	assert.Contains(t, out, `"batchSize": 50`)
}

func TestPrettyDocNesting(t *testing.T) {
	doc := bson.D{{Key: "a", Value: bson.D{{Key: "b", Value: int64(5)}}}}
	out, err := pretty(doc, 0, false)
	require.NoError(t, err)
	assert.Contains(t, out, `"a": {`)
	assert.Contains(t, out, `"b": 5`)
}

func TestPrettyDocNestingStrictNumberLong(t *testing.T) {
	doc := bson.D{{Key: "a", Value: bson.D{{Key: "b", Value: int64(5)}}}}
	out, err := pretty(doc, 0, true)
	require.NoError(t, err)
	assert.Contains(t, out, `"a": {`)
	assert.Contains(t, out, `{"$numberLong": "5"}`)
}

func TestShellAggregateSkipZero(t *testing.T) {
	plan := models.NewQueryPlan("orders")
	plan.Op = models.OpAggregate
	plan.GroupBys = []string{"agent_code"}
	plan.Filter = bson.D{}
	plan.Offset = 0
	plan.Projection = bson.D{{Key: "_id", Value: "$agent_code"}}
	plan.AliasProjection = bson.D{{Key: "agent_code", Value: "$_id"}, {Key: "_id", Value: 0}}

	out, err := Shell(plan, models.RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, out, `"$skip": 0`)
}
