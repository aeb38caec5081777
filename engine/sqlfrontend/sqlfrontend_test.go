package sqlfrontend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelectStar(t *testing.T) {
	stmt, err := Parse("select * from t")
	require.NoError(t, err)
	assert.Equal(t, "Select", stmt.Kind)
	assert.Equal(t, "t", stmt.FromTable)
	require.Len(t, stmt.Items, 1)
	assert.True(t, stmt.Items[0].All)
}

func TestParseWhereComparison(t *testing.T) {
	stmt, err := Parse("select * from t where value = 1")
	require.NoError(t, err)
	require.NotNil(t, stmt.Where)
	assert.Equal(t, "Comparison", stmt.Where.Type)
	assert.Equal(t, "=", stmt.Where.Kind)
}

func TestParseGroupByOrderByLimit(t *testing.T) {
	stmt, err := Parse("select agent_code, count(*) from orders where agent_code like 'AW_%' group by agent_code order by agent_code asc limit 4 offset 3")
	require.NoError(t, err)
	assert.Equal(t, []string{"agent_code"}, stmt.GroupBys)
	require.NotNil(t, stmt.Limit)
	assert.EqualValues(t, 4, *stmt.Limit)
	require.NotNil(t, stmt.Offset)
	assert.EqualValues(t, 3, *stmt.Offset)
}

func TestParseDoubleEqualsRejected(t *testing.T) {
	_, err := Parse("select * from t where value == 1")
	assert.EqualError(t, err, "unable to parse complete sql string. one reason for this is the use of double equals (==).")
}

func TestParseNonSelectRejected(t *testing.T) {
	_, err := Parse("update t set a = 1")
	assert.EqualError(t, err, "Only select statements are supported.")
}

func TestParseDelete(t *testing.T) {
	stmt, err := Parse("delete from t where id = 1")
	require.NoError(t, err)
	assert.Equal(t, "Delete", stmt.Kind)
	assert.Equal(t, "t", stmt.FromTable)
}

func TestParseNotLike(t *testing.T) {
	stmt, err := Parse("select * from t where value not like 'a%'")
	require.NoError(t, err)
	require.NotNil(t, stmt.Where)
	assert.Equal(t, "Not", stmt.Where.Type)
	require.NotNil(t, stmt.Where.Inner)
	assert.Equal(t, "Comparison", stmt.Where.Inner.Type)
	assert.Equal(t, "LIKE", stmt.Where.Inner.Kind)
}
