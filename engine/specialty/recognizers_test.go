package specialty

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlmongo-engine/sqlmongo/engine/ast"
)

func column(parts ...string) *ast.Expr {
	return &ast.Expr{Type: "Column", Parts: parts}
}

func str(s string) *ast.Expr {
	return &ast.Expr{Type: "String", Text: s}
}

func call(name string, args ...*ast.Expr) *ast.Expr {
	return &ast.Expr{Type: "Function", Name: name, Args: args}
}

func TestRecognizeRegexMatchComparison(t *testing.T) {
	expr := &ast.Expr{
		Type: "Comparison",
		Kind: "=",
		Left: call("regexMatch", column("name"), str("^A")),
		Right: &ast.Expr{Type: "Boolean", Bool: true},
	}
	rx, ok, err := RecognizeRegexMatch(expr)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "name", rx.Column)
	assert.Equal(t, "^A", rx.Pattern)
}

func TestRecognizeRegexMatchNotACall(t *testing.T) {
	expr := &ast.Expr{Type: "Comparison", Kind: "=", Left: column("name"), Right: str("bob")}
	_, ok, err := RecognizeRegexMatch(expr)
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestRecognizeRegexMatchBadPattern(t *testing.T) {
	expr := call("regexMatch", column("name"), str("("))
	_, ok, err := RecognizeRegexMatch(expr)
	assert.True(t, ok)
	assert.Error(t, err)
}

func TestRecognizeDateFunctionComparison(t *testing.T) {
	expr := &ast.Expr{
		Type: "Comparison",
		Kind: ">",
		Left: call("date", column("created_at"), str("yyyy-MM-dd")),
		Right: str("2024-01-01"),
	}
	df, ok, err := RecognizeDateFunction(expr)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "created_at", df.Column)
	assert.Equal(t, "$gt", df.MongoOp)
}

func TestRecognizeDateLiteral(t *testing.T) {
	expr := &ast.Expr{
		Type: "Comparison",
		Kind: "<=",
		Left: column("created_at"),
		Right: call("date", str("2024-01-01")),
	}
	dl, ok, err := RecognizeDateLiteral(expr)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "created_at", dl.Column)
	assert.Equal(t, "$lte", dl.MongoOp)
}

func TestRecognizeObjectID(t *testing.T) {
	expr := &ast.Expr{
		Type: "Comparison",
		Kind: "=",
		Left: call("OBJECTID", str("_id")),
		Right: str("507f1f77bcf86cd799439011"),
	}
	oid, ok, err := RecognizeObjectID(expr)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "_id", oid.Column)
}

func TestToObjectIDInvalid(t *testing.T) {
	_, err := ToObjectID("not-a-hex-id")
	assert.Error(t, err)
}

func TestRecognizeBindata(t *testing.T) {
	data := []byte("hello")
	encoded := base64.StdEncoding.EncodeToString(data)
	expr := &ast.Expr{
		Type: "Comparison",
		Kind: "=",
		Left: column("payload"),
		Right: call("Bindata", str(encoded)),
	}
	bd, ok, err := RecognizeBindata(expr)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "payload", bd.Column)
	assert.Equal(t, data, bd.Value.Data)
	assert.EqualValues(t, 0x03, bd.Value.Subtype)
}
