package typecheck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wizzerinus/magicnet/typecheck"
)

func TestCheckTypeIntBounds(t *testing.T) {
	expr := typecheck.IntExpr{Lo: 0, Hi: 65536}
	assert.NoError(t, typecheck.CheckType(int64(0), expr))
	assert.NoError(t, typecheck.CheckType(int64(65535), expr))

	err := typecheck.CheckType(int64(65536), expr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Lt(65536)")

	err = typecheck.CheckType(int64(-1), expr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ge(0)")
}

func TestCheckTypeStrMaxLen(t *testing.T) {
	expr := typecheck.StrExpr{MaxLen: 4}
	assert.NoError(t, typecheck.CheckType("abcd", expr))
	assert.Error(t, typecheck.CheckType("abcde", expr))
}

func TestCheckTypeListRecursion(t *testing.T) {
	self := make([]any, 1)
	self[0] = self
	expr := typecheck.ListExpr{Elem: typecheck.ListExpr{Elem: typecheck.AnyExpr{}}}
	err := typecheck.CheckType(self, expr)
	require.Error(t, err)
}

func TestCheckTypeUnion(t *testing.T) {
	expr := typecheck.UnionExpr{Members: []typecheck.Expr{typecheck.U8, typecheck.S64}}
	assert.NoError(t, typecheck.CheckType(int64(5), expr))
	assert.NoError(t, typecheck.CheckType("hi", expr))
	assert.Error(t, typecheck.CheckType(3.5, expr))
}

func TestCheckTypeHashableNested(t *testing.T) {
	value := map[string]any{"a": []any{int64(1), "x"}}
	assert.NoError(t, typecheck.CheckType(value, typecheck.Hashable))
}

func TestCheckTypeDictKeyCoercion(t *testing.T) {
	expr := typecheck.DictExpr{Key: typecheck.U16, Val: typecheck.S64}
	value := map[string]any{"7": "seven"}
	assert.NoError(t, typecheck.CheckType(value, expr))
}

func TestCheckTypeTupleVariadic(t *testing.T) {
	expr := typecheck.TupleExpr{Items: []typecheck.Expr{typecheck.S16}, Variadic: typecheck.U8}
	assert.NoError(t, typecheck.CheckType([]any{"tag", int64(1), int64(2)}, expr))
	assert.NoError(t, typecheck.CheckType([]any{"tag"}, expr))
	assert.Error(t, typecheck.CheckType([]any{}, expr))
}
