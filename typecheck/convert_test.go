package typecheck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wizzerinus/magicnet/typecheck"
)

// TestConvertThenCheckRoundTrip asserts CheckType(ConvertObject(T,v),T) never
// raises for any v that ConvertObject accepts.
func TestConvertThenCheckRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		expr  typecheck.Expr
		value any
	}{
		{"int widening", typecheck.U16, int(100)},
		{"list of int", typecheck.ListExpr{Elem: typecheck.U8}, []any{int(1), int8(2), int64(3)}},
		{"tuple fixed", typecheck.TupleExpr{Items: []typecheck.Expr{typecheck.U8, typecheck.S16}}, []any{int(1), "hi"}},
		{"dict str->int", typecheck.DictExpr{Key: typecheck.S16, Val: typecheck.U8}, map[string]any{"k": int(9)}},
		{"union first match", typecheck.UnionExpr{Members: []typecheck.Expr{typecheck.U8, typecheck.S16}}, int(4)},
		{"union second match", typecheck.UnionExpr{Members: []typecheck.Expr{typecheck.U8, typecheck.S16}}, "hello"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			converted, err := typecheck.ConvertObject(tc.expr, tc.value)
			require.NoError(t, err)
			assert.NoError(t, typecheck.CheckType(converted, tc.expr))
		})
	}
}

func TestConvertObjectIntRejectsNonNumeric(t *testing.T) {
	_, err := typecheck.ConvertObject(typecheck.U8, "not a number")
	assert.Error(t, err)
}

func TestConvertObjectUnionExhausted(t *testing.T) {
	expr := typecheck.UnionExpr{Members: []typecheck.Expr{typecheck.U8}}
	_, err := typecheck.ConvertObject(expr, "nope")
	assert.Error(t, err)
}
