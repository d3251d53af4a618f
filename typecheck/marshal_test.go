package typecheck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wizzerinus/magicnet/typecheck"
)

func TestMarshalUnmarshalExprRoundTrip(t *testing.T) {
	exprs := []typecheck.Expr{
		typecheck.U8,
		typecheck.I64,
		typecheck.S256,
		typecheck.BS64,
		typecheck.ListExpr{Elem: typecheck.U16},
		typecheck.DictExpr{Key: typecheck.S16, Val: typecheck.U32},
		typecheck.TupleExpr{Items: []typecheck.Expr{typecheck.U8, typecheck.S16}},
		typecheck.TupleExpr{Items: []typecheck.Expr{typecheck.S16}, Variadic: typecheck.U8},
		typecheck.UnionExpr{Members: []typecheck.Expr{typecheck.U8, typecheck.S16}},
		typecheck.AnyExpr{},
		typecheck.AnyExpr{Predicates: []typecheck.Predicate{{Value: "north"}, {Value: "south"}}},
		typecheck.Hashable,
	}
	for _, expr := range exprs {
		tree := typecheck.MarshalExpr(expr)
		back, err := typecheck.UnmarshalExpr(tree)
		require.NoError(t, err)
		assert.Equal(t, expr, back)
	}
}

// TestMarshalSignatureRoundTrip exercises UnmarshalSignature(MarshalSignature(s)) == s.
func TestMarshalSignatureRoundTrip(t *testing.T) {
	sig, err := typecheck.NewFieldSignature("move", []typecheck.SignatureItem{
		{Name: "dx", Type: typecheck.I16},
		{Name: "dy", Type: typecheck.I16},
		{Name: "reason", Type: typecheck.S64, Default: "none", HasDefault: true},
	})
	require.NoError(t, err)
	sig.Flags = typecheck.PersistInRAM

	tree := typecheck.MarshalSignature(sig)
	back, err := typecheck.UnmarshalSignature(tree)
	require.NoError(t, err)
	assert.Equal(t, sig, back)
}

func TestMarshalSignatureRoundTripVariadic(t *testing.T) {
	sig, err := typecheck.NewFieldSignature("broadcast", []typecheck.SignatureItem{
		{Name: "channel", Type: typecheck.S16},
		{Name: "payload", Type: typecheck.U8, IsVariadic: true},
	})
	require.NoError(t, err)

	tree := typecheck.MarshalSignature(sig)
	back, err := typecheck.UnmarshalSignature(tree)
	require.NoError(t, err)
	assert.Equal(t, sig, back)
}

func TestParseValidatorUnknownName(t *testing.T) {
	_, err := typecheck.ParseValidator("Weird(3)")
	assert.Error(t, err)
}

func TestParseValidatorMalformed(t *testing.T) {
	_, err := typecheck.ParseValidator("Ge3)")
	assert.Error(t, err)
}

func TestParseValidatorCaches(t *testing.T) {
	v1, err := typecheck.ParseValidator("Ge(42)")
	require.NoError(t, err)
	v2, err := typecheck.ParseValidator("Ge(42)")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}
