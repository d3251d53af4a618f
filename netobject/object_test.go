package netobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wizzerinus/magicnet/bus"
	"github.com/Wizzerinus/magicnet/typecheck"
	"github.com/Wizzerinus/magicnet/wireerr"
)

type stubObject struct {
	Base
	created bool
	deleted bool
}

func (o *stubObject) NetCreate() { o.created = true }
func (o *stubObject) NetDelete() { o.deleted = true }

func TestNewClassRejectsEmptyNetworkName(t *testing.T) {
	_, err := NewClass("", 0, nil, nil)
	require.Error(t, err)
	assert.Equal(t, wireerr.KindNoNetworkName, err.(*wireerr.ConfigError).Kind)
}

func TestNewClassRejectsNegativeObjectRole(t *testing.T) {
	_, err := NewClass("thing", -1, nil, nil)
	require.Error(t, err)
	assert.Equal(t, wireerr.KindNoObjectRole, err.(*wireerr.ConfigError).Kind)
}

func TestNewClassRejectsUnnamedField(t *testing.T) {
	f := &Field{sig: &typecheck.FieldSignature{}}
	_, err := NewClass("thing", 0, []*Field{f}, nil)
	require.Error(t, err)
	assert.Equal(t, wireerr.KindUnnamedField, err.(*wireerr.ConfigError).Kind)
}

func buildTestClass(t *testing.T, callback Callback) *Class {
	t.Helper()
	f, err := NewField("x", []typecheck.SignatureItem{{Name: "v", Type: typecheck.I64}}, callback)
	require.NoError(t, err)
	var class *Class
	factory := func(ctrl *Manager) Object { return &stubObject{Base: NewBase(class, ctrl)} }
	class, err = NewClass("thing", 0, []*Field{f}, factory)
	require.NoError(t, err)
	class.finalizeFields()
	return class
}

func TestResolveFieldBounds(t *testing.T) {
	class := buildTestClass(t, func(Object, []any) {})
	assert.NotNil(t, class.resolveField(0))
	assert.Nil(t, class.resolveField(1))
	assert.Nil(t, class.resolveField(-1))
}

func TestResolveMessageByName(t *testing.T) {
	class := buildTestClass(t, func(Object, []any) {})
	role, field, ok := class.resolveMessage("x")
	require.True(t, ok)
	assert.Equal(t, 0, role)
	assert.Equal(t, 0, field)

	_, _, ok = class.resolveMessage("missing")
	assert.False(t, ok)
}

func TestCallFieldUnknownFieldEmitsWarningAndBadNetworkCall(t *testing.T) {
	class := buildTestClass(t, func(Object, []any) {})
	obj := &stubObject{Base: NewBase(class, nil)}
	b := bus.New()

	var reason any
	b.Listen("test", bus.EventBadNetworkCall, 0, func(args ...any) { reason = args[3] })

	err := callField(b, obj, class, nil, 0, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, wireerr.ReasonNoField, reason)
}

func TestCallFieldBadArgumentsEmitsBadNetworkCall(t *testing.T) {
	class := buildTestClass(t, func(Object, []any) {})
	obj := &stubObject{Base: NewBase(class, nil)}
	b := bus.New()

	var reason any
	b.Listen("test", bus.EventBadNetworkCall, 0, func(args ...any) { reason = args[3] })

	err := callField(b, obj, class, nil, 0, 0, []any{"not-an-int"})
	require.NoError(t, err)
	assert.Equal(t, wireerr.ReasonBadArgs, reason)
}

func TestCallFieldSuccessInvokesCallbackAndCachesParams(t *testing.T) {
	var seen []any
	class := buildTestClass(t, func(obj Object, args []any) { seen = args })
	obj := &stubObject{Base: NewBase(class, nil)}
	b := bus.New()

	err := callField(b, obj, class, nil, 0, 0, []any{int64(7)})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.EqualValues(t, 7, seen[0])

	params := obj.getLoadedParams()
	require.Len(t, params, 1)
	assert.Equal(t, 0, params[0].Role)
	assert.Equal(t, 0, params[0].Field)
}

func TestCallFieldForeignRoleCachesWithoutInvokingCallback(t *testing.T) {
	var called bool
	class := buildTestClass(t, func(Object, []any) { called = true })
	obj := &stubObject{Base: NewBase(class, nil)}
	b := bus.New()

	err := callField(b, obj, class, nil, 1, 0, []any{"whatever"})
	require.NoError(t, err)
	assert.False(t, called)
	params := obj.getLoadedParams()
	require.Len(t, params, 1)
	assert.Equal(t, 1, params[0].Role)
}

func TestAuthorRepositoryExtractsHighBits(t *testing.T) {
	base := &Base{}
	base.setParameters(uint64(5)|(uint64(42)<<32), 1, 0)
	assert.Equal(t, uint32(42), base.AuthorRepository())
}
