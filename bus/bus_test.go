package bus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Wizzerinus/magicnet/bus"
)

func TestEmitDispatchesInPriorityOrder(t *testing.T) {
	b := bus.New()
	var order []int
	b.Listen("a", "ping", 5, func(args ...any) { order = append(order, 5) })
	b.Listen("b", "ping", 1, func(args ...any) { order = append(order, 1) })
	b.Listen("c", "ping", 3, func(args ...any) { order = append(order, 3) })

	b.Emit("ping")

	assert.Equal(t, []int{1, 3, 5}, order)
}

func TestEmitUnregisteredEventIsNoop(t *testing.T) {
	b := bus.New()
	assert.NotPanics(t, func() { b.Emit("nothing-listens-here") })
}

func TestCalculateFoldsInPriorityOrder(t *testing.T) {
	b := bus.New()
	b.AddMathTarget("a", "sum", 2, func(v any, args ...any) any { return v.(int) + 10 })
	b.AddMathTarget("b", "sum", 1, func(v any, args ...any) any { return v.(int) * 2 })

	// priority 1 runs first: (5*2) then +10 = 20
	result := b.Calculate("sum", 5)
	assert.Equal(t, 20, result)
}

func TestCalculateDefaultIsIdentity(t *testing.T) {
	b := bus.New()
	assert.Equal(t, 42, b.Calculate("unregistered", 42))
}

func TestIgnoreAllRemovesEverythingForOwner(t *testing.T) {
	b := bus.New()
	calls := 0
	b.Listen("owner-1", "evt", 0, func(args ...any) { calls++ })
	b.AddMathTarget("owner-1", "mt", 0, func(v any, args ...any) any { return v })
	b.Listen("owner-2", "evt", 0, func(args ...any) { calls++ })

	b.IgnoreAll("owner-1")
	b.Emit("evt")
	b.Calculate("mt", 1)

	assert.Equal(t, 1, calls)
}

func TestDestroyEventFiresExactlyOnce(t *testing.T) {
	b := bus.New()
	fired := 0
	b.Listen("handle-1", bus.EventHandleDestroyed, 0, func(args ...any) { fired++ })

	destroy := func(destroyed *bool) {
		if *destroyed {
			return
		}
		*destroyed = true
		b.Emit(bus.EventHandleDestroyed, "handle-1")
	}

	destroyed := false
	destroy(&destroyed)
	destroy(&destroyed)
	destroy(&destroyed)

	assert.Equal(t, 1, fired)
}

func TestCurrentEventTracksNestedEmit(t *testing.T) {
	b := bus.New()
	var seenDuringInner string
	b.Listen("x", "outer", 0, func(args ...any) {
		b.Listen("y", "inner", 0, func(args ...any) {
			seenDuringInner = b.CurrentEvent()
		})
		b.Emit("inner")
		assert.Equal(t, "outer", b.CurrentEvent())
	})

	b.Emit("outer")
	assert.Equal(t, "inner", seenDuringInner)
	assert.Equal(t, "", b.CurrentEvent())
}
