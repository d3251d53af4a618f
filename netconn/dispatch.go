package netconn

import (
	"github.com/Wizzerinus/magicnet/bus"
	"github.com/Wizzerinus/magicnet/netcfg"
	"github.com/Wizzerinus/magicnet/observability"
	"github.com/Wizzerinus/magicnet/protocol"
)

// ProcessContext is everything a message processor needs: the decoded
// message, the handle it arrived from, and the owning network manager (for
// sending replies, reading configuration, or reaching the object layer).
type ProcessContext struct {
	Message protocol.Message
	Sender  *Handle
	Manager *NetworkManager
}

// Processor handles one message type code.
type Processor interface {
	// RequiresHello reports whether the sender must already be activated.
	// If true and the sender is not yet activated, the dispatcher
	// disconnects it with MESSAGE_BEFORE_HELLO instead of invoking Invoke.
	RequiresHello() bool
	Invoke(ctx *ProcessContext) error
}

// ProcessorFunc adapts a plain function into a Processor, matching the
// teacher's handler-function registration style.
type ProcessorFunc struct {
	Hello bool
	Fn    func(ctx *ProcessContext) error
}

func (p ProcessorFunc) RequiresHello() bool             { return p.Hello }
func (p ProcessorFunc) Invoke(ctx *ProcessContext) error { return p.Fn(ctx) }

// NewProcessor builds a Processor from a plain function.
func NewProcessor(requiresHello bool, fn func(ctx *ProcessContext) error) Processor {
	return ProcessorFunc{Hello: requiresHello, Fn: fn}
}

// Dispatcher owns the map from message type code to processor and applies
// the REQUIRES_HELLO gate uniformly before invoking one.
type Dispatcher struct {
	processors map[protocol.MessageType]Processor
	bus        *bus.Bus
	log        observability.Logger
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher(b *bus.Bus, log observability.Logger) *Dispatcher {
	return &Dispatcher{processors: make(map[protocol.MessageType]Processor), bus: b, log: log}
}

// Register attaches p for message type t. Codes below
// netcfg.FirstApplicationMessageType are reserved for the handshake
// processors wired in by New and the object-replication processors wired in
// by netobject.RegisterProcessors; registering
// one again is a configuration error the caller should have already
// rejected via netcfg.Config.Validate.
func (d *Dispatcher) Register(t protocol.MessageType, p Processor) {
	d.processors[t] = p
}

// ProcessMessage looks up the processor for ctx.Message.Type and invokes it,
// applying the hello gate and converting panics into EXCEPTION events rather
// than crashing the event loop.
func (d *Dispatcher) ProcessMessage(ctx *ProcessContext) {
	p, ok := d.processors[ctx.Message.Type]
	if !ok {
		if ctx.Message.Type < netcfg.FirstApplicationMessageType {
			d.bus.Emit(bus.EventError, "no processor for reserved message type", ctx.Message.Type)
		} else {
			d.bus.Emit(bus.EventWarning, "no processor for message type", ctx.Message.Type)
		}
		return
	}
	if p.RequiresHello() && !ctx.Sender.Activated() {
		ctx.Sender.SendDisconnect(protocol.ReasonMessageBeforeHello, "message received before HELLO")
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.bus.Emit(bus.EventException, r)
		}
	}()
	if err := p.Invoke(ctx); err != nil {
		d.bus.Emit(bus.EventException, err)
	}
}
