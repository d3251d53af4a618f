package netconn

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Wizzerinus/magicnet/bus"
	"github.com/Wizzerinus/magicnet/netcfg"
	"github.com/Wizzerinus/magicnet/observability"
	"github.com/Wizzerinus/magicnet/protocol"
	"github.com/Wizzerinus/magicnet/wireerr"
)

// firstDynamicRepository is where the server-assigned repository counter
// starts; 1..127 are reserved for statically configured authorities.
const firstDynamicRepository = 128

// NetworkManager is the root node: it owns the transport manager, the
// dispatcher, and the handshake bookkeeping, and exposes the send/shutdown
// surface applications use. The object registry and object manager
// (package netobject) are wired in by the application on top of this, since
// netobject depends on netconn rather than the reverse.
type NetworkManager struct {
	config netcfg.Config
	bus    *bus.Bus
	log    observability.Logger

	transportManager *TransportManager
	dispatcher       *Dispatcher

	nextRepo uint32
}

// New validates cfg and returns a ready-to-use NetworkManager with the
// handshake processors already registered. Application processors (codes
// >= netcfg.FirstApplicationMessageType) are supplied via RegisterProcessor.
func New(cfg netcfg.Config, resolve ResolveDestination, b *bus.Bus, log observability.Logger) (*NetworkManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b == nil {
		b = bus.New()
	}
	if log == nil {
		log = observability.NoopLogger()
	}
	nm := &NetworkManager{
		config:           cfg,
		bus:              b,
		log:              log,
		transportManager: NewTransportManager("local", resolve, b, log),
		dispatcher:       NewDispatcher(b, log),
		nextRepo:         firstDynamicRepository,
	}
	registerHandshakeProcessors(nm)
	b.Listen(bus.Owner("network-manager"), bus.EventDatagramReceived, 0, nm.onDatagramReceived)
	if cfg.ShutdownOnDisconnect {
		b.Listen(bus.Owner("network-manager"), bus.EventHandleDestroyed, 0, nm.shutdownWithHandle)
	}
	return nm, nil
}

// Bus, Dispatcher, TransportManager, and Config expose the manager's
// collaborators so netobject and batteries can wire themselves in.
func (nm *NetworkManager) Bus() *bus.Bus                       { return nm.bus }
func (nm *NetworkManager) Dispatcher() *Dispatcher             { return nm.dispatcher }
func (nm *NetworkManager) TransportManager() *TransportManager { return nm.transportManager }
func (nm *NetworkManager) Config() netcfg.Config               { return nm.config }
func (nm *NetworkManager) Logger() observability.Logger        { return nm.log }

// RegisterProcessor attaches an application-defined processor for an
// application message type code. Codes in the reserved range are rejected;
// netcfg.Config.Validate already checked ExtraMessageTypes eagerly, but this
// guards direct callers too.
func (nm *NetworkManager) RegisterProcessor(t protocol.MessageType, p Processor) error {
	if uint16(t) < netcfg.FirstApplicationMessageType {
		return wireerr.NewConfigError(wireerr.KindReservedMessageTypeOverride,
			"message type %d is in the reserved range (< %d)", t, netcfg.FirstApplicationMessageType)
	}
	nm.dispatcher.Register(t, p)
	return nil
}

// OpenServer registers a handler for remoteRole. The handler itself sends
// no MOTD; links accepted through AcceptServerLink do.
func (nm *NetworkManager) OpenServer(remoteRole string, encoder protocol.Encoder, filter HandleFilter, send LinkSender, closeFn LinkCloser) *TransportHandler {
	handler := NewTransportHandler(remoteRole, encoder, filter, send, closeFn, nm.bus, nm.log)
	nm.transportManager.RegisterHandler(remoteRole, handler)
	return handler
}

// OpenClient registers a handler for remoteRole exactly as OpenServer does;
// links accepted through AcceptClientLink send no MOTD and wait for one.
func (nm *NetworkManager) OpenClient(remoteRole string, encoder protocol.Encoder, filter HandleFilter, send LinkSender, closeFn LinkCloser) *TransportHandler {
	return nm.OpenServer(remoteRole, encoder, filter, send, closeFn)
}

// AcceptServerLink is called by a transport adapter when a new inbound link
// arrives on a server-side handler: it creates the handle and, if this node
// has a configured MOTD, sends it immediately (before activation).
func (nm *NetworkManager) AcceptServerLink(handler *TransportHandler, opaqueLink any) *Handle {
	h := handler.NewHandle(opaqueLink)
	if nm.config.MOTD != "" {
		if err := handler.SendMotd(h, nm.config.MOTD); err != nil {
			nm.log.Warn("failed to send MOTD", "error", err)
		}
	}
	return h
}

// AcceptClientLink is called by a transport adapter when this node
// successfully connects out to a server: it creates the handle and waits
// for MOTD (no send here).
func (nm *NetworkManager) AcceptClientLink(handler *TransportHandler, opaqueLink any) *Handle {
	return handler.NewHandle(opaqueLink)
}

// Send enqueues msg on the transport manager (batched if inside a
// MessageQueue scope, otherwise delivered immediately).
func (nm *NetworkManager) Send(msg protocol.Message) {
	nm.transportManager.Send(msg)
}

// Shutdown sends SHUTDOWN to every connected peer, then destroys every
// handle on every transport handler.
func (nm *NetworkManager) Shutdown() {
	nm.bus.Emit(bus.EventBeforeShutdown)
	nm.transportManager.MessageQueue(func() {
		nm.Send(protocol.Message{Type: protocol.MsgSHUTDOWN})
	})
	for _, role := range nm.transportManager.knownRoles() {
		if handler, ok := nm.transportManager.Handler(role); ok {
			handler.Shutdown()
		}
	}
}

func (nm *NetworkManager) nextRepository() uint32 {
	repo := nm.nextRepo
	nm.nextRepo++
	return repo
}

// onDatagramReceived is the bus listener that turns a TransportHandler's
// DATAGRAM_RECEIVED fan-out into individual dispatcher invocations, each
// wrapped in a re-entrant message queue scope so any sends a processor
// issues while handling one datagram are batched together. The whole batch
// is wrapped in one span and timed as a single dispatch.
func (nm *NetworkManager) onDatagramReceived(args ...any) {
	if len(args) != 2 {
		return
	}
	messages, ok := args[0].([]protocol.Message)
	if !ok {
		return
	}
	handle, ok := args[1].(*Handle)
	if !ok {
		return
	}

	role := handle.Transport().Role()
	start := time.Now()
	_, span := observability.StartSpan(context.Background(), "netconn.dispatch",
		attribute.String("netconn.role", role),
		attribute.Int("netconn.message_count", len(messages)),
	)
	defer span.End()

	nm.transportManager.MessageQueue(func() {
		for _, msg := range messages {
			pctx := &ProcessContext{Message: msg, Sender: handle, Manager: nm}
			nm.dispatcher.ProcessMessage(pctx)
		}
	})
	observability.RecordDispatchDuration(role, time.Since(start).Seconds())
}

// shutdownWithHandle shuts the whole manager down in response to any handle
// being destroyed; only listened for when Config.ShutdownOnDisconnect is
// set.
func (nm *NetworkManager) shutdownWithHandle(args ...any) {
	nm.Shutdown()
}
