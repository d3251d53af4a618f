package netconn

import (
	"bytes"
	"fmt"

	"github.com/Wizzerinus/magicnet/bus"
	"github.com/Wizzerinus/magicnet/observability"
	"github.com/Wizzerinus/magicnet/protocol"
)

// registerHandshakeProcessors wires the five pre-activation message
// processors (MOTD, HELLO, DISCONNECT, SHUTDOWN, SHARED_PARAMETER) onto nm's
// dispatcher. None of them require hello: they are exactly the messages a
// handle may legitimately send before it is activated.
func registerHandshakeProcessors(nm *NetworkManager) {
	nm.dispatcher.Register(protocol.MsgMOTD, NewProcessor(false, processMotd))
	nm.dispatcher.Register(protocol.MsgHELLO, NewProcessor(false, processHello))
	nm.dispatcher.Register(protocol.MsgDISCONNECT, NewProcessor(false, processDisconnect))
	nm.dispatcher.Register(protocol.MsgSHUTDOWN, NewProcessor(false, processShutdown))
	nm.dispatcher.Register(protocol.MsgSHAREDPARAMETER, NewProcessor(false, processSharedParameter))
}

func processMotd(ctx *ProcessContext) error {
	if len(ctx.Message.Params) != 1 {
		return fmt.Errorf("netconn: MOTD expects 1 parameter, got %d", len(ctx.Message.Params))
	}
	text, _ := ctx.Message.Params[0].(string)

	if ctx.Manager.config.MOTD != "" {
		// We already configured our own MOTD (we think we're the server
		// side); an incoming peer MOTD means both sides think they are the
		// server. Warn, but don't crash the link.
		ctx.Manager.bus.Emit(bus.EventWarning, "received unexpected peer MOTD while locally configured as server", text)
	}

	ctx.Manager.bus.Emit(bus.EventMotdSet, text)

	hello := protocol.Message{
		Type:   protocol.MsgHELLO,
		Params: []any{protocol.ProtocolVersion, ctx.Manager.config.NetworkHash},
	}.WithDestination(ctx.Sender.UUID())
	return ctx.Sender.Transport().Deliver([]protocol.Message{hello})
}

func processHello(ctx *ProcessContext) error {
	if ctx.Sender.Activated() {
		observability.RecordHandshake("hello_multiple")
		ctx.Sender.SendDisconnect(protocol.ReasonHelloMultiple, "duplicate HELLO")
		return nil
	}
	if len(ctx.Message.Params) != 2 {
		return fmt.Errorf("netconn: HELLO expects 2 parameters, got %d", len(ctx.Message.Params))
	}
	protoVer, _ := ctx.Message.Params[0].(uint16)
	if protoVer != protocol.ProtocolVersion {
		observability.RecordHandshake("version_mismatch")
		ctx.Sender.SendDisconnect(protocol.ReasonHelloInvalidProtoVer,
			fmt.Sprintf("expected version %d, got %d", protocol.ProtocolVersion, protoVer))
		return nil
	}
	hash, _ := ctx.Message.Params[1].([]byte)
	if !bytes.Equal(hash, ctx.Manager.config.NetworkHash) {
		observability.RecordHandshake("hash_mismatch")
		ctx.Sender.SendDisconnect(protocol.ReasonHelloHashMismatch, "network hash mismatch")
		return nil
	}

	ctx.Sender.Activate()
	ctx.Sender.SetSharedParameter("rp", ctx.Manager.nextRepository())
	observability.RecordHandshake("activated")
	return nil
}

func processDisconnect(ctx *ProcessContext) error {
	if len(ctx.Message.Params) != 2 {
		return fmt.Errorf("netconn: DISCONNECT expects 2 parameters, got %d", len(ctx.Message.Params))
	}
	reason, _ := ctx.Message.Params[0].(uint8)
	detail, _ := ctx.Message.Params[1].(string)
	desc := protocol.DisconnectReasonText(protocol.DisconnectReason(reason))
	if detail != "" {
		desc = desc + ": " + detail
	}
	ctx.Manager.bus.Emit(bus.EventDisconnect, desc)
	ctx.Sender.Destroy()
	return nil
}

func processShutdown(ctx *ProcessContext) error {
	ctx.Sender.Destroy()
	return nil
}

func processSharedParameter(ctx *ProcessContext) error {
	if len(ctx.Message.Params) != 2 {
		return fmt.Errorf("netconn: SHARED_PARAMETER expects 2 parameters, got %d", len(ctx.Message.Params))
	}
	name, _ := ctx.Message.Params[0].(string)
	value := ctx.Message.Params[1]
	ctx.Sender.setSharedParameterLocal(name, value)
	return nil
}
