// Command magicnet-demo wires a server and client network manager together
// in-process and exchanges a handshake plus one application message, to
// exercise the stack end to end: netconn for connections and transport,
// batteries for the link glue and logging bridge, typecheck for message
// validation.
//
// Usage:
//
//	go run ./cmd -motd "welcome to the mesh"
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Wizzerinus/magicnet/batteries"
	"github.com/Wizzerinus/magicnet/bus"
	"github.com/Wizzerinus/magicnet/netcfg"
	"github.com/Wizzerinus/magicnet/netconn"
	"github.com/Wizzerinus/magicnet/observability"
	"github.com/Wizzerinus/magicnet/protocol"
	"github.com/Wizzerinus/magicnet/typecheck"
)

// msgPing is a demo application message carrying a single string payload.
const msgPing protocol.MessageType = netcfg.FirstApplicationMessageType

func main() {
	motd := flag.String("motd", "welcome to the mesh", "message of the day the server sends on connect")
	flag.Parse()

	logger := observability.NewStdLogger()

	serverBus, clientBus := bus.New(), bus.New()
	serverLog := batteries.NewLoggingSink(serverBus, logger)
	clientLog := batteries.NewLoggingSink(clientBus, logger)
	defer serverLog.Detach()
	defer clientLog.Detach()

	serverCfg := netcfg.Config{MOTD: *motd, ExtraMessageTypes: []uint16{uint16(msgPing)}}
	clientCfg := netcfg.Config{ExtraMessageTypes: []uint16{uint16(msgPing)}}

	serverNM, err := netconn.New(serverCfg, nil, serverBus, logger)
	if err != nil {
		logger.Error("server config rejected", "error", err)
		os.Exit(1)
	}
	clientNM, err := netconn.New(clientCfg, nil, clientBus, logger)
	if err != nil {
		logger.Error("client config rejected", "error", err)
		os.Exit(1)
	}

	serverHandle, clientHandle := batteries.LinkLocalPair(serverNM, clientNM, "client", "server", batteries.JSONEncoder{})

	validator := batteries.NewMessageValidator()
	validator.Register(msgPing, typecheck.TupleExpr{Items: []typecheck.Expr{typecheck.S256}})
	if h, ok := serverNM.TransportManager().Handler("client"); ok {
		h.Middlewares().Register(validator.Middleware(serverBus, 0))
	}
	if h, ok := clientNM.TransportManager().Handler("server"); ok {
		h.Middlewares().Register(validator.Middleware(clientBus, 0))
	}

	serverBus.Listen("demo", bus.EventDatagramReceived, 0, func(args ...any) {
		for _, msg := range args[0].([]protocol.Message) {
			if msg.Type == msgPing {
				logger.Info("server received ping", "payload", msg.Params[0])
			}
		}
	})

	clientNM.Send(protocol.Message{Type: msgPing, Params: []any{"hello from the client"}}.WithDestination(clientHandle.UUID()))
	_ = serverHandle

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	fmt.Println("magicnet demo running, press Ctrl+C to stop")
	<-sigCh

	clientNM.Shutdown()
	serverNM.Shutdown()
	logger.Info("magicnet demo stopped")
}
