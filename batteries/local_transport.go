package batteries

import (
	"github.com/Wizzerinus/magicnet/netconn"
	"github.com/Wizzerinus/magicnet/protocol"
)

// LinkLocalPair opens a transport handler on each of two network managers
// and wires them so every datagram one side delivers is handed directly to
// the other side's TransportHandler.DatagramReceived, with no serialization
// layer in between beyond whatever encoder is supplied. This is the
// in-process analog of a socket pair: useful for tests and for two
// application roles sharing one process.
//
// server is the MOTD-sending side (its netcfg.Config.MOTD, if set, reaches
// client immediately); client waits for MOTD the way a real dial-in peer
// would. Returns the two handles already linked; the handshake (MOTD/HELLO)
// completes synchronously inside this call if server has a MOTD configured,
// otherwise the caller is responsible for driving it (e.g. client sending
// HELLO once it has learned the network hash some other way).
func LinkLocalPair(serverNM, clientNM *netconn.NetworkManager, serverRole, clientRole string, encoder protocol.Encoder) (serverHandle, clientHandle *netconn.Handle) {
	var serverHandler, clientHandler *netconn.TransportHandler
	var sh, ch *netconn.Handle

	serverHandler = serverNM.OpenServer(clientRole, encoder, nil,
		func(_ *netconn.Handle, data []byte) error { return clientHandler.DatagramReceived(ch, data) },
		nil)
	clientHandler = clientNM.OpenClient(serverRole, encoder, nil,
		func(_ *netconn.Handle, data []byte) error { return serverHandler.DatagramReceived(sh, data) },
		nil)

	// The client handle must exist before AcceptServerLink runs, since a
	// configured MOTD is delivered synchronously during that call and the
	// server's send closure above reaches for ch immediately.
	ch = clientNM.AcceptClientLink(clientHandler, nil)
	sh = serverNM.AcceptServerLink(serverHandler, nil)
	return sh, ch
}
