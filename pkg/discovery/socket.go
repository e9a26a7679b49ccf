package discovery

import (
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
)

// multicastTTL keeps M-SEARCH probes on the local segment and one hop beyond.
const multicastTTL = 2

// Socket is the UDP endpoint the engine probes and listens on.
// net.PacketConn satisfies it.
type Socket interface {
	ReadFrom(p []byte) (n int, addr net.Addr, err error)
	WriteTo(p []byte, addr net.Addr) (n int, err error)
	Close() error
}

// SocketFactory opens a fresh Socket each time discovery resumes.
type SocketFactory func() (Socket, error)

// ListenMulticast opens an IPv4 UDP socket on an ephemeral port configured
// for sending to the SSDP group. Answers are unicast back to this port.
func ListenMulticast() (Socket, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("failed to open SSDP socket: %w", err)
	}

	p := ipv4.NewPacketConn(conn)
	if err := p.SetMulticastTTL(multicastTTL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set multicast TTL: %w", err)
	}
	// loopback lets a receiver emulator on the same host answer
	_ = p.SetMulticastLoopback(true)

	return conn, nil
}
