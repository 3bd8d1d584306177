package iface

import (
	"fmt"
	"net"
)

// UDPTransport is the plain-UDP InterfaceInfoProvider/PacketFramer/
// RawSender cmd/dhcpd composes against. DHCP's offer/ack-before-ARP case is
// handled by relying on the kernel's broadcast route rather than framing
// raw Ethernet frames, which keeps this implementation portable across the
// platforms net.ListenPacket already supports.
type UDPTransport struct {
	conn *net.UDPConn
}

// NewUDPTransport binds a UDP socket at addr (typically 0.0.0.0:67).
func NewUDPTransport(addr *net.UDPAddr) (*UDPTransport, error) {
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind udp listener on %s: %w", addr, err)
	}
	return &UDPTransport{conn: conn}, nil
}

// Close closes the underlying socket.
func (t *UDPTransport) Close() error {
	return t.conn.Close()
}

// ReadFrom reads one packet, returning its payload and source address.
func (t *UDPTransport) ReadFrom(buf []byte) (int, *net.UDPAddr, error) {
	n, addr, err := t.conn.ReadFromUDP(buf)
	if err != nil {
		return 0, nil, fmt.Errorf("udp read failed: %w", err)
	}
	return n, addr, nil
}

// IPv4ByIfIndex resolves the first IPv4 address bound to the interface.
func (t *UDPTransport) IPv4ByIfIndex(ifIndex uint32) (net.IP, error) {
	iface, err := net.InterfaceByIndex(int(ifIndex))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve interface %d: %w", ifIndex, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, fmt.Errorf("failed to read addresses for interface %d: %w", ifIndex, err)
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if v4 := ipNet.IP.To4(); v4 != nil {
			return v4, nil
		}
	}
	return nil, fmt.Errorf("interface %d has no IPv4 address", ifIndex)
}

// LinkAddrByIfIndex resolves the interface's hardware address.
func (t *UDPTransport) LinkAddrByIfIndex(ifIndex uint32) (net.HardwareAddr, error) {
	iface, err := net.InterfaceByIndex(int(ifIndex))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve interface %d: %w", ifIndex, err)
	}
	return iface.HardwareAddr, nil
}

// Frame is a no-op: the UDP socket's own IPv4/UDP framing is all that's
// needed once the kernel route handles delivery, so the reply bytes pass
// through unchanged.
func (t *UDPTransport) Frame(reply []byte, _ net.HardwareAddr, _ uint32) ([]byte, error) {
	return reply, nil
}

// Send broadcasts frame on port 68, the standard client port, since a
// client with no IP yet can only be reached by broadcast.
func (t *UDPTransport) Send(frame []byte, _ uint32) error {
	dst := &net.UDPAddr{IP: net.IPv4bcast, Port: 68}
	if _, err := t.conn.WriteToUDP(frame, dst); err != nil {
		return fmt.Errorf("udp broadcast send failed: %w", err)
	}
	return nil
}

var (
	_ InterfaceInfoProvider = (*UDPTransport)(nil)
	_ PacketFramer          = (*UDPTransport)(nil)
	_ RawSender             = (*UDPTransport)(nil)
)
