// Package iface defines the boundary collaborators spec.md §6 specifies
// only at the interface: interface address lookup, link-layer framing for
// replies sent before the client has an IP, and raw transmission. cmd/dhcpd
// wires the plain-UDP implementation; tests substitute fakes.
package iface

import "net"

// InterfaceInfoProvider resolves interface metadata needed to answer
// get_ipv4_by_ifidx / get_linkaddr_by_ifidx (spec.md §6).
type InterfaceInfoProvider interface {
	IPv4ByIfIndex(ifIndex uint32) (net.IP, error)
	LinkAddrByIfIndex(ifIndex uint32) (net.HardwareAddr, error)
}

// PacketFramer wraps a serialized reply in link-layer framing when the
// client has no IP address yet (offer/ack before ARP resolves).
type PacketFramer interface {
	Frame(reply []byte, dstHW net.HardwareAddr, ifIndex uint32) ([]byte, error)
}

// RawSender transmits an already-framed packet on the wire.
type RawSender interface {
	Send(frame []byte, ifIndex uint32) error
}
