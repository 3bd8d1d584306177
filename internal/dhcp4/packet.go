// Package dhcp4 implements the wire format for the IPv4 host-configuration
// protocol: a fixed 236-byte prefix, a 4-byte magic cookie, and a
// variable-length option section.
package dhcp4

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
)

// Opcodes.
const (
	OpRequest uint8 = 1
	OpReply   uint8 = 2
)

// HTypeEthernet is the only hardware type this codec understands.
const HTypeEthernet uint8 = 1

// BroadcastFlag is bit 15 of the 16-bit flags field.
const BroadcastFlag uint16 = 1 << 15

const (
	fixedPrefixLen = 236
	magicCookieLen = 4
	chaddrLen      = 16
	snameLen       = 64
	fileLen        = 128
)

var magicCookie = [magicCookieLen]byte{99, 130, 83, 99}

// Errors returned by ParsePacket.
var (
	ErrShortPacket   = errors.New("dhcp4: packet shorter than fixed prefix")
	ErrInvalidPacket = errors.New("dhcp4: malformed option section")
	ErrUnknownMagic  = errors.New("dhcp4: missing or unrecognised magic cookie")
)

// Packet is a parsed DHCPv4 request or reply.
type Packet struct {
	Op     uint8
	HType  uint8
	HLen   uint8
	Hops   uint8
	Xid    uint32
	Secs   uint16
	Flags  uint16
	CIAddr net.IP
	YIAddr net.IP
	SIAddr net.IP
	GIAddr net.IP
	CHAddr [chaddrLen]byte
	SName  [snameLen]byte
	File   [fileLen]byte
	Options OptionMap
}

// Broadcast reports whether the broadcast flag is set.
func (p *Packet) Broadcast() bool {
	return p.Flags&BroadcastFlag != 0
}

// ParsePacket decodes a packet from its wire representation.
func ParsePacket(b []byte) (*Packet, error) {
	if len(b) < fixedPrefixLen {
		return nil, ErrShortPacket
	}

	p := &Packet{}
	p.Op = b[0]
	p.HType = b[1]
	p.HLen = b[2]
	p.Hops = b[3]
	p.Xid = binary.BigEndian.Uint32(b[4:8])
	p.Secs = binary.BigEndian.Uint16(b[8:10])
	p.Flags = binary.BigEndian.Uint16(b[10:12])
	p.CIAddr = ipv4(b[12:16])
	p.YIAddr = ipv4(b[16:20])
	p.SIAddr = ipv4(b[20:24])
	p.GIAddr = ipv4(b[24:28])
	copy(p.CHAddr[:], b[28:44])
	copy(p.SName[:], b[44:108])
	copy(p.File[:], b[108:236])

	rest := b[fixedPrefixLen:]
	if len(rest) < magicCookieLen || !equalCookie(rest[:magicCookieLen]) {
		return nil, ErrUnknownMagic
	}

	opts, err := parseOptions(rest[magicCookieLen:])
	if err != nil {
		return nil, err
	}
	p.Options = opts
	return p, nil
}

func equalCookie(b []byte) bool {
	return b[0] == magicCookie[0] && b[1] == magicCookie[1] && b[2] == magicCookie[2] && b[3] == magicCookie[3]
}

func ipv4(b []byte) net.IP {
	ip := make(net.IP, 4)
	copy(ip, b)
	return ip
}

// ToBytes serializes the packet, splitting options longer than 255 bytes
// into successive same-code records and terminating with 0xFF.
func (p *Packet) ToBytes() []byte {
	buf := make([]byte, fixedPrefixLen, fixedPrefixLen+magicCookieLen+64)
	buf[0] = p.Op
	buf[1] = p.HType
	buf[2] = p.HLen
	buf[3] = p.Hops
	binary.BigEndian.PutUint32(buf[4:8], p.Xid)
	binary.BigEndian.PutUint16(buf[8:10], p.Secs)
	binary.BigEndian.PutUint16(buf[10:12], p.Flags)
	putIPv4(buf[12:16], p.CIAddr)
	putIPv4(buf[16:20], p.YIAddr)
	putIPv4(buf[20:24], p.SIAddr)
	putIPv4(buf[24:28], p.GIAddr)
	copy(buf[28:44], p.CHAddr[:])
	copy(buf[44:108], p.SName[:])
	copy(buf[108:236], p.File[:])

	buf = append(buf, magicCookie[:]...)
	buf = append(buf, p.Options.serialize()...)
	return buf
}

func putIPv4(dst []byte, ip net.IP) {
	if v4 := ip.To4(); v4 != nil {
		copy(dst, v4)
	}
}

// String renders a short summary for log lines.
func (p *Packet) String() string {
	mt, _ := p.Options.MessageType()
	return fmt.Sprintf("op=%d mt=%s xid=%08x yiaddr=%s chaddr=%x", p.Op, mt, p.Xid, p.YIAddr, p.CHAddr[:p.HLen])
}
