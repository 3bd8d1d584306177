package dhcp4

import "bytes"

// ClientID returns the stable client identifier for a packet: the explicit
// ClientID option (61) if present, otherwise htype concatenated with the
// first hlen bytes of chaddr.
func (p *Packet) ClientID() []byte {
	if id, ok := p.Options.ClientID(); ok {
		return id
	}
	hlen := int(p.HLen)
	if hlen > chaddrLen {
		hlen = chaddrLen
	}
	id := make([]byte, 0, hlen+1)
	id = append(id, p.HType)
	id = append(id, p.CHAddr[:hlen]...)
	return id
}

// EqualClientID reports whether two client identifiers are the same.
func EqualClientID(a, b []byte) bool {
	return bytes.Equal(a, b)
}
