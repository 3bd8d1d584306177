// Package mdns implements the wire encoding shared with the host-
// configuration protocol's record-style option layout: length-prefixed
// domain labels, compression pointers, and fixed-width header counts. Only
// decode/encode is in scope here — no multicast socket layer.
package mdns

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// DNS record types this decoder recognises.
const (
	TypeA    uint16 = 1
	TypeAAAA uint16 = 28
	TypePTR  uint16 = 12
	TypeSRV  uint16 = 33

	// ClassIN is the Internet record class.
	ClassIN uint16 = 1
)

const pointerMarker = 0xC0

// Header is the fixed 12-byte section counting each following record
// section.
type Header struct {
	ID      uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// Question is one entry of the question section.
type Question struct {
	Domain  string
	Type    uint16
	Class   uint16
	Unicast bool
}

// Record is one resource record, shared by the answer, authority, and
// additional sections.
type Record struct {
	Domain string
	Type   uint16
	Class  uint16
	Flush  bool
	TTL    uint32
	Data   []byte
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readUint16(b []byte, off int) (uint16, int, error) {
	if off+2 > len(b) {
		return 0, off, fmt.Errorf("mdns: truncated reading uint16 at offset %d", off)
	}
	return binary.BigEndian.Uint16(b[off : off+2]), off + 2, nil
}

func readUint32(b []byte, off int) (uint32, int, error) {
	if off+4 > len(b) {
		return 0, off, fmt.Errorf("mdns: truncated reading uint32 at offset %d", off)
	}
	return binary.BigEndian.Uint32(b[off : off+4]), off + 4, nil
}

func (h Header) serialize(buf *bytes.Buffer) {
	writeUint16(buf, h.ID)
	writeUint16(buf, h.Flags)
	writeUint16(buf, h.QDCount)
	writeUint16(buf, h.ANCount)
	writeUint16(buf, h.NSCount)
	writeUint16(buf, h.ARCount)
}

func (h *Header) deserialize(b []byte, off int) (int, error) {
	fields := []*uint16{&h.ID, &h.Flags, &h.QDCount, &h.ANCount, &h.NSCount, &h.ARCount}
	var err error
	for _, f := range fields {
		*f, off, err = readUint16(b, off)
		if err != nil {
			return off, err
		}
	}
	return off, nil
}

// writeDomain emits domain as length-prefixed ASCII labels terminated by a
// zero-length label. It never emits a compression pointer.
func writeDomain(buf *bytes.Buffer, domain string) error {
	domain = strings.TrimSuffix(domain, ".")
	if domain == "" {
		buf.WriteByte(0)
		return nil
	}
	for _, label := range strings.Split(domain, ".") {
		if len(label) > 63 {
			return fmt.Errorf("mdns: label %q exceeds 63 bytes", label)
		}
		for i := 0; i < len(label); i++ {
			if label[i] >= 0x80 {
				return fmt.Errorf("mdns: label %q is not ASCII", label)
			}
		}
		buf.WriteByte(byte(len(label)))
		buf.WriteString(label)
	}
	buf.WriteByte(0)
	return nil
}

// readDomain decodes a domain name starting at off within the full message
// buffer b, following compression pointers (top two bits set) as needed.
// It returns the offset immediately after the domain's own encoding —
// which, for a name ending in a pointer, is the byte past the pointer, not
// past whatever it points to.
func readDomain(b []byte, off int) (string, int, error) {
	var labels []string
	cur := off
	end := -1 // offset to resume at once a pointer is followed
	visited := 0

	for {
		if cur >= len(b) {
			return "", off, fmt.Errorf("mdns: truncated domain at offset %d", cur)
		}
		size := b[cur]
		if size == 0 {
			cur++
			break
		}
		if size&pointerMarker == pointerMarker {
			if cur+1 >= len(b) {
				return "", off, fmt.Errorf("mdns: truncated compression pointer at offset %d", cur)
			}
			if end == -1 {
				end = cur + 2
			}
			pointer := (int(size&^pointerMarker) << 8) | int(b[cur+1])
			if pointer >= off {
				return "", off, fmt.Errorf("mdns: forward or self compression pointer at offset %d", cur)
			}
			cur = pointer
			visited++
			if visited > len(b) {
				return "", off, fmt.Errorf("mdns: compression pointer loop near offset %d", off)
			}
			continue
		}
		if size > 63 {
			return "", off, fmt.Errorf("mdns: invalid label length %d at offset %d", size, cur)
		}
		start := cur + 1
		labelEnd := start + int(size)
		if labelEnd > len(b) {
			return "", off, fmt.Errorf("mdns: truncated label at offset %d", cur)
		}
		label := b[start:labelEnd]
		for _, ch := range label {
			if ch >= 0x80 {
				return "", off, fmt.Errorf("mdns: non-ASCII byte in label at offset %d", start)
			}
		}
		labels = append(labels, string(label))
		cur = labelEnd
	}

	if end == -1 {
		end = cur
	}
	return strings.Join(labels, "."), end, nil
}

func (q Question) serialize(buf *bytes.Buffer) error {
	if err := writeDomain(buf, q.Domain); err != nil {
		return err
	}
	writeUint16(buf, q.Type)
	class := q.Class
	if q.Unicast {
		class |= 1 << 15
	}
	writeUint16(buf, class)
	return nil
}

func (q *Question) deserialize(b []byte, off int) (int, error) {
	domain, off, err := readDomain(b, off)
	if err != nil {
		return off, err
	}
	q.Domain = domain
	if q.Type, off, err = readUint16(b, off); err != nil {
		return off, err
	}
	var raw uint16
	if raw, off, err = readUint16(b, off); err != nil {
		return off, err
	}
	q.Unicast = raw&(1<<15) != 0
	q.Class = raw &^ (1 << 15)
	return off, nil
}

func (r Record) serialize(buf *bytes.Buffer) error {
	if err := writeDomain(buf, r.Domain); err != nil {
		return err
	}
	writeUint16(buf, r.Type)
	class := r.Class
	if r.Flush {
		class |= 1 << 15
	}
	writeUint16(buf, class)
	writeUint32(buf, r.TTL)
	writeUint16(buf, uint16(len(r.Data)))
	buf.Write(r.Data)
	return nil
}

func (r *Record) deserialize(b []byte, off int) (int, error) {
	domain, off, err := readDomain(b, off)
	if err != nil {
		return off, err
	}
	r.Domain = domain
	if r.Type, off, err = readUint16(b, off); err != nil {
		return off, err
	}
	var raw uint16
	if raw, off, err = readUint16(b, off); err != nil {
		return off, err
	}
	r.Flush = raw&(1<<15) != 0
	r.Class = raw &^ (1 << 15)
	if r.TTL, off, err = readUint32(b, off); err != nil {
		return off, err
	}
	var dataLen uint16
	if dataLen, off, err = readUint16(b, off); err != nil {
		return off, err
	}
	if off+int(dataLen) > len(b) {
		return off, fmt.Errorf("mdns: truncated record data at offset %d", off)
	}
	r.Data = append([]byte(nil), b[off:off+int(dataLen)]...)
	return off + int(dataLen), nil
}
