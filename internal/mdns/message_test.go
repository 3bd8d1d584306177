package mdns

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	h := Header{ID: 593, Flags: 795, QDCount: 5839, ANCount: 9009, NSCount: 8583, ARCount: 7764}
	h.serialize(&buf)

	var got Header
	n, err := got.deserialize(buf.Bytes(), 0)
	require.NoError(t, err)
	require.Equal(t, buf.Len(), n)
	if diff := cmp.Diff(h, got); diff != "" {
		t.Errorf("header round trip mismatch (-want +got)\n%s", diff)
	}
}

func TestDomainRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	domain := "this.is.a.random.domain.to.check"
	require.NoError(t, writeDomain(&buf, domain))

	got, n, err := readDomain(buf.Bytes(), 0)
	require.NoError(t, err)
	require.Equal(t, buf.Len(), n)
	require.Equal(t, domain, got)
}

func TestDomainFollowsCompressionPointer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeDomain(&buf, "example.test"))
	baseOffset := buf.Len()
	buf.WriteByte(pointerMarker)
	buf.WriteByte(0)

	got, n, err := readDomain(buf.Bytes(), baseOffset)
	require.NoError(t, err)
	require.Equal(t, baseOffset+2, n)
	require.Equal(t, "example.test", got)
}

func TestDomainRejectsForwardPointer(t *testing.T) {
	buf := []byte{pointerMarker, 0x05}
	_, _, err := readDomain(buf, 0)
	require.Error(t, err)
}

func TestQuestionRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	q := Question{Domain: "some.random.thing.local", Type: 5954, Unicast: true}
	require.NoError(t, q.serialize(&buf))

	var got Question
	n, err := got.deserialize(buf.Bytes(), 0)
	require.NoError(t, err)
	require.Equal(t, buf.Len(), n)
	if diff := cmp.Diff(q, got); diff != "" {
		t.Errorf("question round trip mismatch (-want +got)\n%s", diff)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	r := Record{Domain: "some.random.thing", Type: 1234, Class: 8765, Flush: true, TTL: 18656, Data: []byte{45, 145, 253, 167, 34, 74}}
	require.NoError(t, r.serialize(&buf))

	var got Record
	n, err := got.deserialize(buf.Bytes(), 0)
	require.NoError(t, err)
	require.Equal(t, buf.Len(), n)
	if diff := cmp.Diff(r, got); diff != "" {
		t.Errorf("record round trip mismatch (-want +got)\n%s", diff)
	}
}

func TestRecordRejectsTruncatedData(t *testing.T) {
	var buf bytes.Buffer
	r := Record{Domain: "x", Type: 1, Class: ClassIN, TTL: 1, Data: []byte{1, 2, 3}}
	require.NoError(t, r.serialize(&buf))

	truncated := buf.Bytes()[:buf.Len()-1]
	var got Record
	_, err := got.deserialize(truncated, 0)
	require.Error(t, err)
}
