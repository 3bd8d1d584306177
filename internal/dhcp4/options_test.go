package dhcp4

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptionMapAccessorsAbsentNeverPanic(t *testing.T) {
	m := OptionMap{}

	_, ok := m.MessageType()
	require.False(t, ok)

	_, ok = m.ServerID()
	require.False(t, ok)

	_, ok = m.ClientID()
	require.False(t, ok)

	_, ok = m.RequestedIPAddress()
	require.False(t, ok)

	_, ok = m.LeaseTime()
	require.False(t, ok)

	_, ok = m.SubnetMask()
	require.False(t, ok)

	_, ok = m.Routers()
	require.False(t, ok)

	_, ok = m.DNSServers()
	require.False(t, ok)

	_, ok = m.DomainName()
	require.False(t, ok)
}

func TestOptionMapMalformedMessageType(t *testing.T) {
	m := OptionMap{OptMessageType: {1, 2}}
	_, ok := m.MessageType()
	require.False(t, ok)
}

func TestOptionMapRequests(t *testing.T) {
	m := OptionMap{}
	require.False(t, m.Requests(OptRouter))

	m[OptParameterRequestList] = []byte{OptRouter, OptDomainName}
	require.True(t, m.Requests(OptRouter))
	require.True(t, m.Requests(OptDomainName))
	require.False(t, m.Requests(OptDomainNameServer))
}

func TestRoutersAndDNSServersEncodeDecode(t *testing.T) {
	m := OptionMap{}
	ips := []net.IP{net.IPv4(192, 0, 2, 1), net.IPv4(192, 0, 2, 2)}
	SetIPv4List(m, OptRouter, ips)

	got, ok := m.Routers()
	require.True(t, ok)
	require.Len(t, got, 2)
	require.True(t, got[0].Equal(ips[0]))
	require.True(t, got[1].Equal(ips[1]))

	SetIPv4List(m, OptDomainNameServer, ips)

	dns, ok := m.DNSServers()
	require.True(t, ok)
	require.Len(t, dns, 2)
	require.True(t, dns[0].Equal(ips[0]))
	require.True(t, dns[1].Equal(ips[1]))
}

func TestEncodeValueRegistry(t *testing.T) {
	b, err := EncodeValue(OptIPAddressLeaseTime, uint32(3600))
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0x0e, 0x10}, b)

	b, err = EncodeValue(OptRouter, []string{"192.0.2.1"})
	require.NoError(t, err)
	require.Equal(t, net.IPv4(192, 0, 2, 1).To4(), net.IP(b))

	b, err = EncodeValue(OptDomainName, "example.test")
	require.NoError(t, err)
	require.Equal(t, "example.test", string(b))
}
