package pool

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tinydhcp/tinydhcp/internal/addrset"
)

func newTestAllocator(t *testing.T, at time.Time) *Allocator {
	t.Helper()
	a := New(NewInMemory(), nil)
	a.now = func() time.Time { return at }
	return a
}

func TestAllocateHonoursRequestedAddress(t *testing.T) {
	a := newTestAllocator(t, time.Unix(1000, 0))
	candidates := addrset.Range(net.IPv4(10, 0, 0, 10), net.IPv4(10, 0, 0, 20))

	lease, err := a.Allocate([]byte{1}, net.IPv4(10, 0, 0, 15), candidates, 0, 0)
	require.NoError(t, err)
	require.True(t, lease.IP.Equal(net.IPv4(10, 0, 0, 15)))
}

func TestAllocateStickyRenewal(t *testing.T) {
	a := newTestAllocator(t, time.Unix(1000, 0))
	candidates := addrset.Range(net.IPv4(10, 0, 0, 10), net.IPv4(10, 0, 0, 20))

	first, err := a.Allocate([]byte{1}, nil, candidates, 0, 0)
	require.NoError(t, err)

	second, err := a.Allocate([]byte{1}, nil, candidates, 0, 0)
	require.NoError(t, err)
	require.True(t, first.IP.Equal(second.IP))
}

func TestAllocatePrefersHistoryWhenUnallocated(t *testing.T) {
	a := newTestAllocator(t, time.Unix(1000, 0))
	candidates := addrset.Range(net.IPv4(10, 0, 0, 10), net.IPv4(10, 0, 0, 20))

	first, err := a.Allocate([]byte{1}, net.IPv4(10, 0, 0, 12), candidates, 0, 0)
	require.NoError(t, err)
	require.True(t, first.IP.Equal(net.IPv4(10, 0, 0, 12)))

	// Lease expires; a fresh allocation for the same client with no
	// explicit request should prefer the historical address.
	expired := newTestAllocator(t, time.Unix(9999, 0))
	expired.store = a.store
	second, err := expired.Allocate([]byte{1}, nil, candidates, 0, 0)
	require.NoError(t, err)
	require.True(t, second.IP.Equal(net.IPv4(10, 0, 0, 12)))
}

func TestAllocateExhaustion(t *testing.T) {
	a := newTestAllocator(t, time.Unix(1000, 0))
	candidates := addrset.New(net.IPv4(10, 0, 0, 1))

	_, err := a.Allocate([]byte{1}, nil, candidates, 0, 0)
	require.NoError(t, err)

	_, err = a.Allocate([]byte{2}, nil, candidates, 0, 0)
	require.ErrorIs(t, err, ErrNoAssignableAddress)
}

func TestAllocateNeverDoubleBooksAnUnexpiredAddress(t *testing.T) {
	a := newTestAllocator(t, time.Unix(1000, 0))
	candidates := addrset.Range(net.IPv4(10, 0, 0, 1), net.IPv4(10, 0, 0, 2))

	first, err := a.Allocate([]byte{1}, nil, candidates, 0, 0)
	require.NoError(t, err)
	second, err := a.Allocate([]byte{2}, nil, candidates, 0, 0)
	require.NoError(t, err)
	require.False(t, first.IP.Equal(second.IP))
}

func TestLeaseDurationClamp(t *testing.T) {
	require.Equal(t, defaultLeaseTime, leaseDuration(0, 0))
	require.Equal(t, 30*time.Minute, leaseDuration(0, 30*time.Minute))
	require.Equal(t, 2*time.Hour, leaseDuration(2*time.Hour, 0))
}
