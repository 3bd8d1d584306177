package addrset

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRangeAndSorted(t *testing.T) {
	s := Range(net.IPv4(192, 0, 2, 10), net.IPv4(192, 0, 2, 12))
	require.Equal(t, 3, s.Len())

	got := s.Sorted()
	require.Len(t, got, 3)
	require.True(t, got[0].Equal(net.IPv4(192, 0, 2, 10)))
	require.True(t, got[2].Equal(net.IPv4(192, 0, 2, 12)))
}

func TestContains(t *testing.T) {
	s := New(net.IPv4(10, 0, 0, 1))
	require.True(t, s.Contains(net.IPv4(10, 0, 0, 1)))
	require.False(t, s.Contains(net.IPv4(10, 0, 0, 2)))
}

func TestUnionAndSubtract(t *testing.T) {
	a := New(net.IPv4(10, 0, 0, 1), net.IPv4(10, 0, 0, 2))
	b := New(net.IPv4(10, 0, 0, 2), net.IPv4(10, 0, 0, 3))

	u := a.Union(b)
	require.Equal(t, 3, u.Len())

	d := a.Subtract(b)
	require.Equal(t, 1, d.Len())
	require.True(t, d.Contains(net.IPv4(10, 0, 0, 1)))
}
