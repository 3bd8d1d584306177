package pool

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSQLiteStorePersistsLeaseAndHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leases.db")
	store, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	lease := Lease{IP: net.IPv4(192, 0, 2, 50), ClientID: []byte{0xde, 0xad, 0xbe, 0xef}, Expire: time.Unix(5000, 0)}
	require.NoError(t, store.Put(lease))

	got, ok, err := store.LeaseByIP(net.IPv4(192, 0, 2, 50))
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.IP.Equal(lease.IP))
	require.Equal(t, lease.ClientID, got.ClientID)
	require.Equal(t, lease.Expire.Unix(), got.Expire.Unix())

	byClient, ok, err := store.LeaseByClient(lease.ClientID)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, byClient.IP.Equal(lease.IP))

	hist, ok, err := store.HistoryFor(lease.ClientID)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, hist.Equal(lease.IP))
}

func TestSQLiteStoreMissingLease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leases.db")
	store, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.LeaseByIP(net.IPv4(192, 0, 2, 99))
	require.NoError(t, err)
	require.False(t, ok)
}
