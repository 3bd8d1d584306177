package pool

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/bits-and-blooms/bitset"
	"go.uber.org/zap"

	"github.com/tinydhcp/tinydhcp/internal/addrset"
)

// defaultLeaseTime is used when a request or policy specifies no lease
// bounds at all.
const defaultLeaseTime = time.Hour

// Allocator implements the five-step address-selection precedence over a
// Store, guarded by a single coarse mutex (spec.md §4.3: "simplicity over
// throughput").
type Allocator struct {
	mu     sync.Mutex
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// New wraps store in an Allocator using the real wall clock.
func New(store Store, logger *zap.Logger) *Allocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Allocator{store: store, logger: logger.Named("pool"), now: time.Now}
}

// Allocate selects and commits a lease for clientID out of candidates,
// following spec.md §4.3's precedence: sticky renewal, then the client's
// requested address, then lease history, then the numerically lowest free
// address, returning ErrNoAssignableAddress if none remain.
func (a *Allocator) Allocate(clientID []byte, requested net.IP, candidates addrset.Set, minLease, maxLease time.Duration) (Lease, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	expire := now.Add(leaseDuration(minLease, maxLease))

	if existing, ok, err := a.store.LeaseByClient(clientID); err != nil {
		return Lease{}, fmt.Errorf("lease lookup by client failed: %w", err)
	} else if ok && !existing.Expired(now) && candidates.Contains(existing.IP) {
		return a.commit(existing.IP, clientID, expire)
	}

	if requested != nil && candidates.Contains(requested) {
		holder, ok, err := a.store.LeaseByIP(requested)
		if err != nil {
			return Lease{}, fmt.Errorf("lease lookup by address failed: %w", err)
		}
		if !ok || holder.Expired(now) || clientIDEqual(holder.ClientID, clientID) {
			return a.commit(requested, clientID, expire)
		}
	}

	if hist, ok, err := a.store.HistoryFor(clientID); err != nil {
		return Lease{}, fmt.Errorf("lease history lookup failed: %w", err)
	} else if ok && candidates.Contains(hist) {
		holder, ok, err := a.store.LeaseByIP(hist)
		if err != nil {
			return Lease{}, fmt.Errorf("lease lookup by address failed: %w", err)
		}
		if !ok || holder.Expired(now) {
			return a.commit(hist, clientID, expire)
		}
	}

	sorted := candidates.Sorted()
	occupied := bitset.New(uint(len(sorted)))
	for i, ip := range sorted {
		holder, ok, err := a.store.LeaseByIP(ip)
		if err != nil {
			return Lease{}, fmt.Errorf("lease lookup by address failed: %w", err)
		}
		if ok && !holder.Expired(now) {
			occupied.Set(uint(i))
		}
	}
	for i, ip := range sorted {
		if !occupied.Test(uint(i)) {
			return a.commit(ip, clientID, expire)
		}
	}

	return Lease{}, ErrNoAssignableAddress
}

func (a *Allocator) commit(ip net.IP, clientID []byte, expire time.Time) (Lease, error) {
	lease := Lease{IP: ip, ClientID: clientID, Expire: expire}
	if err := a.store.Put(lease); err != nil {
		return Lease{}, fmt.Errorf("lease commit failed: %w", err)
	}
	a.logger.Debug("allocated lease", zap.Stringer("ip", ip), zap.Time("expire", expire))
	return lease, nil
}

// leaseDuration clamps to [minLease, maxLease], falling back to
// defaultLeaseTime when neither bound is set.
func leaseDuration(minLease, maxLease time.Duration) time.Duration {
	d := defaultLeaseTime
	if maxLease > 0 && d > maxLease {
		d = maxLease
	}
	if minLease > 0 && d < minLease {
		d = minLease
	}
	return d
}
