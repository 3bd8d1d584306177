// Package policy implements the hierarchical match/apply rule tree that
// selects a response-option set and an address-candidate set for an
// incoming request (spec.md §4.2).
package policy

import (
	"bytes"
	"net"
	"time"

	"github.com/tinydhcp/tinydhcp/internal/addrset"
	"github.com/tinydhcp/tinydhcp/internal/dhcp4"
)

// Request is the in-memory view of an incoming packet the evaluator reads
// from: the parsed packet plus the receive-interface address used for
// subnet matching and as the default ServerID.
type Request struct {
	Packet   *dhcp4.Packet
	ServerIP net.IP
	IfIndex  uint32
}

// Response is the scratch record policy evaluation accumulates into; it is
// later consumed by the pool allocator and the reply builder.
type Response struct {
	Options  dhcp4.OptionMap
	Address  *addrset.Set
	MinLease time.Duration
	MaxLease time.Duration
}

// NewResponse returns an empty scratch response ready for evaluation.
func NewResponse() *Response {
	return &Response{Options: dhcp4.OptionMap{}}
}

// MatchState is the three-valued outcome of evaluating a policy's
// predicates against a request (spec.md §9 — never collapse this to bool).
type MatchState int

const (
	// NoMatch means the policy declared no predicates at all. An option
	// that match_other references but the request lacks is MatchFailed,
	// not NoMatch.
	NoMatch MatchState = iota
	// MatchFailed means at least one evaluated predicate contradicted the
	// request.
	MatchFailed
	// MatchSucceeded means at least one predicate was evaluated and every
	// evaluated predicate held.
	MatchSucceeded
)

// Policy is one node of the match/apply tree (spec.md §3/§6).
type Policy struct {
	MatchCHAddr []byte
	MatchSubnet *net.IPNet
	MatchOther  map[uint8][]byte

	ApplyAddress addrset.Set
	ApplyOther   map[uint8][]byte

	Children []*Policy
}

// matchState evaluates this policy's predicates in the order spec.md §4.2
// requires: chaddr, then subnet, then match_other. Any failing predicate
// short-circuits to MatchFailed.
func (p *Policy) matchState(req *Request) MatchState {
	evaluated := false

	if p.MatchCHAddr != nil {
		evaluated = true
		hlen := int(req.Packet.HLen)
		if hlen > len(req.Packet.CHAddr) {
			hlen = len(req.Packet.CHAddr)
		}
		if !bytes.Equal(p.MatchCHAddr, req.Packet.CHAddr[:hlen]) {
			return MatchFailed
		}
	}

	if p.MatchSubnet != nil {
		evaluated = true
		if req.ServerIP == nil || !p.MatchSubnet.Contains(req.ServerIP) {
			return MatchFailed
		}
	}

	for code, expected := range p.MatchOther {
		evaluated = true
		got, ok := req.Packet.Options[code]
		if !ok || !bytes.Equal(got, expected) {
			return MatchFailed
		}
	}

	if !evaluated {
		return NoMatch
	}
	return MatchSucceeded
}

// Apply is spec.md's apply_policies: it walks policies in declared order,
// merging the first applying policy's candidate address set and
// parameter-request-list-filtered options into resp, then recursing into
// that policy's children. A NoMatch policy defers to Check on its children
// before giving up. Returns true iff some policy in the list applied.
func Apply(policies []*Policy, req *Request, resp *Response) bool {
	for _, p := range policies {
		switch p.matchState(req) {
		case MatchFailed:
			continue
		case NoMatch:
			if !Check(p.Children, req) {
				continue
			}
			applyPolicy(p, req, resp)
			return true
		case MatchSucceeded:
			applyPolicy(p, req, resp)
			return true
		}
	}
	return false
}

// applyPolicy merges p's own address/option contributions into resp, then
// recurses into its children. A policy that declares apply_address
// replaces the Response's candidate set outright (spec.md §4.2: "merge
// apply_address into the Response, replacing any prior set"); a policy
// that declares none leaves whatever an ancestor already set untouched.
// Option codes, by contrast, accumulate per-code so a child's override of
// a given code wins while a parent's other codes stay visible underneath.
func applyPolicy(p *Policy, req *Request, resp *Response) {
	if len(p.ApplyAddress) > 0 {
		set := p.ApplyAddress
		resp.Address = &set
	}

	for code, value := range p.ApplyOther {
		if req.Packet.Options.Requests(code) {
			resp.Options[code] = value
		}
	}

	Apply(p.Children, req, resp)
}

// Check is spec.md's check_policies: the read-only analogue used for the
// NoMatch fallback. Returns true on the first MatchSucceeded policy in the
// list, recursing into a NoMatch policy's children, and false if every
// policy fails or has no matching descendant.
func Check(policies []*Policy, req *Request) bool {
	for _, p := range policies {
		switch p.matchState(req) {
		case MatchSucceeded:
			return true
		case NoMatch:
			if Check(p.Children, req) {
				return true
			}
		case MatchFailed:
			// try the next sibling
		}
	}
	return false
}
