// Package config loads the server's YAML configuration tree (spec.md §6)
// into the in-memory types the other packages operate on. It owns only
// the decode step — file watching and live reload are an out-of-scope
// external collaborator, and reloading pools while leases are live is an
// explicit non-goal.
package config

import (
	"fmt"
	"net"

	"gopkg.in/yaml.v3"

	"github.com/tinydhcp/tinydhcp/internal/addrset"
	"github.com/tinydhcp/tinydhcp/internal/dhcp4"
	"github.com/tinydhcp/tinydhcp/internal/policy"
)

// Config is the top-level decoded configuration tree.
type Config struct {
	DHCP DHCP `yaml:"dhcp"`
}

// DHCP holds the server-level settings and the policy tree.
type DHCP struct {
	Listen         []string     `yaml:"listen"`
	KnownServerIDs []string     `yaml:"known_server_ids"`
	Store          StoreConfig  `yaml:"store"`
	Policies       []RawPolicy  `yaml:"policies"`
}

// StoreConfig selects and configures the lease store backend.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "memory"
	Path   string `yaml:"path"`
}

// RawPolicy is the on-wire YAML shape of a policy node, decoded with typed
// option values before being converted into a policy.Policy.
type RawPolicy struct {
	MatchCHAddr string            `yaml:"match_chaddr"`
	MatchSubnet string            `yaml:"match_subnet"`
	MatchOther  map[uint8]string  `yaml:"match_other"`
	ApplyAddress []string         `yaml:"apply_address"`
	ApplyOther  map[uint8]any     `yaml:"apply_other"`
	Policies    []RawPolicy       `yaml:"policies"`
}

// Load decodes a YAML document into a Config.
func Load(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &cfg, nil
}

// Policies converts the decoded raw policy tree into the evaluator's
// policy.Policy tree.
func (c *Config) Policies() ([]*policy.Policy, error) {
	return convertAll(c.DHCP.Policies)
}

// ServerIDs parses the seed list of known server ids.
func (c *Config) ServerIDs() ([]net.IP, error) {
	ids := make([]net.IP, 0, len(c.DHCP.KnownServerIDs))
	for _, s := range c.DHCP.KnownServerIDs {
		ip := net.ParseIP(s)
		if ip.To4() == nil {
			return nil, fmt.Errorf("invalid known server id: %q", s)
		}
		ids = append(ids, ip.To4())
	}
	return ids, nil
}

func convertAll(raws []RawPolicy) ([]*policy.Policy, error) {
	out := make([]*policy.Policy, 0, len(raws))
	for _, r := range raws {
		p, err := convert(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func convert(r RawPolicy) (*policy.Policy, error) {
	p := &policy.Policy{}

	if r.MatchCHAddr != "" {
		hw, err := net.ParseMAC(r.MatchCHAddr)
		if err != nil {
			return nil, fmt.Errorf("invalid match_chaddr %q: %w", r.MatchCHAddr, err)
		}
		p.MatchCHAddr = []byte(hw)
	}

	if r.MatchSubnet != "" {
		_, subnet, err := net.ParseCIDR(r.MatchSubnet)
		if err != nil {
			return nil, fmt.Errorf("invalid match_subnet %q: %w", r.MatchSubnet, err)
		}
		p.MatchSubnet = subnet
	}

	if len(r.MatchOther) > 0 {
		p.MatchOther = make(map[uint8][]byte, len(r.MatchOther))
		for code, raw := range r.MatchOther {
			p.MatchOther[code] = []byte(raw)
		}
	}

	if len(r.ApplyAddress) > 0 {
		ips := make([]net.IP, 0, len(r.ApplyAddress))
		for _, s := range r.ApplyAddress {
			ip := net.ParseIP(s)
			if ip.To4() == nil {
				return nil, fmt.Errorf("invalid apply_address entry %q", s)
			}
			ips = append(ips, ip)
		}
		p.ApplyAddress = addrset.New(ips...)
	}

	if len(r.ApplyOther) > 0 {
		p.ApplyOther = make(map[uint8][]byte, len(r.ApplyOther))
		for code, value := range r.ApplyOther {
			encoded, err := dhcp4.EncodeValue(code, normalizeYAMLValue(value))
			if err != nil {
				return nil, fmt.Errorf("invalid apply_other value for code %d: %w", code, err)
			}
			p.ApplyOther[code] = encoded
		}
	}

	children, err := convertAll(r.Policies)
	if err != nil {
		return nil, err
	}
	p.Children = children

	return p, nil
}

// normalizeYAMLValue adapts the generic shapes yaml.v3 produces for a
// `map[uint8]any` value (scalars decode fine on their own, but a sequence
// decodes to []any even when every element is a string) into the concrete
// types dhcp4.EncodeValue's registry switch expects.
func normalizeYAMLValue(v any) any {
	items, ok := v.([]any)
	if !ok {
		return v
	}
	strs := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return v
		}
		strs = append(strs, s)
	}
	return strs
}
