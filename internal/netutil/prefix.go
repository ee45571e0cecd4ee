// Package netutil normalizes client addresses to network prefixes so exact
// host bits are never persisted.
package netutil

import (
	"errors"
	"net/netip"
)

// ErrInvalidAddress is returned when a client address cannot be parsed.
var ErrInvalidAddress = errors.New("invalid network address")

// Prefix lengths applied when collapsing a client address to its origin
// network: /24 for IPv4 and /64 for IPv6.
const (
	ipv4PrefixBits = 24
	ipv6PrefixBits = 64
)

// OriginNetwork parses addr and collapses it to its origin network prefix in
// CIDR form (e.g. "203.0.113.7" -> "203.0.113.0/24"). IPv4-mapped IPv6
// addresses are treated as IPv4.
func OriginNetwork(addr string) (string, error) {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return "", ErrInvalidAddress
	}
	ip = ip.Unmap()
	bits := ipv6PrefixBits
	if ip.Is4() {
		bits = ipv4PrefixBits
	}
	prefix, err := ip.Prefix(bits)
	if err != nil {
		return "", ErrInvalidAddress
	}
	return prefix.String(), nil
}
