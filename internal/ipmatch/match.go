// Package ipmatch decides whether an IPv4 address is covered by an address
// or subnet ban and resolves the ban that applies to a connecting address.
package ipmatch

import (
	"strconv"
	"strings"

	"github.com/robalyx/warden/internal/database/types"
)

// Normalize trims surrounding whitespace from an address.
func Normalize(address string) string {
	return strings.TrimSpace(address)
}

// IsValid reports whether the input is a dotted-quad IPv4 address with octets 0-255.
func IsValid(ip string) bool {
	_, ok := splitOctets(ip)
	return ok
}

// IsSubnet reports whether the input looks like CIDR notation.
func IsSubnet(address string) bool {
	return strings.Contains(address, "/")
}

// IsValidBanTarget reports whether the address is a valid IPv4 address or
// a network/mask subnet with a mask between 0 and 32.
func IsValidBanTarget(address string) bool {
	address = Normalize(address)
	if !IsSubnet(address) {
		return IsValid(address)
	}

	network, maskText, _ := strings.Cut(address, "/")
	if _, ok := parseDecimal(maskText, 32); !ok {
		return false
	}
	return IsValid(network)
}

// SubnetOf returns the /24 network containing the address, e.g. 10.1.2.3 -> 10.1.2.0/24.
func SubnetOf(ip string) (string, bool) {
	parts, ok := splitOctets(Normalize(ip))
	if !ok {
		return "", false
	}
	return parts[0] + "." + parts[1] + "." + parts[2] + ".0/24", true
}

// Matches reports whether the address is covered by the ban.
// Non-subnet bans match by normalized string equality.
func Matches(ip string, ban *types.IPBan) bool {
	if ban == nil {
		return false
	}
	if !ban.IsSubnet {
		return Normalize(ip) == Normalize(ban.Address)
	}
	return InSubnet(ip, ban.Address)
}

// InSubnet reports whether the address lies inside the network/mask subnet.
// Whole octets covered by the mask must be textually equal and the remaining
// mask bits are compared numerically. Malformed input never matches.
func InSubnet(ip, subnet string) bool {
	ipParts, ok := splitOctets(Normalize(ip))
	if !ok {
		return false
	}

	network, maskText, found := strings.Cut(Normalize(subnet), "/")
	if !found || strings.Contains(maskText, "/") {
		return false
	}

	netParts, ok := splitOctets(network)
	if !ok {
		return false
	}

	mask, ok := parseDecimal(maskText, 32)
	if !ok {
		return false
	}

	fullOctets := mask / 8
	for i := range fullOctets {
		if ipParts[i] != netParts[i] {
			return false
		}
	}

	remainder := mask % 8
	if remainder == 0 {
		return true
	}

	partialMask := (0xFF << (8 - remainder)) & 0xFF
	ipOctet, _ := parseDecimal(ipParts[fullOctets], 255)
	netOctet, _ := parseDecimal(netParts[fullOctets], 255)

	return ipOctet&partialMask == netOctet&partialMask
}

// splitOctets splits a dotted quad and validates each octet.
// An octet is one to three digits with a value of at most 255.
func splitOctets(ip string) ([4]string, bool) {
	var parts [4]string

	fields := strings.Split(ip, ".")
	if len(fields) != 4 {
		return parts, false
	}

	for i, field := range fields {
		if len(field) > 3 {
			return parts, false
		}
		if _, ok := parseDecimal(field, 255); !ok {
			return parts, false
		}
		parts[i] = field
	}

	return parts, true
}

// parseDecimal parses a non-empty string of ASCII digits no larger than limit.
func parseDecimal(s string, limit int) (int, bool) {
	if s == "" || len(s) > 3 {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}

	n, err := strconv.Atoi(s)
	if err != nil || n > limit {
		return 0, false
	}
	return n, true
}
