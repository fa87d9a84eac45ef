package ipmatch_test

import (
	"testing"

	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/ipmatch"
	"github.com/stretchr/testify/assert"
)

func TestInSubnet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		ip     string
		subnet string
		want   bool
	}{
		{name: "inside /24", ip: "192.168.1.77", subnet: "192.168.1.0/24", want: true},
		{name: "outside /24", ip: "192.168.2.77", subnet: "192.168.1.0/24", want: false},
		{name: "inside /20", ip: "10.0.15.255", subnet: "10.0.0.0/20", want: true},
		{name: "outside /20", ip: "10.0.16.0", subnet: "10.0.0.0/20", want: false},
		{name: "/32 exact", ip: "8.8.8.8", subnet: "8.8.8.8/32", want: true},
		{name: "/32 different", ip: "8.8.8.9", subnet: "8.8.8.8/32", want: false},
		{name: "/0 matches everything", ip: "1.2.3.4", subnet: "0.0.0.0/0", want: true},
		{name: "/1 high bit", ip: "200.1.1.1", subnet: "128.0.0.0/1", want: true},
		{name: "/1 low half", ip: "100.1.1.1", subnet: "128.0.0.0/1", want: false},
		{name: "whole octets compare textually", ip: "010.0.0.1", subnet: "10.0.0.0/8", want: false},
		{name: "mask too large", ip: "1.2.3.4", subnet: "1.2.3.4/33", want: false},
		{name: "negative mask", ip: "1.2.3.4", subnet: "1.2.3.4/-1", want: false},
		{name: "non numeric mask", ip: "1.2.3.4", subnet: "1.2.3.0/abc", want: false},
		{name: "missing mask", ip: "1.2.3.4", subnet: "1.2.3.0", want: false},
		{name: "double slash", ip: "1.2.3.4", subnet: "1.2.3.0/24/8", want: false},
		{name: "short network", ip: "1.2.3.4", subnet: "1.2.3/24", want: false},
		{name: "malformed ip", ip: "not-an-ip", subnet: "1.2.3.0/24", want: false},
		{name: "octet out of range", ip: "1.2.3.256", subnet: "1.2.3.0/24", want: false},
		{name: "ipv6", ip: "::1", subnet: "1.2.3.0/24", want: false},
		{name: "empty", ip: "", subnet: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ipmatch.InSubnet(tt.ip, tt.subnet))
		})
	}
}

func TestMatches(t *testing.T) {
	t.Parallel()

	exact := &types.IPBan{Address: "203.0.113.9"}
	subnet := &types.IPBan{Address: "203.0.113.0/24", IsSubnet: true}

	assert.True(t, ipmatch.Matches("203.0.113.9", exact))
	assert.True(t, ipmatch.Matches(" 203.0.113.9 ", exact))
	assert.False(t, ipmatch.Matches("203.0.113.10", exact))
	assert.True(t, ipmatch.Matches("203.0.113.10", subnet))
	assert.False(t, ipmatch.Matches("203.0.114.10", subnet))
	assert.False(t, ipmatch.Matches("203.0.113.9", nil))
}

func TestSubnetOf(t *testing.T) {
	t.Parallel()

	subnet, ok := ipmatch.SubnetOf("192.168.1.100")
	assert.True(t, ok)
	assert.Equal(t, "192.168.1.0/24", subnet)

	_, ok = ipmatch.SubnetOf("999.1.1.1")
	assert.False(t, ok)
}

func TestIsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, ipmatch.IsValid("0.0.0.0"))
	assert.True(t, ipmatch.IsValid("255.255.255.255"))
	assert.True(t, ipmatch.IsValid("01.02.03.04"))
	assert.False(t, ipmatch.IsValid("1.2.3"))
	assert.False(t, ipmatch.IsValid("1.2.3.4.5"))
	assert.False(t, ipmatch.IsValid("1.2.3.0001"))
	assert.False(t, ipmatch.IsValid("a.b.c.d"))
	assert.False(t, ipmatch.IsValid("1.2.3.+4"))
}

func TestIsValidBanTarget(t *testing.T) {
	t.Parallel()

	assert.True(t, ipmatch.IsValidBanTarget("10.0.0.1"))
	assert.True(t, ipmatch.IsValidBanTarget(" 10.0.0.0/8 "))
	assert.True(t, ipmatch.IsValidBanTarget("10.0.0.0/0"))
	assert.False(t, ipmatch.IsValidBanTarget("10.0.0.0/33"))
	assert.False(t, ipmatch.IsValidBanTarget("10.0.0.0/"))
	assert.False(t, ipmatch.IsValidBanTarget("10.0.0/24"))
	assert.False(t, ipmatch.IsValidBanTarget("10.0.0.0/24/1"))
}
