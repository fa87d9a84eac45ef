package enum

// BypassKind names a check that a privileged account may skip.
//
//go:generate go tool enumer -type=BypassKind -trimprefix=BypassKind -transform=snake
type BypassKind int

const (
	// BypassKindVPN skips the address reputation check.
	BypassKindVPN BypassKind = iota
	// BypassKindAlt skips alternate account blocking.
	BypassKindAlt
	// BypassKindIPBan skips address and subnet bans.
	BypassKindIPBan
)
