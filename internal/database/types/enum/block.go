package enum

// BlockReason identifies which connection check rejected an account.
//
//go:generate go tool enumer -type=BlockReason -trimprefix=BlockReason -transform=snake
type BlockReason int

const (
	// BlockReasonNone means the connection was allowed.
	BlockReasonNone BlockReason = iota
	// BlockReasonVPN means the address was flagged as a proxy, VPN or Tor exit.
	BlockReasonVPN
	// BlockReasonIPBan means the address matched an active address or subnet ban.
	BlockReasonIPBan
	// BlockReasonAlt means a banned alternate account was detected.
	BlockReasonAlt
	// BlockReasonBan means the account itself has an active ban.
	BlockReasonBan
)
