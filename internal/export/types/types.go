package types

// ExportRecord represents a hashed ban in the export files.
type ExportRecord struct {
	Hash   string
	Kind   string
	Reason string
	// ExpiresAt is the unix expiry time, or zero for permanent bans.
	ExpiresAt int64
}
