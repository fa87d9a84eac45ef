package enum

// PunishmentType represents the kind of sanction recorded against an account.
//
//go:generate go tool enumer -type=PunishmentType -trimprefix=PunishmentType -transform=snake-upper
type PunishmentType int

const (
	// PunishmentTypeBan permanently or indefinitely blocks the account from connecting.
	PunishmentTypeBan PunishmentType = iota
	// PunishmentTypeTempBan blocks the account from connecting until it expires.
	PunishmentTypeTempBan
	// PunishmentTypeMute blocks chat without an end time.
	PunishmentTypeMute
	// PunishmentTypeTempMute blocks chat until it expires.
	PunishmentTypeTempMute
	// PunishmentTypeKick disconnects the account once.
	PunishmentTypeKick
	// PunishmentTypeWarn is recorded for escalation but has no effect on its own.
	PunishmentTypeWarn
)

// PreventsJoin reports whether an active punishment of this type blocks connections.
func (p PunishmentType) PreventsJoin() bool {
	return p == PunishmentTypeBan || p == PunishmentTypeTempBan
}

// PreventsChat reports whether an active punishment of this type blocks chat.
func (p PunishmentType) PreventsChat() bool {
	return p == PunishmentTypeMute || p == PunishmentTypeTempMute
}

// IsTemporary reports whether this type requires a duration.
func (p PunishmentType) IsTemporary() bool {
	return p == PunishmentTypeTempBan || p == PunishmentTypeTempMute
}

// DisplayName returns the human readable label used in messages.
func (p PunishmentType) DisplayName() string {
	switch p {
	case PunishmentTypeBan:
		return "Ban"
	case PunishmentTypeTempBan:
		return "Temporary Ban"
	case PunishmentTypeMute:
		return "Mute"
	case PunishmentTypeTempMute:
		return "Temporary Mute"
	case PunishmentTypeKick:
		return "Kick"
	case PunishmentTypeWarn:
		return "Warning"
	default:
		return p.String()
	}
}
