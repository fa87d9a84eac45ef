package engine

import (
	"strings"

	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/setup/config"
	"github.com/robalyx/warden/pkg/utils"
)

const (
	never     = "Never"
	permanent = "Permanent"
	console   = "Console"
)

// render replaces the %name% placeholders in a message template.
func render(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for name, value := range values {
		pairs = append(pairs, "%"+name+"%", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func banMessage(messages config.Messages, ban *types.Punishment) string {
	template := messages.Banned
	if ban.Type == enum.PunishmentTypeTempBan {
		template = messages.TempBanned
	}
	return render(template, punishmentValues(ban))
}

func muteMessage(template string, mute *types.Punishment) string {
	return render(template, punishmentValues(mute))
}

func ipBanMessage(template string, ban *types.IPBan) string {
	expires := never
	if ban.ExpiresAt != nil {
		expires = utils.FormatTimestamp(*ban.ExpiresAt)
	}

	return render(template, map[string]string{
		"reason":  ban.Reason,
		"staff":   issuer(ban.IssuerName),
		"expires": expires,
		"date":    utils.FormatTimestamp(ban.StartAt),
	})
}

func punishmentValues(p *types.Punishment) map[string]string {
	expires, duration := never, permanent
	if p.ExpiresAt != nil {
		expires = utils.FormatTimestamp(*p.ExpiresAt)
		duration = utils.FormatDuration(p.ExpiresAt.Sub(p.StartAt))
	}

	return map[string]string{
		"reason":   p.Reason,
		"staff":    issuer(p.IssuerName),
		"expires":  expires,
		"duration": duration,
		"date":     utils.FormatTimestamp(p.StartAt),
	}
}

// issuer names staff in messages. Records issued without a staff account show as Console.
func issuer(name string) string {
	if name == "" {
		return console
	}
	return name
}
