package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/pkg/utils"
)

func issuerName(name string) string {
	if name == "" {
		return "Console"
	}
	return name
}

func expiryText(expires *time.Time) string {
	if expires == nil {
		return "Never"
	}
	return utils.FormatTimestamp(*expires)
}

// printPunishment writes a one line summary of the punishment.
func printPunishment(w io.Writer, p *types.Punishment) {
	state := "active"
	switch {
	case !p.Active:
		state = "lifted"
	case p.IsExpiredAt(time.Now()):
		state = "expired"
	}

	fmt.Fprintf(w, "#%d %-9s %-7s reason=%q by=%s issued=%s expires=%s",
		p.ID, p.Type, state, p.Reason, issuerName(p.IssuerName),
		utils.FormatTimestamp(p.StartAt), expiryText(p.ExpiresAt))
	if category := p.Category(); category != "" {
		fmt.Fprintf(w, " category=%s", category)
	}
	fmt.Fprintln(w)
}

// printIPBan writes a one line summary of the address ban.
func printIPBan(w io.Writer, ban *types.IPBan) {
	kind := "address"
	if ban.IsSubnet {
		kind = "subnet"
	}

	fmt.Fprintf(w, "#%d %-18s %-7s reason=%q by=%s issued=%s expires=%s\n",
		ban.ID, ban.Address, kind, ban.Reason, issuerName(ban.IssuerName),
		utils.FormatTimestamp(ban.StartAt), expiryText(ban.ExpiresAt))
}

// printAppeal writes a one line summary of the appeal and its response.
func printAppeal(w io.Writer, appeal *types.Appeal) {
	fmt.Fprintf(w, "#%d %-8s account=%s punishment=#%d submitted=%s reason=%q\n",
		appeal.ID, appeal.Status, appeal.AccountName, appeal.PunishmentID,
		utils.FormatTimestamp(appeal.SubmittedAt), appeal.Reason)
	if !appeal.IsPending() {
		fmt.Fprintf(w, "    %s by %s: %s\n",
			utils.FormatTimestamp(appeal.RespondedAt), appeal.ResponderName, appeal.Response)
	}
}

// indent prefixes every line of a refusal message.
func indent(message string) string {
	return "    " + strings.ReplaceAll(message, "\n", "\n    ")
}
