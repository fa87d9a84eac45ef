package engine

import (
	"context"
	"fmt"

	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/ipmatch"
	"github.com/robalyx/warden/internal/notify"
	"go.uber.org/zap"
)

// Verdict is the answer to a connection attempt.
type Verdict struct {
	Allowed bool
	Reason  enum.BlockReason
	// Message is shown to a refused account.
	Message string
	// Punishment is set when the account's own ban refused it.
	Punishment *types.Punishment
	// IPBan is set when an address ban refused it.
	IPBan *types.IPBan
}

// CheckConnection decides whether the account may connect from the address.
//
// The address is recorded first, then the checks run in order: VPN, address
// ban, banned alt and the account's own ban. The first failing check refuses
// the connection. Failures inside a check never refuse it.
func (e *Engine) CheckConnection(ctx context.Context, account types.Account, ip string) Verdict {
	ip = ipmatch.Normalize(ip)
	verdict := e.checkConnection(ctx, account, ip)
	e.metrics.RecordGateDecision(verdict.Reason)

	if !verdict.Allowed {
		e.logger.Info("Refused connection",
			zap.String("accountID", account.ID.String()),
			zap.String("accountName", account.Name),
			zap.String("address", ip),
			zap.String("reason", verdict.Reason.String()))
	}
	return verdict
}

func (e *Engine) checkConnection(ctx context.Context, account types.Account, ip string) Verdict {
	settings := e.settings.Load()

	if err := e.store.RecordAccountAddress(ctx, &types.AccountAddress{
		AccountID:   account.ID,
		AccountName: account.Name,
		Address:     ip,
		LastSeen:    e.now(),
	}); err != nil {
		e.logger.Error("Failed to record account address",
			zap.String("accountID", account.ID.String()),
			zap.Error(err))
	}

	if e.vpn.Check(ctx, account, ip) && settings.vpnBlock {
		return Verdict{
			Reason:  enum.BlockReasonVPN,
			Message: settings.messages.VPNBlocked,
		}
	}

	if ban := e.bans.Resolve(ctx, ip); ban != nil {
		if !account.HasBypass(enum.BypassKindIPBan) {
			return Verdict{
				Reason:  enum.BlockReasonIPBan,
				Message: ipBanMessage(settings.messages.IPBanned, ban),
				IPBan:   ban,
			}
		}
		e.logger.Info("Account bypassed address ban",
			zap.String("accountName", account.Name),
			zap.String("address", ip))
	}

	if e.alts.ShouldBlock(ctx, account, ip) {
		return Verdict{
			Reason:  enum.BlockReasonAlt,
			Message: settings.messages.AltBlocked,
		}
	}

	ban, err := e.lifecycle.ActiveBan(ctx, account.ID)
	if err != nil {
		e.logger.Error("Failed to check account ban",
			zap.String("accountID", account.ID.String()),
			zap.Error(err))
	} else if ban != nil {
		return Verdict{
			Reason:     enum.BlockReasonBan,
			Message:    banMessage(settings.messages, ban),
			Punishment: ban,
		}
	}

	return Verdict{Allowed: true, Reason: enum.BlockReasonNone}
}

// PostConnect raises staff alerts for an account that has joined. It returns
// immediately; the checks run in the background and never affect the session.
func (e *Engine) PostConnect(ctx context.Context, account types.Account, ip string) {
	if e.alerts == nil {
		return
	}

	ip = ipmatch.Normalize(ip)

	ctx = detach(ctx)
	e.background.Go(func() {
		if e.vpn.Check(ctx, account, ip) {
			e.logger.Info("Account connected from a VPN or proxy",
				zap.String("accountName", account.Name),
				zap.String("address", ip))
			e.alerts.Send(notify.Alert{
				Kind:        notify.KindVPN,
				AccountID:   account.ID.String(),
				AccountName: account.Name,
				Address:     ip,
				Message:     fmt.Sprintf("Player %s is using a VPN/PROXY (IP: %s)", account.Name, ip),
				CreatedAt:   e.now(),
			})
		}

		if !e.settings.Load().altNotifyStaff {
			return
		}

		alts := e.alts.Detect(ctx, account, ip)
		if len(alts) == 0 {
			return
		}

		names := make([]string, len(alts))
		for i, a := range alts {
			names[i] = a.Name
		}
		e.alerts.Send(notify.Alert{
			Kind:        notify.KindAltSummary,
			AccountID:   account.ID.String(),
			AccountName: account.Name,
			Address:     ip,
			RelatedID:   alts[0].AccountID.String(),
			RelatedName: alts[0].Name,
			Method:      alts[0].Method,
			Confidence:  alts[0].Confidence,
			Message:     notify.AltSummaryMessage(account.Name, names),
			CreatedAt:   e.now(),
		})
	})
}

// CheckChat returns the account's active mute and the message to show, or
// nil when the account may chat. Store failures allow chat.
func (e *Engine) CheckChat(ctx context.Context, account types.Account) (*types.Punishment, string) {
	mute, err := e.lifecycle.ActiveMute(ctx, account.ID)
	if err != nil {
		e.logger.Error("Failed to check account mute",
			zap.String("accountID", account.ID.String()),
			zap.Error(err))
		return nil, ""
	}
	if mute == nil {
		return nil, ""
	}

	return mute, muteMessage(e.settings.Load().messages.Muted, mute)
}
