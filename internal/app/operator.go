package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cb-swing-bot/internal/alerts"

	"go.uber.org/zap"
)

// startOperator launches the Telegram command loop. Commands are read-only:
// the operator can inspect the session but never steer it.
func (a *App) startOperator(ctx context.Context) {
	if !a.cfg.Telegram.OperatorEnabled {
		return
	}
	chatID, err := strconv.ParseInt(strings.TrimSpace(a.cfg.Telegram.ChatID), 10, 64)
	if err != nil {
		a.log.Warn("telegram operator disabled: invalid chat_id", zap.Error(err))
		return
	}
	allowedUsers := make(map[int64]struct{}, len(a.cfg.Telegram.OperatorAllowedUserIDs))
	for _, id := range a.cfg.Telegram.OperatorAllowedUserIDs {
		allowedUsers[id] = struct{}{}
	}
	go a.operatorLoop(ctx, chatID, allowedUsers, a.cfg.Telegram.OperatorPollInterval)
}

func (a *App) operatorLoop(ctx context.Context, chatID int64, allowedUsers map[int64]struct{}, pollInterval time.Duration) {
	var offset int64
	warned := false
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		updates, err := a.alerts.GetUpdates(ctx, offset, pollInterval)
		if err != nil {
			if !warned {
				a.log.Warn("telegram operator poll failed", zap.Error(err))
				warned = true
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollInterval):
			}
			continue
		}
		if warned {
			a.log.Info("telegram operator recovered")
			warned = false
		}
		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			a.handleOperatorUpdate(ctx, upd, chatID, allowedUsers)
		}
	}
}

func (a *App) handleOperatorUpdate(ctx context.Context, upd alerts.Update, chatID int64, allowedUsers map[int64]struct{}) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil || msg.From == nil {
		return
	}
	if msg.Chat.ID != chatID {
		return
	}
	if len(allowedUsers) > 0 {
		if _, ok := allowedUsers[msg.From.ID]; !ok {
			return
		}
	}
	cmd, ok := parseOperatorCommand(msg.Text)
	if !ok {
		return
	}
	resp := a.handleOperatorCommand(cmd)
	if resp == "" {
		return
	}
	if err := a.alerts.Send(ctx, resp); err != nil {
		a.log.Warn("operator response failed", zap.Error(err))
	}
}

func parseOperatorCommand(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return "", false
	}
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return "", false
	}
	return strings.ToLower(strings.TrimPrefix(fields[0], "/")), true
}

func (a *App) handleOperatorCommand(cmd string) string {
	switch cmd {
	case "status":
		return a.operatorStatus()
	case "earnings":
		return a.operatorEarnings()
	default:
		return operatorHelpText()
	}
}

func (a *App) operatorStatus() string {
	if a.machine == nil {
		return "session not started"
	}
	snap := a.machine.Snapshot()
	lines := []string{
		fmt.Sprintf("state: %s", snap.State),
		fmt.Sprintf("last_price: %s", snap.LastPrice),
		fmt.Sprintf("anchor: %s", snap.AnchorPrice),
		fmt.Sprintf("dip: %s", snap.Thresholds.Dip),
		fmt.Sprintf("upward_trend: %s", snap.Thresholds.UpwardTrend),
		fmt.Sprintf("profit: %s", snap.Thresholds.Profit),
		fmt.Sprintf("stop_loss: %s", snap.Thresholds.StopLoss),
	}
	if snap.HasBuyPrice {
		lines = append(lines, fmt.Sprintf("buy_price: %s", snap.BuyPrice))
	}
	lines = append(lines,
		fmt.Sprintf("trading_available: %s %s", snap.TradingBalance.Available, a.cfg.Trade.TradingCurrency),
		fmt.Sprintf("crypto_available: %s %s", snap.CryptoBalance.Available, a.cfg.Trade.CryptoCurrency),
		fmt.Sprintf("earnings: %s %s", snap.RunningEarnings, a.cfg.Trade.TradingCurrency),
	)
	return strings.Join(lines, "\n")
}

func (a *App) operatorEarnings() string {
	if a.ledger == nil {
		return "session not started"
	}
	return strings.Join([]string{
		fmt.Sprintf("initial_funds: %s %s", a.ledger.InitialFunds(), a.cfg.Trade.TradingCurrency),
		fmt.Sprintf("cycles_completed: %d", len(a.ledger.Entries())),
		fmt.Sprintf("total_earnings: %s %s", a.ledger.Total(), a.cfg.Trade.TradingCurrency),
	}, "\n")
}

func operatorHelpText() string {
	return strings.Join([]string{
		"commands:",
		"/status - current state, thresholds and balances",
		"/earnings - completed cycles and running total",
	}, "\n")
}
