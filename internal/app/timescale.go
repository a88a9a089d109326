package app

import (
	"time"

	"cb-swing-bot/internal/timescale"
	"cb-swing-bot/internal/trader"
)

func (a *App) publishEvaluation(at time.Time, snap trader.Snapshot) {
	if a.timescale == nil {
		return
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	a.timescale.Enqueue(timescale.EvaluationSnapshot{
		Time:             at,
		Product:          a.cfg.Trade.Product,
		State:            string(snap.State),
		Price:            snap.LastPrice.String(),
		Anchor:           snap.AnchorPrice.String(),
		Dip:              snap.Thresholds.Dip.String(),
		UpwardTrend:      snap.Thresholds.UpwardTrend.String(),
		Profit:           snap.Thresholds.Profit.String(),
		StopLoss:         snap.Thresholds.StopLoss.String(),
		TradingAvailable: snap.TradingBalance.Available.String(),
		CryptoAvailable:  snap.CryptoBalance.Available.String(),
		EarningsTotal:    snap.RunningEarnings.String(),
	})
}
