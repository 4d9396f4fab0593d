// Package earnings splits an order's price into the per-party payout
// snapshot stored on the order. Rates are flat amounts per 500 words,
// resolved by the caller (per-user override row, falling back to the
// global configuration).
package earnings

import (
	"github.com/tbourn/go-homework-backend/internal/domain"
	"github.com/tbourn/go-homework-backend/internal/utils"
)

// Split computes the earnings breakdown for an order.
//
// units = wordCount / 500 (fractional). The agent share is included only
// when an agent rate is given and the resulting amount is positive; the
// super-worker share always appears, even at zero. Profit is the remainder
// after both shares and may be negative. Total always equals price.
func Split(price float64, wordCount int, agentRate *float64, superWorkerRate float64) domain.Earnings {
	units := float64(wordCount) / 500

	agentPay := 0.0
	if agentRate != nil {
		agentPay = utils.Round2(*agentRate * units)
	}
	superWorkerPay := utils.Round2(superWorkerRate * units)

	out := domain.Earnings{
		Total:       price,
		SuperWorker: superWorkerPay,
		Profit:      utils.Round2(price - agentPay - superWorkerPay),
	}
	if agentPay > 0 {
		out.Agent = &agentPay
	}
	return out
}
