// Package alerts evaluates pending price alerts against live quotes.
//
// The enqueue side splits pending alerts into per-class batches on the job
// queue; the worker side prices each batch once and fires the alerts whose
// condition holds. A fired alert is deleted once its notification is sent.
package alerts

import (
	"github.com/shopspring/decimal"

	"github.com/trogers1052/portfolio-valuation/internal/models"
)

// ShouldTrigger reports whether an alert fires at price. Both conditions
// are strict: a price equal to the target never fires.
func ShouldTrigger(condition string, price, target decimal.Decimal) bool {
	switch condition {
	case models.ConditionAbove:
		return price.GreaterThan(target)
	case models.ConditionBelow:
		return price.LessThan(target)
	}
	return false
}
