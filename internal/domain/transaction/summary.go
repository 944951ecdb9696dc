package transaction

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wallet-ledger-engine/internal/domain/shared"
)

// RenderSummary produces the human readable line stored on a record and used as
// the notification body, e.g. "NGN 100.00 was credited your wallet. Triggered by you"
func RenderSummary(
	currency string,
	direction shared.Direction,
	amount decimal.Decimal,
	status shared.TransactionStatus,
	causer Causer,
	owner shared.EntityRef,
) string {
	tense := "was"
	if status == shared.TransactionStatusPending {
		tense = "is to be"
	}

	verb := "credited"
	if direction == shared.DirectionDebit {
		verb = "debited"
	}

	triggeredBy := "you"
	if !causer.Ref.Equal(owner) {
		triggeredBy = fmt.Sprintf("%s (%s)", causer.Ref.Type, causer.DisplayReference())
	}

	return fmt.Sprintf("%s %s %s %s your wallet. Triggered by %s",
		currency, amount.StringFixed(2), tense, verb, triggeredBy)
}
