package transaction

import (
	"github.com/google/uuid"
	"github.com/wallet-ledger-engine/internal/domain/shared"
)

// Fields are the optional values a ledger operation writes onto its record
type Fields struct {
	Status    shared.TransactionStatus
	AdminNote string
	Comment   string
	Receipt   string
	Bank      *BankDestination
}

// Intent tells a ledger operation whether to create a record or complete an existing one.
// It is either NewTransaction or UpdateExisting.
type Intent interface {
	fields() Fields
}

// NewTransaction creates a fresh record alongside the balance change
type NewTransaction struct {
	Fields
}

func (n NewTransaction) fields() Fields { return n.Fields }

// UpdateExisting applies the balance change to a PENDING record in place
type UpdateExisting struct {
	RecordID uuid.UUID
	Fields
}

func (u UpdateExisting) fields() Fields { return u.Fields }

// IntentFields returns the fields of any intent, treating nil as an empty NewTransaction
func IntentFields(intent Intent) Fields {
	if intent == nil {
		return Fields{}
	}
	return intent.fields()
}
