package transaction

import "github.com/wallet-ledger-engine/internal/domain/shared"

// Causer is the entity an operation is attributed to, with the display data
// used when rendering summaries
type Causer struct {
	Ref           shared.EntityRef `json:"ref"`
	ReferenceCode string           `json:"reference_code,omitempty"`
	FullName      string           `json:"full_name,omitempty"`
}

func NewCauser(ref shared.EntityRef) Causer {
	return Causer{Ref: ref}
}

// DisplayReference prefers the reference code, then the full name, then the id
func (c Causer) DisplayReference() string {
	if c.ReferenceCode != "" {
		return c.ReferenceCode
	}
	if c.FullName != "" {
		return c.FullName
	}
	return c.Ref.ID
}
