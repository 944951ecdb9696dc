package shared

import (
	"errors"
	"strings"
)

var ErrInvalidEntityRef = errors.New("entity reference requires type and id")

// EntityRef points at any entity by type and id. Wallet owners and causers are
// both polymorphic, so neither is tied to a concrete user table.
type EntityRef struct {
	Type string `json:"type" bson:"type"`
	ID   string `json:"id" bson:"id"`
}

func NewEntityRef(entityType, id string) EntityRef {
	return EntityRef{Type: strings.TrimSpace(entityType), ID: strings.TrimSpace(id)}
}

func (r EntityRef) Validate() error {
	if r.Type == "" || r.ID == "" {
		return ErrInvalidEntityRef
	}
	return nil
}

func (r EntityRef) IsZero() bool {
	return r.Type == "" && r.ID == ""
}

func (r EntityRef) Equal(other EntityRef) bool {
	return r.Type == other.Type && r.ID == other.ID
}

func (r EntityRef) String() string {
	return r.Type + ":" + r.ID
}

// Less orders references so that multi-wallet locks are always taken in the same order
func (r EntityRef) Less(other EntityRef) bool {
	if r.Type != other.Type {
		return r.Type < other.Type
	}
	return r.ID < other.ID
}

// ParseEntityRef reads the "Type:ID" form produced by String
func ParseEntityRef(s string) (EntityRef, error) {
	entityType, id, ok := strings.Cut(s, ":")
	if !ok {
		return EntityRef{}, ErrInvalidEntityRef
	}
	ref := NewEntityRef(entityType, id)
	return ref, ref.Validate()
}
