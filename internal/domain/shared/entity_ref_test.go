package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityRef(t *testing.T) {
	ref := NewEntityRef(" User ", "42 ")

	assert.Equal(t, EntityRef{Type: "User", ID: "42"}, ref)
	assert.NoError(t, ref.Validate())
	assert.Equal(t, "User:42", ref.String())
	assert.True(t, ref.Equal(EntityRef{Type: "User", ID: "42"}))
	assert.True(t, EntityRef{}.IsZero())
	assert.ErrorIs(t, NewEntityRef("User", "").Validate(), ErrInvalidEntityRef)
}

func TestEntityRef_Less(t *testing.T) {
	assert.True(t, NewEntityRef("Admin", "9").Less(NewEntityRef("User", "1")))
	assert.True(t, NewEntityRef("User", "1").Less(NewEntityRef("User", "2")))
	assert.False(t, NewEntityRef("User", "2").Less(NewEntityRef("User", "2")))
}

func TestParseEntityRef(t *testing.T) {
	ref, err := ParseEntityRef("Admin:1")
	require.NoError(t, err)
	assert.Equal(t, NewEntityRef("Admin", "1"), ref)

	_, err = ParseEntityRef("Admin")
	assert.ErrorIs(t, err, ErrInvalidEntityRef)

	_, err = ParseEntityRef("Admin:")
	assert.ErrorIs(t, err, ErrInvalidEntityRef)
}

func TestLockTimeoutError(t *testing.T) {
	err := LockTimeoutError{Owner: NewEntityRef("User", "1")}

	assert.ErrorIs(t, err, LockTimeoutError{})
	assert.NotErrorIs(t, err, LockTimeoutError{Owner: NewEntityRef("User", "2")})
	assert.True(t, IsRetryable(err))
	assert.False(t, IsRetryable(ErrNotAllowed))
}

func TestCorrelationIDContext(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "abc")
	assert.Equal(t, "abc", CorrelationIDFromContext(ctx))
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}
