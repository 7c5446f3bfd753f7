package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGuestID(t *testing.T) {
	a, b := NewGuestID(), NewGuestID()

	assert.True(t, IsGuestID(a))
	assert.NotEqual(t, a, b)
	assert.False(t, IsGuestID("user_2abc"))
}

func TestIdentityKinds(t *testing.T) {
	assert.True(t, Anonymous.IsAnonymous())
	assert.True(t, Guest("guest_1").IsGuest())
	assert.True(t, Account("user_1").IsAccount())
	assert.True(t, Identity{Kind: KindAccount}.IsAnonymous())
}
