package identity

import (
	"strings"

	"github.com/google/uuid"
)

type Kind string

const (
	KindAnonymous Kind = "anonymous"
	KindGuest     Kind = "guest"
	KindAccount   Kind = "account"
)

const GuestPrefix = "guest_"

// Identity is the owner of a ledger and its activity logs.
type Identity struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id,omitempty"`
}

var Anonymous = Identity{Kind: KindAnonymous}

func Guest(id string) Identity   { return Identity{Kind: KindGuest, ID: id} }
func Account(id string) Identity { return Identity{Kind: KindAccount, ID: id} }

func NewGuestID() string {
	return GuestPrefix + uuid.NewString()
}

func IsGuestID(id string) bool {
	return strings.HasPrefix(id, GuestPrefix)
}

func (i Identity) IsGuest() bool     { return i.Kind == KindGuest }
func (i Identity) IsAccount() bool   { return i.Kind == KindAccount }
func (i Identity) IsAnonymous() bool { return i.Kind == KindAnonymous || i.ID == "" }

// Provider supplies the active identity of the device session.
type Provider interface {
	CurrentIdentity() Identity
	OnIdentityChange(fn ChangeFunc)
}

type ChangeFunc func(prev, next Identity)

// Session is the persisted form of the device session.
type Session struct {
	Identity Identity `json:"identity"`
	GuestID  string   `json:"guest_id,omitempty"`
}

type MigrationReport struct {
	GuestID  string   `json:"guest_id"`
	Account  string   `json:"account_id"`
	Migrated bool     `json:"migrated"`
	Copied   []string `json:"copied"`
	Kept     []string `json:"kept"`
}
