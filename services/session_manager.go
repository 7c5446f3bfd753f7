package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"adaptlyAPI/internal/activity"
	"adaptlyAPI/internal/apperr"
	"adaptlyAPI/internal/clock"
	"adaptlyAPI/internal/identity"
	"adaptlyAPI/internal/metrics"
	"adaptlyAPI/internal/storage"

	"github.com/google/uuid"
)

// SessionManager owns the device session: which identity is active, where
// its data lives and how a guest's data moves to an account.
//
// Guest data always lives in the local store. Account data lives in the
// remote store, or in the local store when the process runs offline.
type SessionManager struct {
	local  storage.Store
	remote storage.Store
	clock  clock.Clock

	mu        sync.Mutex
	current   identity.Identity
	listeners []identity.ChangeFunc
}

var _ identity.Provider = (*SessionManager)(nil)

// NewSessionManager starts anonymous. remote may be nil.
func NewSessionManager(local, remote storage.Store, clk clock.Clock) *SessionManager {
	return &SessionManager{
		local:   local,
		remote:  remote,
		clock:   clk,
		current: identity.Anonymous,
	}
}

func (m *SessionManager) StoreFor(id identity.Identity) storage.Store {
	if id.IsAccount() {
		return m.accountStore()
	}
	return m.local
}

func (m *SessionManager) accountStore() storage.Store {
	if m.remote != nil {
		return m.remote
	}
	return m.local
}

// Offline reports whether accounts are kept on the device.
func (m *SessionManager) Offline() bool { return m.remote == nil }

func (m *SessionManager) CurrentIdentity() identity.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *SessionManager) OnIdentityChange(fn identity.ChangeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *SessionManager) emit(prev, next identity.Identity) {
	if prev == next {
		return
	}
	m.mu.Lock()
	listeners := append([]identity.ChangeFunc(nil), m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(prev, next)
	}
}

// Restore resumes the persisted session, if any, and records a login for it.
func (m *SessionManager) Restore(ctx context.Context) (identity.Identity, error) {
	m.mu.Lock()
	raw, err := m.local.Get(ctx, storage.Device(storage.KindSession))
	if errors.Is(err, apperr.ErrNotFound) {
		m.mu.Unlock()
		return identity.Anonymous, nil
	}
	if err != nil {
		m.mu.Unlock()
		return identity.Anonymous, err
	}

	var sess identity.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		m.mu.Unlock()
		return identity.Anonymous, fmt.Errorf("failed to decode session: %w", err)
	}
	prev := m.current
	m.current = sess.Identity
	m.mu.Unlock()

	if !sess.Identity.IsAnonymous() {
		m.recordLogin(ctx, sess.Identity)
	}
	m.emit(prev, sess.Identity)
	return sess.Identity, nil
}

func (m *SessionManager) saveSession(ctx context.Context, id identity.Identity, guestID string) error {
	raw, err := json.Marshal(identity.Session{Identity: id, GuestID: guestID})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return m.local.Put(ctx, storage.Device(storage.KindSession), raw)
}

// GuestMarker returns the guest id awaiting migration, or "" if none.
func (m *SessionManager) GuestMarker(ctx context.Context) (string, error) {
	raw, err := m.local.Get(ctx, storage.Device(storage.KindGuestMarker))
	if errors.Is(err, apperr.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var guestID string
	if err := json.Unmarshal(raw, &guestID); err != nil {
		return "", fmt.Errorf("failed to decode guest marker: %w", err)
	}
	return guestID, nil
}

// BeginGuestSession mints a guest identity and persists it with its marker.
func (m *SessionManager) BeginGuestSession(ctx context.Context) (identity.Identity, error) {
	m.mu.Lock()
	if !m.current.IsAnonymous() {
		cur := m.current
		m.mu.Unlock()
		return cur, apperr.InvalidArgument("a %s session is already active", cur.Kind)
	}
	pending, err := m.GuestMarker(ctx)
	if err != nil {
		m.mu.Unlock()
		return identity.Anonymous, err
	}
	if pending != "" {
		m.mu.Unlock()
		return identity.Anonymous, apperr.InvalidArgument("guest %s is still waiting to be migrated; sign in to keep its data", pending)
	}

	guestID := identity.NewGuestID()
	marker, err := json.Marshal(guestID)
	if err != nil {
		m.mu.Unlock()
		return identity.Anonymous, fmt.Errorf("failed to encode guest marker: %w", err)
	}
	if err := m.local.Put(ctx, storage.Device(storage.KindGuestMarker), marker); err != nil {
		m.mu.Unlock()
		return identity.Anonymous, err
	}
	next := identity.Guest(guestID)
	if err := m.saveSession(ctx, next, guestID); err != nil {
		m.mu.Unlock()
		return identity.Anonymous, err
	}
	prev := m.current
	m.current = next
	m.mu.Unlock()

	log.Printf("Session: guest session %s started", guestID)
	m.recordLogin(ctx, next)
	m.emit(prev, next)
	return next, nil
}

// SignIn activates an account. Signing in from a guest session, or from a
// device still holding an unmigrated guest, migrates the guest's data. If
// that migration fails the account stays active with the marker kept, and
// every write to the account first retries it (see Settle).
func (m *SessionManager) SignIn(ctx context.Context, accountID string) (identity.Identity, *identity.MigrationReport, error) {
	if accountID == "" {
		return identity.Anonymous, nil, apperr.InvalidArgument("account id is required")
	}
	if identity.IsGuestID(accountID) {
		return identity.Anonymous, nil, apperr.InvalidArgument("account id %q uses the guest prefix", accountID)
	}

	m.mu.Lock()
	prev := m.current
	next := identity.Account(accountID)
	if prev.IsAccount() {
		m.mu.Unlock()
		if prev.ID == accountID {
			return prev, nil, nil
		}
		return prev, nil, apperr.InvalidArgument("already signed in as another account")
	}

	guestID := ""
	if prev.IsGuest() {
		guestID = prev.ID
	} else {
		pending, err := m.GuestMarker(ctx)
		if err != nil {
			m.mu.Unlock()
			return prev, nil, err
		}
		guestID = pending
	}
	if err := m.saveSession(ctx, next, guestID); err != nil {
		m.mu.Unlock()
		return prev, nil, err
	}
	m.current = next

	var (
		report     *identity.MigrationReport
		migrateErr error
	)
	if guestID != "" {
		report, migrateErr = m.migrateLocked(ctx, guestID, accountID)
	}
	m.mu.Unlock()

	log.Printf("Session: signed in as %s", accountID)
	if migrateErr == nil {
		m.recordLogin(ctx, next)
	}
	m.emit(prev, next)
	return next, report, migrateErr
}

// Settle finishes a pending guest migration before id's namespace is
// written. Writing first would make the retry keep the account's buckets and
// drop the guest's. It is a no-op for guests, for identities other than the
// active one and once the marker is gone.
func (m *SessionManager) Settle(ctx context.Context, id identity.Identity) error {
	if !id.IsAccount() {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != id {
		return nil
	}
	guestID, err := m.GuestMarker(ctx)
	if err != nil {
		return err
	}
	if guestID == "" {
		return nil
	}
	if _, err := m.migrateLocked(ctx, guestID, id.ID); err != nil {
		return apperr.Pending(err)
	}
	return nil
}

// Migrate moves guestID's data into accountID. It fails with
// apperr.ErrAlreadyMigrated when the device holds no marker for guestID.
func (m *SessionManager) Migrate(ctx context.Context, guestID, accountID string) (*identity.MigrationReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.migrateLocked(ctx, guestID, accountID)
}

// RetryMigration finishes an interrupted migration into the active account.
func (m *SessionManager) RetryMigration(ctx context.Context) (*identity.MigrationReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.current.IsAccount() {
		return nil, apperr.InvalidArgument("migration requires a signed-in account")
	}
	guestID, err := m.GuestMarker(ctx)
	if err != nil {
		return nil, err
	}
	if guestID == "" {
		return nil, fmt.Errorf("%w: no guest data on this device", apperr.ErrAlreadyMigrated)
	}
	return m.migrateLocked(ctx, guestID, m.current.ID)
}

// migrateLocked copies each bucket the account does not already have, then
// removes the guest's data and marker. Nothing is removed unless every copy
// succeeded.
func (m *SessionManager) migrateLocked(ctx context.Context, guestID, accountID string) (*identity.MigrationReport, error) {
	marker, err := m.GuestMarker(ctx)
	if err != nil {
		return nil, err
	}
	if marker == "" || marker != guestID {
		return nil, fmt.Errorf("%w: guest %s", apperr.ErrAlreadyMigrated, guestID)
	}

	report := &identity.MigrationReport{
		GuestID: guestID,
		Account: accountID,
		Copied:  []string{},
		Kept:    []string{},
	}
	src, dst := m.local, m.accountStore()

	for _, kind := range storage.LogKinds {
		outcome, err := copyBucket(ctx, src, dst, storage.Bucket(kind, guestID), storage.Bucket(kind, accountID))
		if err != nil {
			metrics.Migrations.WithLabelValues("failed").Inc()
			return report, fmt.Errorf("failed to migrate %s: %w", kind, err)
		}
		note(report, kind, outcome)
	}
	for _, kind := range storage.ValueKinds {
		outcome, err := copyValue(ctx, src, dst, storage.Bucket(kind, guestID), storage.Bucket(kind, accountID))
		if err != nil {
			metrics.Migrations.WithLabelValues("failed").Inc()
			return report, fmt.Errorf("failed to migrate %s: %w", kind, err)
		}
		note(report, kind, outcome)
	}

	if err := m.deleteGuestData(ctx, guestID); err != nil {
		metrics.Migrations.WithLabelValues("failed").Inc()
		return report, err
	}
	report.Migrated = true
	metrics.Migrations.WithLabelValues("succeeded").Inc()
	log.Printf("Migrate: %s -> %s copied=%v kept=%v", guestID, accountID, report.Copied, report.Kept)
	return report, nil
}

type copyOutcome int

const (
	copyNothing copyOutcome = iota
	copyDone
	copyKeptExisting
)

func note(r *identity.MigrationReport, kind storage.Kind, o copyOutcome) {
	switch o {
	case copyDone:
		r.Copied = append(r.Copied, string(kind))
	case copyKeptExisting:
		r.Kept = append(r.Kept, string(kind))
	}
}

// copyBucket never writes into a destination that already has records.
func copyBucket(ctx context.Context, src, dst storage.Store, from, to storage.Key) (copyOutcome, error) {
	recs, err := src.List(ctx, from)
	if err != nil {
		return copyNothing, err
	}
	if len(recs) == 0 {
		return copyNothing, nil
	}
	existing, err := dst.List(ctx, to)
	if err != nil {
		return copyNothing, err
	}
	if len(existing) > 0 {
		return copyKeptExisting, nil
	}
	if err := dst.AppendAll(ctx, to, recs); err != nil {
		return copyNothing, err
	}
	return copyDone, nil
}

func copyValue(ctx context.Context, src, dst storage.Store, from, to storage.Key) (copyOutcome, error) {
	v, err := src.Get(ctx, from)
	if errors.Is(err, apperr.ErrNotFound) {
		return copyNothing, nil
	}
	if err != nil {
		return copyNothing, err
	}
	_, err = dst.Get(ctx, to)
	if err == nil {
		return copyKeptExisting, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return copyNothing, err
	}
	if err := dst.Put(ctx, to, v); err != nil {
		return copyNothing, err
	}
	return copyDone, nil
}

func (m *SessionManager) deleteGuestData(ctx context.Context, guestID string) error {
	kinds := append(append([]storage.Kind(nil), storage.LogKinds...), storage.ValueKinds...)
	for _, kind := range kinds {
		if err := m.local.Delete(ctx, storage.Bucket(kind, guestID)); err != nil {
			return fmt.Errorf("failed to delete guest %s: %w", kind, err)
		}
	}
	if err := m.local.Delete(ctx, storage.Device(storage.KindGuestMarker)); err != nil {
		return fmt.Errorf("failed to delete guest marker: %w", err)
	}
	return nil
}

// SignOut ends the active session. Leaving a guest session destroys the
// guest's data, so it requires confirmDataLoss.
func (m *SessionManager) SignOut(ctx context.Context, confirmDataLoss bool) error {
	m.mu.Lock()
	prev := m.current
	switch {
	case prev.IsAnonymous():
		m.mu.Unlock()
		return apperr.InvalidArgument("no active session")
	case prev.IsGuest():
		if !confirmDataLoss {
			m.mu.Unlock()
			return apperr.InvalidArgument("signing out of a guest session deletes its data; confirm_data_loss is required")
		}
		if err := m.deleteGuestData(ctx, prev.ID); err != nil {
			m.mu.Unlock()
			return err
		}
	}
	if err := m.local.Delete(ctx, storage.Device(storage.KindSession)); err != nil {
		m.mu.Unlock()
		return err
	}
	m.current = identity.Anonymous
	m.mu.Unlock()

	log.Printf("Session: %s %s signed out", prev.Kind, prev.ID)
	m.emit(prev, identity.Anonymous)
	return nil
}

// RecordLogin appends a login for id. Logins feed the login streak.
func (m *SessionManager) RecordLogin(ctx context.Context, id identity.Identity) error {
	if id.IsAnonymous() {
		return apperr.InvalidArgument("no active identity")
	}
	if err := m.Settle(ctx, id); err != nil {
		return err
	}
	now := m.clock.Now()
	in := activity.Login{ID: uuid.NewString(), At: now}
	rec, err := storage.NewRecord(in.ID, in, now)
	if err != nil {
		return fmt.Errorf("failed to encode login: %w", err)
	}
	if err := m.StoreFor(id).Append(ctx, storage.Bucket(storage.KindLogins, id.ID), rec); err != nil {
		return err
	}
	metrics.ActivitiesRecorded.WithLabelValues(string(activity.KindLogin)).Inc()
	return nil
}

func (m *SessionManager) recordLogin(ctx context.Context, id identity.Identity) {
	if err := m.RecordLogin(ctx, id); err != nil {
		log.Printf("RecordLogin: failed for %s: %v", id.ID, err)
	}
}
