package storage

import (
	"context"
	"encoding/json"
	"time"
)

// Kind names a bucket or value family. Rendered keys match the device-local
// layout: tasks_<owner>, userStats_<owner> and so on.
type Kind string

const (
	KindTasks         Kind = "tasks"
	KindFocusSessions Kind = "focusSessions"
	KindMoodEntries   Kind = "moodEntries"
	KindLogins        Kind = "logins"
	KindStats         Kind = "userStats"
	KindSettings      Kind = "userSettings"

	KindGuestMarker Kind = "guestId"
	KindSession     Kind = "session"
)

// LogKinds are the append-only buckets, in migration order.
var LogKinds = []Kind{KindTasks, KindFocusSessions, KindMoodEntries, KindLogins}

// ValueKinds are the single-value keys owned by an identity, in migration order.
var ValueKinds = []Kind{KindStats, KindSettings}

type Key struct {
	Kind  Kind
	Owner string
}

func Bucket(kind Kind, owner string) Key { return Key{Kind: kind, Owner: owner} }

// Device keys are not owned by an identity.
func Device(kind Kind) Key { return Key{Kind: kind} }

func (k Key) String() string {
	if k.Owner == "" {
		return string(k.Kind)
	}
	return string(k.Kind) + "_" + k.Owner
}

// Record is one entry of an append-only bucket.
type Record struct {
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewRecord(id string, v any, createdAt time.Time) (Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Record{}, err
	}
	return Record{ID: id, Payload: raw, CreatedAt: createdAt}, nil
}

// Store is the contract both backends satisfy. Failures wrap
// apperr.ErrStorageUnavailable; absent values and records are apperr.ErrNotFound.
type Store interface {
	// Append adds rec to the end of bucket. Appending an id already present
	// in the bucket is a no-op.
	Append(ctx context.Context, bucket Key, rec Record) error
	// AppendAll appends recs in order as one atomic unit.
	AppendAll(ctx context.Context, bucket Key, recs []Record) error
	// List returns the bucket in append order.
	List(ctx context.Context, bucket Key) ([]Record, error)
	// Replace swaps the payload of an existing record, keeping its position.
	Replace(ctx context.Context, bucket Key, rec Record) error

	Get(ctx context.Context, key Key) (json.RawMessage, error)
	Put(ctx context.Context, key Key, value json.RawMessage) error
	// Delete drops both the bucket and the value stored under key.
	Delete(ctx context.Context, key Key) error

	Ping(ctx context.Context) error
	Close() error
}

type RankRow struct {
	OwnerID  string
	Username string
	XP       int64
	Level    int
}

// Ranker lists ledgers by xp, highest first.
type Ranker interface {
	TopByXP(ctx context.Context, limit int) ([]RankRow, int, error)
}
