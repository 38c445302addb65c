package api

import (
	"context"

	"crm-api/domain"
	"crm-api/reminder"
)

// Store abstracts the record store for handlers.
type Store interface {
	List(ctx context.Context, userID string) ([]domain.Client, error)
	Get(ctx context.Context, userID, id string) (domain.Client, error)
	Insert(ctx context.Context, userID string, fields domain.ClientFields) (domain.Client, error)
	Update(ctx context.Context, userID, id string, fields domain.ClientFields) (domain.Client, error)
	Delete(ctx context.Context, userID, id string) error
}

// SettingsStore persists user configurable options.
type SettingsStore interface {
	FetchSettings(ctx context.Context, userID string) (domain.Settings, error)
	SaveSettings(ctx context.Context, userID string, settings domain.Settings) error
}

// Scheduler arms reminder tasks for board cards.
type Scheduler interface {
	Schedule(ctx context.Context, userID string, client domain.Client, minutes int) (reminder.Task, error)
}

// NotFoundError is returned when an update or delete targets a missing record.
type NotFoundError interface {
	error
	ClientNotFound()
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper prevents processing of duplicate submissions.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key, used when downstream processing fails.
	Remove(ctx context.Context, userID, key string) error
}
