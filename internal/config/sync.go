package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rezkam/stackit/internal/domain"
)

// ErrInvalidUserID is returned when STACKIT_USER_ID is not a UUID.
var ErrInvalidUserID = errors.New("invalid STACKIT_USER_ID")

// SyncConfig configures how the local cache talks to the remote store.
type SyncConfig struct {
	// UserID owns every row written and scopes every fetch. Empty means an
	// anonymous user with the nil UUID.
	UserID string `env:"STACKIT_USER_ID"`

	WriteQueueSize   int           `env:"STACKIT_WRITE_QUEUE_SIZE"`
	OperationTimeout time.Duration `env:"STACKIT_OPERATION_TIMEOUT"`
	FetchTimeout     time.Duration `env:"STACKIT_FETCH_TIMEOUT" default:"30s"`

	MergePolicy domain.MergePolicy `env:"STACKIT_MERGE_POLICY" default:"overwrite"`

	// RefreshSpec is the cron schedule of periodic refreshes in long-running commands.
	RefreshSpec string `env:"STACKIT_REFRESH_SPEC" default:"@every 5m"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	if c.UserID != "" {
		if _, err := uuid.Parse(c.UserID); err != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidUserID, c.UserID, err)
		}
	}
	policy, err := domain.ParseMergePolicy(string(c.MergePolicy))
	if err != nil {
		return err
	}
	c.MergePolicy = policy
	return nil
}

// OwnerID returns the configured user id, or uuid.Nil when unset.
func (c *SyncConfig) OwnerID() uuid.UUID {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil
	}
	return id
}
