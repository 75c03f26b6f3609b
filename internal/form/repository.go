package form

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrDraftNotFound is returned when no draft is stored for a session and form.
var ErrDraftNotFound = errors.New("DRAFT_NOT_FOUND")

// DraftRepository persists draft snapshots so a reload can re-render them.
type DraftRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDraftRepository(client *redis.Client, ttl time.Duration) *DraftRepository {
	return &DraftRepository{client: client, ttl: ttl}
}

func draftKey(sessionID, form string) string {
	return fmt.Sprintf("draft:%s:%s", sessionID, form)
}

func (r *DraftRepository) Get(ctx context.Context, sessionID, form string) (Snapshot, error) {
	var snap Snapshot
	raw, err := r.client.Get(ctx, draftKey(sessionID, form)).Bytes()
	if errors.Is(err, redis.Nil) {
		return snap, ErrDraftNotFound
	}
	if err != nil {
		return snap, fmt.Errorf("load draft: %w", err)
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return snap, fmt.Errorf("decode draft: %w", err)
	}
	return snap, nil
}

func (r *DraftRepository) Save(ctx context.Context, sessionID, form string, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := r.client.Set(ctx, draftKey(sessionID, form), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (r *DraftRepository) Delete(ctx context.Context, sessionID, form string) error {
	return r.client.Del(ctx, draftKey(sessionID, form)).Err()
}
