package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fathussalafi/yayasan-api/internal/models"
	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
)

const draftKeyPrefix = "yayasan:ppdb:draft:"

// DraftRepository keeps admission wizard drafts in Redis until they expire.
type DraftRepository struct {
	client *redis.Client
}

// NewDraftRepository constructs a draft repository.
func NewDraftRepository(client *redis.Client) *DraftRepository {
	return &DraftRepository{client: client}
}

// Save stores the draft, resetting its TTL.
func (r *DraftRepository) Save(ctx context.Context, draft *models.RegistrationDraft, ttl time.Duration) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal draft %s: %w", draft.ID, err)
	}
	if err := r.client.Set(ctx, draftKeyPrefix+draft.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("save draft %s: %w", draft.ID, err)
	}
	return nil
}

// Find loads a draft. An unknown or expired draft yields ErrNotFound.
func (r *DraftRepository) Find(ctx context.Context, id string) (*models.RegistrationDraft, error) {
	raw, err := r.client.Get(ctx, draftKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("load draft %s: %w", id, err)
	}
	var draft models.RegistrationDraft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", id, err)
	}
	return &draft, nil
}

// Delete removes a draft.
func (r *DraftRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, draftKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	return nil
}
