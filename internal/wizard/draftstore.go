package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DraftStore keeps wizard states in Redis. The pending avatar bytes live
// under a sibling key so the state document stays small.
type DraftStore struct {
	rdb     *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
	now     func() time.Time
}

func NewDraftStore(rdb *redis.Client, ttl, lockTTL time.Duration) *DraftStore {
	return &DraftStore{rdb: rdb, ttl: ttl, lockTTL: lockTTL, now: time.Now}
}

func draftKey(userID string) string  { return "wizard:" + userID }
func avatarKey(userID string) string { return "wizard:" + userID + ":avatar" }
func lockKey(userID string) string   { return "wizard:" + userID + ":submitting" }

// ErrNoDraft is returned by Find when userID has no stored state.
var ErrNoDraft = errors.New("no wizard draft")

// Load returns the stored state for userID, or a fresh one if none exists.
func (s *DraftStore) Load(ctx context.Context, userID string) (*State, error) {
	st, err := s.Find(ctx, userID)
	if errors.Is(err, ErrNoDraft) {
		return NewState(userID), nil
	}
	return st, err
}

// Find returns the stored state for userID or ErrNoDraft.
func (s *DraftStore) Find(ctx context.Context, userID string) (*State, error) {
	raw, err := s.rdb.Get(ctx, draftKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoDraft
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	st.UserID = userID

	if st.Draft.Avatar != nil {
		data, err := s.rdb.Get(ctx, avatarKey(userID)).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			// The bytes expired separately; drop the dangling metadata.
			st.Draft.Avatar = nil
		case err != nil:
			return nil, fmt.Errorf("failed to load draft avatar: %w", err)
		default:
			st.Draft.Avatar.Data = data
		}
	}
	return &st, nil
}

// Save writes the state and refreshes its expiry.
func (s *DraftStore) Save(ctx context.Context, st *State) error {
	st.UpdatedAt = s.now().UTC()
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, draftKey(st.UserID), raw, s.ttl)
	switch {
	case st.Draft.Avatar == nil:
		pipe.Del(ctx, avatarKey(st.UserID))
	case st.Draft.Avatar.Data != nil:
		pipe.Set(ctx, avatarKey(st.UserID), st.Draft.Avatar.Data, s.ttl)
	default:
		pipe.Expire(ctx, avatarKey(st.UserID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Delete discards the state, its avatar and any submit lock.
func (s *DraftStore) Delete(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, draftKey(userID), avatarKey(userID), lockKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// Lock marks a submission as in flight. It returns false if one already is.
func (s *DraftStore) Lock(ctx context.Context, userID string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, lockKey(userID), s.now().Unix(), s.lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire submit lock: %w", err)
	}
	return ok, nil
}

func (s *DraftStore) Unlock(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, lockKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to release submit lock: %w", err)
	}
	return nil
}
