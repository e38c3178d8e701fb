package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/illegalcall/cofoundr-waitlist/internal/models"
	"github.com/illegalcall/cofoundr-waitlist/internal/storage"
)

// Stage is how far a submission got before it finished or failed.
type Stage string

const (
	StageReceived     Stage = "received"
	StageValidated    Stage = "validated"
	StageFileUploaded Stage = "file_uploaded"
	StagePersisted    Stage = "persisted"
	StageSuccess      Stage = "success"
)

// Submission describes the outcome of one Submit call.
type Submission struct {
	Stage   Stage
	Profile *models.Profile
}

// Service validates submissions, uploads avatars and upserts profile rows.
type Service struct {
	store   Store
	objects storage.Storage
	schema  *Schema
	bucket  string
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(store Store, objects storage.Storage, schema *Schema, bucket string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		objects: objects,
		schema:  schema,
		bucket:  bucket,
		logger:  logger,
		now:     time.Now,
	}
}

// Schema returns the schema submissions are checked against.
func (s *Service) Schema() *Schema {
	return s.schema
}

// Submit runs one submission through validation, avatar upload and upsert.
// The returned Submission is never nil and records the last stage reached.
func (s *Service) Submit(ctx context.Context, acct models.Account, p Payload) (*Submission, error) {
	sub := &Submission{Stage: StageReceived}

	in, fieldErrs := s.schema.Check(p)
	if fieldErrs != nil {
		return sub, &ValidationError{Fields: fieldErrs}
	}
	sub.Stage = StageValidated

	now := s.now()
	rec := NewRecord(acct, in, now)

	var objectPath string
	switch {
	case in.Avatar != nil:
		objectPath = fmt.Sprintf("%s/avatar_%d", acct.ID, now.UnixMilli())
		url, err := s.objects.Upload(ctx, s.bucket, objectPath, in.Avatar.ContentType, in.Avatar.Data)
		if err != nil {
			s.logger.Error("Avatar upload failed", "user_id", acct.ID, "error", err)
			return sub, fmt.Errorf("%w: %v", ErrUpload, err)
		}
		rec.SetAvatarURL(&url)
		sub.Stage = StageFileUploaded
	case in.AvatarRemoved:
		rec.SetAvatarURL(nil)
	}

	saved, err := s.store.Upsert(ctx, rec)
	if errors.Is(err, ErrReadBack) {
		// The row references the avatar now, so it must stay.
		s.logger.Warn("Profile saved but not read back", "user_id", acct.ID, "error", err)
		saved, err = &rec.Profile, nil
	}
	if err != nil {
		s.logger.Error("Profile upsert failed", "user_id", acct.ID, "error", err)
		if objectPath != "" {
			s.discard(objectPath)
		}
		return sub, fmt.Errorf("%w: %v", ErrPersist, err)
	}
	sub.Stage = StagePersisted
	sub.Profile = saved

	s.logger.Info("Profile saved", "user_id", acct.ID, "avatar_uploaded", objectPath != "")
	sub.Stage = StageSuccess
	return sub, nil
}

// discard removes an uploaded avatar whose row was never written.
func (s *Service) discard(path string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.objects.Delete(ctx, s.bucket, path); err != nil {
		s.logger.Warn("Failed to delete orphaned avatar", "path", path, "error", err)
	}
}

func (s *Service) Get(ctx context.Context, id string) (*models.Profile, error) {
	return s.store.Get(ctx, id)
}

// HasProfile reports whether a profile row exists for id.
func (s *Service) HasProfile(ctx context.Context, id string) (bool, error) {
	ok, err := s.store.Exists(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, err
	}
	return ok, nil
}
