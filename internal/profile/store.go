package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/illegalcall/cofoundr-waitlist/internal/models"
)

// Store persists profile rows keyed by account id.
type Store interface {
	// Upsert inserts the record or replaces the existing row with the same id.
	Upsert(ctx context.Context, rec Record) (*models.Profile, error)
	Get(ctx context.Context, id string) (*models.Profile, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// SelectColumns are the columns read back for a profile.
var SelectColumns = []string{
	FieldID, FieldEmail, FieldUsername, FieldFullName, FieldLocation, FieldBio,
	FieldLinkedInURL, FieldWebsiteURL, FieldPrimaryRoleSeeking, FieldYearsExperience,
	FieldCoreSkills, FieldIndustryExperience, FieldHasIdea, FieldIdeaDescription,
	FieldIdeaStage, FieldCofounderLookingForRoles, FieldCofounderLookingForSkills,
	FieldCofounderPersonalityTraits, FieldCofounderIndustryBackground,
	FieldCommitmentLevel, FieldEquitySplitExpectation, FieldWillingToRelocate,
	FieldPreferredCofounderLocation, FieldInterests, FieldAvatarURL, FieldUpdatedAt,
}

// PostgresStore writes profiles straight to Postgres.
type PostgresStore struct {
	db    *sqlx.DB
	table string
}

func NewPostgresStore(db *sqlx.DB, table string) *PostgresStore {
	return &PostgresStore{db: db, table: pq.QuoteIdentifier(table)}
}

func (s *PostgresStore) Upsert(ctx context.Context, rec Record) (*models.Profile, error) {
	query, args := s.upsertQuery(rec)

	var p models.Profile
	if err := s.db.QueryRowxContext(ctx, query, args...).StructScan(&p); err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) upsertQuery(rec Record) (string, []any) {
	cols := rec.Columns()
	names := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	updates := make([]string, 0, len(cols)-1)
	args := make([]any, len(cols))

	for i, c := range cols {
		names[i] = c.Name
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = c.Value
		if c.Name != FieldID {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c.Name, c.Name))
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s RETURNING %s",
		s.table,
		strings.Join(names, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
		strings.Join(SelectColumns, ", "),
	)
	return query, args
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Profile, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", strings.Join(SelectColumns, ", "), s.table)

	var p models.Profile
	if err := s.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = $1", s.table)
	if err := s.db.GetContext(ctx, &count, query, id); err != nil {
		return false, fmt.Errorf("failed to check for existing profile: %w", err)
	}
	return count > 0, nil
}
