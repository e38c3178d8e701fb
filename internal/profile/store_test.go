package profile

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "sqlmock")
	return NewPostgresStore(db, "waitlist_profiles"), mock
}

func profileRow(avatar any) *sqlmock.Rows {
	return sqlmock.NewRows(SelectColumns).AddRow(
		testAccount.ID, testAccount.Email, "ada", "Ada Lovelace", "London", "I build engines.",
		"https://linkedin.com/in/ada", "", "CTO", 10,
		"{Go,Rust}", "{}", false, "",
		"", "{}", "{}",
		"", "",
		"Full-time", "Negotiable", true,
		"", "{chess}", avatar, testNow,
	)
}

func TestUpsertQuery(t *testing.T) {
	store, _ := setupStore(t)
	rec := NewRecord(testAccount, Input{Username: "ada"}, testNow)

	query, args := store.upsertQuery(rec)
	assert.Contains(t, query, `INSERT INTO "waitlist_profiles" (id, email, username,`)
	assert.Contains(t, query, "ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email")
	assert.NotContains(t, query, "id = EXCLUDED.id")
	assert.NotContains(t, query, "avatar_url = EXCLUDED.avatar_url", "untouched avatar is not written")
	assert.Len(t, args, len(rec.Columns()))
	assert.Equal(t, testAccount.ID, args[0])

	rec.SetAvatarURL(nil)
	query, args = store.upsertQuery(rec)
	assert.Contains(t, query, "avatar_url = EXCLUDED.avatar_url")
	assert.Len(t, args, len(SelectColumns))
}

func TestPostgresStoreUpsert(t *testing.T) {
	store, mock := setupStore(t)

	url := "https://cdn/avatar.png"
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "waitlist_profiles"`)).
		WillReturnRows(profileRow(url))

	rec := NewRecord(testAccount, Input{Username: "ada", FullName: "Ada Lovelace"}, testNow)
	rec.SetAvatarURL(&url)

	p, err := store.Upsert(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, testAccount.ID, p.ID)
	assert.Equal(t, []string{"Go", "Rust"}, []string(p.CoreSkills))
	require.NotNil(t, p.AvatarURL)
	assert.Equal(t, url, *p.AvatarURL)
	require.NotNil(t, p.YearsExperience)
	assert.Equal(t, 10, *p.YearsExperience)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpsertError(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "waitlist_profiles"`)).
		WillReturnError(errors.New("duplicate key value violates unique constraint"))

	_, err := store.Upsert(context.Background(), NewRecord(testAccount, Input{}, time.Now()))
	assert.ErrorContains(t, err, "failed to upsert profile")
}

func TestPostgresStoreGet(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "waitlist_profiles" WHERE id = $1`)).
		WithArgs(testAccount.ID).
		WillReturnRows(profileRow(nil))

	p, err := store.Get(context.Background(), testAccount.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", p.FullName)
	assert.Nil(t, p.AvatarURL)
	assert.Equal(t, "I build engines.", p.Bio)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "waitlist_profiles" WHERE id = $1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(SelectColumns))

	_, err = store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreExists(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "waitlist_profiles" WHERE id = $1`)).
		WithArgs(testAccount.ID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := store.Exists(context.Background(), testAccount.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
