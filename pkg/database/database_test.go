package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProfilesTable(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	clients := &Clients{DB: sqlx.NewDb(mockDB, "sqlmock")}

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "waitlist_profiles"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, clients.CreateProfilesTable(context.Background(), "waitlist_profiles"))

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "waitlist_profiles"`)).
		WillReturnError(errors.New("permission denied"))
	err = clients.CreateProfilesTable(context.Background(), "waitlist_profiles")
	assert.ErrorContains(t, err, "permission denied")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfilesTableSchema(t *testing.T) {
	ddl := ProfilesTableSchema("waitlist_profiles")
	assert.Contains(t, ddl, "id TEXT PRIMARY KEY")
	assert.Contains(t, ddl, "core_skills TEXT[] NOT NULL DEFAULT '{}'")
	assert.Contains(t, ddl, "avatar_url TEXT,")
}
