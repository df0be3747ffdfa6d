package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/clipher/internal/common"
	"github.com/dmitrijs2005/clipher/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

var userColumns = []string{
	"username", "hashed_password", "public_key", "private_key",
	"encrypted_tfa_secret", "tfa_iv", "tfa_salt", "tfa_verified", "created_at",
}

const (
	qSelectUser = `(?s)^SELECT\s+username,.*FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`
	qInsertUser = `(?s)^INSERT\s+INTO\s+users\b.*VALUES\s*\(\$1,.*\$9\)\s*$`
	qDeleteUser = `(?s)^DELETE\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`
	qExistsUser = `(?s)^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\)\s*$`
	qVerifyUser = `(?s)^UPDATE\s+users\s+SET\s+tfa_verified\s*=\s*TRUE\s+WHERE\s+username\s*=\s*\$1\s+AND\s+NOT\s+tfa_verified\s*$`
)

func TestGet_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(qSelectUser).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("alice", "hash", "pub", "priv", "enc", "iv", "salt", true, created))

	got, err := repo.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, &models.User{
		UserName: "alice", HashedPassword: "hash", PublicKey: "pub", PrivateKey: "priv",
		EncryptedTfaSecret: "enc", TfaIV: "iv", TfaSalt: "salt", TfaVerified: true, CreatedAt: created,
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(qSelectUser).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGet_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(qSelectUser).WithArgs("alice").WillReturnError(errors.New("db down"))

	_, err := repo.Get(context.Background(), "alice")
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

func TestAdd(t *testing.T) {
	u := &models.User{UserName: "alice", HashedPassword: "h", PublicKey: "pub", PrivateKey: "priv",
		EncryptedTfaSecret: "enc", TfaIV: "iv", TfaSalt: "salt", CreatedAt: time.Now()}

	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{name: "ok"},
		{name: "duplicate", dbErr: &pgconn.PgError{Code: "23505"}, wantErr: common.ErrorAlreadyExists},
		{name: "other error", dbErr: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)

			exp := mock.ExpectExec(qInsertUser).
				WithArgs(u.UserName, u.HashedPassword, u.PublicKey, u.PrivateKey,
					u.EncryptedTfaSecret, u.TfaIV, u.TfaSalt, false, u.CreatedAt)
			if tt.dbErr != nil {
				exp.WillReturnError(tt.dbErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			err := repo.Add(context.Background(), u)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.dbErr != nil:
				assert.ErrorContains(t, err, "db error")
			default:
				assert.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "removed", affected: 1, want: true},
		{name: "absent", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectExec(qDeleteUser).WithArgs("alice").WillReturnResult(sqlmock.NewResult(0, tt.affected))

			got, err := repo.Remove(context.Background(), "alice")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExists(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(qExistsUser).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.Exists(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSetTfaVerified(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		dbErr    error
		want     bool
		wantErr  bool
	}{
		{name: "flipped", affected: 1, want: true},
		{name: "already verified", affected: 0, want: false},
		{name: "db error", dbErr: errors.New("boom"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			exp := mock.ExpectExec(qVerifyUser).WithArgs("alice")
			if tt.dbErr != nil {
				exp.WillReturnError(tt.dbErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, tt.affected))
			}

			got, err := repo.SetTfaVerified(context.Background(), "alice")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
