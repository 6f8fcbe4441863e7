package connections

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/universitydao/walletauth/core"
)

const (
	upsertQuery = `(?s)^INSERT\s+INTO\s+wallet_connections\b.*ON\s+CONFLICT\s+\(wallet_address\)\s+DO\s+UPDATE.*connection_count\s*=\s*wallet_connections\.connection_count\s*\+\s*1.*RETURNING`
	selectQuery = `(?s)^SELECT\s+wallet_address,.*FROM\s+wallet_connections\s+WHERE\s+wallet_address\s*=\s*\$1\s*$`
)

var columns = []string{"wallet_address", "connection_count", "connected_at", "last_connected_at", "user_agent", "ip_address"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgresRepository(db).(*PostgresRepository), mock
}

func TestRecordConnection_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	first := time.Now().Add(-time.Hour)
	at := time.Now()
	client := core.ClientInfo{UserAgent: "Mozilla/5.0", IPAddress: "10.0.0.1"}

	mock.ExpectQuery(upsertQuery).
		WithArgs("0xabcdef0123456789abcdef0123456789abcdef01", at, "Mozilla/5.0", "10.0.0.1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("0xabcdef0123456789abcdef0123456789abcdef01", int64(3), first, at, "Mozilla/5.0", "10.0.0.1"))

	c, err := repo.RecordConnection(context.Background(), "0xABCDEF0123456789ABCDEF0123456789ABCDEF01", at, client)
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ConnectionCount)
	assert.Equal(t, "0xabcdef0123456789abcdef0123456789abcdef01", c.WalletAddress)
	assert.True(t, c.ConnectedAt.Equal(first))
	assert.True(t, c.LastConnectedAt.Equal(at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordConnection_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(upsertQuery).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("db down"))

	_, err := repo.RecordConnection(context.Background(), "0xabcdef0123456789abcdef0123456789abcdef01", time.Now(), core.ClientInfo{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestGet_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	at := time.Now()

	mock.ExpectQuery(selectQuery).
		WithArgs("0xabcdef0123456789abcdef0123456789abcdef01").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("0xabcdef0123456789abcdef0123456789abcdef01", int64(1), at, at, "Unknown", ""))

	c, err := repo.Get(context.Background(), "0xAbCdEf0123456789abcdef0123456789abcdef01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ConnectionCount)
	assert.Equal(t, "Unknown", c.UserAgent)
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectQuery).
		WithArgs("0xabcdef0123456789abcdef0123456789abcdef01").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "0xabcdef0123456789abcdef0123456789abcdef01")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGet_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectQuery).
		WithArgs("0xabcdef0123456789abcdef0123456789abcdef01").
		WillReturnError(errors.New("db err"))

	_, err := repo.Get(context.Background(), "0xabcdef0123456789abcdef0123456789abcdef01")
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrNotFound)
}
