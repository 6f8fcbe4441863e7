// Package connections stores WalletConnection analytics rows.
package connections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/universitydao/walletauth/core"
	"github.com/universitydao/walletauth/ports"
)

// DBTX is the subset of database/sql used by the repository.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresRepository implements ConnectionRepository on PostgreSQL
type PostgresRepository struct {
	db DBTX
}

// Open connects through the pgx driver and verifies the connection
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	return db, nil
}

// NewPostgresRepository constructs a repository bound to the given DBTX
func NewPostgresRepository(db DBTX) ports.ConnectionRepository {
	return &PostgresRepository{db: db}
}

// RecordConnection upserts the row and bumps connection_count in one statement
func (r *PostgresRepository) RecordConnection(ctx context.Context, address string, at time.Time, client core.ClientInfo) (*core.WalletConnection, error) {
	query := `
		INSERT INTO wallet_connections (wallet_address, connection_count, connected_at, last_connected_at, user_agent, ip_address)
		VALUES ($1, 1, $2, $2, $3, $4)
		ON CONFLICT (wallet_address) DO UPDATE
		SET connection_count = wallet_connections.connection_count + 1,
			last_connected_at = EXCLUDED.last_connected_at,
			user_agent = EXCLUDED.user_agent,
			ip_address = EXCLUDED.ip_address,
			updated_at = EXCLUDED.last_connected_at
		RETURNING wallet_address, connection_count, connected_at, last_connected_at, user_agent, ip_address
	`

	c := &core.WalletConnection{}
	err := r.db.QueryRowContext(ctx, query, core.NormalizeAddress(address), at, client.UserAgent, client.IPAddress).
		Scan(&c.WalletAddress, &c.ConnectionCount, &c.ConnectedAt, &c.LastConnectedAt, &c.UserAgent, &c.IPAddress)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return c, nil
}

// Get returns the connection row for an address
func (r *PostgresRepository) Get(ctx context.Context, address string) (*core.WalletConnection, error) {
	query := `
		SELECT wallet_address, connection_count, connected_at, last_connected_at, user_agent, ip_address
		FROM wallet_connections
		WHERE wallet_address = $1
	`

	c := &core.WalletConnection{}
	err := r.db.QueryRowContext(ctx, query, core.NormalizeAddress(address)).
		Scan(&c.WalletAddress, &c.ConnectionCount, &c.ConnectedAt, &c.LastConnectedAt, &c.UserAgent, &c.IPAddress)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}
