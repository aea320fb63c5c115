package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"shopadmin/internal/session"
)

const tsLayout = "2006-01-02 15:04:05"

type ClientStorageRepo struct{ DB *sqlx.DB }

func NewClientStorageRepo(db *sqlx.DB) *ClientStorageRepo { return &ClientStorageRepo{DB: db} }

// For implements session.Store.
func (r *ClientStorageRepo) For(clientID string) session.Storage {
	return &clientStorage{repo: r, clientID: clientID}
}

// Touch records that a client was seen, creating it if needed.
func (r *ClientStorageRepo) Touch(ctx context.Context, clientID string) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO clients(id,last_seen)
                          VALUES(?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET last_seen=CURRENT_TIMESTAMP`, clientID)
	return err
}

func (r *ClientStorageRepo) Get(ctx context.Context, clientID, key string) (string, bool, error) {
	var v string
	err := r.DB.GetContext(ctx, &v, `SELECT value FROM client_storage WHERE client_id=? AND key=?`, clientID, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *ClientStorageRepo) Set(ctx context.Context, clientID, key, value string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO clients(id,last_seen)
                          VALUES(?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET last_seen=CURRENT_TIMESTAMP`, clientID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO client_storage(client_id,key,value,updated_at)
		VALUES(?,?,?,CURRENT_TIMESTAMP)
		ON CONFLICT(client_id,key) DO UPDATE SET value=excluded.value, updated_at=CURRENT_TIMESTAMP
	`, clientID, key, value); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *ClientStorageRepo) Remove(ctx context.Context, clientID, key string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM client_storage WHERE client_id=? AND key=?`, clientID, key)
	return err
}

// PurgeIdle deletes clients not seen since before, along with their storage rows.
func (r *ClientStorageRepo) PurgeIdle(ctx context.Context, before time.Time) (int64, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	cutoff := before.UTC().Format(tsLayout)
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM client_storage WHERE client_id IN (
		  SELECT id FROM clients WHERE COALESCE(last_seen, created_at) < ?
		)`, cutoff); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM clients WHERE COALESCE(last_seen, created_at) < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, tx.Commit()
}

type clientStorage struct {
	repo     *ClientStorageRepo
	clientID string
}

// GetItem also marks the client as seen, so a session that is only read stays clear
// of PurgeIdle.
func (s *clientStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.repo.Get(ctx, s.clientID, key)
	if err != nil || !ok {
		return v, ok, err
	}
	if err := s.repo.Touch(ctx, s.clientID); err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *clientStorage) SetItem(ctx context.Context, key, value string) error {
	return s.repo.Set(ctx, s.clientID, key, value)
}

func (s *clientStorage) RemoveItem(ctx context.Context, key string) error {
	return s.repo.Remove(ctx, s.clientID, key)
}
