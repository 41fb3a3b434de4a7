package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cplounge/ranksync/internal/db"
	"github.com/cplounge/ranksync/internal/domain"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

type identityRepository struct {
	db    *sqlx.DB
	table string
}

func newIdentityRepository(db *sqlx.DB, table string) *identityRepository {
	return &identityRepository{
		db:    db,
		table: table,
	}
}

func (r *identityRepository) Upsert(ctx context.Context, identity *domain.Identity) error {
	existing, err := r.GetByHandle(ctx, identity.Handle)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("upsert conflict check failed: %w", err)
	}
	if existing != nil && existing.UserID != identity.UserID {
		if existing.Verified {
			return domain.ErrHandleTaken
		}
		// An abandoned unverified row may hold the handle; evict it
		// so the unique key does not block the write.
		if err := r.Delete(ctx, existing.UserID); err != nil {
			return fmt.Errorf("evict stale unverified row failed: %w", err)
		}
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (user_id, handle, tier, rating, verified, last_checked)
	VALUES (:user_id, :handle, :tier, :rating, :verified, :last_checked)
	ON DUPLICATE KEY UPDATE
		handle = VALUES(handle),
		tier = VALUES(tier),
		rating = VALUES(rating),
		verified = VALUES(verified),
		last_checked = VALUES(last_checked)
	`, r.table)

	if _, err := r.db.NamedExecContext(ctx, query, identity); err != nil {
		// A concurrent writer may have taken the handle between the
		// conflict check and the write.
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == db.DuplicateEntry {
			return domain.ErrHandleTaken
		}
		return fmt.Errorf("upsert into %s failed: %w", r.table, err)
	}

	return nil
}

func (r *identityRepository) Get(ctx context.Context, userID int64) (*domain.Identity, error) {
	query := fmt.Sprintf(`
	SELECT user_id, handle, tier, rating, verified, last_checked FROM %s WHERE user_id = ?;
	`, r.table)

	var identity domain.Identity
	if err := r.db.GetContext(ctx, &identity, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select from %s by user_id failed: %w", r.table, err)
	}

	return &identity, nil
}

func (r *identityRepository) GetByHandle(ctx context.Context, handle string) (*domain.Identity, error) {
	query := fmt.Sprintf(`
	SELECT user_id, handle, tier, rating, verified, last_checked FROM %s WHERE handle = ?;
	`, r.table)

	var identity domain.Identity
	if err := r.db.GetContext(ctx, &identity, query, handle); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select from %s by handle failed: %w", r.table, err)
	}

	return &identity, nil
}

func (r *identityRepository) Delete(ctx context.Context, userID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = ?;`, r.table)

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete from %s failed: %w", r.table, err)
	}

	return nil
}

func (r *identityRepository) ListVerified(ctx context.Context) ([]domain.Identity, error) {
	query := fmt.Sprintf(`
	SELECT user_id, handle, tier, rating, verified, last_checked FROM %s WHERE verified = TRUE;
	`, r.table)

	var identities []domain.Identity
	if err := r.db.SelectContext(ctx, &identities, query); err != nil {
		return nil, fmt.Errorf("list verified from %s failed: %w", r.table, err)
	}

	return identities, nil
}

func (r *identityRepository) PurgeUnverified(ctx context.Context) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE verified = FALSE;`, r.table)

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("purge unverified from %s failed: %w", r.table, err)
	}

	return nil
}
