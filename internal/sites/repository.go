package sites

import (
	"context"
	"errors"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Get(ctx context.Context, code int) (Site, error)
	ListActive(ctx context.Context) ([]Site, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, code int) (Site, error) {
	query := `SELECT site_code, name, is_bunkered, is_active FROM sites WHERE site_code = $1`
	var s Site
	err := pgxscan.Get(ctx, r.db, &s, query, code)
	if errors.Is(err, pgx.ErrNoRows) {
		return Site{}, ErrSiteNotFound
	}
	return s, err
}

func (r *repository) ListActive(ctx context.Context) ([]Site, error) {
	query := `SELECT site_code, name, is_bunkered, is_active
FROM sites
WHERE is_active = TRUE AND site_code NOT IN (0, 1)
ORDER BY name`
	var out []Site
	if err := pgxscan.Select(ctx, r.db, &out, query); err != nil {
		return nil, err
	}
	return out, nil
}
