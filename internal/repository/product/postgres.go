package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"hardware-catalog/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `id, code, name, COALESCE(description, ''), price, COALESCE(image_ref, ''), created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE code = $1`
	return r.scanProduct(r.pool.QueryRow(ctx, q, code))
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return r.scanProduct(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) Insert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (code, name, description, price, image_ref)
VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''))
RETURNING id, created_at
`
	res := p
	err := r.pool.QueryRow(ctx, q, p.Code, p.Name, p.Description, p.Price, p.ImageRef).
		Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateCode
		}
		r.logger.Printf("product repo: insert code=%s error=%v", p.Code, err)
		return nil, storeErr("insert", err)
	}
	r.logger.Printf("product repo: inserted code=%s id=%d", res.Code, res.ID)
	return &res, nil
}

func (r *postgresRepo) Update(ctx context.Context, id int64, p domain.Product) (*domain.Product, error) {
	const q = `
UPDATE products
SET code = $2,
    name = $3,
    description = NULLIF($4, ''),
    price = $5,
    image_ref = NULLIF($6, '')
WHERE id = $1
RETURNING created_at
`
	res := p
	res.ID = id
	err := r.pool.QueryRow(ctx, q, id, p.Code, p.Name, p.Description, p.Price, p.ImageRef).
		Scan(&res.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateCode
		}
		r.logger.Printf("product repo: update id=%d error=%v", id, err)
		return nil, storeErr("update", err)
	}
	return &res, nil
}

func (r *postgresRepo) SetImageRef(ctx context.Context, id int64, ref string) error {
	const q = `UPDATE products SET image_ref = NULLIF($2, '') WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, ref)
	if err != nil {
		r.logger.Printf("product repo: set image_ref id=%d error=%v", id, err)
		return storeErr("set image_ref", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Printf("product repo: delete id=%d error=%v", id, err)
		return storeErr("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("product repo: deleted id=%d", id)
	return nil
}

// BulkInsertIgnoreDuplicates stages rows into a temp table with CopyFrom and
// moves them into products with ON CONFLICT DO NOTHING, so codes already
// present (or repeated within the batch) are skipped without aborting. The
// whole batch runs in one transaction: any failure commits nothing.
func (r *postgresRepo) BulkInsertIgnoreDuplicates(ctx context.Context, rows []domain.Product) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, storeErr("begin", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
CREATE TEMPORARY TABLE products_stage (
    code TEXT,
    name TEXT,
    description TEXT,
    price DOUBLE PRECISION
) ON COMMIT DROP
`)
	if err != nil {
		return 0, storeErr("create stage", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"products_stage"},
		[]string{"code", "name", "description", "price"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return []any{rows[i].Code, rows[i].Name, rows[i].Description, rows[i].Price}, nil
		}),
	)
	if err != nil {
		return 0, storeErr("copy stage", err)
	}

	tag, err := tx.Exec(ctx, `
INSERT INTO products (code, name, description, price)
SELECT code, name, NULLIF(description, ''), price
FROM products_stage
ON CONFLICT (code) DO NOTHING
`)
	if err != nil {
		return 0, storeErr("insert from stage", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, storeErr("commit", err)
	}

	r.logger.Printf("product repo: bulk insert staged=%d inserted=%d", len(rows), tag.RowsAffected())
	return tag.RowsAffected(), nil
}

func (r *postgresRepo) List(ctx context.Context, filter string, limit, offset int) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products`
	args := []any{}
	if filter != "" {
		q += ` WHERE name ILIKE $1 OR code ILIKE $1 ORDER BY name ASC`
		args = append(args, "%"+filter+"%")
		q += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	} else {
		q += ` ORDER BY id DESC LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("product repo: list filter=%q error=%v", filter, err)
		return nil, storeErr("list", err)
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.Price, &p.ImageRef, &p.CreatedAt); err != nil {
			return nil, storeErr("list scan", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows filter=%q error=%v", filter, err)
		return nil, storeErr("list rows", err)
	}
	return result, nil
}

func (r *postgresRepo) Count(ctx context.Context, filter string) (int, error) {
	q := `SELECT COUNT(id) FROM products`
	args := []any{}
	if filter != "" {
		q += ` WHERE name ILIKE $1 OR code ILIKE $1`
		args = append(args, "%"+filter+"%")
	}
	var n int
	if err := r.pool.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		r.logger.Printf("product repo: count filter=%q error=%v", filter, err)
		return 0, storeErr("count", err)
	}
	return n, nil
}

func (r *postgresRepo) scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.Price, &p.ImageRef, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: scan error=%v", err)
		return nil, storeErr("get", err)
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// storeErr marks an unexpected store failure so callers can distinguish
// "the catalog store did not answer" from domain outcomes.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}
