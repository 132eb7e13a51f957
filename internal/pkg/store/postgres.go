package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dayoung-ko/finsync/internal/pkg/model"
	"github.com/jackc/pgtype"
	shopspringnumeric "github.com/jackc/pgtype/ext/shopspring-numeric"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
)

// ErrProductNotFound is returned when a natural key resolves to no product row.
var ErrProductNotFound = errors.New("product not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS products (
	id               BIGSERIAL PRIMARY KEY,
	dcls_month       TEXT NOT NULL,
	fin_co_no        TEXT NOT NULL,
	fin_prdt_cd      TEXT NOT NULL,
	crdt_prdt_type   TEXT NOT NULL,
	kor_co_nm        TEXT NOT NULL,
	fin_prdt_nm      TEXT NOT NULL,
	join_way         TEXT NOT NULL,
	cb_name          TEXT NOT NULL,
	crdt_prdt_type_nm TEXT NOT NULL,
	dcls_strt_day    DATE,
	dcls_end_day     DATE,
	fin_co_subm_day  DATE,
	first_seen_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (fin_co_no, fin_prdt_cd)
);

CREATE TABLE IF NOT EXISTS options (
	id                     BIGSERIAL PRIMARY KEY,
	product_id             BIGINT NOT NULL REFERENCES products (id) ON DELETE CASCADE,
	fin_co_no              TEXT NOT NULL,
	fin_prdt_cd            TEXT NOT NULL,
	crdt_lend_rate_type    TEXT NOT NULL,
	crdt_lend_rate_type_nm TEXT NOT NULL,
	crdt_grad_1            NUMERIC(6, 3),
	crdt_grad_4            NUMERIC(6, 3),
	crdt_grad_5            NUMERIC(6, 3),
	crdt_grad_6            NUMERIC(6, 3),
	crdt_grad_10           NUMERIC(6, 3),
	crdt_grad_11           NUMERIC(6, 3),
	crdt_grad_12           NUMERIC(6, 3),
	crdt_grad_13           NUMERIC(6, 3),
	crdt_grad_avg          NUMERIC(6, 3),
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (fin_co_no, fin_prdt_cd, crdt_lend_rate_type)
);
`

// Connect opens a pgx connection pool against the given DSN. NUMERIC columns
// are mapped onto shopspring decimals on every connection.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	cfg.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		conn.ConnInfo().RegisterDataType(pgtype.DataType{
			Value: &shopspringnumeric.Numeric{},
			Name:  "numeric",
			OID:   pgtype.NumericOID,
		})
		return nil
	}

	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return pool, nil
}

// Postgres persists products and options with natural-key uniqueness enforced
// by the schema: duplicate inserts land on the unique constraints, never on a
// separate existence probe, so concurrent passes cannot double-insert.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) *Postgres {
	return &Postgres{pool: pool, logger: logger}
}

// Migrate creates the schema if it does not exist yet.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	s.logger.Info("schema ready")
	return nil
}

// UpsertProduct inserts a product on first sighting of its natural key and
// overwrites the descriptive columns on every later sighting. Option rows are
// never touched by this call.
func (s *Postgres) UpsertProduct(ctx context.Context, p model.Product) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO products (
			dcls_month, fin_co_no, fin_prdt_cd, crdt_prdt_type, kor_co_nm,
			fin_prdt_nm, join_way, cb_name, crdt_prdt_type_nm,
			dcls_strt_day, dcls_end_day, fin_co_subm_day
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (fin_co_no, fin_prdt_cd) DO UPDATE SET
			dcls_month        = EXCLUDED.dcls_month,
			crdt_prdt_type    = EXCLUDED.crdt_prdt_type,
			kor_co_nm         = EXCLUDED.kor_co_nm,
			fin_prdt_nm       = EXCLUDED.fin_prdt_nm,
			join_way          = EXCLUDED.join_way,
			cb_name           = EXCLUDED.cb_name,
			crdt_prdt_type_nm = EXCLUDED.crdt_prdt_type_nm,
			dcls_strt_day     = EXCLUDED.dcls_strt_day,
			dcls_end_day      = EXCLUDED.dcls_end_day,
			fin_co_subm_day   = EXCLUDED.fin_co_subm_day,
			updated_at        = now()`,
		p.DisclosureMonth, p.InstitutionCode, p.ProductCode, p.ProductTypeCode, p.InstitutionName,
		p.ProductName, p.JoinWay, p.CBName, p.ProductTypeName,
		dateArg(p.DisclosureStart), dateArg(p.DisclosureEnd), dateArg(p.SubmittedOn))
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

// OptionExists probes for an option row by natural key. Read-only: the write
// path relies on the unique constraint, not on this check.
func (s *Postgres) OptionExists(ctx context.Context, key model.OptionKey) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM options
			WHERE fin_co_no = $1 AND fin_prdt_cd = $2 AND crdt_lend_rate_type = $3
		)`, key.Institution, key.Product, key.RateType).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to probe option: %w", err)
	}
	return exists, nil
}

// InsertOptionIfAbsent attaches a new option to its parent product, or does
// nothing when the natural key is already stored. Stored values are never
// updated on resync. Returns whether a row was written; ErrProductNotFound
// when the parent product row is missing.
func (s *Postgres) InsertOptionIfAbsent(ctx context.Context, o model.Option) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO options (
			product_id, fin_co_no, fin_prdt_cd, crdt_lend_rate_type, crdt_lend_rate_type_nm,
			crdt_grad_1, crdt_grad_4, crdt_grad_5, crdt_grad_6,
			crdt_grad_10, crdt_grad_11, crdt_grad_12, crdt_grad_13, crdt_grad_avg
		)
		SELECT p.id, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		FROM products p
		WHERE p.fin_co_no = $1 AND p.fin_prdt_cd = $2
		ON CONFLICT (fin_co_no, fin_prdt_cd, crdt_lend_rate_type) DO NOTHING`,
		o.InstitutionCode, o.ProductCode, o.RateType, o.RateTypeName,
		o.Grade1, o.Grade4, o.Grade5, o.Grade6,
		o.Grade10, o.Grade11, o.Grade12, o.Grade13, o.GradeAvg)
	if err != nil {
		return false, fmt.Errorf("failed to insert option: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	// zero rows means either a dedup skip or a missing parent product
	exists, err := s.OptionExists(ctx, o.Key())
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	return false, ErrProductNotFound
}

// GetProduct loads one product by natural key.
func (s *Postgres) GetProduct(ctx context.Context, key model.ProductKey) (model.Product, error) {
	var (
		p                model.Product
		start, end, subm *time.Time
	)
	err := s.pool.QueryRow(ctx, `
		SELECT dcls_month, fin_co_no, fin_prdt_cd, crdt_prdt_type, kor_co_nm,
		       fin_prdt_nm, join_way, cb_name, crdt_prdt_type_nm,
		       dcls_strt_day, dcls_end_day, fin_co_subm_day
		FROM products
		WHERE fin_co_no = $1 AND fin_prdt_cd = $2`,
		key.Institution, key.Product).Scan(
		&p.DisclosureMonth, &p.InstitutionCode, &p.ProductCode, &p.ProductTypeCode, &p.InstitutionName,
		&p.ProductName, &p.JoinWay, &p.CBName, &p.ProductTypeName,
		&start, &end, &subm)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, ErrProductNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("failed to load product: %w", err)
	}
	p.DisclosureStart = dateFromTime(start)
	p.DisclosureEnd = dateFromTime(end)
	p.SubmittedOn = dateFromTime(subm)
	return p, nil
}

// ListOptions returns every option row attached to one product.
func (s *Postgres) ListOptions(ctx context.Context, key model.ProductKey) ([]model.Option, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT fin_co_no, fin_prdt_cd, crdt_lend_rate_type, crdt_lend_rate_type_nm,
		       crdt_grad_1, crdt_grad_4, crdt_grad_5, crdt_grad_6,
		       crdt_grad_10, crdt_grad_11, crdt_grad_12, crdt_grad_13, crdt_grad_avg
		FROM options
		WHERE fin_co_no = $1 AND fin_prdt_cd = $2
		ORDER BY crdt_lend_rate_type`,
		key.Institution, key.Product)
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	var out []model.Option
	for rows.Next() {
		var o model.Option
		if err := rows.Scan(
			&o.InstitutionCode, &o.ProductCode, &o.RateType, &o.RateTypeName,
			&o.Grade1, &o.Grade4, &o.Grade5, &o.Grade6,
			&o.Grade10, &o.Grade11, &o.Grade12, &o.Grade13, &o.GradeAvg); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read options: %w", err)
	}
	return out, nil
}

// DeleteProduct removes a product and its options in one transaction. The
// child delete is explicit even though the foreign key also cascades, so the
// exclusive-composition lifecycle is visible here rather than only in the DDL.
func (s *Postgres) DeleteProduct(ctx context.Context, key model.ProductKey) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM options WHERE fin_co_no = $1 AND fin_prdt_cd = $2`,
		key.Institution, key.Product); err != nil {
		return fmt.Errorf("failed to delete options: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM products WHERE fin_co_no = $1 AND fin_prdt_cd = $2`,
		key.Institution, key.Product)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

func dateArg(d *civil.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.In(time.UTC)
	return &t
}

func dateFromTime(t *time.Time) *civil.Date {
	if t == nil {
		return nil
	}
	d := civil.DateOf(*t)
	return &d
}
