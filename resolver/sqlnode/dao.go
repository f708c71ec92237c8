package sqlnode

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

// Table is the allocation table. Each row is a pool of node ids; max_id is
// the highest id handed out so far and step is how many ids one reservation
// claims.
const Table = "fastuuid_node_alloc"

// ErrUnknownPool is returned when a pool has no row in Table.
var ErrUnknownPool = errors.New("sqlnode: unknown pool")

// DAO encapsulates all database operations on Table.
type DAO struct {
	db *sql.DB
}

// NewDAO wraps an open database. Any driver that accepts ? placeholders works.
func NewDAO(db *sql.DB) *DAO {
	return &DAO{db: db}
}

// Open connects to MySQL with the given DSN,
// e.g. "user:pass@tcp(127.0.0.1:3306)/ids".
func Open(dsn string) (*DAO, error) {
	return OpenDriver("mysql", dsn)
}

// OpenDriver is Open for any registered database/sql driver.
func OpenDriver(driver, dsn string) (*DAO, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlnode: open %s", driver)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return NewDAO(db), nil
}

// Close closes the underlying database.
func (d *DAO) Close() error {
	return d.db.Close()
}

// CreateTable creates Table if it does not exist yet.
func (d *DAO) CreateTable(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+Table+` (
		pool VARCHAR(128) NOT NULL PRIMARY KEY,
		max_id BIGINT NOT NULL DEFAULT 0,
		step INT NOT NULL
	)`)
	return errors.Wrap(err, "sqlnode: create table")
}

// EnsurePool adds pool with the given step unless it already exists.
// An existing pool keeps its step and position.
func (d *DAO) EnsurePool(ctx context.Context, pool string, step int) error {
	if step <= 0 {
		return errors.Errorf("sqlnode: step must be positive, got %d", step)
	}
	_, err := d.db.ExecContext(ctx,
		"INSERT INTO "+Table+" (pool, max_id, step) VALUES (?, 0, ?)", pool, step)
	if err == nil {
		return nil
	}

	// Lost a race with another instance, or the row was there already.
	var n int
	if qerr := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+Table+" WHERE pool = ?", pool).Scan(&n); qerr != nil || n == 0 {
		return errors.Wrapf(err, "sqlnode: create pool %q", pool)
	}
	return nil
}

// FetchNextSegment reserves the next step ids of pool in one transaction.
// The UPDATE takes the row lock, so concurrent callers on any number of hosts
// always receive disjoint ranges.
func (d *DAO) FetchNextSegment(ctx context.Context, pool string) (*Segment, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "sqlnode: begin")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE "+Table+" SET max_id = max_id + step WHERE pool = ?", pool)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlnode: reserve segment of %q", pool)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, errors.WithMessagef(ErrUnknownPool, "pool %q", pool)
	}

	var maxID int64
	var step int
	err = tx.QueryRowContext(ctx,
		"SELECT max_id, step FROM "+Table+" WHERE pool = ?", pool).Scan(&maxID, &step)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlnode: read segment of %q", pool)
	}

	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "sqlnode: commit")
	}
	return newSegment(maxID, step), nil
}
