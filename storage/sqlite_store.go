package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"crimemap/report"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	driverName      = "sqlite"
	datasetsTable   = "datasets"
	recordsTable    = "records"
	insertBatchSize = 500
)

// ErrNoDataset is returned when nothing has been imported yet.
var ErrNoDataset = errors.New("no dataset imported")

func init() {
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

// SQLiteStore caches the most recently imported dataset. Each import replaces
// the previous one wholesale.
type SQLiteStore struct {
	db *sqlx.DB
}

// DatasetInfo describes the stored dataset without loading its records.
type DatasetInfo struct {
	ID          string
	Source      string
	RecordCount int
	ImportedAt  time.Time
}

type datasetRow struct {
	ID          string `db:"id"`
	Source      string `db:"source"`
	RecordCount int    `db:"record_count"`
	ImportedAt  string `db:"imported_at"`
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS datasets (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	record_count INTEGER NOT NULL CHECK(record_count >= 0),
	imported_at TEXT NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	dataset_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	region TEXT NOT NULL,
	period INTEGER NOT NULL,
	count_a INTEGER NOT NULL CHECK(count_a >= 0),
	count_b INTEGER NOT NULL CHECK(count_b >= 0),
	count_total INTEGER NOT NULL CHECK(count_total >= 0),
	UNIQUE(dataset_id, position)
);`,
		`CREATE INDEX IF NOT EXISTS records_period_idx ON records(dataset_id, period);`,
	}
	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// ReplaceDataset stores records as the current dataset in one transaction and
// returns it. Input order is preserved on load.
func (s *SQLiteStore) ReplaceDataset(ctx context.Context, source string, importedAt time.Time, records []report.Record) (*report.Dataset, error) {
	datasetID := uuid.NewString()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, table := range []string{recordsTable, datasetsTable} {
		query, args, err := sq.Delete(table).ToSql()
		if err != nil {
			return nil, fmt.Errorf("build delete %s: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	insertDataset, args, err := sq.Insert(datasetsTable).
		Columns("id", "source", "record_count", "imported_at").
		Values(datasetID, source, len(records), importedAt.UTC().Format(time.RFC3339Nano)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build dataset insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertDataset, args...); err != nil {
		return nil, fmt.Errorf("insert dataset: %w", err)
	}

	for start := 0; start < len(records); start += insertBatchSize {
		end := min(start+insertBatchSize, len(records))
		insert := sq.Insert(recordsTable).
			Columns("dataset_id", "position", "region", "period", "count_a", "count_b", "count_total")
		for position := start; position < end; position++ {
			record := records[position]
			insert = insert.Values(datasetID, position, record.Region, record.Period, record.CountA, record.CountB, record.CountTotal)
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return nil, fmt.Errorf("build record insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("insert records %d-%d: %w", start, end-1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.LoadDataset(ctx)
}

// Info returns the stored dataset header or ErrNoDataset.
func (s *SQLiteStore) Info(ctx context.Context) (DatasetInfo, error) {
	query, args, err := sq.Select("id", "source", "record_count", "imported_at").
		From(datasetsTable).
		OrderBy("imported_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return DatasetInfo{}, fmt.Errorf("build dataset query: %w", err)
	}

	var row datasetRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DatasetInfo{}, ErrNoDataset
		}
		return DatasetInfo{}, fmt.Errorf("query dataset: %w", err)
	}

	importedAt, err := time.Parse(time.RFC3339Nano, row.ImportedAt)
	if err != nil {
		return DatasetInfo{}, fmt.Errorf("parse imported_at %q: %w", row.ImportedAt, err)
	}

	return DatasetInfo{
		ID:          row.ID,
		Source:      row.Source,
		RecordCount: row.RecordCount,
		ImportedAt:  importedAt,
	}, nil
}

// LoadDataset returns the stored dataset or ErrNoDataset.
func (s *SQLiteStore) LoadDataset(ctx context.Context) (*report.Dataset, error) {
	info, err := s.Info(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.listRecords(ctx, info.ID, report.NoPeriod)
	if err != nil {
		return nil, err
	}
	return report.NewDataset(info.ID, info.Source, info.ImportedAt, records), nil
}

// ListRecords returns stored records of one period in import order. Passing
// report.NoPeriod lists every period.
func (s *SQLiteStore) ListRecords(ctx context.Context, period int) ([]report.Record, error) {
	info, err := s.Info(ctx)
	if err != nil {
		return nil, err
	}
	return s.listRecords(ctx, info.ID, period)
}

func (s *SQLiteStore) listRecords(ctx context.Context, datasetID string, period int) ([]report.Record, error) {
	where := sq.Eq{"dataset_id": datasetID}
	if period != report.NoPeriod {
		where["period"] = period
	}

	query, args, err := sq.Select("id", "region", "period", "count_a", "count_b", "count_total").
		From(recordsTable).
		Where(where).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build records query: %w", err)
	}

	records := make([]report.Record, 0, 256)
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	return records, nil
}

// DeleteDataset removes the stored dataset and returns the number of records
// dropped.
func (s *SQLiteStore) DeleteDataset(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM records;`)
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read deleted row count: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM datasets;`); err != nil {
		return 0, fmt.Errorf("delete datasets: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return rows, nil
}
