// Package duckdb persists threshold-sweep results in a DuckDB database so
// they can be queried without recomputing.
package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/cadd-thresholds/internal/metrics"
)

// Store manages a DuckDB connection for sweep results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS threshold_metrics (
		dataset VARCHAR,
		scope VARCHAR,
		run_date VARCHAR,
		threshold BIGINT,
		true_negatives BIGINT,
		false_positives BIGINT,
		false_negatives BIGINT,
		true_positives BIGINT,
		precision DOUBLE,
		recall DOUBLE,
		f1_score DOUBLE,
		f2_score DOUBLE,
		accuracy DOUBLE,
		balanced_accuracy DOUBLE,
		false_positive_rate DOUBLE,
		specificity DOUBLE,
		PRIMARY KEY (dataset, scope, run_date, threshold)
	)`)
	return err
}

// Key identifies one sweep result set. Scope is the panel name, or a
// caller-chosen label for ad-hoc gene lists and whole datasets.
type Key struct {
	Dataset string
	Scope   string
	RunDate string
}

// WriteMetrics replaces the rows stored under k with rows, using the
// Appender API for the insert. The delete and the insert commit together;
// on failure the previous rows are kept.
func (s *Store) WriteMetrics(ctx context.Context, k Key, rows []metrics.Row) (err error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN TRANSACTION"); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	if _, err := conn.ExecContext(ctx,
		`DELETE FROM threshold_metrics WHERE dataset=? AND scope=? AND run_date=?`,
		k.Dataset, k.Scope, k.RunDate); err != nil {
		return fmt.Errorf("clear previous metrics: %w", err)
	}

	if len(rows) > 0 {
		if err := appendMetrics(conn, k, rows); err != nil {
			return err
		}
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit metrics: %w", err)
	}
	return nil
}

// appendMetrics inserts rows on conn and flushes before returning.
func appendMetrics(conn *sql.Conn, k Key, rows []metrics.Row) error {
	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "threshold_metrics")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}

	for _, r := range rows {
		if err := appender.AppendRow(
			k.Dataset, k.Scope, k.RunDate, int64(r.Threshold),
			r.TrueNegatives, r.FalsePositives, r.FalseNegatives, r.TruePositives,
			r.Precision, r.Recall, r.F1Score, r.F2Score, r.Accuracy,
			r.BalancedAccuracy, r.FalsePositiveRate, r.Specificity,
		); err != nil {
			appender.Close()
			return fmt.Errorf("append metrics row: %w", err)
		}
	}

	if err := appender.Close(); err != nil {
		return fmt.Errorf("flush metrics: %w", err)
	}
	return nil
}

// LookupMetrics returns the rows stored under k ordered by threshold.
func (s *Store) LookupMetrics(ctx context.Context, k Key) ([]metrics.Row, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		threshold, true_negatives, false_positives, false_negatives, true_positives,
		precision, recall, f1_score, f2_score, accuracy,
		balanced_accuracy, false_positive_rate, specificity
		FROM threshold_metrics
		WHERE dataset=? AND scope=? AND run_date=?
		ORDER BY threshold`, k.Dataset, k.Scope, k.RunDate)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var out []metrics.Row
	for rows.Next() {
		var r metrics.Row
		var threshold int64
		if err := rows.Scan(
			&threshold, &r.TrueNegatives, &r.FalsePositives, &r.FalseNegatives, &r.TruePositives,
			&r.Precision, &r.Recall, &r.F1Score, &r.F2Score, &r.Accuracy,
			&r.BalancedAccuracy, &r.FalsePositiveRate, &r.Specificity,
		); err != nil {
			return nil, fmt.Errorf("scan metrics row: %w", err)
		}
		r.Threshold = int(threshold)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metrics: %w", err)
	}
	return out, nil
}

// Keys lists the stored result sets for a dataset, or all datasets when
// dataset is empty.
func (s *Store) Keys(ctx context.Context, dataset string) ([]Key, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT dataset, scope, run_date
		FROM threshold_metrics
		WHERE ? = '' OR dataset = ?
		ORDER BY dataset, scope, run_date`, dataset, dataset)
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var k Key
		if err := rows.Scan(&k.Dataset, &k.Scope, &k.RunDate); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}
