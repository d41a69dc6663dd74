package destination

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/empirf/mdingest/internal/core/domain"
	"github.com/empirf/mdingest/internal/core/ports/driven"
)

// Ensure Reconciler implements the interface.
var _ driven.TableReconciler = (*Reconciler)(nil)

// Reconciler mirrors payloads into per-schema tables keyed by the
// identifier column.
type Reconciler struct {
	db      *sql.DB
	dialect dialect
	owned   bool
}

// New creates a reconciler over an open database.
func New(db *sql.DB, driver string) (*Reconciler, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &Reconciler{db: db, dialect: d}, nil
}

// Ping checks that the destination is reachable.
func (r *Reconciler) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database if it was opened by Open.
func (r *Reconciler) Close() error {
	if r.owned {
		return r.db.Close()
	}
	return nil
}

// Upsert updates the row whose identifier column equals identifier, or
// inserts it when none exists, in a single transaction. Payload keys are
// matched to table columns ignoring case; keys without a column are
// ignored. The schema id, source path and identifier columns are always set.
func (r *Reconciler) Upsert(ctx context.Context, table, schemaID string, row map[string]any, identifier, sourcePath string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", domain.ErrWriteRejected, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	columns, err := r.columns(ctx, tx, table)
	if err != nil {
		return err
	}

	values := make(map[string]any, len(row)+3)
	for key, value := range row {
		if col := matchColumn(columns, key); col != "" {
			values[col] = value
		}
	}

	reserved := []struct{ name, value string }{
		{domain.ColumnSchemaID, schemaID},
		{domain.ColumnDocumentLocation, sourcePath},
		{domain.ColumnIdentifier, identifier},
	}
	idColumn := ""
	for _, rc := range reserved {
		col := matchColumn(columns, rc.name)
		if col == "" {
			return fmt.Errorf("%w: table %s has no %s column", domain.ErrWriteRejected, table, rc.name)
		}
		values[col] = rc.value
		if rc.name == domain.ColumnIdentifier {
			idColumn = col
		}
	}

	exists, err := r.exists(ctx, tx, table, idColumn, identifier)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(values))
	for col := range values {
		names = append(names, col)
	}
	sort.Strings(names)

	args := make([]any, 0, len(names)+1)
	var query string
	if exists {
		sets := make([]string, len(names))
		for i, col := range names {
			sets[i] = r.dialect.quote(col) + " = " + r.dialect.placeholder(i+1)
			args = append(args, values[col])
		}
		args = append(args, identifier)
		query = fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
			r.dialect.quote(table), strings.Join(sets, ", "),
			r.dialect.quote(idColumn), r.dialect.placeholder(len(names)+1))
	} else {
		quoted := make([]string, len(names))
		marks := make([]string, len(names))
		for i, col := range names {
			quoted[i] = r.dialect.quote(col)
			marks[i] = r.dialect.placeholder(i + 1)
			args = append(args, values[col])
		}
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			r.dialect.quote(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return r.writeError(ctx, table, err)
	}
	if err := tx.Commit(); err != nil {
		return r.writeError(ctx, table, err)
	}
	return nil
}

// Delete removes the row whose identifier column equals identifier. A
// missing row or table is not an error.
func (r *Reconciler) Delete(ctx context.Context, table, identifier string) error {
	columns, err := r.columns(ctx, r.db, table)
	if errors.Is(err, domain.ErrSchemaNotProvisioned) {
		return nil
	}
	if err != nil {
		return err
	}

	idColumn := matchColumn(columns, domain.ColumnIdentifier)
	if idColumn == "" {
		return nil
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		r.dialect.quote(table), r.dialect.quote(idColumn), r.dialect.placeholder(1))
	if _, err := r.db.ExecContext(ctx, query, identifier); err != nil {
		return r.writeError(ctx, table, err)
	}
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// columns returns the column names of table.
func (r *Reconciler) columns(ctx context.Context, q querier, table string) ([]string, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s WHERE 1 = 0", r.dialect.quote(table)))
	if err != nil {
		if isUndefinedTable(err) {
			return nil, fmt.Errorf("%w: table %s", domain.ErrSchemaNotProvisioned, table)
		}
		return nil, r.writeError(ctx, table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, r.writeError(ctx, table, err)
	}
	return cols, nil
}

func (r *Reconciler) exists(ctx context.Context, q querier, table, idColumn, identifier string) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = %s LIMIT 1",
		r.dialect.quote(table), r.dialect.quote(idColumn), r.dialect.placeholder(1))
	var one int
	err := q.QueryRowContext(ctx, query, identifier).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, r.writeError(ctx, table, err)
	}
	return true, nil
}

// writeError classifies a driver error. Context errors pass through.
func (r *Reconciler) writeError(ctx context.Context, table string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return err
	}
	if isUndefinedTable(err) {
		return fmt.Errorf("%w: table %s", domain.ErrSchemaNotProvisioned, table)
	}
	if isUndefinedColumn(err) {
		return fmt.Errorf("%w: table %s: %w", domain.ErrWriteRejected, table, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrWriteRejected, err)
}

// matchColumn finds name among columns, preferring an exact match.
func matchColumn(columns []string, name string) string {
	for _, c := range columns {
		if c == name {
			return c
		}
	}
	for _, c := range columns {
		if strings.EqualFold(c, name) {
			return c
		}
	}
	return ""
}
