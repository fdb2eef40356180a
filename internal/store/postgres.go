package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/sheetscribe/pkg/models"
)

// columnNames maps store columns onto sheet_rows. Only these identifiers are
// ever interpolated into SQL.
var columnNames = map[int]string{
	models.ColumnTopic:       "topic",
	models.ColumnStatus:      "status",
	models.ColumnScript:      "script",
	models.ColumnVideoPrompt: "video_prompt",
}

// PostgresStore implements JobStore on the sheet_rows table using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) StoreID() string {
	return "postgres/" + s.pool.Config().ConnConfig.Database + "/sheet_rows"
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return classifyPgError("ping database", err)
	}
	return nil
}

func (s *PostgresStore) FindRowByMarker(ctx context.Context, marker string) (int, error) {
	var row int64
	err := s.pool.QueryRow(ctx,
		`SELECT row_id FROM sheet_rows WHERE status = $1 ORDER BY row_id LIMIT 1`, marker,
	).Scan(&row)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, classifyPgError("find row by marker", err)
	}
	return int(row), nil
}

func (s *PostgresStore) ReadCell(ctx context.Context, row, column int) (string, error) {
	if err := validateColumn(column); err != nil {
		return "", err
	}

	var value string
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM sheet_rows WHERE row_id = $1`, columnNames[column]), row,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", classifyPgError("read cell", err)
	}
	return value, nil
}

func (s *PostgresStore) WriteCell(ctx context.Context, row, column int, value string) error {
	if err := validateColumn(column); err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE sheet_rows SET %s = $1, updated_at = NOW() WHERE row_id = $2`, columnNames[column]),
		value, row)
	if err != nil {
		return classifyPgError("write cell", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// WriteCells updates every given column in one UPDATE statement.
func (s *PostgresStore) WriteCells(ctx context.Context, row int, values map[int]string) error {
	cols, err := sortedColumns(values)
	if err != nil {
		return err
	}

	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", columnNames[c], i+1))
		args = append(args, values[c])
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, row)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE sheet_rows SET %s WHERE row_id = $%d`, strings.Join(sets, ", "), len(args)),
		args...)
	if err != nil {
		return classifyPgError("write cells", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AppendRow(ctx context.Context, topic, status string) (int, error) {
	var row int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sheet_rows (topic, status) VALUES ($1, $2) RETURNING row_id`, topic, status,
	).Scan(&row)
	if err != nil {
		return 0, classifyPgError("append row", err)
	}
	return int(row), nil
}

// classifyPgError maps a missing table to ErrStoreNotFound and bad credentials to ErrUnauthorized.
func classifyPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01": // undefined_table
			return fmt.Errorf("%s: %w: %v", op, ErrStoreNotFound, err)
		case "28P01", "28000": // invalid_password, invalid_authorization_specification
			return fmt.Errorf("%s: %w: %v", op, ErrUnauthorized, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

var (
	_ JobStore   = (*PostgresStore)(nil)
	_ Pinger     = (*PostgresStore)(nil)
	_ Enqueuer   = (*PostgresStore)(nil)
	_ Identified = (*PostgresStore)(nil)
)
