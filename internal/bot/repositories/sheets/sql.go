package sheets

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/shiftkeeper/internal/bot/migrations"
	"github.com/dmitrijs2005/shiftkeeper/internal/common"
	"github.com/dmitrijs2005/shiftkeeper/internal/dbx"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLStore keeps worksheets in two tables: worksheets (name, header) and
// worksheet_rows (sheet, cells). Header and cells are JSON string arrays,
// so one schema serves PostgreSQL and SQLite. Row order is the serial id.
type SQLStore struct {
	db      *sql.DB
	dialect dbx.Dialect
}

// NewSQLStore binds a store to an open database. Migrations are not run;
// see OpenPostgres and OpenSQLite.
func NewSQLStore(db *sql.DB, dialect dbx.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func runMigrations(ctx context.Context, db *sql.DB, gooseDialect, dir string) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(gooseDialect); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, dir)
}

// OpenPostgres connects through the pgx stdlib driver and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := runMigrations(ctx, db, "pgx", "postgres"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}
	return NewSQLStore(db, dbx.Dollar), nil
}

// OpenSQLite opens a modernc SQLite database and migrates the schema.
// A single connection is used so ":memory:" databases stay coherent.
func OpenSQLite(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := runMigrations(ctx, db, "sqlite3", "sqlite"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}
	return NewSQLStore(db, dbx.Question), nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) q(query string) string {
	return dbx.Rebind(s.dialect, query)
}

func unavailable(err error) error {
	return fmt.Errorf("%w: db error: %w", common.ErrStoreUnavailable, err)
}

func encodeCells(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeCells(raw string) ([]string, error) {
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("corrupt row cells: %w", err)
	}
	return values, nil
}

func (s *SQLStore) header(ctx context.Context, db dbx.DBTX, sheet string) ([]string, error) {
	var raw string
	err := db.QueryRowContext(ctx, s.q(`SELECT header FROM worksheets WHERE name = ?`), sheet).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("worksheet %s: %w", sheet, common.ErrorNotFound)
		}
		return nil, unavailable(err)
	}
	return decodeCells(raw)
}

func (s *SQLStore) EnsureWorksheet(ctx context.Context, name string, header []string) ([]string, error) {
	var effective []string

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		existing, err := s.header(ctx, tx, name)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			raw, err := encodeCells(header)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO worksheets (name, header) VALUES (?, ?)`), name, raw); err != nil {
				return unavailable(err)
			}
			effective = slices.Clone(header)
			return nil
		case err != nil:
			return err
		}

		merged, changed := mergeHeader(existing, header)
		effective = merged
		if !changed {
			return nil
		}
		raw, err := encodeCells(merged)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.q(`UPDATE worksheets SET header = ? WHERE name = ?`), raw, name); err != nil {
			return unavailable(err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, common.ErrStoreUnavailable) {
			err = unavailable(err)
		}
		return nil, err
	}
	return effective, nil
}

func (s *SQLStore) AppendRow(ctx context.Context, sheet string, values []string) error {
	raw, err := encodeCells(values)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.q(`INSERT INTO worksheet_rows (sheet, cells) VALUES (?, ?)`), sheet, raw); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *SQLStore) GetAllRows(ctx context.Context, sheet string) ([][]string, error) {
	header, err := s.header(ctx, s.db, sheet)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.q(`SELECT cells FROM worksheet_rows WHERE sheet = ? ORDER BY id`), sheet)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	result := [][]string{header}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, unavailable(err)
		}
		values, err := decodeCells(raw)
		if err != nil {
			return nil, err
		}
		result = append(result, values)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return result, nil
}

func (s *SQLStore) UpdateCell(ctx context.Context, sheet string, row, col int, value string) error {
	if row < 1 || col < 1 {
		return fmt.Errorf("cell %d:%d of %s: %w", row, col, sheet, common.ErrorNotFound)
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if row == 1 {
			header, err := s.header(ctx, tx, sheet)
			if err != nil {
				return err
			}
			raw, err := encodeCells(setCell(header, col, value))
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, s.q(`UPDATE worksheets SET header = ? WHERE name = ?`), raw, sheet); err != nil {
				return unavailable(err)
			}
			return nil
		}

		var id int64
		var raw string
		err := tx.QueryRowContext(ctx,
			s.q(`SELECT id, cells FROM worksheet_rows WHERE sheet = ? ORDER BY id LIMIT 1 OFFSET ?`),
			sheet, row-2).Scan(&id, &raw)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("cell %d:%d of %s: %w", row, col, sheet, common.ErrorNotFound)
			}
			return unavailable(err)
		}

		values, err := decodeCells(raw)
		if err != nil {
			return err
		}
		updated, err := encodeCells(setCell(values, col, value))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.q(`UPDATE worksheet_rows SET cells = ? WHERE id = ?`), updated, id); err != nil {
			return unavailable(err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, common.ErrorNotFound) && !errors.Is(err, common.ErrStoreUnavailable) {
		err = unavailable(err)
	}
	return err
}
