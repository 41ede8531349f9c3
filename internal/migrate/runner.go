package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"

	historyTable = "schema_migrations"
	seedsTable   = "schema_seeds"
)

// Migration files are named NNNN_short_name.up.sql with a matching .down.sql.
var namePattern = regexp.MustCompile(`^\d{4}_[a-z0-9_]+$`)

// Runner applies SQL migration and seed files from disk in lexical order.
type Runner struct {
	db            *sql.DB
	migrationsDir string
	seedsDir      string
}

func NewRunner(db *sql.DB, migrationsDir, seedsDir string) *Runner {
	return &Runner{db: db, migrationsDir: migrationsDir, seedsDir: seedsDir}
}

// Verify checks naming and up/down pairing without touching the database.
func (r *Runner) Verify() error {
	ups, err := collect(r.migrationsDir, upSuffix)
	if err != nil {
		return err
	}
	for _, f := range ups {
		stem := strings.TrimSuffix(f.name, upSuffix)
		if !namePattern.MatchString(stem) {
			return fmt.Errorf("migrate: bad migration name %q", f.name)
		}
		down := filepath.Join(r.migrationsDir, stem+downSuffix)
		if _, err := os.Stat(down); err != nil {
			return fmt.Errorf("migrate: %s has no down migration", f.name)
		}
	}
	return nil
}

// Up applies every pending migration in order.
func (r *Runner) Up(ctx context.Context) error {
	if err := r.Verify(); err != nil {
		return err
	}
	if err := r.ensureHistory(ctx); err != nil {
		return err
	}
	applied, err := r.applied(ctx, historyTable)
	if err != nil {
		return err
	}
	files, err := collect(r.migrationsDir, upSuffix)
	if err != nil {
		return err
	}
	for _, f := range files {
		if applied[f.name] {
			continue
		}
		if err := r.execFile(ctx, f.path); err != nil {
			return fmt.Errorf("migrate: apply %s: %w", f.name, err)
		}
		if err := r.record(ctx, historyTable, f.name); err != nil {
			return err
		}
	}
	return nil
}

// Down rolls back the most recently applied migration.
func (r *Runner) Down(ctx context.Context) error {
	if err := r.ensureHistory(ctx); err != nil {
		return err
	}
	history, err := r.history(ctx)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return errors.New("migrate: nothing applied")
	}
	last := history[len(history)-1]
	down := filepath.Join(r.migrationsDir, strings.TrimSuffix(last, upSuffix)+downSuffix)
	if _, err := os.Stat(down); err != nil {
		return fmt.Errorf("migrate: %s has no down migration", last)
	}
	if err := r.execFile(ctx, down); err != nil {
		return fmt.Errorf("migrate: rollback %s: %w", last, err)
	}
	_, err = r.db.ExecContext(ctx, `delete from `+historyTable+` where name = $1`, last)
	return err
}

// Status returns applied migration names in apply order.
func (r *Runner) Status(ctx context.Context) ([]string, error) {
	if err := r.ensureHistory(ctx); err != nil {
		return nil, err
	}
	return r.history(ctx)
}

// Seed applies seed files once each. Seeds are plain .sql files and are
// never rolled back.
func (r *Runner) Seed(ctx context.Context) error {
	if err := r.ensureHistory(ctx); err != nil {
		return err
	}
	applied, err := r.applied(ctx, seedsTable)
	if err != nil {
		return err
	}
	files, err := collect(r.seedsDir, ".sql")
	if err != nil {
		return err
	}
	for _, f := range files {
		if applied[f.name] {
			continue
		}
		if err := r.execFile(ctx, f.path); err != nil {
			return fmt.Errorf("migrate: seed %s: %w", f.name, err)
		}
		if err := r.record(ctx, seedsTable, f.name); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) ensureHistory(ctx context.Context) error {
	for _, table := range []string{historyTable, seedsTable} {
		ddl := `create table if not exists ` + table + ` (
			name text primary key,
			applied_at timestamptz not null default now()
		)`
		if _, err := r.db.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}

// execFile runs every statement of one file inside a single transaction.
func (r *Runner) execFile(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range SplitStatements(string(raw)) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Runner) record(ctx context.Context, table, name string) error {
	_, err := r.db.ExecContext(ctx, `insert into `+table+`(name, applied_at) values ($1, $2)`,
		name, time.Now().UTC())
	return err
}

func (r *Runner) applied(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `select name from `+table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		result[name] = true
	}
	return result, rows.Err()
}

func (r *Runner) history(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `select name from `+historyTable+` order by applied_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		res = append(res, name)
	}
	return res, rows.Err()
}

type sqlFile struct {
	name string
	path string
}

func collect(dir, suffix string) ([]sqlFile, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var files []sqlFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		if suffix == ".sql" && strings.HasSuffix(e.Name(), downSuffix) {
			continue
		}
		files = append(files, sqlFile{name: e.Name(), path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	return files, nil
}

// SplitStatements splits a SQL script on semicolons, honoring single-quoted
// strings and -- line comments. Good enough for DDL files, not a parser.
func SplitStatements(script string) []string {
	var (
		stmts     []string
		current   strings.Builder
		inString  bool
		inComment bool
	)
	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)
		switch {
		case inComment:
			if r == '\n' {
				inComment = false
			}
		case r == '\'':
			inString = !inString
		case !inString && r == '-' && i+1 < len(runes) && runes[i+1] == '-':
			inComment = true
		case !inString && r == ';':
			if s := strings.TrimSpace(current.String()); s != ";" {
				stmts = append(stmts, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}
