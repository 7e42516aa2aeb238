package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/gyaneshwarpardhi/blockwatch/internal/metrics"
	"github.com/gyaneshwarpardhi/blockwatch/internal/store"
)

const versionTable = "bb_schema_version"

// Step upgrades the schema to Version. Each backend gets its own statements.
type Step struct {
	Version  int
	Name     string
	SQLite   []string
	Postgres []string
}

func (s Step) statements(d store.Dialect) []string {
	if d == store.Postgres {
		return s.Postgres
	}
	return s.SQLite
}

// Result reports what a run did.
type Result struct {
	From    int   `json:"from"`
	To      int   `json:"to"`
	Applied []int `json:"applied"`
}

// Migrator applies steps in strictly increasing version order.
type Migrator struct {
	db      *store.DB
	steps   []Step
	metrics *metrics.Metrics
}

// New builds a Migrator. Steps must be sorted by strictly increasing version.
func New(db *store.DB, steps ...Step) (*Migrator, error) {
	prev := 0
	for i, s := range steps {
		if s.Version <= prev {
			return nil, fmt.Errorf("migration step %d (%q): version %d must be greater than %d", i, s.Name, s.Version, prev)
		}
		prev = s.Version
	}
	return &Migrator{db: db, steps: steps}, nil
}

// WithMetrics records applied and failed steps on m.
func (m *Migrator) WithMetrics(mt *metrics.Metrics) *Migrator {
	m.metrics = mt
	return m
}

// Version returns the persisted schema version, 0 for a fresh store.
func (m *Migrator) Version(ctx context.Context) (int, error) {
	if err := m.ensureVersionTable(ctx); err != nil {
		return 0, err
	}
	var v sql.NullInt64
	if err := m.db.SQL().QueryRowContext(ctx, "SELECT MAX(version) FROM "+versionTable).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// Apply runs every step newer than the persisted version. A failing step is
// rolled back, leaves the version where it was and stops the run; the same
// step is attempted again next time Apply is called.
func (m *Migrator) Apply(ctx context.Context) (Result, error) {
	current, err := m.Version(ctx)
	if err != nil {
		return Result{}, err
	}
	res := Result{From: current, To: current}

	for _, step := range m.steps {
		if step.Version <= current {
			continue
		}
		slog.Info("applying schema migration", "version", step.Version, "name", step.Name, "backend", m.db.Dialect())
		if err := m.applyStep(ctx, step); err != nil {
			m.count("failure")
			slog.Error("schema migration failed", "version", step.Version, "name", step.Name, "err", err)
			return res, fmt.Errorf("migration %d (%s): %w", step.Version, step.Name, err)
		}
		m.count("success")
		current = step.Version
		res.To = current
		res.Applied = append(res.Applied, step.Version)
	}
	return res, nil
}

func (m *Migrator) applyStep(ctx context.Context, step Step) error {
	tx, err := m.db.SQL().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range step.statements(m.db.Dialect()) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	insert := fmt.Sprintf("INSERT INTO %s (version, applied_at) VALUES (%s, %s)",
		versionTable, m.db.Dialect().Placeholder(1), m.db.Dialect().Placeholder(2))
	if _, err := tx.ExecContext(ctx, insert, step.Version, nowMillis()); err != nil {
		return fmt.Errorf("record version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (m *Migrator) ensureVersionTable(ctx context.Context) error {
	_, err := m.db.SQL().ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    version INTEGER NOT NULL,
    applied_at BIGINT NOT NULL
)`, versionTable))
	if err != nil {
		return fmt.Errorf("ensure version table: %w", err)
	}
	return nil
}

func (m *Migrator) count(status string) {
	if m.metrics != nil {
		m.metrics.MigrationsRun.WithLabelValues(status).Inc()
	}
}
