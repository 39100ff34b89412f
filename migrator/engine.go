package migrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hummingbird-project/hummingbird-postgres/pgconn"
)

// Option configures a Migrations value.
type Option func(*Migrations)

// WithLogger sets the logger used to report reconciliation drift.
func WithLogger(l *slog.Logger) Option {
	return func(m *Migrations) {
		if l != nil {
			m.logger = l
		}
	}
}

// Migrations reconciles a declared, ordered list of migrations against the
// persisted ledger. The zero value is not usable; construct with New.
type Migrations struct {
	logger *slog.Logger

	mu         sync.Mutex // serializes Apply/Revert/RevertInconsistent
	declared   []Descriptor
	registered map[string]Descriptor

	state *engineState
}

// New creates an empty Migrations value.
func New(opts ...Option) *Migrations {
	m := &Migrations{
		registered: make(map[string]Descriptor),
		state:      newEngineState(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return m
}

// Add appends migrations to the declared list. Order matters: it is the
// order migrations are applied in and the order the ledger is compared
// against.
func (m *Migrations) Add(ds ...Descriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.declared = append(m.declared, ds...)
}

// Register records a migration's revert descriptor without declaring it
// for application. Used when a migration has been removed from the
// declared list but may still need to be reverted from an older ledger.
func (m *Migrations) Register(d Descriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered[d.Name] = d
}

// WaitUntilCompleted blocks until the most recent Apply reaches completed
// or failed, returning the captured error (nil on success).
func (m *Migrations) WaitUntilCompleted(ctx context.Context) error {
	return m.state.wait(ctx)
}

// ReconcileOption configures Apply, Revert, and RevertInconsistent.
type ReconcileOption func(*reconcileConfig)

type reconcileConfig struct {
	groups []string
	dryRun bool
}

// WithGroups restricts reconciliation to the given groups. If omitted, all
// groups referenced by either the declared list or the ledger are used.
func WithGroups(groups ...string) ReconcileOption {
	return func(c *reconcileConfig) { c.groups = groups }
}

// DryRun plans but does not execute any changes.
func DryRun() ReconcileOption {
	return func(c *reconcileConfig) { c.dryRun = true }
}

// Apply reconciles the declared migration list against the ledger,
// applying any migrations not yet recorded. See package documentation for
// the reconciliation algorithm.
func (m *Migrations) Apply(ctx context.Context, pool *pgxpool.Pool, opts ...ReconcileOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.begin()
	err := m.applyLocked(ctx, pool, opts...)
	m.state.finish(err)
	return err
}

func (m *Migrations) applyLocked(ctx context.Context, pool *pgxpool.Pool, opts ...ReconcileOption) error {
	cfg := &reconcileConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := m.checkDuplicateNames(); err != nil {
		return err
	}

	var applied []AppliedMigration
	if err := pgconn.WithConnection(ctx, pool, func(q pgconn.Queryer) error {
		if err := ensureTable(ctx, q); err != nil {
			return err
		}
		var err error
		applied, err = listLedgerOrdered(ctx, q)
		return err
	}); err != nil {
		return err
	}

	groups := m.resolveGroups(cfg.groups, applied)

	type planned struct {
		group string
		d     Descriptor
	}
	var plan []planned

	for _, g := range groups {
		declaredG := m.declaredInGroup(g)
		appliedG := appliedInGroup(applied, g)

		i := commonPrefixLen(descriptorNames(declaredG), appliedNames(appliedG))
		if i < len(appliedG) {
			m.logInconsistency(g, declaredG, appliedG, i)
			return ErrAppliedMigrationsInconsistent
		}
		for j := i; j < len(declaredG); j++ {
			plan = append(plan, planned{group: g, d: declaredG[j]})
		}
	}

	if cfg.dryRun {
		if len(plan) > 0 {
			return ErrRequiresChanges
		}
		return nil
	}

	if len(plan) == 0 {
		return nil
	}

	err := pgconn.WithTx(ctx, pool, func(tx pgx.Tx) error {
		for _, p := range plan {
			if err := p.d.Apply(ctx, tx); err != nil {
				return err
			}
			if err := insertLedgerRow(ctx, tx, p.d.Name, p.group); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "migrator: applied migrations", slog.Int("count", len(plan)))
	return nil
}

// Revert reverts every applied migration in reverse insertion order,
// consulting both declared and Register-only descriptors.
func (m *Migrations) Revert(ctx context.Context, pool *pgxpool.Pool, opts ...ReconcileOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revertLocked(ctx, pool, false, opts...)
}

// RevertInconsistent reverts only the divergent tail of each group's
// ledger — the portion beyond the longest common prefix with the declared
// list.
func (m *Migrations) RevertInconsistent(ctx context.Context, pool *pgxpool.Pool, opts ...ReconcileOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revertLocked(ctx, pool, true, opts...)
}

func (m *Migrations) revertLocked(ctx context.Context, pool *pgxpool.Pool, tailOnly bool, opts ...ReconcileOption) error {
	cfg := &reconcileConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	registry := m.revertRegistry()

	var applied []AppliedMigration
	if err := pgconn.WithConnection(ctx, pool, func(q pgconn.Queryer) error {
		if err := ensureTable(ctx, q); err != nil {
			return err
		}
		var err error
		applied, err = listLedgerOrdered(ctx, q)
		return err
	}); err != nil {
		return err
	}

	groups := m.resolveGroups(cfg.groups, applied)

	type toRevert struct {
		name string
		d    Descriptor
	}
	var plan []toRevert

	for _, g := range groups {
		appliedG := appliedInGroup(applied, g)
		start := 0
		if tailOnly {
			declaredG := m.declaredInGroup(g)
			start = commonPrefixLen(descriptorNames(declaredG), appliedNames(appliedG))
		}
		tail := appliedG[start:]
		for i := len(tail) - 1; i >= 0; i-- {
			d, ok := registry[tail[i].Name]
			if !ok {
				return errors.Join(ErrCannotRevertMigration, errors.New(tail[i].Name))
			}
			plan = append(plan, toRevert{name: tail[i].Name, d: d})
		}
	}

	if cfg.dryRun || len(plan) == 0 {
		return nil
	}

	return pgconn.WithTx(ctx, pool, func(tx pgx.Tx) error {
		for _, p := range plan {
			if err := p.d.Revert(ctx, tx); err != nil {
				return err
			}
			if err := deleteLedgerRow(ctx, tx, p.name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (m *Migrations) revertRegistry() map[string]Descriptor {
	registry := make(map[string]Descriptor, len(m.declared)+len(m.registered))
	for _, d := range m.declared {
		registry[d.Name] = d
	}
	for name, d := range m.registered {
		registry[name] = d
	}
	return registry
}

func (m *Migrations) checkDuplicateNames() error {
	seen := make(map[string]map[string]bool) // group -> name -> seen
	for _, d := range m.declared {
		g := d.group()
		if seen[g] == nil {
			seen[g] = make(map[string]bool)
		}
		if seen[g][d.Name] {
			return errors.Join(ErrDuplicateNames, errors.New(g+"/"+d.Name))
		}
		seen[g][d.Name] = true
	}
	return nil
}

func (m *Migrations) declaredInGroup(group string) []Descriptor {
	var out []Descriptor
	for _, d := range m.declared {
		if d.group() == group {
			out = append(out, d)
		}
	}
	return out
}

func appliedInGroup(applied []AppliedMigration, group string) []AppliedMigration {
	var out []AppliedMigration
	for _, a := range applied {
		if a.Group == group {
			out = append(out, a)
		}
	}
	return out
}

// resolveGroups computes the effective group list: explicit if given, else
// the unique first-seen sequence from declared groups followed by applied
// groups.
func (m *Migrations) resolveGroups(explicit []string, applied []AppliedMigration) []string {
	if len(explicit) > 0 {
		return dedupeFirstSeen(explicit)
	}

	var out []string
	seen := make(map[string]bool)
	for _, d := range m.declared {
		g := d.group()
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	for _, a := range applied {
		if !seen[a.Group] {
			seen[a.Group] = true
			out = append(out, a.Group)
		}
	}
	return out
}

func dedupeFirstSeen(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func (m *Migrations) logInconsistency(group string, declared []Descriptor, applied []AppliedMigration, prefixLen int) {
	m.logger.WarnContext(context.Background(), "migrator: applied migrations diverge from declared list",
		slog.String("group", group),
		slog.Int("common_prefix", prefixLen),
		slog.Any("declared", descriptorNames(declared)),
		slog.Any("applied", appliedNames(applied)),
	)
}
