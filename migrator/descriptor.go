package migrator

import (
	"context"

	"github.com/hummingbird-project/hummingbird-postgres/pgconn"
)

// DefaultGroup is the group used for migrations that don't specify one.
const DefaultGroup = "_hb_default"

// Descriptor is a single declared migration. Identity is (Group, Name);
// names must be unique within a group.
type Descriptor struct {
	Name   string
	Group  string
	Apply  func(ctx context.Context, q pgconn.Queryer) error
	Revert func(ctx context.Context, q pgconn.Queryer) error
}

func (d Descriptor) group() string {
	if d.Group == "" {
		return DefaultGroup
	}
	return d.Group
}

// AppliedMigration is a single row read back from the ledger.
type AppliedMigration struct {
	Name  string
	Group string
	Order int64
}
