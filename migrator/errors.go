package migrator

import "errors"

var (
	// ErrDuplicateNames is returned when a group's declared migration list
	// contains two migrations with the same name.
	ErrDuplicateNames = errors.New("migrator: duplicate migration names in group")

	// ErrRequiresChanges is returned by a dry-run Apply when at least one
	// migration would need to be applied.
	ErrRequiresChanges = errors.New("migrator: applying would require changes")

	// ErrAppliedMigrationsInconsistent is returned when the ledger for a
	// group is not a prefix of that group's declared list.
	ErrAppliedMigrationsInconsistent = errors.New("migrator: applied migrations inconsistent with declared list")

	// ErrCannotRevertMigration is returned when a ledger entry has no
	// corresponding descriptor registered via Add or Register.
	ErrCannotRevertMigration = errors.New("migrator: cannot revert migration: no descriptor registered")
)
