package migrator

// commonPrefixLen returns how many leading names of declared and applied
// agree, position by position.
func commonPrefixLen(declared, applied []string) int {
	n := min(len(declared), len(applied))
	i := 0
	for i < n && declared[i] == applied[i] {
		i++
	}
	return i
}

// descriptorNames extracts Name from a slice of Descriptor in order.
func descriptorNames(ds []Descriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Name
	}
	return out
}

// appliedNames extracts Name from a slice of AppliedMigration in order.
func appliedNames(as []AppliedMigration) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Name
	}
	return out
}
