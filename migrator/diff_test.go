package migrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommonPrefixLen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		declared []string
		applied  []string
		want     int
	}{
		{
			name:     "empty both",
			declared: nil,
			applied:  nil,
			want:     0,
		},
		{
			name:     "applied is prefix of declared",
			declared: []string{"a", "b", "c"},
			applied:  []string{"a", "b"},
			want:     2,
		},
		{
			name:     "fully equal",
			declared: []string{"a", "b", "c"},
			applied:  []string{"a", "b", "c"},
			want:     3,
		},
		{
			name:     "diverges at position 1",
			declared: []string{"a", "x", "c"},
			applied:  []string{"a", "b", "c"},
			want:     1,
		},
		{
			name:     "applied longer than declared, diverges at end",
			declared: []string{"a"},
			applied:  []string{"a", "b"},
			want:     1,
		},
		{
			name:     "no common prefix",
			declared: []string{"a", "b"},
			applied:  []string{"z", "y"},
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, commonPrefixLen(tt.declared, tt.applied))
		})
	}
}

func TestDescriptorNames(t *testing.T) {
	t.Parallel()

	ds := []Descriptor{{Name: "one"}, {Name: "two"}, {Name: "three"}}
	assert.Equal(t, []string{"one", "two", "three"}, descriptorNames(ds))
	assert.Empty(t, descriptorNames(nil))
}

func TestAppliedNames(t *testing.T) {
	t.Parallel()

	as := []AppliedMigration{{Name: "one"}, {Name: "two"}}
	assert.Equal(t, []string{"one", "two"}, appliedNames(as))
	assert.Empty(t, appliedNames(nil))
}
