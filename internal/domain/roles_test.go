package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleTableExactMatch(t *testing.T) {
	table := DefaultRoleTable(PlatformCodeforces)

	role, ok := table.Resolve("candidate master", 0)
	require.True(t, ok)
	assert.Equal(t, "Candidate Master", role)

	// The oracle reports ranks in lower case but the match must not
	// depend on it.
	role, ok = table.Resolve("Legendary Grandmaster", 0)
	require.True(t, ok)
	assert.Equal(t, "Legendary Grandmaster", role)

	_, ok = table.Resolve("tourist tier", 0)
	assert.False(t, ok)
}

func TestRoleTableThresholdBuckets(t *testing.T) {
	table := DefaultRoleTable(PlatformCodechef)

	cases := []struct {
		rating int
		role   string
	}{
		{rating: 0, role: "1★ Coder"},
		{rating: 1399, role: "1★ Coder"},
		{rating: 1400, role: "2★ Coder"},
		{rating: 1999, role: "4★ Coder"},
		{rating: 2000, role: "5★ Coder"},
		{rating: 2499, role: "6★ Coder"},
		{rating: 3104, role: "7★ Coder"},
	}

	for _, tc := range cases {
		role, ok := table.Resolve("", tc.rating)
		require.True(t, ok, "rating %d", tc.rating)
		assert.Equal(t, tc.role, role, "rating %d", tc.rating)
	}
}

func TestRoleTableDeterministic(t *testing.T) {
	table := NewRoleTable(nil, []RatingBucket{
		{Threshold: 1800, Role: "high"},
		{Threshold: 0, Role: "low"},
		{Threshold: 1400, Role: "mid"},
	})

	for i := 0; i < 5; i++ {
		role, ok := table.Resolve("", 1500)
		require.True(t, ok)
		assert.Equal(t, "mid", role)
	}
}

func TestParsePlatform(t *testing.T) {
	p, err := ParsePlatform("CF")
	require.NoError(t, err)
	assert.Equal(t, PlatformCodeforces, p)

	p, err = ParsePlatform(" codechef ")
	require.NoError(t, err)
	assert.Equal(t, PlatformCodechef, p)

	_, err = ParsePlatform("atcoder")
	assert.Error(t, err)
}
