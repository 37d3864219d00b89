package avltree

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloorOnEmptyTree(t *testing.T) {
	t.Parallel()

	tree := New[string, int]()
	_, ok := tree.Floor("anything")
	assert.False(t, ok)
	assert.True(t, tree.IsEmpty())
}

func TestInsertAndFloor(t *testing.T) {
	t.Parallel()

	tree := New[int, string]()
	for _, k := range []int{50, 20, 80, 10, 30, 70, 90} {
		tree.Insert(k, fmt.Sprintf("v%d", k))
	}
	require.Equal(t, 7, tree.Len())

	cases := []struct {
		query int
		want  string
		found bool
	}{
		{query: 50, want: "v50", found: true},
		{query: 49, want: "v30", found: true},
		{query: 95, want: "v90", found: true},
		{query: 10, want: "v10", found: true},
		{query: 9, found: false},
		{query: 75, want: "v70", found: true},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("floor(%d)", tc.query), func(t *testing.T) {
			t.Parallel()
			got, ok := tree.Floor(tc.query)
			assert.Equal(t, tc.found, ok)
			if tc.found {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestAscendingInsertionStaysBalanced(t *testing.T) {
	t.Parallel()

	// Ascending insertion degenerates a plain BST into a list; with AVL
	// rotations Floor stays correct and the tree height stays logarithmic.
	tree := New[int, int]()
	const n = 1024
	for i := 0; i < n; i++ {
		tree.Insert(i, i*2)
	}

	assert.LessOrEqual(t, height(tree.root), 12)

	for _, q := range []int{0, 1, 511, 512, 1023, 5000} {
		got, ok := tree.Floor(q)
		require.True(t, ok)
		want := q
		if want > n-1 {
			want = n - 1
		}
		assert.Equal(t, want*2, got)
	}
}

func TestDescendingInsertion(t *testing.T) {
	t.Parallel()

	tree := New[int, int]()
	for i := 100; i > 0; i-- {
		tree.Insert(i, i)
	}
	got, ok := tree.Floor(55)
	require.True(t, ok)
	assert.Equal(t, 55, got)
	_, ok = tree.Floor(0)
	assert.False(t, ok)
}

func TestStringKeysAreLexicographic(t *testing.T) {
	t.Parallel()

	// The accounting engine keys lots with timestamp strings plus a numeric
	// disambiguator suffix; the floor query with an all-nines suffix must
	// capture every same-timestamp key.
	tree := New[string, int]()
	tree.Insert("20200101000000.000000_000000000001", 1)
	tree.Insert("20200101000000.000000_000000000002", 2)
	tree.Insert("20200301000000.000000_000000000003", 3)

	got, ok := tree.Floor("20200101000000.000000_999999999999")
	require.True(t, ok)
	assert.Equal(t, 2, got)

	got, ok = tree.Floor("20200401000000.000000_999999999999")
	require.True(t, ok)
	assert.Equal(t, 3, got)
}
