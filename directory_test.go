package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexOf(names ...string) DirectoryIndex {
	d := NewDirectoryIndex(SortOrder{})
	d.Container = "/pics"
	for _, n := range names {
		d.Entries = append(d.Entries, FileEntry{Path: newFilePath("/pics/" + n)})
	}
	return d
}

func TestDirectoryIndexWrapAround(t *testing.T) {
	d := indexOf("a.png", "b.png", "c.png")

	assert.Equal(t, 0, d.NextIndex(), "nothing active starts at the first entry")
	assert.Equal(t, 2, d.PrevIndex(), "nothing active goes back to the last entry")

	d.Active = 2
	assert.Equal(t, 0, d.NextIndex())
	assert.Equal(t, 1, d.PrevIndex())

	d.Active = 0
	assert.Equal(t, 2, d.PrevIndex())

	empty := NewDirectoryIndex(SortOrder{})
	assert.Equal(t, -1, empty.NextIndex())
	assert.Equal(t, -1, empty.PrevIndex())
}

func TestDirectoryIndexRemoveActive(t *testing.T) {
	tests := []struct {
		name       string
		names      []string
		active     int
		wantActive int
		wantPath   string
	}{
		{"middle moves to successor", []string{"a", "b", "c"}, 1, 1, "/pics/c"},
		{"first moves to successor", []string{"a", "b", "c"}, 0, 0, "/pics/b"},
		{"last wraps to first", []string{"a", "b", "c"}, 2, 0, "/pics/a"},
		{"only entry empties the list", []string{"a"}, 0, -1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := indexOf(tt.names...)
			d.Active = tt.active

			assert.Equal(t, tt.wantActive, d.RemoveActive())
			assert.Len(t, d.Entries, len(tt.names)-1)

			cur, ok := d.Current()
			if tt.wantPath == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantPath, cur.Path.Path)
		})
	}
}

func TestDirectoryIndexRemoveWithoutActive(t *testing.T) {
	d := indexOf("a", "b")
	assert.Equal(t, -1, d.RemoveActive())
	assert.Len(t, d.Entries, 2)
}

func TestDirectoryIndexRemoveAt(t *testing.T) {
	d := indexOf("a", "b", "c")
	d.Active = 2

	// Removing an entry other than the active one still activates its successor
	assert.Equal(t, 0, d.RemoveAt(0))
	cur, ok := d.Current()
	require.True(t, ok)
	assert.Equal(t, "/pics/b", cur.Path.Path)

	assert.Equal(t, 0, d.RemoveAt(5), "out of range")
	assert.Len(t, d.Entries, 2)
}

func TestDirectoryIndexReplaceRelocatesActive(t *testing.T) {
	d := indexOf("a", "b")
	d.Active = 1

	res := &ScanResult{
		Container: "/pics",
		Entries: []FileEntry{
			{Path: newFilePath("/pics/0")},
			{Path: newFilePath("/pics/a")},
			{Path: newFilePath("/pics/B")},
		},
		Order: SortOrder{Criteria: SortBySize},
	}
	d.Replace(res, "/pics/b")
	assert.Equal(t, 2, d.Active, "matched case-insensitively")
	assert.Equal(t, SortBySize, d.Order.Criteria)

	d.Replace(res, "/pics/gone")
	assert.Equal(t, -1, d.Active)
}

func TestDirectoryIndexClearAndPaths(t *testing.T) {
	d := indexOf("a", "b")
	paths := d.Paths()
	require.Len(t, paths, 2)
	assert.Equal(t, "/pics/b", paths[1].Path)

	d.Active = 1
	d.Clear()
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, -1, d.Active)
	assert.Empty(t, d.Container)
}
