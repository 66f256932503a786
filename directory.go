package main

// DirectoryIndex is the UI-owned sorted sibling list and the active position in it.
// Active is -1 when the displayed image is not part of the list.
type DirectoryIndex struct {
	Container string
	Entries   []FileEntry
	Active    int
	Order     SortOrder
}

// NewDirectoryIndex returns an empty index
func NewDirectoryIndex(order SortOrder) DirectoryIndex {
	return DirectoryIndex{Active: -1, Order: order}
}

// Len returns the number of entries
func (d DirectoryIndex) Len() int {
	return len(d.Entries)
}

// Current returns the active entry
func (d DirectoryIndex) Current() (FileEntry, bool) {
	if d.Active < 0 || d.Active >= len(d.Entries) {
		return FileEntry{}, false
	}
	return d.Entries[d.Active], true
}

// NextIndex returns the index after the active one, wrapping at the end
func (d DirectoryIndex) NextIndex() int {
	if len(d.Entries) == 0 {
		return -1
	}
	if d.Active < 0 {
		return 0
	}
	return (d.Active + 1) % len(d.Entries)
}

// PrevIndex returns the index before the active one, wrapping at the start
func (d DirectoryIndex) PrevIndex() int {
	if len(d.Entries) == 0 {
		return -1
	}
	if d.Active < 0 {
		return len(d.Entries) - 1
	}
	return (d.Active - 1 + len(d.Entries)) % len(d.Entries)
}

// Replace swaps in a new listing wholesale and relocates activePath in it
func (d *DirectoryIndex) Replace(res *ScanResult, activePath string) {
	d.Container = res.Container
	d.Entries = res.Entries
	d.Order = res.Order
	d.Active = indexOfPath(d.Entries, activePath)
}

// RemoveActive drops the active entry. The following entry takes its index, wrapping
// to the first when the last entry was removed; an emptied list yields -1.
func (d *DirectoryIndex) RemoveActive() int {
	if d.Active < 0 || d.Active >= len(d.Entries) {
		return d.Active
	}
	return d.RemoveAt(d.Active)
}

// RemoveAt drops entry i and makes the entry that takes its place active, with the
// same wrapping as RemoveActive. Out of range leaves the index untouched.
func (d *DirectoryIndex) RemoveAt(i int) int {
	if i < 0 || i >= len(d.Entries) {
		return d.Active
	}

	entries := make([]FileEntry, 0, len(d.Entries)-1)
	entries = append(entries, d.Entries[:i]...)
	entries = append(entries, d.Entries[i+1:]...)
	d.Entries = entries

	switch {
	case len(d.Entries) == 0:
		d.Active = -1
	case i >= len(d.Entries):
		d.Active = 0
	default:
		d.Active = i
	}
	return d.Active
}

// Clear empties the index, as for a pasted image
func (d *DirectoryIndex) Clear() {
	d.Container = ""
	d.Entries = nil
	d.Active = -1
}

// Paths returns the entry paths in order
func (d DirectoryIndex) Paths() []ImagePath {
	paths := make([]ImagePath, len(d.Entries))
	for i, e := range d.Entries {
		paths[i] = e.Path
	}
	return paths
}
