package main

import (
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// Sort criteria constants, stored as numbers in the config
const (
	SortByName     = 0 // Natural, case-insensitive name order (file1, file2, file10)
	SortByModified = 1 // Last modified time
	SortBySize     = 2 // File size in bytes
)

// SortOrder selects criteria and direction for a directory listing
type SortOrder struct {
	Criteria   int
	Descending bool
}

// SortStrategy defines the interface for different sorting strategies
type SortStrategy interface {
	// Less compares two entries in ascending order
	Less(a, b FileEntry) bool
	// Name returns the human-readable name of the strategy
	Name() string
	// ID returns the numeric identifier for config storage
	ID() int
}

// NameSortStrategy implements natural sorting using maruel/natural
type NameSortStrategy struct{}

func (s *NameSortStrategy) Less(a, b FileEntry) bool {
	return natural.Less(strings.ToLower(sortKeyName(a)), strings.ToLower(sortKeyName(b)))
}

func (s *NameSortStrategy) Name() string {
	return "Name"
}

func (s *NameSortStrategy) ID() int {
	return SortByName
}

// ModifiedSortStrategy orders by modification time, ties broken by name
type ModifiedSortStrategy struct{}

func (s *ModifiedSortStrategy) Less(a, b FileEntry) bool {
	if !a.ModTime.Equal(b.ModTime) {
		return a.ModTime.Before(b.ModTime)
	}
	return (&NameSortStrategy{}).Less(a, b)
}

func (s *ModifiedSortStrategy) Name() string {
	return "Modified"
}

func (s *ModifiedSortStrategy) ID() int {
	return SortByModified
}

// SizeSortStrategy orders by byte size, ties broken by name
type SizeSortStrategy struct{}

func (s *SizeSortStrategy) Less(a, b FileEntry) bool {
	if a.Size != b.Size {
		return a.Size < b.Size
	}
	return (&NameSortStrategy{}).Less(a, b)
}

func (s *SizeSortStrategy) Name() string {
	return "Size"
}

func (s *SizeSortStrategy) ID() int {
	return SortBySize
}

func sortKeyName(e FileEntry) string {
	if e.Path.IsArchiveEntry() {
		return e.Path.EntryPath
	}
	return e.Path.Path
}

// GetSortStrategy returns the appropriate strategy based on the sort criteria ID
func GetSortStrategy(criteria int) SortStrategy {
	switch criteria {
	case SortByModified:
		return &ModifiedSortStrategy{}
	case SortBySize:
		return &SizeSortStrategy{}
	default:
		return &NameSortStrategy{} // Default fallback
	}
}

// GetAllSortStrategies returns all available sort strategies
func GetAllSortStrategies() []SortStrategy {
	return []SortStrategy{
		&NameSortStrategy{},
		&ModifiedSortStrategy{},
		&SizeSortStrategy{},
	}
}

// sortEntries returns a new sorted slice without modifying the original
func sortEntries(entries []FileEntry, order SortOrder) []FileEntry {
	if len(entries) == 0 {
		return []FileEntry{}
	}

	result := make([]FileEntry, len(entries))
	copy(result, entries)

	strategy := GetSortStrategy(order.Criteria)
	sort.SliceStable(result, func(i, j int) bool {
		if order.Descending {
			return strategy.Less(result[j], result[i])
		}
		return strategy.Less(result[i], result[j])
	})
	return result
}

// Next returns the order with the following criteria, keeping the direction
func (o SortOrder) Next() SortOrder {
	o.Criteria = (o.Criteria + 1) % len(GetAllSortStrategies())
	return o
}

// String describes the order for the overlay
func (o SortOrder) String() string {
	dir := "ascending"
	if o.Descending {
		dir = "descending"
	}
	return GetSortStrategy(o.Criteria).Name() + " (" + dir + ")"
}
