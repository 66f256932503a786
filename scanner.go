package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"go.uber.org/zap"
)

// ScanResult is a sorted sibling listing plus the position of the requested image
type ScanResult struct {
	Container string
	Entries   []FileEntry
	Index     int
	Order     SortOrder
}

// DirectoryScanner lists the images that share a folder or archive with a file
type DirectoryScanner struct {
	codec  Codec
	ignore []glob.Glob
	logger *zap.Logger
}

// NewDirectoryScanner compiles the ignore patterns, which match against base names
func NewDirectoryScanner(codec Codec, ignorePatterns []string, logger *zap.Logger) (*DirectoryScanner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &DirectoryScanner{codec: codec, logger: logger}
	for _, p := range ignorePatterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		s.ignore = append(s.ignore, g)
	}
	return s, nil
}

func (s *DirectoryScanner) ignored(name string) bool {
	for _, g := range s.ignore {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Scan lists target's container and locates target in it.
// Index is -1 when target is not among the decodable siblings.
func (s *DirectoryScanner) Scan(ctx context.Context, target ImagePath, order SortOrder) (*ScanResult, error) {
	res, err := s.ScanContainer(ctx, target.Container(), order)
	if err != nil {
		return nil, err
	}
	res.Index = indexOfPath(res.Entries, target.Path)
	return res, nil
}

// ScanContainer lists a directory or an archive. ctx is checked once per entry.
func (s *DirectoryScanner) ScanContainer(ctx context.Context, container string, order SortOrder) (*ScanResult, error) {
	var (
		entries []FileEntry
		err     error
	)
	if isArchiveExt(container) {
		if info, statErr := os.Stat(container); statErr == nil && !info.IsDir() {
			entries, err = listArchiveImages(ctx, container)
		} else {
			entries, err = s.listDirectory(ctx, container)
		}
	} else {
		entries, err = s.listDirectory(ctx, container)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug("scanned container",
		zap.String("container", container),
		zap.Int("images", len(entries)),
		zap.Stringer("order", order))

	return &ScanResult{
		Container: container,
		Entries:   sortEntries(entries, order),
		Index:     -1,
		Order:     order,
	}, nil
}

func (s *DirectoryScanner) listDirectory(ctx context.Context, dir string) ([]FileEntry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var entries []FileEntry
	for _, de := range dirEntries {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		if de.IsDir() || s.ignored(de.Name()) {
			continue
		}

		fullPath := filepath.Join(dir, de.Name())
		if !s.codec.ProbeIsImage(fullPath) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info
			continue
		}
		entries = append(entries, FileEntry{
			Path:    newFilePath(fullPath),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	return entries, nil
}

// indexOfPath finds path by case-insensitive comparison
func indexOfPath(entries []FileEntry, path string) int {
	clean := filepath.Clean(path)
	for i, e := range entries {
		if strings.EqualFold(filepath.Clean(e.Path.Path), clean) {
			return i
		}
	}
	return -1
}
