package main

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode"
)

type ImagePath struct {
	Path        string // Local file path or archive:entry format
	ArchivePath string // Empty for regular files, path to archive for entries
	EntryPath   string // Empty for regular files, path within archive for entries
}

// IsArchiveEntry reports whether the image lives inside an archive
func (p ImagePath) IsArchiveEntry() bool {
	return p.ArchivePath != ""
}

// Container returns the directory or archive that lists this image's siblings
func (p ImagePath) Container() string {
	if p.IsArchiveEntry() {
		return p.ArchivePath
	}
	return filepath.Dir(p.Path)
}

// DisplayName is the short name shown in the title and info overlay
func (p ImagePath) DisplayName() string {
	if p.IsArchiveEntry() {
		return filepath.Base(p.ArchivePath) + ":" + p.EntryPath
	}
	return filepath.Base(p.Path)
}

func newFilePath(path string) ImagePath {
	return ImagePath{Path: path}
}

func newEntryPath(archivePath, entry string) ImagePath {
	return ImagePath{
		Path:        archivePath + ":" + entry,
		ArchivePath: archivePath,
		EntryPath:   entry,
	}
}

// fileStamp identifies one version of a file on disk
type fileStamp struct {
	ModTime time.Time
	Size    int64
}

// FileEntry is one sibling in a directory listing
type FileEntry struct {
	Path    ImagePath
	ModTime time.Time
	Size    int64
}

func isArchiveExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".rar", ".7z":
		return true
	default:
		return false
	}
}

// isSupportedExt is the name-based hint used for archive entries, where header
// probing would mean decompressing every entry
func isSupportedExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".webp", ".bmp", ".gif", ".tif", ".tiff":
		return true
	default:
		return false
	}
}

// statSource returns the stamp of the file backing p; entries use their archive
func statSource(p ImagePath) (fileStamp, error) {
	name := p.Path
	if p.IsArchiveEntry() {
		name = p.ArchivePath
	}
	info, err := os.Stat(name)
	if err != nil {
		return fileStamp{}, err
	}
	return fileStamp{ModTime: info.ModTime(), Size: info.Size()}, nil
}

// readImageBytes reads the whole image into memory so no handle outlives the call
func readImageBytes(p ImagePath) ([]byte, fileStamp, error) {
	stamp, err := statSource(p)
	if err != nil {
		return nil, fileStamp{}, newLoadError(ErrFileUnavailable, p.Path, err)
	}

	var data []byte
	if !p.IsArchiveEntry() {
		data, err = os.ReadFile(p.Path)
	} else {
		switch strings.ToLower(filepath.Ext(p.ArchivePath)) {
		case ".zip":
			data, err = readZipEntry(p.ArchivePath, p.EntryPath)
		case ".rar":
			data, err = readRarEntry(p.ArchivePath, p.EntryPath)
		case ".7z":
			data, err = read7zEntry(p.ArchivePath, p.EntryPath)
		default:
			err = fmt.Errorf("unsupported archive format: %s", filepath.Ext(p.ArchivePath))
		}
	}
	if err != nil {
		return nil, fileStamp{}, newLoadError(ErrFileUnavailable, p.Path, err)
	}
	return data, stamp, nil
}

var errEntryNotFound = errors.New("entry not found")

func readZipEntry(archivePath, entryPath string) ([]byte, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name == entryPath {
			return readAllFrom(f.Open)
		}
	}
	return nil, fmt.Errorf("%s in %s: %w", entryPath, archivePath, errEntryNotFound)
}

func readRarEntry(archivePath, entryPath string) ([]byte, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := rardecode.NewReader(f, "")
	if err != nil {
		return nil, err
	}

	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header.Name == entryPath {
			return io.ReadAll(r)
		}
	}
	return nil, fmt.Errorf("%s in %s: %w", entryPath, archivePath, errEntryNotFound)
}

func read7zEntry(archivePath, entryPath string) ([]byte, error) {
	r, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name == entryPath {
			return readAllFrom(f.Open)
		}
	}
	return nil, fmt.Errorf("%s in %s: %w", entryPath, archivePath, errEntryNotFound)
}

func readAllFrom(open func() (io.ReadCloser, error)) ([]byte, error) {
	rc, err := open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// listArchiveImages enumerates image entries, checking ctx once per entry
func listArchiveImages(ctx context.Context, archivePath string) ([]FileEntry, error) {
	switch strings.ToLower(filepath.Ext(archivePath)) {
	case ".zip":
		r, err := zip.OpenReader(archivePath)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return collectEntries(ctx, archivePath, len(r.File), func(i int) (string, fs.FileInfo) {
			return r.File[i].Name, r.File[i].FileInfo()
		})
	case ".7z":
		r, err := sevenzip.OpenReader(archivePath)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return collectEntries(ctx, archivePath, len(r.File), func(i int) (string, fs.FileInfo) {
			return r.File[i].Name, r.File[i].FileInfo()
		})
	case ".rar":
		return listRarImages(ctx, archivePath)
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", filepath.Ext(archivePath))
	}
}

func collectEntries(ctx context.Context, archivePath string, n int, at func(int) (string, fs.FileInfo)) ([]FileEntry, error) {
	var entries []FileEntry
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		name, info := at(i)
		if info.IsDir() || !isSupportedExt(name) {
			continue
		}
		entries = append(entries, FileEntry{
			Path:    newEntryPath(archivePath, name),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	return entries, nil
}

func listRarImages(ctx context.Context, archivePath string) ([]FileEntry, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := rardecode.NewReader(f, "")
	if err != nil {
		return nil, err
	}

	var entries []FileEntry
	for {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header.IsDir || !isSupportedExt(header.Name) {
			continue
		}
		entries = append(entries, FileEntry{
			Path:    newEntryPath(archivePath, header.Name),
			ModTime: header.ModificationTime,
			Size:    header.UnPackedSize,
		})
	}
	return entries, nil
}
