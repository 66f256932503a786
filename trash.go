package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"
)

// Trasher moves a file somewhere it can be recovered from
type Trasher interface {
	Trash(path string) error
}

// FreedesktopTrash implements the XDG trash layout: the file goes to files/ and a
// .trashinfo record with the original path goes to info/
type FreedesktopTrash struct {
	Dir      string // usually $XDG_DATA_HOME/Trash
	Fallback string // used when Dir is on another filesystem
	now      func() time.Time
}

// NewFreedesktopTrash resolves the user's trash directory
func NewFreedesktopTrash() *FreedesktopTrash {
	dataHome := os.Getenv("XDG_DATA_HOME")
	home, _ := os.UserHomeDir()
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}
	return &FreedesktopTrash{
		Dir:      filepath.Join(dataHome, "Trash"),
		Fallback: filepath.Join(home, ".miv-trash"),
		now:      time.Now,
	}
}

func (t *FreedesktopTrash) Trash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(abs); err != nil {
		return err
	}

	err = t.trashInto(t.Dir, abs)
	if errors.Is(err, syscall.EXDEV) && t.Fallback != "" {
		err = t.trashInto(t.Fallback, abs)
	}
	return err
}

func (t *FreedesktopTrash) trashInto(trashDir, abs string) error {
	filesDir := filepath.Join(trashDir, "files")
	infoDir := filepath.Join(trashDir, "info")
	for _, d := range []string{filesDir, infoDir} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return fmt.Errorf("creating trash directory: %w", err)
		}
	}

	name, info, err := t.reserveInfo(filesDir, infoDir, abs)
	if err != nil {
		return err
	}

	if err := os.Rename(abs, filepath.Join(filesDir, name)); err != nil {
		os.Remove(info)
		return err
	}
	return nil
}

// reserveInfo claims a unique trash name by creating its .trashinfo exclusively
func (t *FreedesktopTrash) reserveInfo(filesDir, infoDir, abs string) (string, string, error) {
	base := filepath.Base(abs)
	now := time.Now
	if t.now != nil {
		now = t.now
	}
	record := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		(&url.URL{Path: abs}).EscapedPath(),
		now().Format("2006-01-02T15:04:05"))

	for i := 1; i < 10000; i++ {
		name := base
		if i > 1 {
			ext := filepath.Ext(base)
			name = base[:len(base)-len(ext)] + "." + strconv.Itoa(i) + ext
		}
		if _, err := os.Lstat(filepath.Join(filesDir, name)); err == nil {
			continue
		}
		info := filepath.Join(infoDir, name+".trashinfo")
		f, err := os.OpenFile(info, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", err
		}
		_, werr := f.WriteString(record)
		cerr := f.Close()
		if werr != nil || cerr != nil {
			os.Remove(info)
			return "", "", errors.Join(werr, cerr)
		}
		return name, info, nil
	}
	return "", "", fmt.Errorf("no free trash name for %s", base)
}
