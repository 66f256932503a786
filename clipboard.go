package main

import (
	"errors"
	"net/url"
	"os"
	"strings"

	"github.com/atotto/clipboard"
)

var errClipboardUnsupported = errors.New("no clipboard utility available")

// Clipboard is the text clipboard used for paste-by-path and copy-path
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// SystemClipboard talks to the desktop clipboard through xclip, xsel or wl-clipboard
type SystemClipboard struct{}

func (SystemClipboard) ReadText() (string, error) {
	if clipboard.Unsupported {
		return "", errClipboardUnsupported
	}
	return clipboard.ReadAll()
}

func (SystemClipboard) WriteText(text string) error {
	if clipboard.Unsupported {
		return errClipboardUnsupported
	}
	return clipboard.WriteAll(text)
}

// pastedPath extracts an existing file path from clipboard text. File managers put
// file:// URIs on the clipboard, one per line; only the first is used.
func pastedPath(text string) (string, bool) {
	line := strings.TrimSpace(text)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	line = strings.Trim(line, `"'`)
	if line == "" {
		return "", false
	}

	if strings.HasPrefix(line, "file://") {
		u, err := url.Parse(line)
		if err != nil {
			return "", false
		}
		line = u.Path
	}

	info, err := os.Stat(line)
	if err != nil || info.IsDir() {
		return "", false
	}
	return line, true
}
