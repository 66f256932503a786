package main

import (
	"image"
	"image/color"
	"strings"
	"testing"
	"time"
)

func TestIsSupportedExt(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"PNG file", "test.png", true},
		{"JPG file", "test.jpg", true},
		{"JPEG file", "test.jpeg", true},
		{"WebP file", "test.webp", true},
		{"BMP file", "test.bmp", true},
		{"GIF file", "test.gif", true},
		{"TIFF file", "scan.tiff", true},
		{"PNG uppercase", "test.PNG", true},
		{"JPG uppercase", "test.JPG", true},
		{"Text file", "test.txt", false},
		{"Archive", "pics.zip", false},
		{"No extension", "test", false},
		{"Empty string", "", false},
		{"Multiple dots", "test.backup.jpg", true},
		{"Path with directory", "/path/to/test.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isSupportedExt(tt.path)
			if result != tt.expected {
				t.Errorf("isSupportedExt(%s) = %v, want %v", tt.path, result, tt.expected)
			}
		})
	}
}

func TestIsArchiveExt(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"comics.zip", true},
		{"comics.CBZ", false},
		{"comics.rar", true},
		{"comics.7z", true},
		{"comics.tar", false},
		{"photo.png", false},
	}

	for _, tt := range tests {
		if result := isArchiveExt(tt.path); result != tt.expected {
			t.Errorf("isArchiveExt(%s) = %v, want %v", tt.path, result, tt.expected)
		}
	}
}

func TestImagePathNames(t *testing.T) {
	file := newFilePath("/pics/holiday/beach.png")
	if file.IsArchiveEntry() {
		t.Error("plain file reported as archive entry")
	}
	if got := file.Container(); got != "/pics/holiday" {
		t.Errorf("Container() = %s, want /pics/holiday", got)
	}
	if got := file.DisplayName(); got != "beach.png" {
		t.Errorf("DisplayName() = %s, want beach.png", got)
	}

	entry := newEntryPath("/pics/book.zip", "ch1/001.jpg")
	if !entry.IsArchiveEntry() {
		t.Error("archive entry not detected")
	}
	if got := entry.Container(); got != "/pics/book.zip" {
		t.Errorf("Container() = %s, want /pics/book.zip", got)
	}
	if got := entry.DisplayName(); got != "book.zip:ch1/001.jpg" {
		t.Errorf("DisplayName() = %s, want book.zip:ch1/001.jpg", got)
	}
}

func TestActionDefinitions(t *testing.T) {
	validKeys := getValidKeyNames()
	seen := make(map[string]bool)

	for _, action := range actionDefinitions {
		if seen[action.Name] {
			t.Errorf("duplicate action %s", action.Name)
		}
		seen[action.Name] = true

		if action.Description == "" {
			t.Errorf("action %s has no description", action.Name)
		}
		for _, key := range action.Keys {
			if err := validateKeyString(key, validKeys); err != nil {
				t.Errorf("action %s: default key %s invalid: %v", action.Name, key, err)
			}
		}
	}

	if err := validateKeybindings(GetDefaultKeybindings()); err != nil {
		t.Errorf("default keybindings do not validate: %v", err)
	}
}

func TestValidateKeyString(t *testing.T) {
	validKeys := getValidKeyNames()

	tests := []struct {
		key     string
		wantErr bool
	}{
		{"KeyA", false},
		{"Ctrl+KeyS", false},
		{"ctrl+shift+KeyS", false},
		{"Alt+Enter", false},
		{"Super+KeyA", true},
		{"KeyNope", true},
		{"", true},
	}

	for _, tt := range tests {
		err := validateKeyString(tt.key, validKeys)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateKeyString(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
		}
	}
}

func TestBuildInfoString(t *testing.T) {
	vs := NewViewState(DefaultZoomLimits())
	vs.Zoom = 0.5

	live := &LiveImage{
		Source: newFilePath("/pics/b.png"),
		Frames: []*image.RGBA{image.NewRGBA(image.Rect(0, 0, 1, 1))},
		Width:  640,
		Height: 480,
	}
	dir := NewDirectoryIndex(SortOrder{})
	dir.Entries = []FileEntry{{Path: newFilePath("/pics/a.png")}, {Path: live.Source}}
	dir.Active = 1

	got := buildInfoString(live, vs, dir)
	want := "2 / 2  b.png  640x480  50%  Name (ascending)"
	if got != want {
		t.Errorf("buildInfoString() = %q, want %q", got, want)
	}

	// Animated, with no directory
	live.Frames = append(live.Frames, image.NewRGBA(image.Rect(0, 0, 1, 1)))
	vs.Frame = 1
	got = buildInfoString(live, vs, NewDirectoryIndex(SortOrder{}))
	if !strings.HasSuffix(got, "frame 2/2") || strings.Contains(got, "/ ") {
		t.Errorf("buildInfoString() = %q", got)
	}

	if buildInfoString(nil, vs, dir) != "" {
		t.Error("expected empty info without an image")
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		hex  string
		want color.RGBA
		ok   bool
	}{
		{"#FF8000", color.RGBA{255, 128, 0, 255}, true},
		{"#00ff00", color.RGBA{0, 255, 0, 255}, true},
		{"FF8000", color.RGBA{}, false},
		{"#FF80", color.RGBA{}, false},
		{"#GGGGGG", color.RGBA{}, false},
	}

	for _, tt := range tests {
		got, ok := parseHexColor(tt.hex)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("parseHexColor(%s) = %v, %v; want %v, %v", tt.hex, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRenderStateSnapshotEquals(t *testing.T) {
	now := time.Now()
	base := &RenderStateSnapshot{OverlayMessage: "Saved", OverlayMessageTime: now, WindowWidth: 800, WindowHeight: 600}

	same := *base
	if !base.Equals(&same) {
		t.Error("identical snapshots should be equal")
	}

	resized := *base
	resized.WindowWidth = 1024
	if base.Equals(&resized) {
		t.Error("resize should be detected")
	}

	loading := *base
	loading.Loading = true
	if base.Equals(&loading) {
		t.Error("loading change should be detected")
	}

	expired := *base
	expired.OverlayMessageTime = now.Add(-time.Hour)
	if base.Equals(&expired) {
		t.Error("message expiry should be detected")
	}

	if base.Equals(nil) {
		t.Error("nil snapshot should never be equal")
	}
}
