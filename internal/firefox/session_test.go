package firefox

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pierrec/lz4/v4"

	"github.com/lotas/brisk/internal/types"
)

// mozlz4 wraps data the way Firefox writes session files.
func mozlz4(t *testing.T, data []byte) []byte {
	t.Helper()
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		t.Fatalf("lz4.CompressBlock failed: %v", err)
	}
	out := append([]byte{}, mozLz4Magic...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	return append(out, dst[:n]...)
}

func TestDecompressMozLz4(t *testing.T) {
	t.Run("valid mozlz4 payload", func(t *testing.T) {
		original := []byte(`{"windows":[{"tabs":[]}]}`)
		result, err := DecompressMozLz4(mozlz4(t, original))
		if err != nil {
			t.Fatalf("DecompressMozLz4 returned error: %v", err)
		}
		if string(result) != string(original) {
			t.Errorf("expected %q, got %q", original, result)
		}
	})

	t.Run("invalid header returns error", func(t *testing.T) {
		if _, err := DecompressMozLz4([]byte("BADMAGIC\x00\x00\x00\x00some data here")); err == nil {
			t.Fatal("expected error for invalid header, got nil")
		}
	})

	t.Run("too short data returns error", func(t *testing.T) {
		if _, err := DecompressMozLz4([]byte("mozLz40")); err == nil {
			t.Fatal("expected error for too-short data, got nil")
		}
	})
}

const sessionJSON = `{
	"windows": [
		{"tabs": [
			{"entries": [{"url": "https://example.com", "title": "Example"}], "index": 1},
			{"entries": [
				{"url": "https://old.com", "title": "Old Page"},
				{"url": "https://current.com", "title": "Current Page"}
			], "index": 2},
			{"entries": [{"url": "about:preferences", "title": "Settings"}], "index": 1},
			{"entries": [], "index": 0}
		]},
		{"tabs": [
			{"entries": [{"url": "https://go.dev", "title": "Go"}], "index": 9},
			{"entries": [{"url": "https://hidden.example", "title": "Hidden"}], "index": 1, "hidden": true}
		]}
	]
}`

func TestParseSession(t *testing.T) {
	tabs, err := ParseSession([]byte(sessionJSON))
	if err != nil {
		t.Fatalf("ParseSession returned error: %v", err)
	}
	want := []types.SessionTab{
		{URL: "https://example.com", Title: "Example"},
		{URL: "https://current.com", Title: "Current Page"},
		{URL: "https://go.dev", Title: "Go"},
	}
	if !reflect.DeepEqual(tabs, want) {
		t.Errorf("ParseSession() = %+v, want %+v", tabs, want)
	}
}

func TestParseSessionInvalidJSON(t *testing.T) {
	if _, err := ParseSession([]byte("{")); err == nil {
		t.Fatal("expected error")
	}
}

func TestReadSessionFile(t *testing.T) {
	profileDir := t.TempDir()
	backupDir := filepath.Join(profileDir, "sessionstore-backups")
	os.MkdirAll(backupDir, 0755)

	if _, err := ReadSessionFile(profileDir); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("missing file: error = %v, want ErrNotFound", err)
	}

	os.WriteFile(filepath.Join(backupDir, "previous.jsonlz4"), mozlz4(t, []byte(sessionJSON)), 0644)
	tabs, err := ReadSessionFile(profileDir)
	if err != nil {
		t.Fatalf("read session: %v", err)
	}
	if len(tabs) != 3 {
		t.Errorf("expected 3 tabs, got %d", len(tabs))
	}
}
