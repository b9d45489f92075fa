// Package firefox imports open tabs from a Firefox profile's session store.
package firefox

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"

	"github.com/lotas/brisk/internal/types"
)

var mozLz4Magic = []byte("mozLz40\x00")

// sessionFiles are tried in order: the live session, then the last closed one.
var sessionFiles = []string{"recovery.jsonlz4", "previous.jsonlz4"}

// DecompressMozLz4 decodes Mozilla's lz4 container: 8 bytes of magic, a
// little-endian uint32 size, then one lz4 block.
func DecompressMozLz4(data []byte) ([]byte, error) {
	const headerSize = 12

	if len(data) < headerSize {
		return nil, fmt.Errorf("mozlz4: data too short (%d bytes)", len(data))
	}
	if !bytes.Equal(data[:8], mozLz4Magic) {
		return nil, fmt.Errorf("mozlz4: invalid header magic")
	}

	size := binary.LittleEndian.Uint32(data[8:12])
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(data[headerSize:], dst)
	if err != nil {
		return nil, fmt.Errorf("mozlz4: decompress failed: %w", err)
	}
	return dst[:n], nil
}

type rawEntry struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type rawTab struct {
	Entries []rawEntry `json:"entries"`
	Index   int        `json:"index"`
	Hidden  bool       `json:"hidden"`
}

type rawWindow struct {
	Tabs []rawTab `json:"tabs"`
}

type rawSession struct {
	Windows []rawWindow `json:"windows"`
}

// ParseSession returns the current entry of every web tab in the session,
// window by window. Tabs showing about: or extension pages are skipped.
func ParseSession(data []byte) ([]types.SessionTab, error) {
	var raw rawSession
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse session JSON: %w", err)
	}

	var tabs []types.SessionTab
	for _, window := range raw.Windows {
		for _, rt := range window.Tabs {
			if len(rt.Entries) == 0 || rt.Hidden {
				continue
			}
			// index is 1-based and may be stale.
			idx := rt.Index - 1
			if idx < 0 || idx >= len(rt.Entries) {
				idx = len(rt.Entries) - 1
			}
			entry := rt.Entries[idx]
			if !isWebURL(entry.URL) {
				continue
			}
			tabs = append(tabs, types.SessionTab{URL: entry.URL, Title: entry.Title})
		}
	}
	return tabs, nil
}

func isWebURL(u string) bool {
	l := strings.ToLower(u)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

func sessionFile(profileDir string) string {
	backupDir := filepath.Join(profileDir, "sessionstore-backups")
	for _, name := range sessionFiles {
		p := filepath.Join(backupDir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// ReadSessionFile reads and parses the session store of profileDir.
func ReadSessionFile(profileDir string) ([]types.SessionTab, error) {
	path := sessionFile(profileDir)
	if path == "" {
		return nil, fmt.Errorf("no session file found in %s: %w",
			filepath.Join(profileDir, "sessionstore-backups"), types.ErrNotFound)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	decompressed, err := DecompressMozLz4(data)
	if err != nil {
		return nil, fmt.Errorf("decompress session file: %w", err)
	}
	return ParseSession(decompressed)
}
