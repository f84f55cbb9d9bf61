// Package adapters provides the external-facing edges of the ingestion
// engine: filesystem source discovery and S3 archival of raw statement
// bytes and event-log export snapshots.
package adapters

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mindburn-labs/ledgerly/internal/ingest"
)

// Walk resolves path to one or more ingest.File handles: path itself if it
// names a regular file, or every regular file directly inside it
// (non-recursive) if it names a directory, sorted by name for
// deterministic batch ordering.
func Walk(path string) ([]ingest.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("adapters: stat %q: %w", path, err)
	}

	if !info.IsDir() {
		f, err := openHandle(path)
		if err != nil {
			return nil, err
		}
		return []ingest.File{f}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("adapters: read dir %q: %w", path, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var handles []ingest.File
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		f, err := openHandle(filepath.Join(path, entry.Name()))
		if err != nil {
			return nil, err
		}
		handles = append(handles, f)
	}
	return handles, nil
}

func openHandle(path string) (ingest.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ingest.File{}, fmt.Errorf("adapters: read %q: %w", path, err)
	}
	return ingest.File{Name: path, Reader: bytes.NewReader(data)}, nil
}
