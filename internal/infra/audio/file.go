package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const processedSuffix = ".processed"

var utteranceExts = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".webm": true,
	".ogg":  true,
}

// FileSource treats each new audio file dropped into dir as one utterance,
// oldest first. Handled files are renamed with a .processed suffix.
type FileSource struct {
	dir      string
	interval time.Duration

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{
		dir:      dir,
		interval: 500 * time.Millisecond,
		seen:     make(map[string]struct{}),
	}
}

func (f *FileSource) Name() string {
	return "file"
}

// Probe makes sure the watched directory exists.
func (f *FileSource) Probe() error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating audio dir: %w", err)
	}
	return nil
}

// Capture waits for the next file. Closing stop before a file appears
// yields no audio.
func (f *FileSource) Capture(ctx context.Context, stop <-chan struct{}) ([]byte, error) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		data, err := f.take()
		if err != nil || data != nil {
			return data, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-stop:
			return nil, nil
		case <-ticker.C:
		}
	}
}

// take consumes the oldest pending utterance file, if any.
func (f *FileSource) take() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path, err := f.oldestPending()
	if err != nil || path == "" {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	f.seen[path] = struct{}{}
	_ = os.Rename(path, path+processedSuffix)
	return data, nil
}

func (f *FileSource) oldestPending() (string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return "", fmt.Errorf("reading dir: %w", err)
	}

	type pending struct {
		path string
		mod  time.Time
	}
	var candidates []pending
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !utteranceExts[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		path := filepath.Join(f.dir, name)
		if _, ok := f.seen[path]; ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, pending{path: path, mod: info.ModTime()})
	}
	if len(candidates) == 0 {
		return "", nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].mod.Equal(candidates[j].mod) {
			return candidates[i].path < candidates[j].path
		}
		return candidates[i].mod.Before(candidates[j].mod)
	})
	return candidates[0].path, nil
}
