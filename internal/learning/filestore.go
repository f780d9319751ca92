package learning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const fileFormatVersion = 1

type fileDoc struct {
	Version int                        `json:"version"`
	Scopes  map[string]json.RawMessage `json:"scopes"`
}

// FileBackend stores all scopes in one JSON document. Paths ending in
// ".zst" are zstd-compressed. Writes go through a temp file and rename.
type FileBackend struct {
	mu   sync.Mutex
	path string
}

// NewFileBackend returns a backend rooted at path. The file is created on
// first save.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path returns the backing file path.
func (f *FileBackend) Path() string {
	return f.path
}

func (f *FileBackend) compressed() bool {
	return strings.HasSuffix(f.path, ".zst")
}

func (f *FileBackend) Load(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	raw, ok := doc.Scopes[key]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(raw), nil
}

func (f *FileBackend) Save(_ context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		// An unreadable document is set aside rather than merged into.
		if rerr := os.Rename(f.path, f.path+".corrupt"); rerr != nil && !os.IsNotExist(rerr) {
			return fmt.Errorf("failed to set aside corrupt learning file: %w", rerr)
		}
		doc = emptyDoc()
	}
	doc.Scopes[key] = json.RawMessage(append([]byte(nil), data...))
	return f.write(doc)
}

func (f *FileBackend) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Scopes[key]; !ok {
		return nil
	}
	delete(doc.Scopes, key)
	return f.write(doc)
}

func (f *FileBackend) Keys(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(doc.Scopes))
	for k := range doc.Scopes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func emptyDoc() *fileDoc {
	return &fileDoc{Version: fileFormatVersion, Scopes: map[string]json.RawMessage{}}
}

func (f *FileBackend) read() (*fileDoc, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return emptyDoc(), nil
		}
		return nil, fmt.Errorf("failed to read learning file: %w", err)
	}
	if f.compressed() {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		defer dec.Close()
		if data, err = dec.DecodeAll(data, nil); err != nil {
			return nil, fmt.Errorf("failed to decompress learning file: %w", err)
		}
	}

	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse learning file: %w", err)
	}
	if doc.Scopes == nil {
		doc.Scopes = map[string]json.RawMessage{}
	}
	if doc.Version == 0 {
		doc.Version = fileFormatVersion
	}
	return &doc, nil
}

func (f *FileBackend) write(doc *fileDoc) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create learning directory: %w", err)
	}
	doc.Version = fileFormatVersion

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode learning file: %w", err)
	}

	tmp := f.path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	var w io.Writer = out
	var enc *zstd.Encoder
	if f.compressed() {
		if enc, err = zstd.NewWriter(out); err != nil {
			out.Close()
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		w = enc
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		out.Close()
		return fmt.Errorf("failed to write learning file: %w", err)
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			out.Close()
			return fmt.Errorf("failed to flush zstd stream: %w", err)
		}
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace learning file: %w", err)
	}
	return nil
}
