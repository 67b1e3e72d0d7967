package keydb

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"key-decoder/internal/log"
)

// ErrFetch marks a failure to obtain or parse the database.
var ErrFetch = errors.New("key database fetch failed")

//go:embed builtin.json
var builtinJSON []byte

// Load parses a depth-and-space document.
func Load(r io.Reader) (*Database, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode key database: %w", err)
	}
	return New(f), nil
}

// LoadFile reads a depth-and-space document from disk.
func LoadFile(path string) (*Database, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open key database: %w", err)
	}
	defer file.Close()

	return Load(file)
}

// Fetch loads the database from an http(s) URL or a file path. An empty
// source selects the built-in database. Every failure wraps ErrFetch.
func Fetch(ctx context.Context, source string) (*Database, error) {
	if source == "" {
		return Builtin(), nil
	}

	var (
		db  *Database
		err error
	)
	if IsURL(source) {
		db, err = fetchURL(ctx, source)
	} else {
		db, err = LoadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, source, err)
	}

	log.Printf("keydb: loaded %d entries from %s", db.Len(), source)
	return db, nil
}

// IsURL reports whether source names an http(s) resource rather than a file.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func fetchURL(ctx context.Context, url string) (*Database, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return Load(resp.Body)
}

// Builtin returns the database compiled into the binary.
func Builtin() *Database {
	var f File
	if err := json.Unmarshal(builtinJSON, &f); err != nil {
		log.Errorf("keydb: built-in database is invalid: %v", err)
		return New(File{})
	}
	return New(f)
}
