// Package session holds the demo authentication flag behind an explicit
// interface instead of ambient browser storage. The gate is intentionally
// non-cryptographic: it only decides whether the dashboard renders.
package session

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Session is the authentication flag the HTTP layer gates on.
type Session interface {
	IsAuthenticated() bool
	SetAuthenticated(bool)
}

// Memory keeps the flag in process memory; it resets on restart.
type Memory struct {
	mu   sync.Mutex
	auth bool
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.auth
}

func (m *Memory) SetAuthenticated(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auth = v
}

// File persists the flag to a small state file, the server-side stand-in
// for the browser's localStorage flag. Read errors mean "not
// authenticated"; write errors are returned to nobody and simply leave
// the previous state on disk, so the gate degrades closed.
type File struct {
	mu   sync.Mutex
	path string
	auth bool
}

// NewFile loads the flag from path, defaulting to unauthenticated when
// the file is missing or unreadable.
func NewFile(path string) *File {
	f := &File{path: path}
	if data, err := os.ReadFile(path); err == nil {
		f.auth = strings.TrimSpace(string(data)) == "true"
	}
	return f
}

func (f *File) IsAuthenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth
}

func (f *File) SetAuthenticated(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = v
	_ = os.WriteFile(f.path, []byte(fmt.Sprintf("%t\n", v)), 0600)
}
