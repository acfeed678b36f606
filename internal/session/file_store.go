package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	tokenFile = "token"
	userFile  = "user.json"
)

// FileStore persists the session as two files in a private directory.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a file-backed store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("session: empty directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("session: create dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) Load(_ context.Context) *Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	token, err := os.ReadFile(filepath.Join(f.dir, tokenFile))
	if err != nil {
		return nil
	}
	user, err := os.ReadFile(filepath.Join(f.dir, userFile))
	if err != nil {
		return nil
	}
	return decode(string(token), user)
}

// Save writes the user record first and the token last; Load treats a
// missing token as no session, so a crash between the writes is harmless.
func (f *FileStore) Save(_ context.Context, s Session) error {
	user, err := encode(s)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(filepath.Join(f.dir, tokenFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: remove token: %w", err)
	}
	if err := f.writeFile(userFile, user); err != nil {
		return err
	}
	return f.writeFile(tokenFile, []byte(s.Token))
}

func (f *FileStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, name := range []string{tokenFile, userFile} {
		if err := os.Remove(filepath.Join(f.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("session: remove %s: %w", name, err)
		}
	}
	return nil
}

func (f *FileStore) writeFile(name string, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, name+".*")
	if err != nil {
		return fmt.Errorf("session: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("session: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(f.dir, name)); err != nil {
		return fmt.Errorf("session: rename %s: %w", name, err)
	}
	return nil
}
