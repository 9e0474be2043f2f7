package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/HammerMeetNail/fanbase/internal/models"
)

var (
	ErrNoStoredToken    = errors.New("no stored session")
	ErrTokenStoreLocked = errors.New("stored session is sealed with a different passphrase")
)

// MemoryTokenStore keeps the token for the life of the process.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token *models.StoredToken
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (m *MemoryTokenStore) Load(ctx context.Context) (*models.StoredToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return nil, ErrNoStoredToken
	}
	t := *m.token
	return &t, nil
}

func (m *MemoryTokenStore) Save(ctx context.Context, token models.StoredToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = &token
	return nil
}

func (m *MemoryTokenStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = nil
	return nil
}

const (
	sealVersion   = 1
	saltSize      = 16
	argonTime     = 1
	argonMemoryKB = 64 * 1024
	argonThreads  = 4
)

// sessionFile is the on-disk format. Exactly one of Session or Sealed is set.
type sessionFile struct {
	Version int                 `json:"version"`
	Session *models.StoredToken `json:"session,omitempty"`
	Salt    []byte              `json:"salt,omitempty"`
	Nonce   []byte              `json:"nonce,omitempty"`
	Sealed  []byte              `json:"sealed,omitempty"`
}

// FileTokenStore writes the token to a 0600 JSON file. With a passphrase the
// token is sealed with NaCl secretbox under an Argon2id-derived key.
type FileTokenStore struct {
	path       string
	passphrase string
}

func NewFileTokenStore(path, passphrase string) *FileTokenStore {
	return &FileTokenStore{path: path, passphrase: passphrase}
}

func (f *FileTokenStore) Path() string {
	return f.path
}

func (f *FileTokenStore) Load(ctx context.Context) (*models.StoredToken, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoStoredToken
	}
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	var file sessionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing session file: %w", err)
	}

	if len(file.Sealed) == 0 {
		if file.Session == nil {
			return nil, ErrNoStoredToken
		}
		return file.Session, nil
	}

	if f.passphrase == "" || len(file.Nonce) != 24 {
		return nil, ErrTokenStoreLocked
	}
	key := deriveKey(f.passphrase, file.Salt)
	var nonce [24]byte
	copy(nonce[:], file.Nonce)
	plain, ok := secretbox.Open(nil, file.Sealed, &nonce, &key)
	if !ok {
		return nil, ErrTokenStoreLocked
	}
	var token models.StoredToken
	if err := json.Unmarshal(plain, &token); err != nil {
		return nil, fmt.Errorf("parsing sealed session: %w", err)
	}
	return &token, nil
}

func (f *FileTokenStore) Save(ctx context.Context, token models.StoredToken) error {
	file := sessionFile{Version: sealVersion}
	if f.passphrase == "" {
		file.Session = &token
	} else {
		plain, err := json.Marshal(token)
		if err != nil {
			return fmt.Errorf("encoding session: %w", err)
		}
		salt := make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return fmt.Errorf("generating salt: %w", err)
		}
		var nonce [24]byte
		if _, err := rand.Read(nonce[:]); err != nil {
			return fmt.Errorf("generating nonce: %w", err)
		}
		key := deriveKey(f.passphrase, salt)
		file.Salt = salt
		file.Nonce = nonce[:]
		file.Sealed = secretbox.Seal(nil, plain, &nonce, &key)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session file: %w", err)
	}
	return writeFileAtomic(f.path, data)
}

func (f *FileTokenStore) Clear(ctx context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}

func deriveKey(passphrase string, salt []byte) [32]byte {
	var key [32]byte
	copy(key[:], argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemoryKB, argonThreads, 32))
	return key
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("creating temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting session file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing session file: %w", err)
	}
	return nil
}
