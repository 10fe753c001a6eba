// Package secrets keeps provider API keys out of config.toml in a per-user
// file (0600) sealed with AES-GCM. It is obfuscation, not an OS keychain.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

const fileName = "keys.json"

var (
	// ErrNotFound is returned when no key is stored for a provider.
	ErrNotFound = errors.New("secrets: key not found")
	// ErrInvalid is returned for an empty provider name or key.
	ErrInvalid = errors.New("secrets: provider and key required")
)

// Entry describes a stored key without revealing it.
type Entry struct {
	Provider string
	Updated  time.Time
}

type sealed struct {
	Cipher  string    `json:"cipher"` // base64(nonce || ciphertext)
	Updated time.Time `json:"updated"`
}

type keyring struct {
	Keys map[string]sealed `json:"keys"`
}

// Store keeps provider keys in Dir. An empty Dir means <user config>/aura.
type Store struct {
	Dir string
	now func() time.Time
}

// Default is the per-user store used by the CLI.
var Default = &Store{}

// Put seals key under provider, replacing any earlier key.
func (s *Store) Put(provider, key string) error {
	provider, key = norm(provider), strings.TrimSpace(key)
	if provider == "" || key == "" {
		return ErrInvalid
	}
	return s.update(func(kr *keyring) error {
		ct, err := seal([]byte(key))
		if err != nil {
			return err
		}
		kr.Keys[provider] = sealed{Cipher: base64.StdEncoding.EncodeToString(ct), Updated: s.clock()}
		return nil
	})
}

// Get returns the key for provider or ErrNotFound. Its signature matches
// config.LLMConfig.ResolveAPIKey's store lookup.
func (s *Store) Get(provider string) (string, error) {
	if provider = norm(provider); provider == "" {
		return "", ErrInvalid
	}
	kr, _, err := s.read()
	if err != nil {
		return "", err
	}
	entry, ok := kr.Keys[provider]
	if !ok {
		return "", ErrNotFound
	}
	raw, err := base64.StdEncoding.DecodeString(entry.Cipher)
	if err != nil {
		return "", fmt.Errorf("secrets: %s: %w", provider, err)
	}
	pt, err := open(raw)
	if err != nil {
		return "", fmt.Errorf("secrets: %s: %w", provider, err)
	}
	return string(pt), nil
}

// Delete removes the key for provider.
func (s *Store) Delete(provider string) error {
	if provider = norm(provider); provider == "" {
		return ErrInvalid
	}
	return s.update(func(kr *keyring) error {
		if _, ok := kr.Keys[provider]; !ok {
			return ErrNotFound
		}
		delete(kr.Keys, provider)
		return nil
	})
}

// List reports the stored providers in name order.
func (s *Store) List() ([]Entry, error) {
	kr, _, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(kr.Keys))
	for p, e := range kr.Keys {
		out = append(out, Entry{Provider: p, Updated: e.Updated})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out, nil
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC().Truncate(time.Second)
}

func (s *Store) path() (string, error) {
	dir := s.Dir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, "aura")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

func (s *Store) read() (keyring, string, error) {
	kr := keyring{Keys: map[string]sealed{}}
	path, err := s.path()
	if err != nil {
		return kr, "", err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return kr, path, nil
	}
	if err != nil {
		return kr, path, err
	}
	if err := json.Unmarshal(data, &kr); err != nil {
		return kr, path, fmt.Errorf("secrets: %s: %w", path, err)
	}
	if kr.Keys == nil {
		kr.Keys = map[string]sealed{}
	}
	return kr, path, nil
}

// update applies fn to the keyring and writes it back atomically.
func (s *Store) update(fn func(*keyring) error) error {
	kr, path, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(&kr); err != nil {
		return err
	}
	data, err := json.MarshalIndent(kr, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func norm(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// aead derives the sealing cipher from the OS and user name.
func aead() (cipher.AEAD, error) {
	key := sha256.Sum256([]byte(fmt.Sprintf("aura-%s-%s", runtime.GOOS, os.Getenv("USER"))))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func seal(plain []byte) ([]byte, error) {
	gcm, err := aead()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

func open(ciphertext []byte) ([]byte, error) {
	gcm, err := aead()
	if err != nil {
		return nil, err
	}
	n := gcm.NonceSize()
	if len(ciphertext) < n {
		return nil, errors.New("ciphertext too short")
	}
	return gcm.Open(nil, ciphertext[:n], ciphertext[n:], nil)
}
