// Package secrets keeps API sessions per profile in a 0600 file. Each session
// is sealed with AES-GCM under a key derived from a random per-file salt and
// the local account, with the profile name as associated data. It keeps
// tokens out of the plain config file; it is not a keychain.
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
	"slices"
	"strings"
	"time"
)

const (
	fileName    = "sessions.json"
	fileVersion = 1
	saltSize    = 16
)

var (
	ErrNotFound       = errors.New("secrets: no session for profile")
	ErrProfileMissing = errors.New("secrets: profile name required")
)

// Session is what a successful login leaves behind.
type Session struct {
	Token   string    `json:"token"`
	BaseURL string    `json:"base_url,omitempty"`
	SavedAt time.Time `json:"saved_at"`
}

type vaultFile struct {
	Version  int               `json:"version"`
	Salt     string            `json:"salt"`
	Sessions map[string]string `json:"sessions"`
}

// Store reads and writes the session file. Every call goes to disk, so two
// processes see each other's logins.
type Store struct {
	path string
	now  func() time.Time
}

// Open returns the store kept in dir, or in <user config dir>/adminpanel when
// dir is empty. The directory is created 0700.
func Open(dir string) (*Store, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("secrets: %w", err)
		}
		dir = filepath.Join(base, "adminpanel")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("secrets: %w", err)
	}
	return &Store{path: filepath.Join(dir, fileName), now: time.Now}, nil
}

// Put seals s under profile, replacing any earlier session. SavedAt is
// stamped when zero.
func (st *Store) Put(profile string, s Session) error {
	profile, err := profileKey(profile)
	if err != nil {
		return err
	}
	if strings.TrimSpace(s.Token) == "" {
		return errors.New("secrets: empty token")
	}
	if s.SavedAt.IsZero() {
		s.SavedAt = st.now().UTC()
	}
	vf, err := st.read()
	if err != nil {
		return err
	}
	gcm, err := vf.cipher()
	if err != nil {
		return err
	}
	plain, err := json.Marshal(s)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	vf.Sessions[profile] = base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, plain, []byte(profile)))
	return st.write(vf)
}

// Get opens the session stored under profile.
func (st *Store) Get(profile string) (Session, error) {
	profile, err := profileKey(profile)
	if err != nil {
		return Session{}, err
	}
	vf, err := st.read()
	if err != nil {
		return Session{}, err
	}
	sealed, ok := vf.Sessions[profile]
	if !ok {
		return Session{}, fmt.Errorf("%w %q", ErrNotFound, profile)
	}
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return Session{}, fmt.Errorf("secrets: session %q: %w", profile, err)
	}
	gcm, err := vf.cipher()
	if err != nil {
		return Session{}, err
	}
	n := gcm.NonceSize()
	if len(raw) < n {
		return Session{}, fmt.Errorf("secrets: session %q is truncated", profile)
	}
	plain, err := gcm.Open(nil, raw[:n], raw[n:], []byte(profile))
	if err != nil {
		return Session{}, fmt.Errorf("secrets: session %q cannot be opened on this account: %w", profile, err)
	}
	var s Session
	if err := json.Unmarshal(plain, &s); err != nil {
		return Session{}, fmt.Errorf("secrets: session %q: %w", profile, err)
	}
	return s, nil
}

// Delete forgets profile. Deleting a missing profile is not an error.
func (st *Store) Delete(profile string) error {
	profile, err := profileKey(profile)
	if err != nil {
		return err
	}
	vf, err := st.read()
	if err != nil {
		return err
	}
	if _, ok := vf.Sessions[profile]; !ok {
		return nil
	}
	delete(vf.Sessions, profile)
	return st.write(vf)
}

// Profiles lists the stored profile names in order.
func (st *Store) Profiles() ([]string, error) {
	vf, err := st.read()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(vf.Sessions))
	for name := range vf.Sessions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (st *Store) read() (vaultFile, error) {
	vf := vaultFile{Version: fileVersion, Sessions: map[string]string{}}
	data, err := os.ReadFile(st.path)
	if errors.Is(err, os.ErrNotExist) {
		salt := make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return vf, err
		}
		vf.Salt = base64.StdEncoding.EncodeToString(salt)
		return vf, nil
	}
	if err != nil {
		return vf, fmt.Errorf("secrets: %w", err)
	}
	if err := json.Unmarshal(data, &vf); err != nil {
		return vf, fmt.Errorf("secrets: parse %s: %w", st.path, err)
	}
	if vf.Version != fileVersion {
		return vf, fmt.Errorf("secrets: %s has unsupported version %d", st.path, vf.Version)
	}
	if vf.Sessions == nil {
		vf.Sessions = map[string]string{}
	}
	return vf, nil
}

// write replaces the file through a temp file in the same directory.
func (st *Store) write(vf vaultFile) error {
	data, err := json.MarshalIndent(vf, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(st.path), fileName+".*")
	if err != nil {
		return fmt.Errorf("secrets: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), st.path)
}

func (vf vaultFile) cipher() (cipher.AEAD, error) {
	salt, err := base64.StdEncoding.DecodeString(vf.Salt)
	if err != nil || len(salt) != saltSize {
		return nil, errors.New("secrets: session file has a bad salt")
	}
	h := sha256.New()
	h.Write(salt)
	h.Write([]byte(runtime.GOOS + "/" + os.Getenv("USER")))
	block, err := aes.NewCipher(h.Sum(nil))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func profileKey(profile string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(profile))
	if p == "" {
		return "", ErrProfileMissing
	}
	return p, nil
}
