package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultAdminUser     = "admin"
	defaultAdminPassword = "quizbox"
)

var errBadCredentials = errors.New("invalid username or password")

type adminRecord struct {
	PasswordHash string `json:"password_hash"`
	Name         string `json:"name,omitempty"`
}

type adminFile struct {
	Admins map[string]*adminRecord `json:"admins"`
}

// AdminStore holds host accounts on disk and their sessions in memory.
// Sessions do not survive a restart; hosts just log in again.
type AdminStore struct {
	mu       sync.Mutex
	cfg      *Config
	path     string
	sessions map[string]string
	hosting  map[string]string
}

func newAdminStore(cfg *Config) (*AdminStore, error) {
	if err := os.MkdirAll(cfg.dataDir, 0o755); err != nil {
		return nil, err
	}

	store := &AdminStore{
		cfg:      cfg,
		path:     filepath.Join(cfg.dataDir, "admins.json"),
		sessions: make(map[string]string),
		hosting:  make(map[string]string),
	}

	if _, err := os.Stat(store.path); errors.Is(err, os.ErrNotExist) {
		hash, err := bcrypt.GenerateFromPassword([]byte(defaultAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		seed := &adminFile{
			Admins: map[string]*adminRecord{
				defaultAdminUser: {PasswordHash: string(hash), Name: "Administrator"},
			},
		}
		if err := store.save(seed); err != nil {
			return nil, err
		}
		logf(cfg, "AUTH: Seeded default admin %q (password %q) at %s",
			defaultAdminUser, defaultAdminPassword, store.path)
	}

	return store, nil
}

func (s *AdminStore) load() (*adminFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	var file adminFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if file.Admins == nil {
		file.Admins = make(map[string]*adminRecord)
	}

	return &file, nil
}

func (s *AdminStore) save(file *adminFile) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o600)
}

// Login checks credentials and mints a session token.
func (s *AdminStore) Login(username, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return "", err
	}

	record, ok := file.Admins[username]
	if !ok {
		return "", errBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)) != nil {
		return "", errBadCredentials
	}

	token := uuid.NewString()
	s.sessions[token] = username

	logf(s.cfg, "AUTH: %s logged in", username)

	return token, nil
}

// Signup registers a new host account.
func (s *AdminStore) Signup(username, password, name string) error {
	if username == "" || password == "" {
		return errors.New("username and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	if _, exists := file.Admins[username]; exists {
		return errors.New("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	file.Admins[username] = &adminRecord{PasswordHash: string(hash), Name: name}

	return s.save(file)
}

func (s *AdminStore) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	delete(s.hosting, token)
}

// SessionAdmin resolves a token to its username.
func (s *AdminStore) SessionAdmin(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	username, ok := s.sessions[token]

	return username, ok
}

// AdminName returns the display name for an account.
func (s *AdminStore) AdminName(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return ""
	}
	if record, ok := file.Admins[username]; ok {
		return record.Name
	}

	return ""
}

// SetHosting records which room a session is currently hosting.
func (s *AdminStore) SetHosting(token, roomCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[token]; ok {
		s.hosting[token] = roomCode
	}
}

// HostingRoom returns the room a session is hosting, if any.
func (s *AdminStore) HostingRoom(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.hosting[token]

	return code, ok
}

// ClearHosting drops the hosting record without ending the session.
func (s *AdminStore) ClearHosting(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.hosting, token)
}
