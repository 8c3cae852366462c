// Package auth manages the system accounts used to operate the directory: a
// small CSV-backed table of usernames, roles, and bcrypt password hashes.
// This is a simple credential check, not an authentication scheme — session
// handling lives with the HTTP adapter.
package auth

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mquispe/accessdir/internal/directory/types"
)

var (
	ErrNotAuthenticated = errors.New("invalid credentials or inactive account")
	ErrAccountExists    = errors.New("account already exists")
	ErrUsernameRequired = errors.New("username is required")
)

// Roles.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// Default admin credentials seeded into an empty accounts table. Meant for
// first login only; operators are expected to change them.
const (
	DefaultAdminUser     = "admin"
	DefaultAdminPassword = "admin123"
)

var accountFields = []string{
	"username", "full_name", "role", "password_hash", "status", "created_at",
}

// Account is one system account row.
type Account struct {
	Username     string
	FullName     string
	Role         string
	PasswordHash string
	Status       string
	CreatedAt    string
}

// Identity is what a successful credential check returns to the caller.
type Identity struct {
	Username string
	FullName string
	Role     string
}

// Admin reports whether the identity holds the ADMIN role.
func (id Identity) Admin() bool { return id.Role == RoleAdmin }

// Service loads and checks system accounts from <dataDir>/accounts.csv.
type Service struct {
	path string

	mu       sync.Mutex
	accounts []Account
}

// New opens (creating if needed) the accounts table under dataDir. A legacy
// table carrying a plaintext "password" column is migrated to password_hash
// in place on load.
func New(dataDir string) (*Service, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir data dir: %w", err)
	}
	s := &Service{path: filepath.Join(dataDir, "accounts.csv")}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureAdmin seeds the default admin account when no account with the
// default admin username exists yet.
func (s *Service) EnsureAdmin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.find(DefaultAdminUser) != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash default admin password: %w", err)
	}

	s.accounts = append(s.accounts, Account{
		Username:     DefaultAdminUser,
		FullName:     "Administrator",
		Role:         RoleAdmin,
		PasswordHash: string(hash),
		Status:       types.StatusActive,
		CreatedAt:    time.Now().UTC().Format("2006-01-02 15:04"),
	})
	return s.save()
}

// VerifyLogin checks the credentials against the account table. Unknown
// usernames, inactive accounts, and wrong passwords all fail with
// ErrNotAuthenticated — callers get no hint which it was.
func (s *Service) VerifyLogin(username, password string) (Identity, error) {
	username = normalizeUsername(username)
	if username == "" {
		return Identity{}, ErrNotAuthenticated
	}

	s.mu.Lock()
	acc := s.find(username)
	s.mu.Unlock()

	if acc == nil || acc.Status != types.StatusActive {
		return Identity{}, ErrNotAuthenticated
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return Identity{}, ErrNotAuthenticated
	}

	return Identity{Username: acc.Username, FullName: acc.FullName, Role: acc.Role}, nil
}

// Create adds a new account. Unlike directory registration this is strictly
// create-only: an existing username is a DuplicateError, not an upsert.
func (s *Service) Create(username, fullName, role, password string) (Account, error) {
	username = normalizeUsername(username)
	if username == "" {
		return Account{}, ErrUsernameRequired
	}

	role = strings.ToUpper(strings.TrimSpace(role))
	if role != RoleAdmin {
		role = RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.find(username) != nil {
		return Account{}, fmt.Errorf("%s: %w", username, ErrAccountExists)
	}

	acc := Account{
		Username:     username,
		FullName:     strings.TrimSpace(fullName),
		Role:         role,
		PasswordHash: string(hash),
		Status:       types.StatusActive,
		CreatedAt:    time.Now().UTC().Format("2006-01-02 15:04"),
	}
	s.accounts = append(s.accounts, acc)
	if err := s.save(); err != nil {
		s.accounts = s.accounts[:len(s.accounts)-1]
		return Account{}, err
	}
	return acc, nil
}

// find returns the account with the given normalized username, or nil.
// Caller must hold mu.
func (s *Service) find(username string) *Account {
	for i := range s.accounts {
		if s.accounts[i].Username == username {
			return &s.accounts[i]
		}
	}
	return nil
}

func (s *Service) load() error {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return s.save() // create with header only
	}
	if err != nil {
		return fmt.Errorf("open accounts: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("read accounts: %w", err)
	}
	if len(all) == 0 {
		return s.save()
	}

	header := all[0]
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[name] = i
	}

	// Legacy tables stored a plaintext "password" column; hash it on load
	// and rewrite the file with the current header.
	_, hasHash := pos["password_hash"]
	legacyPw, legacy := pos["password"]
	legacy = legacy && !hasHash

	get := func(rec []string, name string) string {
		if i, ok := pos[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	s.accounts = s.accounts[:0]
	for _, rec := range all[1:] {
		username := normalizeUsername(get(rec, "username"))
		if username == "" {
			continue
		}

		hash := get(rec, "password_hash")
		if legacy && legacyPw < len(rec) {
			if pw := strings.TrimSpace(rec[legacyPw]); pw != "" {
				h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
				if err != nil {
					return fmt.Errorf("migrate password for %s: %w", username, err)
				}
				hash = string(h)
			}
		}

		role := strings.ToUpper(get(rec, "role"))
		if role == "" {
			role = RoleUser
		}
		status := strings.ToUpper(get(rec, "status"))
		if status == "" {
			status = types.StatusActive
		}

		s.accounts = append(s.accounts, Account{
			Username:     username,
			FullName:     get(rec, "full_name"),
			Role:         role,
			PasswordHash: hash,
			Status:       status,
			CreatedAt:    get(rec, "created_at"),
		})
	}

	if legacy {
		return s.save()
	}
	return nil
}

// save rewrites the accounts table atomically. Caller must hold mu (or be
// the constructor, before the service is shared).
func (s *Service) save() error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".accounts-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp accounts: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := csv.NewWriter(tmp)
	if err := w.Write(accountFields); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write accounts header: %w", err)
	}
	for _, a := range s.accounts {
		rec := []string{a.Username, a.FullName, a.Role, a.PasswordHash, a.Status, a.CreatedAt}
		if err := w.Write(rec); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write account row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush accounts: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp accounts: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace accounts: %w", err)
	}
	return nil
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
