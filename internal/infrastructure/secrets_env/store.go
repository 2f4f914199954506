// Package secrets_env implements the secret store port on top of environment
// variables. The config's auth entries map a feed origin to a scheme and to
// the names of the variables holding its password or token.
package secrets_env

import (
	"os"

	"github.com/davarch/cctray-watcher/internal/domain"
	"github.com/davarch/cctray-watcher/internal/infrastructure/config"
	"github.com/joho/godotenv"
)

type Store struct {
	entries map[string]config.Auth
	getenv  func(string) (string, bool)
}

// New builds a store from the config's auth entries. If envFile is non-empty
// it is loaded into the process environment first; a missing file is not an
// error, secrets may just as well come from the parent environment.
func New(entries []config.Auth, envFile string) *Store {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	m := make(map[string]config.Auth, len(entries))
	for _, e := range entries {
		m[e.Origin] = e
	}
	return &Store{entries: m, getenv: os.LookupEnv}
}

func (s *Store) AuthType(origin string) domain.AuthType {
	e, ok := s.entries[origin]
	if !ok {
		return domain.AuthNone
	}
	return domain.AuthType(e.Type)
}

func (s *Store) Password(origin string) (string, bool) {
	e, ok := s.entries[origin]
	if !ok || e.PasswordEnv == "" {
		return "", false
	}
	return s.getenv(e.PasswordEnv)
}

func (s *Store) Token(origin string) (string, bool) {
	e, ok := s.entries[origin]
	if !ok || e.TokenEnv == "" {
		return "", false
	}
	return s.getenv(e.TokenEnv)
}
