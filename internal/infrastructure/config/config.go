package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/davarch/cctray-watcher/internal/domain"
	"gopkg.in/yaml.v3"
)

type Pipeline struct {
	Name    string `yaml:"name,omitempty"`
	FeedURL string `yaml:"feed_url"`
	Project string `yaml:"project"`
	Enabled bool   `yaml:"enabled"`
}

// DisplayName is the pipeline's name, falling back to its project.
func (p Pipeline) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Project
}

// Auth selects the authorization scheme for one feed origin. Secrets are not
// stored in the config file; PasswordEnv/TokenEnv name the environment
// variables that hold them.
type Auth struct {
	Origin      string `yaml:"origin"`
	Type        string `yaml:"type"`
	PasswordEnv string `yaml:"password_env,omitempty"`
	TokenEnv    string `yaml:"token_env,omitempty"`
}

type Config struct {
	HTTP struct {
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"http"`

	Poll struct {
		Interval  time.Duration `yaml:"interval"`
		PauseFile string        `yaml:"pause_file"`
	} `yaml:"poll"`

	Pipelines []Pipeline `yaml:"pipelines"`

	Auth []Auth `yaml:"auth"`

	Secrets struct {
		EnvFile string `yaml:"env_file"`
	} `yaml:"secrets"`

	Cache struct {
		Path string `yaml:"path"`
	} `yaml:"cache"`
}

func Load(path string) (Config, error) {
	var c Config

	c.HTTP.Timeout = 10 * time.Second
	c.Poll.Interval = 30 * time.Second
	c.Cache.Path = expandHome("~/.cache/cctray_status.json")

	if path != "" {
		if b, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(b, &c)
		}
	}

	if v := os.Getenv("CCTRAY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.HTTP.Timeout = d
		}
	}

	if v := os.Getenv("INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Poll.Interval = d
		}
	}

	if v := os.Getenv("CACHE_PATH"); v != "" {
		c.Cache.Path = expandHome(v)
	}

	if url := os.Getenv("CCTRAY_FEED_URL"); url != "" {
		var ps []Pipeline
		for _, name := range strings.Split(os.Getenv("CCTRAY_PROJECTS"), ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			ps = append(ps, Pipeline{FeedURL: url, Project: name, Enabled: true})
		}
		if len(ps) > 0 {
			c.Pipelines = ps
		}
	}

	c.Cache.Path = expandHome(c.Cache.Path)
	c.Secrets.EnvFile = expandHome(c.Secrets.EnvFile)

	if c.Poll.Interval <= 0 {
		c.Poll.Interval = 30 * time.Second
	}

	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = 10 * time.Second
	}

	if len(c.Pipelines) == 0 {
		return c, errors.New("no pipelines configured (YAML or ENV)")
	}

	for i, p := range c.Pipelines {
		if p.FeedURL == "" {
			return c, fmt.Errorf("pipeline %d (%s): feed_url is required", i, p.DisplayName())
		}
	}

	for i, a := range c.Auth {
		switch domain.AuthType(a.Type) {
		case domain.AuthNone, domain.AuthBasic, domain.AuthBearer:
		default:
			return c, fmt.Errorf("auth %d (%s): unknown type %q", i, a.Origin, a.Type)
		}
	}

	if c.Poll.PauseFile == "" {
		c.Poll.PauseFile = expandHome("~/.cache/cctray_paused")
	}

	return c, nil
}

func Save(path string, c Config) error {
	if path == "" {
		return errors.New("empty config path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	lockFile := path + ".lock"
	lf, err := os.OpenFile(lockFile, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return err
	}
	defer func() { _ = lf.Close() }()

	if runtime.GOOS != "windows" {
		if err := syscall.Flock(int(lf.Fd()), syscall.LOCK_EX); err != nil {
			return err
		}
		defer func() { _ = syscall.Flock(int(lf.Fd()), syscall.LOCK_UN) }()
	}

	b, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	defer func() { _ = f.Close() }()

	if _, err := f.Write(b); err != nil {
		return err
	}

	if err := f.Sync(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		if h, _ := os.UserHomeDir(); h != "" {
			return h + p[1:]
		}
	}
	return p
}
