package clientcli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// DefaultEndpoint is the default server endpoint URL.
const DefaultEndpoint = "http://localhost:8080"

// Config holds resolved client configuration for a single server.
type Config struct {
	Endpoint string
	Token    string
}

// WithDefaults returns a copy of the config with DefaultEndpoint filled in.
func (c *Config) WithDefaults() *Config {
	cfg := *c
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	return &cfg
}

// ValidateWithAuth checks that a bearer token is set.
func (c *Config) ValidateWithAuth() error {
	if c.Token == "" {
		return ErrTokenRequired
	}
	return nil
}

// MergeConfig layers configs left to right. Empty fields never override.
func MergeConfig(configs ...*Config) *Config {
	result := &Config{}
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		result.Endpoint = cmpOr(cfg.Endpoint, result.Endpoint)
		result.Token = cmpOr(cfg.Token, result.Token)
	}
	return result
}

func cmpOr(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// Env is the client configuration read from LOCKBOX_* environment variables.
type Env struct {
	Endpoint   string // LOCKBOX_ENDPOINT
	Token      string // LOCKBOX_TOKEN
	Profile    string // LOCKBOX_PROFILE
	ConfigPath string // LOCKBOX_CLIENT_CONFIG
}

// ReadEnv reads the LOCKBOX_* client variables.
func ReadEnv() Env {
	return Env{
		Endpoint:   os.Getenv("LOCKBOX_ENDPOINT"),
		Token:      os.Getenv("LOCKBOX_TOKEN"),
		Profile:    os.Getenv("LOCKBOX_PROFILE"),
		ConfigPath: os.Getenv("LOCKBOX_CLIENT_CONFIG"),
	}
}

// Config returns the server settings carried by the environment.
func (e Env) Config() *Config {
	return &Config{Endpoint: e.Endpoint, Token: e.Token}
}

// Profile is a named server entry in the profile file.
type Profile struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token,omitempty"`
}

// Config returns the server settings of the profile.
func (p Profile) Config() *Config {
	return &Config{Endpoint: p.Endpoint, Token: p.Token}
}

// ProfileFile is the on-disk list of profiles, ~/.lockbox/config.yaml by default.
//
//	default: prod
//	profiles:
//	  - name: prod
//	    endpoint: https://files.example.com
//	    token: ...
type ProfileFile struct {
	Default  string    `yaml:"default,omitempty"`
	Profiles []Profile `yaml:"profiles"`
}

// DefaultName returns the name of the default profile: the one named by
// Default if it exists, else the first profile, else "".
func (f *ProfileFile) DefaultName() string {
	if f.index(f.Default) >= 0 {
		return f.Default
	}
	if len(f.Profiles) > 0 {
		return f.Profiles[0].Name
	}
	return ""
}

// Lookup returns the named profile, or the default profile when name is empty.
func (f *ProfileFile) Lookup(name string) (Profile, error) {
	if len(f.Profiles) == 0 {
		return Profile{}, ErrNoProfiles
	}
	if name == "" {
		name = f.DefaultName()
	}
	i := f.index(name)
	if i < 0 {
		return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return f.Profiles[i], nil
}

// Put adds p or replaces the profile with the same name. It reports whether
// an existing profile was replaced.
func (f *ProfileFile) Put(p Profile) bool {
	if i := f.index(p.Name); i >= 0 {
		f.Profiles[i] = p
		return true
	}
	f.Profiles = append(f.Profiles, p)
	return false
}

// Remove deletes the named profile. Removing the default profile clears Default.
func (f *ProfileFile) Remove(name string) error {
	i := f.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	f.Profiles = slices.Delete(f.Profiles, i, i+1)
	if f.Default == name {
		f.Default = ""
	}
	return nil
}

// SetDefault marks the named profile as the default.
func (f *ProfileFile) SetDefault(name string) error {
	if f.index(name) < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	f.Default = name
	return nil
}

func (f *ProfileFile) index(name string) int {
	if name == "" {
		return -1
	}
	return slices.IndexFunc(f.Profiles, func(p Profile) bool { return p.Name == name })
}

// Save writes the file to path with owner-only permissions. The write goes
// through a temp file in the same directory and a rename, so a crash never
// leaves a truncated file behind.
func (f *ProfileFile) Save(path string) error {
	dir := filepath.Dir(filepath.Clean(path))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".profiles-*")
	if err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("save profiles: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}
	return nil
}

// LoadProfileFile reads the profile file at path. A missing file yields an
// empty ProfileFile.
func LoadProfileFile(path string) (*ProfileFile, error) {
	data, err := os.ReadFile(filepath.Clean(path)) //#nosec G304 -- path is user-provided config file
	if errors.Is(err, os.ErrNotExist) {
		return &ProfileFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	var f ProfileFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("load profiles: parse %s: %w", path, err)
	}
	return &f, nil
}

// LoadProfileConfig resolves the named profile, or the default one when name
// is empty, from the profile file at path.
func LoadProfileConfig(path, name string) (*Config, error) {
	f, err := LoadProfileFile(path)
	if err != nil {
		return nil, err
	}

	p, err := f.Lookup(name)
	if err != nil {
		return nil, err
	}
	return p.Config(), nil
}

// DefaultConfigPath returns ~/.lockbox/config.yaml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lockbox", "config.yaml")
}
