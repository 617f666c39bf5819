// Package config loads warpsched settings from a YAML file, an optional
// .env file and WARPSCHED_* environment variables, in increasing
// precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ConfigDirEnv   = "WARPSCHED_CONFIG_DIR"
	ConfigFileName = "config.yaml"
	envPrefix      = "WARPSCHED_"
)

// Credential backends.
const (
	BackendAuto    = "auto"
	BackendWincred = "wincred"
	BackendKeyring = "keyring"
	BackendFile    = "file"
)

// Registrar kinds.
const (
	RegistrarSchtasks = "schtasks"
	RegistrarXML      = "xml"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	WrapperDir        string `yaml:"wrapper_dir"`
	LogDir            string `yaml:"log_dir"`
	CredentialBackend string `yaml:"credential_backend"`
	CredentialDir     string `yaml:"credential_dir"`
	JournalPath       string `yaml:"journal_path"`
	Registrar         string `yaml:"registrar"`
	XMLDir            string `yaml:"xml_dir"`
	Author            string `yaml:"author"`
	EventLog          bool   `yaml:"event_log"`
}

var (
	lookupEnv     = os.LookupEnv
	userConfigDir = os.UserConfigDir
	goos          = runtime.GOOS
)

// Dir is the directory holding config.yaml, the credential file and the
// journal.
func Dir() string {
	if dir, ok := lookupEnv(ConfigDirEnv); ok && dir != "" {
		return dir
	}
	if goos == "windows" {
		if pd, ok := lookupEnv("ProgramData"); ok && pd != "" {
			return filepath.Join(pd, "warpsched")
		}
	}
	base, err := userConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "warpsched")
}

func Default() *Config {
	dir := Dir()
	return &Config{
		WrapperDir:        filepath.Join(dir, "Wrappers"),
		LogDir:            filepath.Join(dir, "Logs"),
		CredentialBackend: BackendAuto,
		CredentialDir:     dir,
		JournalPath:       filepath.Join(dir, "journal.db"),
		Registrar:         RegistrarSchtasks,
		XMLDir:            filepath.Join(dir, "Tasks"),
	}
}

// Load builds the configuration. An empty file means Dir()/config.yaml,
// which may be absent; an explicitly named file must exist. envFile is
// optional in both cases when empty.
func Load(file, envFile string) (*Config, error) {
	cfg := Default()

	explicit := file != ""
	if !explicit {
		file = filepath.Join(Dir(), ConfigFileName)
	}
	data, err := os.ReadFile(file)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error: cannot parse %s: %w", file, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("error: cannot read config: %w", err)
	}

	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("error: cannot read %s: %w", envFile, err)
		}
		if err := cfg.apply(func(k string) (string, bool) { v, ok := vars[k]; return v, ok }); err != nil {
			return nil, err
		}
	}
	if err := cfg.apply(lookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) apply(get func(string) (string, bool)) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"WRAPPER_DIR", &c.WrapperDir},
		{"LOG_DIR", &c.LogDir},
		{"CREDENTIAL_BACKEND", &c.CredentialBackend},
		{"CREDENTIAL_DIR", &c.CredentialDir},
		{"JOURNAL", &c.JournalPath},
		{"REGISTRAR", &c.Registrar},
		{"XML_DIR", &c.XMLDir},
		{"AUTHOR", &c.Author},
	}
	for _, s := range strs {
		if v, ok := get(envPrefix + s.key); ok {
			*s.dst = v
		}
	}
	if v, ok := get(envPrefix + "EVENT_LOG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sEVENT_LOG=%q", ErrInvalidConfig, envPrefix, v)
		}
		c.EventLog = b
	}
	return nil
}

func (c *Config) Validate() error {
	c.CredentialBackend = strings.ToLower(strings.TrimSpace(c.CredentialBackend))
	switch c.CredentialBackend {
	case BackendAuto, BackendWincred, BackendKeyring, BackendFile:
	default:
		return fmt.Errorf("%w: unknown credential backend %q", ErrInvalidConfig, c.CredentialBackend)
	}
	c.Registrar = strings.ToLower(strings.TrimSpace(c.Registrar))
	switch c.Registrar {
	case RegistrarSchtasks, RegistrarXML:
	default:
		return fmt.Errorf("%w: unknown registrar %q", ErrInvalidConfig, c.Registrar)
	}
	if c.WrapperDir == "" {
		return fmt.Errorf("%w: wrapper_dir is empty", ErrInvalidConfig)
	}
	return nil
}

// CredentialFile is the path of the encrypted file store.
func (c *Config) CredentialFile() string {
	return filepath.Join(c.CredentialDir, "credentials.dat")
}
