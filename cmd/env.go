package cmd

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/spf13/afero"

	"github.com/warpdl/warpsched/internal/config"
	"github.com/warpdl/warpsched/internal/registrar"
	"github.com/warpdl/warpsched/internal/wrapper"
	"github.com/warpdl/warpsched/pkg/credman"
	"github.com/warpdl/warpsched/pkg/credman/keyring"
	"github.com/warpdl/warpsched/pkg/credman/types"
	"github.com/warpdl/warpsched/pkg/credman/wincred"
	"github.com/warpdl/warpsched/pkg/logger"
)

const eventSource = "warpsched"

// Global flag destinations.
var (
	configFile string
	envFile    string
)

var (
	newFs           = afero.NewOsFs
	newStarter      = wrapper.NewStarter
	newEventLogger  = func(source string) (logger.Logger, error) { return logger.NewEventLogger(source) }
	newConsoleLog   = func() logger.Logger { return logger.NewConsoleLogger() }
	newSchtasks     = func(l logger.Logger) registrar.Registrar { return registrar.NewSchtasks(l) }
	masterKeySource = func(cfg *config.Config) []keyring.KeySource {
		return []keyring.KeySource{keyring.NewKeyring(), keyring.NewFileKeyStore(cfg.CredentialDir)}
	}
)

// env is the per-invocation wiring built from the configuration.
type env struct {
	cfg *config.Config
	fs  afero.Fs
	l   logger.Logger
}

func loadEnv() (*env, error) {
	cfg, err := config.Load(configFile, envFile)
	if err != nil {
		return nil, err
	}
	var l logger.Logger = newConsoleLog()
	if cfg.EventLog {
		el, err := newEventLogger(eventSource)
		if err != nil {
			l.Warning("event log disabled: %v", err)
		} else {
			l = logger.NewMultiLogger(l, el)
		}
	}
	return &env{cfg: cfg, fs: newFs(), l: l}, nil
}

func (e *env) Close() error {
	return e.l.Close()
}

func (e *env) generator(dir string) *wrapper.Generator {
	if dir == "" {
		dir = e.cfg.WrapperDir
	}
	return wrapper.NewGenerator(e.fs, dir, e.l)
}

// openStore returns the credential backend named by the configuration.
// "auto" is the Credential Manager on Windows and the encrypted file
// elsewhere.
func (e *env) openStore() (credman.Store, error) {
	backend := e.cfg.CredentialBackend
	if backend == config.BackendAuto {
		backend = config.BackendFile
		if runtime.GOOS == "windows" {
			backend = config.BackendWincred
		}
	}
	switch backend {
	case config.BackendWincred:
		return wincred.NewStore()
	case config.BackendKeyring:
		return keyring.NewStore(), nil
	case config.BackendFile:
		key, err := keyring.LoadOrCreateKey(masterKeySource(e.cfg)...)
		if err != nil {
			return nil, fmt.Errorf("error: cannot load master key: %w", err)
		}
		return credman.NewFileStore(e.cfg.CredentialFile(), key)
	default:
		return nil, fmt.Errorf("%w: unknown credential backend %q", config.ErrInvalidConfig, backend)
	}
}

// registrar returns the configured registrar, journaled when a journal
// path is set. The returned close func releases the journal.
func (e *env) registrar() (registrar.Registrar, func() error, error) {
	var r registrar.Registrar
	switch e.cfg.Registrar {
	case config.RegistrarXML:
		r = registrar.NewXMLFile(e.fs, e.cfg.XMLDir)
	default:
		r = newSchtasks(e.l)
	}
	if e.cfg.JournalPath == "" {
		return r, func() error { return nil }, nil
	}
	j, err := registrar.OpenJournal(e.cfg.JournalPath)
	if err != nil {
		e.l.Warning("registration journal disabled: %v", err)
		return r, func() error { return nil }, nil
	}
	return j.Wrap(r, e.l), j.Close, nil
}

// lazyStore opens the backend on first use.
type lazyStore struct {
	open  func() (credman.Store, error)
	once  sync.Once
	store credman.Store
	err   error
}

func (s *lazyStore) get() (credman.Store, error) {
	s.once.Do(func() { s.store, s.err = s.open() })
	return s.store, s.err
}

func (s *lazyStore) Get(target string) (*types.Credential, error) {
	st, err := s.get()
	if err != nil {
		return nil, err
	}
	return st.Get(target)
}

func (s *lazyStore) Put(c types.Credential) error {
	st, err := s.get()
	if err != nil {
		return err
	}
	return st.Put(c)
}

func (s *lazyStore) Delete(target string) error {
	st, err := s.get()
	if err != nil {
		return err
	}
	return st.Delete(target)
}

var _ credman.Store = (*lazyStore)(nil)
