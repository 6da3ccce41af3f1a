package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/tiktr/internal/metadata"
)

// Environment overrides, applied after the YAML file.
const (
	EnvRPCURL        = "TIKTR_RPC_URL"
	EnvContract      = "TIKTR_CONTRACT_ADDRESS"
	EnvPrivateKey    = "TIKTR_PRIVATE_KEY"
	EnvWalletAddress = "TIKTR_WALLET_ADDRESS"
	EnvChainID       = "TIKTR_CHAIN_ID"
)

// Loader reads a YAML config file and watches it for changes.
type Loader struct {
	path     string
	envFile  string
	mu       sync.RWMutex
	current  *AppConfig
	onChange []func(*AppConfig)
	watcher  *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load. envFile is an
// optional dotenv file; a missing file is not an error.
func NewLoader(path, envFile string) (*Loader, error) {
	l := &Loader{path: path, envFile: envFile}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Config returns the current (latest) configuration.
func (l *Loader) Config() *AppConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*AppConfig)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file changes.
// Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}
	l.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						slog.Warn("config reload failed, keeping previous config", "path", l.path, "err", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the config file. An invalid file
// leaves the current config in place.
func (l *Loader) Reload() (*AppConfig, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*AppConfig), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *Loader) load() (*AppConfig, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}
	env, err := l.environ()
	if err != nil {
		return nil, err
	}
	if err := applyEnv(&cfg, env); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// environ merges the dotenv file with the process environment. Process
// variables win.
func (l *Loader) environ() (func(string) (string, bool), error) {
	fileVars := map[string]string{}
	if l.envFile != "" {
		vars, err := godotenv.Read(l.envFile)
		switch {
		case err == nil:
			fileVars = vars
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read env file %s: %w", l.envFile, err)
		}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}, nil
}

func applyEnv(cfg *AppConfig, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvRPCURL); ok {
		cfg.Ledger.RPCURL = v
	}
	if v, ok := lookup(EnvContract); ok {
		cfg.Ledger.ContractAddress = v
	}
	if v, ok := lookup(EnvPrivateKey); ok {
		cfg.Ledger.PrivateKey = v
	}
	if v, ok := lookup(EnvWalletAddress); ok {
		cfg.Ledger.WalletAddress = v
	}
	if v, ok := lookup(EnvChainID); ok && v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvChainID, err)
		}
		cfg.Ledger.ChainID = id
	}
	return nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Ledger.CallTimeout == 0 {
		cfg.Ledger.CallTimeout = 10 * time.Second
	}
	if cfg.Ledger.ReceiptTimeout == 0 {
		cfg.Ledger.ReceiptTimeout = 2 * time.Minute
	}
	if cfg.Catalog.FetchWorkers == 0 {
		cfg.Catalog.FetchWorkers = 16
	}
	if cfg.Catalog.FetchTimeout == 0 {
		cfg.Catalog.FetchTimeout = 5 * time.Second
	}
	if cfg.Catalog.PageSize == 0 {
		cfg.Catalog.PageSize = 6
	}
	if cfg.Reconcile.ScanWorkers == 0 {
		cfg.Reconcile.ScanWorkers = 32
	}
	if cfg.Reconcile.LookupTimeout == 0 {
		cfg.Reconcile.LookupTimeout = 5 * time.Second
	}
	if cfg.Reconcile.BatchSize == 0 {
		cfg.Reconcile.BatchSize = 256
	}
	if cfg.Metadata.BaseURI == "" {
		cfg.Metadata.BaseURI = metadata.DefaultBaseURI
	}
}
