package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Pengchengistaken/ocmirror/internal/config"
	"github.com/Pengchengistaken/ocmirror/internal/engine"
	"github.com/Pengchengistaken/ocmirror/internal/layout"
	"github.com/Pengchengistaken/ocmirror/internal/logging"
	"github.com/Pengchengistaken/ocmirror/internal/remote"
)

// loadConfig reads the config file and applies flag overrides. A missing
// file is fine as long as flags supply the required settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Read(configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg = &config.Config{}
	} else if err != nil {
		return nil, err
	}

	if remoteURL != "" {
		cfg.RemoteURL = remoteURL
	}
	if password != "" {
		cfg.SharePassword = password
	}
	if root != "" {
		cfg.DownloadRoot = root
	}

	cfg.ApplyDefaults()
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, &config.ValidationError{Errors: errs}
	}
	return cfg, nil
}

// initLogging sets up the global logger: console plus a run-log file next
// to the download root, honoring --verbose/--quiet.
func initLogging(cfg *config.Config) error {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	if quiet {
		level = "error"
	}

	logFile := cfg.LogFile
	if logFile == "" {
		abs, err := filepath.Abs(cfg.DownloadRoot)
		if err != nil {
			return fmt.Errorf("resolving download root: %w", err)
		}
		logFile = filepath.Join(filepath.Dir(abs), "ocmirror.log")
	}

	return logging.Init(logging.Config{Level: level, File: logFile})
}

// newSession builds the WebDAV public-share driver from the config.
func newSession(cfg *config.Config) (remote.Session, error) {
	return remote.NewWebDAVSession(remote.WebDAVConfig{
		ShareURL:       cfg.RemoteURL,
		Password:       cfg.SharePassword,
		ListingTimeout: cfg.ListingTimeout.Std(),
	})
}

// newWalker builds the traversal engine over a session.
func newWalker(cfg *config.Config, session remote.Session) (*engine.Walker, error) {
	mapper, err := layout.NewMapper(cfg.DownloadRoot)
	if err != nil {
		return nil, err
	}
	return &engine.Walker{Session: session, Mapper: mapper}, nil
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
