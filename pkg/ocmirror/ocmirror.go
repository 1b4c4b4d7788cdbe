// Package ocmirror provides the public Go library API for ocmirror.
//
// ocmirror mirrors a password-protected remote shared folder onto local
// disk, downloading only what is missing and retrying until the tree
// converges. This package exposes a small client for embedding the mirror
// engine in other Go programs.
//
// # Basic usage
//
//	client, err := ocmirror.New(ocmirror.Options{
//	    RemoteURL:    "https://cloud.example.com/index.php/s/AbCdEfGh",
//	    Password:     os.Getenv("OCMIRROR_PASSWORD"),
//	    DownloadRoot: "./downloads",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report, err := client.Mirror(ctx)
package ocmirror

import (
	"context"
	"fmt"
	"time"

	"github.com/Pengchengistaken/ocmirror/internal/config"
	"github.com/Pengchengistaken/ocmirror/internal/engine"
	"github.com/Pengchengistaken/ocmirror/internal/layout"
	"github.com/Pengchengistaken/ocmirror/internal/remote"
)

// Options configures an ocmirror client. Zero-valued budgets and timeouts
// take the same defaults as the CLI.
type Options struct {
	RemoteURL    string
	Password     string
	DownloadRoot string

	MaxRetries      int
	DownloadTimeout time.Duration
	ListingTimeout  time.Duration
	RetryWait       time.Duration
	MaxFullCycles   int
	CycleWait       time.Duration

	// Session overrides the remote driver (nil = WebDAV public share).
	Session remote.Session
}

// Client runs mirror passes against one share.
type Client struct {
	cfg     config.Config
	session remote.Session
	mapper  *layout.Mapper
}

// New validates opts and builds a client. No network traffic happens
// until Mirror or Check.
func New(opts Options) (*Client, error) {
	cfg := config.Config{
		RemoteURL:       opts.RemoteURL,
		SharePassword:   opts.Password,
		DownloadRoot:    opts.DownloadRoot,
		MaxRetries:      opts.MaxRetries,
		DownloadTimeout: config.Duration(opts.DownloadTimeout),
		ListingTimeout:  config.Duration(opts.ListingTimeout),
		RetryWait:       config.Duration(opts.RetryWait),
		MaxFullCycles:   opts.MaxFullCycles,
		CycleWait:       config.Duration(opts.CycleWait),
	}
	cfg.ApplyDefaults()
	if errs := config.Validate(&cfg); len(errs) > 0 {
		return nil, fmt.Errorf("invalid options: %s", errs[0])
	}

	session := opts.Session
	if session == nil {
		var err error
		session, err = remote.NewWebDAVSession(remote.WebDAVConfig{
			ShareURL:       cfg.RemoteURL,
			Password:       cfg.SharePassword,
			ListingTimeout: cfg.ListingTimeout.Std(),
		})
		if err != nil {
			return nil, err
		}
	}

	mapper, err := layout.NewMapper(cfg.DownloadRoot)
	if err != nil {
		return nil, err
	}

	return &Client{cfg: cfg, session: session, mapper: mapper}, nil
}

// Mirror runs full passes until convergence or cycle exhaustion and
// returns the final report. The session is closed when Mirror returns.
func (c *Client) Mirror(ctx context.Context) (*RunReport, error) {
	walker := &engine.Walker{Session: c.session, Mapper: c.mapper}
	ctrl := &engine.Controller{
		Session: c.session,
		Walker:  walker,
		Scheduler: &engine.Scheduler{
			Session:    c.session,
			MaxRetries: c.cfg.MaxRetries,
			Timeout:    c.cfg.DownloadTimeout.Std(),
			RetryWait:  c.cfg.RetryWait.Std(),
		},
		MaxCycles: c.cfg.MaxFullCycles,
		CycleWait: c.cfg.CycleWait.Std(),
	}
	return ctrl.Run(ctx)
}

// Check authenticates and performs one read-only pass, returning the files
// a Mirror run would download. Local directories are still created, so a
// later run resumes into the same tree. The session is closed when Check
// returns.
func (c *Client) Check(ctx context.Context) ([]PendingFile, error) {
	defer func() { _ = c.session.Close() }()

	if err := c.session.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("authenticating: %w", err)
	}

	walker := &engine.Walker{Session: c.session, Mapper: c.mapper}
	var pending []PendingFile
	stats := engine.CycleStats{}
	err := walker.Walk(ctx, &stats, func(pf engine.PendingFile) error {
		pending = append(pending, pf)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pending, nil
}
