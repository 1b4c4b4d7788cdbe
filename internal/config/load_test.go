package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ocmirror.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
remote_url: https://cloud.example.com/index.php/s/AbCdEfGh
share_password: hunter2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DownloadRoot != DefaultDownloadRoot {
		t.Errorf("DownloadRoot = %q, want %q", cfg.DownloadRoot, DefaultDownloadRoot)
	}
	if cfg.MaxRetries != DefaultMaxRetries {
		t.Errorf("MaxRetries = %d, want %d", cfg.MaxRetries, DefaultMaxRetries)
	}
	if cfg.DownloadTimeout.Std() != DefaultDownloadTimeout {
		t.Errorf("DownloadTimeout = %v, want %v", cfg.DownloadTimeout.Std(), DefaultDownloadTimeout)
	}
	if cfg.MaxFullCycles != DefaultMaxFullCycles {
		t.Errorf("MaxFullCycles = %d, want %d", cfg.MaxFullCycles, DefaultMaxFullCycles)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestDurationForms(t *testing.T) {
	path := writeConfig(t, `
remote_url: https://cloud.example.com/s/AbCdEfGh
share_password: hunter2
download_timeout: 90s
retry_wait: 45
cycle_wait: 2m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cfg.DownloadTimeout.Std(); got != 90*time.Second {
		t.Errorf("download_timeout = %v, want 90s", got)
	}
	if got := cfg.RetryWait.Std(); got != 45*time.Second {
		t.Errorf("retry_wait = %v, want 45s (bare number = seconds)", got)
	}
	if got := cfg.CycleWait.Std(); got != 2*time.Minute {
		t.Errorf("cycle_wait = %v, want 2m", got)
	}
}

func TestPasswordFromEnv(t *testing.T) {
	t.Setenv("OCMIRROR_PASSWORD", "from-env")
	path := writeConfig(t, `
remote_url: https://cloud.example.com/s/AbCdEfGh
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SharePassword != "from-env" {
		t.Errorf("SharePassword = %q, want from-env", cfg.SharePassword)
	}
}

func TestPasswordExpansion(t *testing.T) {
	t.Setenv("SHARE_SECRET", "expanded")
	path := writeConfig(t, `
remote_url: https://cloud.example.com/s/AbCdEfGh
share_password: ${SHARE_SECRET}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SharePassword != "expanded" {
		t.Errorf("SharePassword = %q, want expanded", cfg.SharePassword)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			"missing url",
			"share_password: x\n",
			"'remote_url' is required",
		},
		{
			"bad scheme",
			"remote_url: ftp://example.com/s/x\nshare_password: x\n",
			"must start with http",
		},
		{
			"missing password",
			"remote_url: https://example.com/s/x\n",
			"'share_password' is required",
		},
		{
			"negative retries",
			"remote_url: https://example.com/s/x\nshare_password: x\nmax_retries: -2\n",
			"'max_retries' must be at least 1",
		},
		{
			"bad log level",
			"remote_url: https://example.com/s/x\nshare_password: x\nlog_level: loud\n",
			"invalid log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Make sure the env fallback does not mask the missing-password case.
			t.Setenv("OCMIRROR_PASSWORD", "")

			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load succeeded, want validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load succeeded on missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error %v does not unwrap to os.ErrNotExist", err)
	}
}
