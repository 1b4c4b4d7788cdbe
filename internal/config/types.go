package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s"
// or "1h", or from a bare number of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var secs int64
	if err := value.Decode(&secs); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full configuration surface of a mirror run.
type Config struct {
	// RemoteURL is the public share link.
	RemoteURL string `yaml:"remote_url"`
	// SharePassword is the share password. Supports ${ENV} expansion; when
	// empty, the OCMIRROR_PASSWORD environment variable is used.
	SharePassword string `yaml:"share_password"`
	// DownloadRoot is the local directory mirroring the share 1:1.
	DownloadRoot string `yaml:"download_root"`

	// MaxRetries is the per-file download attempt budget.
	MaxRetries int `yaml:"max_retries"`
	// DownloadTimeout bounds one download attempt.
	DownloadTimeout Duration `yaml:"download_timeout"`
	// ListingTimeout bounds one remote folder listing.
	ListingTimeout Duration `yaml:"listing_timeout"`
	// RetryWait is the base wait between attempts of the same file; the
	// actual wait grows linearly with the attempt number.
	RetryWait Duration `yaml:"retry_wait"`

	// MaxFullCycles caps the number of full-tree passes.
	MaxFullCycles int `yaml:"max_full_cycles"`
	// CycleWait is the pause between passes.
	CycleWait Duration `yaml:"cycle_wait"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// LogFile is the run-log path ("" = next to the download root).
	LogFile string `yaml:"log_file"`
}
