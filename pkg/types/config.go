package types

import "time"

// HTTPConfig holds shared HTTP settings for components that make direct
// network requests (the web connector's PDF fetch path).
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "sourcepull/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// BrowserConfig holds settings for the automated browser sessions.
type BrowserConfig struct {
	// UserDataDir is the base directory for per-database browser
	// profiles. Each database gets its own subdirectory.
	UserDataDir string `json:"user_data_dir" yaml:"user_data_dir"`

	// Headless runs the browser without a visible window. Login flows
	// that need a human (Duo push) still work headless because the
	// approval happens on the user's phone.
	Headless bool `json:"headless" yaml:"headless"`

	// SlowMo is an artificial delay inserted before each page action.
	// Increase to slow the browser down for debugging.
	SlowMo time.Duration `json:"slow_mo" yaml:"slow_mo"`

	// UserAgent overrides the browser's default User-Agent when set.
	UserAgent string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
}

// PullerConfig holds settings for the retrieval orchestrator.
type PullerConfig struct {
	HTTPConfig `yaml:",inline"`

	// StepTimeout bounds each individual page wait (navigation, element
	// appearance). A timeout scoped to "did the search produce a result"
	// reports Not Found; any other timeout reports Failure.
	StepTimeout time.Duration `json:"step_timeout" yaml:"step_timeout"`

	// DownloadTimeout bounds a single file transfer.
	DownloadTimeout time.Duration `json:"download_timeout" yaml:"download_timeout"`

	// AuthTimeout bounds an ordinary credential login.
	AuthTimeout time.Duration `json:"auth_timeout" yaml:"auth_timeout"`

	// PushTimeout bounds the out-of-band push approval during login.
	// This is deliberately much longer than AuthTimeout because a human
	// has to reach for their phone.
	PushTimeout time.Duration `json:"push_timeout" yaml:"push_timeout"`
}

// ProjectConfig holds settings for worklist persistence.
type ProjectConfig struct {
	// ProjectsDir is the base directory holding one subdirectory per
	// project, each with a Sources.xlsx worklist and a pull/ folder.
	ProjectsDir string `json:"projects_dir" yaml:"projects_dir"`
}

// HistoryConfig holds settings for the retrieval attempt log.
type HistoryConfig struct {
	// Path is the SQLite database file for attempt records.
	Path string `json:"path" yaml:"path"`
}

// Config groups all component configuration.
type Config struct {
	Browser BrowserConfig `json:"browser" yaml:"browser"`
	Puller  PullerConfig  `json:"puller" yaml:"puller"`
	Project ProjectConfig `json:"project" yaml:"project"`
	History HistoryConfig `json:"history" yaml:"history"`
}

// Defaults fills zero-valued fields with working defaults.
func (c *Config) Defaults() {
	if c.Puller.Timeout == 0 {
		c.Puller.Timeout = 60 * time.Second
	}
	if c.Puller.UserAgent == "" {
		c.Puller.UserAgent = "sourcepull/0.1"
	}
	if c.Puller.StepTimeout == 0 {
		c.Puller.StepTimeout = 10 * time.Second
	}
	if c.Puller.DownloadTimeout == 0 {
		c.Puller.DownloadTimeout = 20 * time.Second
	}
	if c.Puller.AuthTimeout == 0 {
		c.Puller.AuthTimeout = 30 * time.Second
	}
	if c.Puller.PushTimeout == 0 {
		c.Puller.PushTimeout = 60 * time.Second
	}
	if c.Browser.UserDataDir == "" {
		c.Browser.UserDataDir = "usr"
	}
	if c.Browser.SlowMo == 0 {
		c.Browser.SlowMo = 500 * time.Millisecond
	}
	if c.Project.ProjectsDir == "" {
		c.Project.ProjectsDir = "_projects"
	}
	if c.History.Path == "" {
		c.History.Path = "sourcepull.db"
	}
}
