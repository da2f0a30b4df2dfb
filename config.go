package weir

import (
	"regexp"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Config names every option the core consumes from its driver (§6). It is
// a plain struct, not a file format: parsing an actual config file (TOML,
// YAML, ...) is the driver's job (§1 explicit non-goal). What the core
// owns is turning the generic map the driver hands it into this struct,
// via NewConfigFromMap.
type Config struct {
	IncludePatterns     []*regexp.Regexp `mapstructure:"-"`
	ExcludePatterns     []*regexp.Regexp `mapstructure:"-"`
	ExcludePathPatterns []*regexp.Regexp `mapstructure:"-"`

	ExcludePrivateIPs   bool
	ExcludeLinkLocalIPs bool
	ExcludeLoopbackIPs  bool

	ExcludeMail bool
	IncludeMail bool

	CheckExampleDomains bool

	Schemes []string

	AcceptedStatusCodes map[int]struct{}

	Method string

	MaxRedirects int
	MaxRetries   int
	RetryWaitTime time.Duration

	Timeout        time.Duration
	ConnectTimeout time.Duration
	TCPKeepAlive   time.Duration

	UserAgent     string
	CustomHeaders map[string]string

	AllowInsecureTLS bool
	RequireHTTPS     bool

	BasicAuth   map[string]Credentials
	RemapRules  map[string]string
	RepoHostToken string

	MaxConcurrency       int
	MaxConcurrentPerHost int

	CacheEnabled       bool
	MaxCacheAge        time.Duration
	CacheExcludeStatus map[int]struct{}

	IncludeVerbatim  bool
	IncludeWikilinks bool

	RootDir string
	BaseURL string
}

// defaultConfig mirrors the teacher's defaultConfig package var (config.go):
// a single canonical instance with every zero-value field filled in, copied
// by value before overrides are applied.
var defaultConfig = Config{
	Schemes:              []string{"http", "https"},
	Method:               "GET",
	MaxRedirects:         5,
	MaxRetries:           3,
	RetryWaitTime:        time.Second,
	Timeout:              20 * time.Second,
	ConnectTimeout:       10 * time.Second,
	TCPKeepAlive:         60 * time.Second,
	UserAgent:            "weir/1",
	MaxConcurrency:       128,
	MaxConcurrentPerHost: 10,
	CacheEnabled:         true,
	ExcludeLoopbackIPs:   true,
}

// NewConfig returns a copy of the package default Config, ready for field
// overrides.
func NewConfig() *Config {
	c := defaultConfig
	return &c
}

// configDecodeTarget mirrors Config but with patterns as plain strings, so
// mapstructure can decode them before we compile each into a *regexp.Regexp
// (regexp.Regexp has no sensible decode hook of its own).
type configDecodeTarget struct {
	Config                 `mapstructure:",squash"`
	IncludePatterns        []string `mapstructure:"IncludePatterns"`
	ExcludePatterns        []string `mapstructure:"ExcludePatterns"`
	ExcludePathPatterns    []string `mapstructure:"ExcludePathPatterns"`
}

// NewConfigFromMap decodes a generic options map (the shape a driver has
// after it parses whatever file format it likes) into a Config, starting
// from the defaults. Uses mapstructure instead of the teacher's hand-rolled
// per-field type assertions (config.go's NewConfig): one decode call plus a
// duration-string hook covers every option of §6 uniformly, with the
// pattern fields compiled to regexps as a final pass.
func NewConfigFromMap(m map[string]interface{}) (*Config, error) {
	target := configDecodeTarget{Config: *NewConfig()}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &target,
	})
	if err != nil {
		return nil, &CheckError{Kind: KindConfigUnparseable, Cause: err}
	}
	if err := decoder.Decode(m); err != nil {
		return nil, &CheckError{Kind: KindConfigUnparseable, Cause: err}
	}

	c := target.Config
	if c.IncludePatterns, err = compilePatterns(target.IncludePatterns); err != nil {
		return nil, err
	}
	if c.ExcludePatterns, err = compilePatterns(target.ExcludePatterns); err != nil {
		return nil, err
	}
	if c.ExcludePathPatterns, err = compilePatterns(target.ExcludePathPatterns); err != nil {
		return nil, err
	}
	return &c, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &CheckError{Kind: KindConfigUnparseable, Cause: err}
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Validate checks invariant combinations the core refuses to run with
// (§7 Configuration errors): e.g. mail checks enabled while mail is also
// globally excluded.
func (c *Config) Validate() error {
	if c.ExcludeMail && c.IncludeMail {
		return &CheckError{Kind: KindConfigInvalidCombination, Detail: "exclude_mail and include_mail are mutually exclusive"}
	}
	if c.MaxConcurrentPerHost > c.MaxConcurrency {
		return &CheckError{Kind: KindConfigInvalidCombination, Detail: "max_concurrent_per_host cannot exceed max_concurrency"}
	}
	return nil
}

// acceptsCode reports whether code is in the configured accepted-code set,
// defaulting to the 2xx success class when the set is empty (§6).
func (c *Config) acceptsCode(code int) bool {
	if len(c.AcceptedStatusCodes) == 0 {
		return code >= 200 && code < 300
	}
	_, ok := c.AcceptedStatusCodes[code]
	return ok
}
