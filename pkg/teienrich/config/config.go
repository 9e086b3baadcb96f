package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/teienrich/internal/pid"
	"github.com/cognicore/teienrich/pkg/teienrich/annotate"
	"github.com/cognicore/teienrich/pkg/teienrich/handle"
	"github.com/cognicore/teienrich/pkg/teienrich/internalerr"
	"github.com/cognicore/teienrich/pkg/teienrich/mentions"
	"github.com/cognicore/teienrich/pkg/teienrich/tei"
)

// Default file patterns
const (
	DefaultEditions = "./editions/*.xml"
	DefaultIndices  = "./indices/list*.xml"
)

// Config is the run configuration shared by the command line tools
type Config struct {
	Editions      string    `yaml:"editions"`
	Indices       string    `yaml:"indices"`
	Base          string    `yaml:"base"`
	Selectors     Selectors `yaml:"selectors"`
	LeadIn        string    `yaml:"lead_in"`
	Blacklist     []string  `yaml:"blacklist"`
	BlacklistFile string    `yaml:"blacklist_file"`
	Handle        Handle    `yaml:"handle"`
	ReportDB      string    `yaml:"report_db"`
	Debug         bool      `yaml:"debug"`
}

// Selectors holds the XPath expressions. An empty Title lets each tool pick
// its own default.
type Selectors struct {
	References     string `yaml:"references"`
	Title          string `yaml:"title"`
	SecondaryTitle string `yaml:"secondary_title"`
	Date           string `yaml:"date"`
	Handle         string `yaml:"handle"`
	HandleInsert   string `yaml:"handle_insert"`
}

// Handle configures the handle service
type Handle struct {
	Provider string `yaml:"provider"`
	Prefix   string `yaml:"prefix"`
	Resolver string `yaml:"resolver"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Default returns the conventional layout
func Default() *Config {
	return &Config{
		Editions: DefaultEditions,
		Indices:  DefaultIndices,
		Selectors: Selectors{
			References:   mentions.DefaultReferences,
			Handle:       handle.DefaultSelector,
			HandleInsert: handle.DefaultInsertPoint,
		},
		LeadIn: annotate.DefaultLeadIn,
		Handle: Handle{
			Provider: pid.DefaultProvider,
			Prefix:   pid.DefaultPrefix,
			Resolver: pid.DefaultResolver,
		},
	}
}

// Load reads a YAML file over the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// Validate checks the file patterns and compiles every selector
func (c *Config) Validate() error {
	if c.Editions == "" || c.Indices == "" {
		return fmt.Errorf("%w: editions and indices patterns required", internalerr.ErrInvalidConfig)
	}
	for _, expr := range []string{
		c.Selectors.References,
		c.Selectors.Title,
		c.Selectors.SecondaryTitle,
		c.Selectors.Date,
		c.Selectors.Handle,
		c.Selectors.HandleInsert,
	} {
		if expr == "" {
			continue
		}
		if _, err := tei.Compile(expr); err != nil {
			return fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
		}
	}
	return nil
}

// BlacklistFile is the YAML form of a blacklist file
type BlacklistFile struct {
	IDs []string `yaml:"ids"`
}

// LoadBlacklist reads the ids of a blacklist file
func LoadBlacklist(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var bl BlacklistFile
	if err := yaml.Unmarshal(data, &bl); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	return bl.IDs, nil
}
