package definition

import (
	"flag"
	"net/url"

	"github.com/go-kit/log"
	"github.com/pkg/errors"

	"github.com/chr1sbest/oasync/internal/oas"
)

// Config configures the OpenAPI 3 definition engine.
type Config struct {
	PreserveLegacyExtensions bool   `yaml:"preserve_legacy_extensions"`
	StrictValidation         bool   `yaml:"strict_validation"`
	PlaceholderTokenURL      string `yaml:"placeholder_token_url"`

	Logger log.Logger `yaml:"-"`
}

// RegisterFlags registers the engine flags on f.
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	f.BoolVar(&cfg.PreserveLegacyExtensions, "definition.preserve-legacy-extensions", false, "Keep the legacy x-scope and x-wso2-security extensions when writing definitions instead of stripping them.")
	f.BoolVar(&cfg.StrictValidation, "definition.strict-validation", false, "Run full OpenAPI 3 document validation when parsing definitions.")
	f.StringVar(&cfg.PlaceholderTokenURL, "definition.placeholder-token-url", oas.DefaultTokenURL, "Token URL set on implicit flows created while writing definitions.")
}

// Validate checks the configuration. An empty placeholder token URL falls
// back to the default one.
func (cfg *Config) Validate() error {
	if cfg.PlaceholderTokenURL == "" {
		return nil
	}
	u, err := url.Parse(cfg.PlaceholderTokenURL)
	if err != nil {
		return errors.Wrap(err, "invalid placeholder token URL")
	}
	if !u.IsAbs() {
		return errors.Errorf("placeholder token URL %q must be absolute", cfg.PlaceholderTokenURL)
	}
	return nil
}
