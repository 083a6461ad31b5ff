package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks struct tags, then the rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

func validateCustomRules(cfg *Config) error {
	if cfg.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.MetricsAddr); err != nil {
			return fmt.Errorf("Config.MetricsAddr: %q is not host:port: %w", cfg.MetricsAddr, err)
		}
	}
	return nil
}

// formatValidationError reports the first failing field.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
