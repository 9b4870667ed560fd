package config

import (
	"fmt"
	"net"

	"github.com/go-playground/validator/v10"
	"github.com/marmos91/nfs4probe/internal/protocol/nfs4"
	"github.com/marmos91/nfs4probe/pkg/capture"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules
// that cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if _, err := nfs4.ParseAttrs(cfg.Request.Readdir.Attributes); err != nil {
		return fmt.Errorf("request.readdir.attributes: %w", err)
	}

	if cfg.Request.Readdir.DirCount > cfg.Request.Readdir.MaxCount {
		return fmt.Errorf("request.readdir: dircount (%d) must not exceed maxcount (%d)",
			cfg.Request.Readdir.DirCount, cfg.Request.Readdir.MaxCount)
	}

	if err := validateRequestOps(&cfg.Request); err != nil {
		return err
	}

	if cfg.Request.Auth.Flavor == AuthFlavorUnix && !cfg.Request.StandardHeader {
		return fmt.Errorf("request.auth: flavor %q requires request.standard_header", AuthFlavorUnix)
	}

	if cfg.Metrics.Listen != "" {
		if !cfg.Metrics.Enabled {
			return fmt.Errorf("metrics.listen is set but metrics.enabled is false")
		}
		if _, _, err := net.SplitHostPort(cfg.Metrics.Listen); err != nil {
			return fmt.Errorf("metrics.listen: %w", err)
		}
	}

	if cfg.Capture.Type != capture.TypeNone {
		if _, err := decodeCaptureOptions(&cfg.Capture); err != nil {
			return err
		}
	}

	return nil
}

// validateRequestOps checks the filehandle, path and raw operations against
// the limits the encoder enforces, so a bad request fails at load time.
func validateRequestOps(cfg *RequestConfig) error {
	ops, err := leadingOps(cfg, nil)
	if err != nil {
		return err
	}
	raw, err := rawOps(cfg.RawOps)
	if err != nil {
		return err
	}
	for _, op := range append(ops, raw...) {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("request: %w", err)
		}
	}
	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
