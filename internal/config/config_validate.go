// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// structValidator returns the shared validator, reporting field names by
// their koanf key so errors match what users write in config files.
func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("koanf"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks struct tag constraints, then cross-field rules.
func (c *Config) Validate() error {
	if err := structValidator().Struct(c); err != nil {
		return formatValidationError(err)
	}

	if err := c.validateEmbedding(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	return c.validateCheckpoint()
}

// formatValidationError turns validator output into "embedding.batch_size
// failed gt=0" style messages.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s (got %v)", field, rule, fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func (c *Config) validateEmbedding() error {
	if c.Embedding.Provider != "http" {
		return nil
	}
	if c.Embedding.URL == "" {
		return fmt.Errorf("embedding.url is required when embedding.provider=http")
	}
	return validateHTTPURL(c.Embedding.URL, "embedding.url")
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.Alpha+r.Beta+r.Gamma == 0 {
		return fmt.Errorf("recommend.alpha, recommend.beta and recommend.gamma cannot all be zero")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled || c.Events.Transport != "nats" {
		return nil
	}
	if c.Events.EmbeddedServer && c.Events.StoreDir == "" {
		return fmt.Errorf("events.store_dir is required when events.embedded_server=true")
	}
	return validateNATSURL(c.Events.URL)
}

func (c *Config) validateCheckpoint() error {
	if c.Checkpoint.Enabled && c.Checkpoint.Path == "" {
		return fmt.Errorf("checkpoint.path is required when checkpoint.enabled=true")
	}
	return nil
}

// validateHTTPURL validates that a URL is a base http/https URL.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}

	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}

	return nil
}

// validateNATSURL accepts nats://, tls:// and ws:// URLs with a host.
func validateNATSURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("events.url failed to parse: %w", err)
	}

	switch parsedURL.Scheme {
	case "nats", "tls", "ws", "wss":
	default:
		return fmt.Errorf("events.url scheme must be nats, tls, ws or wss, got: %s", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("events.url host is required")
	}
	return nil
}
