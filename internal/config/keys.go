package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownKey is returned for a dot-notation key that names no setting.
var ErrUnknownKey = errors.New("unknown configuration key")

// Keys lists every dot-notation key in display order.
func Keys() []string {
	return []string{
		"storage.backend",
		"storage.path",
		"storage.autosave",
		"history.limit",
		"log.level",
		"log.format",
		"display.time_layout",
		"display.color",
	}
}

// Get retrieves a configuration value by dot-notation key.
func (c *Config) Get(key string) (string, error) {
	switch strings.ToLower(key) {
	case "storage.backend":
		return c.Storage.Backend, nil
	case "storage.path":
		return c.Storage.Path, nil
	case "storage.autosave":
		return strconv.FormatBool(c.Storage.Autosave), nil
	case "history.limit":
		return strconv.Itoa(c.History.Limit), nil
	case "log.level":
		return c.Log.Level, nil
	case "log.format":
		return c.Log.Format, nil
	case "display.time_layout":
		return c.Display.TimeLayout, nil
	case "display.color":
		return strconv.FormatBool(c.Display.Color), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
}

// Set assigns a configuration value by dot-notation key. The result is
// validated so a bad value never reaches the config file.
func (c *Config) Set(key, value string) error {
	next := *c

	switch strings.ToLower(key) {
	case "storage.backend":
		next.Storage.Backend = strings.ToLower(value)
	case "storage.path":
		next.Storage.Path = value
	case "storage.autosave":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for storage.autosave: %w", err)
		}
		next.Storage.Autosave = b
	case "history.limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for history.limit: %w", err)
		}
		next.History.Limit = n
	case "log.level":
		next.Log.Level = strings.ToLower(value)
	case "log.format":
		next.Log.Format = strings.ToLower(value)
	case "display.time_layout":
		next.Display.TimeLayout = value
	case "display.color":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for display.color: %w", err)
		}
		next.Display.Color = b
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
