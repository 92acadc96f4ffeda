package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validatePatch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTools() error {
	if c.Tools.Java == "" {
		return errors.New("tools.java must be set")
	}
	if !strings.HasSuffix(strings.ToLower(c.Tools.Apktool), ".jar") {
		return fmt.Errorf("tools.apktool must point to a .jar file, got %q", c.Tools.Apktool)
	}
	if !strings.HasSuffix(strings.ToLower(c.Tools.Signer), ".jar") {
		return fmt.Errorf("tools.signer must point to a .jar file, got %q", c.Tools.Signer)
	}
	return nil
}

func (c *Config) validatePatch() error {
	if strings.ContainsAny(c.Patch.OutputSuffix, `/\`) {
		return errors.New("patch.output_suffix must not contain path separators")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q (want debug, info, warn, or error)", c.Logging.Level)
	}
}
