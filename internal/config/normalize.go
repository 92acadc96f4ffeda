package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTools(); err != nil {
		return err
	}
	if err := c.normalizePatch(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir()
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() error {
	var err error
	if value, ok := os.LookupEnv("APK_MITM_APKTOOL"); ok && strings.TrimSpace(value) != "" {
		c.Tools.Apktool = value
	}
	if value, ok := os.LookupEnv("APK_MITM_SIGNER"); ok && strings.TrimSpace(value) != "" {
		c.Tools.Signer = value
	}
	if strings.TrimSpace(c.Tools.Apktool) == "" {
		c.Tools.Apktool = defaultApktoolJar
	}
	if c.Tools.Apktool, err = expandPath(strings.TrimSpace(c.Tools.Apktool)); err != nil {
		return fmt.Errorf("tools.apktool: %w", err)
	}
	if strings.TrimSpace(c.Tools.Signer) == "" {
		c.Tools.Signer = defaultSignerJar
	}
	if c.Tools.Signer, err = expandPath(strings.TrimSpace(c.Tools.Signer)); err != nil {
		return fmt.Errorf("tools.signer: %w", err)
	}
	if c.Tools.FrameworkPath, err = expandPath(strings.TrimSpace(c.Tools.FrameworkPath)); err != nil {
		return fmt.Errorf("tools.framework_path: %w", err)
	}

	c.Tools.Java = strings.TrimSpace(c.Tools.Java)
	if c.Tools.Java == "" || c.Tools.Java == defaultJavaBinary {
		c.Tools.Java = javaFromHome()
	}
	return nil
}

// javaFromHome prefers $JAVA_HOME/bin/java when it exists and falls back to
// resolving "java" from PATH.
func javaFromHome() string {
	home, ok := os.LookupEnv("JAVA_HOME")
	if !ok || strings.TrimSpace(home) == "" {
		return defaultJavaBinary
	}
	candidate := filepath.Join(strings.TrimSpace(home), "bin", defaultJavaBinary)
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate
	}
	return defaultJavaBinary
}

func (c *Config) normalizePatch() error {
	var err error
	c.Patch.Certificate = strings.TrimSpace(c.Patch.Certificate)
	if c.Patch.Certificate, err = expandPath(c.Patch.Certificate); err != nil {
		return fmt.Errorf("patch.certificate: %w", err)
	}
	c.Patch.OutputSuffix = strings.TrimSpace(c.Patch.OutputSuffix)
	if c.Patch.OutputSuffix == "" {
		c.Patch.OutputSuffix = defaultOutputSuffix
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json", "tint":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
