package config

import (
	"os"
	"path/filepath"
)

const (
	defaultConfigPath   = "~/.config/apk-mitm/config.toml"
	defaultToolsDir     = "~/.local/share/apk-mitm/tools"
	defaultLogDir       = "~/.local/share/apk-mitm/logs"
	defaultJavaBinary   = "java"
	defaultApktoolJar   = defaultToolsDir + "/apktool.jar"
	defaultSignerJar    = defaultToolsDir + "/uber-apk-signer.jar"
	defaultOutputSuffix = "-patched"
	defaultLogFormat    = "console"
	defaultLogLevel     = "warn"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir(),
			LogDir:  defaultLogDir,
		},
		Tools: Tools{
			Java:    defaultJavaBinary,
			Apktool: defaultApktoolJar,
			Signer:  defaultSignerJar,
		},
		Patch: Patch{
			OutputSuffix: defaultOutputSuffix,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultWorkDir() string {
	return filepath.Join(os.TempDir(), "apk-mitm")
}
