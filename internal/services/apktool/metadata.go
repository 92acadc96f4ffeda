package apktool

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MetadataFile is the name apktool gives its description of a decoded tree.
const MetadataFile = "apktool.yml"

// Metadata captures the parts of apktool.yml the pipeline reports on.
type Metadata struct {
	FileName    string
	VersionName string
	VersionCode string
	MinSDK      int
	TargetSDK   int
}

// scalar accepts quoted and unquoted YAML scalars; apktool has written SDK
// levels both ways across releases.
type scalar string

func (s *scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected scalar", node.Line)
	}
	*s = scalar(node.Value)
	return nil
}

type metaInfo struct {
	APKFileName string `yaml:"apkFileName"`
	SDKInfo     struct {
		MinSDKVersion    scalar `yaml:"minSdkVersion"`
		TargetSDKVersion scalar `yaml:"targetSdkVersion"`
	} `yaml:"sdkInfo"`
	VersionInfo struct {
		VersionCode scalar `yaml:"versionCode"`
		VersionName scalar `yaml:"versionName"`
	} `yaml:"versionInfo"`
}

// ReadMetadata parses apktool.yml from a decoded tree.
func ReadMetadata(decodedDir string) (Metadata, error) {
	data, err := os.ReadFile(filepath.Join(decodedDir, MetadataFile))
	if err != nil {
		return Metadata{}, fmt.Errorf("read %s: %w", MetadataFile, err)
	}
	return ParseMetadata(data)
}

// ParseMetadata decodes apktool.yml content. The Java class tag older apktool
// releases put on the first line is ignored.
func ParseMetadata(data []byte) (Metadata, error) {
	data = stripClassTag(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return Metadata{}, errors.New("empty metadata")
	}
	var info metaInfo
	if err := yaml.Unmarshal(data, &info); err != nil {
		return Metadata{}, fmt.Errorf("parse %s: %w", MetadataFile, err)
	}
	var err error
	meta := Metadata{
		FileName:    info.APKFileName,
		VersionName: string(info.VersionInfo.VersionName),
		VersionCode: string(info.VersionInfo.VersionCode),
	}
	if meta.MinSDK, err = sdkLevel(info.SDKInfo.MinSDKVersion); err != nil {
		return Metadata{}, fmt.Errorf("minSdkVersion: %w", err)
	}
	if meta.TargetSDK, err = sdkLevel(info.SDKInfo.TargetSDKVersion); err != nil {
		return Metadata{}, fmt.Errorf("targetSdkVersion: %w", err)
	}
	return meta, nil
}

func stripClassTag(data []byte) []byte {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("!!")) {
		return data
	}
	if i := bytes.IndexByte(trimmed, '\n'); i >= 0 {
		return trimmed[i+1:]
	}
	return nil
}

func sdkLevel(v scalar) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(string(v))
}
