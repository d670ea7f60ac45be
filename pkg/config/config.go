// Package config holds the tool-level configuration for ddkinit.
//
// Built-in defaults can be overridden by a .ddkinit.toml or .ddkinit.yaml
// file in the workspace root. Command-line flags override both.
package config

import (
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	koanftoml "github.com/knadh/koanf/parsers/toml"
	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/ddkbuild/ddkinit/pkg/errors"
	"github.com/ddkbuild/ddkinit/pkg/types"
)

// Config file names searched in the workspace root, in order.
var configFileNames = []string{".ddkinit.toml", "ddkinit.toml", ".ddkinit.yaml", "ddkinit.yaml"}

// DefaultBuildTarget is the build downloaded when none is specified.
const DefaultBuildTarget = "kernel_aarch64"

// Config is the merged tool configuration.
type Config struct {
	// BuildTarget is the default remote build target
	BuildTarget string `koanf:"build_target" toml:"build_target"`

	// URLFormat is the default CI endpoint format string
	URLFormat string `koanf:"url_fmt" toml:"url_fmt"`

	// DownloadHelper is the command fetching remote files; empty means
	// the built-in HTTP client
	DownloadHelper []string `koanf:"download_helper" toml:"download_helper"`

	// Permissions for files and directories ddkinit creates
	Permissions Permissions `koanf:"permissions" toml:"permissions"`
}

// Permissions configures the modes of created filesystem entries.
type Permissions struct {
	Dir  uint32 `koanf:"dir" toml:"dir"`
	File uint32 `koanf:"file" toml:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BuildTarget:    DefaultBuildTarget,
		DownloadHelper: nil,
		Permissions: Permissions{
			Dir:  0755,
			File: 0644,
		},
	}
}

// Load returns the configuration for a workspace, merging the built-in
// defaults with the first config file found in the workspace root. The
// file is read through the given filesystem so in-memory setups see
// their config too. A missing file is not an error; an unreadable or
// invalid one is.
func Load(filesystem types.FS, workspace string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultsMap(), "."), nil); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrConfigLoad, "failed to load default config")
	}

	if path, parser := findConfigFile(filesystem, workspace); path != "" {
		data, err := filesystem.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(err, errors.ErrConfigLoad,
				"failed to read config from %s", path)
		}
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return Config{}, errors.Wrapf(err, errors.ErrConfigParse,
				"failed to load config from %s", path)
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrConfigParse, "failed to decode config")
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file in the workspace
// root together with the parser for its format.
func findConfigFile(filesystem types.FS, workspace string) (string, koanf.Parser) {
	if workspace == "" {
		return "", nil
	}
	for _, name := range configFileNames {
		path := filepath.Join(workspace, name)
		if _, err := filesystem.Stat(path); err != nil {
			continue
		}
		if filepath.Ext(name) == ".yaml" {
			return path, koanfyaml.Parser()
		}
		return path, koanftoml.Parser()
	}
	return "", nil
}

// defaultsMap flattens the default config for koanf's confmap provider.
func defaultsMap() map[string]interface{} {
	def := Default()
	return map[string]interface{}{
		"build_target":     def.BuildTarget,
		"url_fmt":          def.URLFormat,
		"download_helper":  def.DownloadHelper,
		"permissions.dir":  def.Permissions.Dir,
		"permissions.file": def.Permissions.File,
	}
}
