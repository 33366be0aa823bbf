package manifest

import (
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	ktoml "github.com/knadh/koanf/parsers/toml"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/pcornish/rig/pkg/errors"
)

// envPrefix is the prefix for environment overrides, e.g.
// RIG_SYNC_MIRROR=true overrides sync.mirror.
const envPrefix = "RIG_"

// defaults returns the built-in manifest values merged under the user's
// file.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"sync.mirror": false,
		"gpu.drivers": false,
	}
}

// Load reads, merges, and validates a manifest file. The parser is
// chosen by extension (.toml, .yaml, .yml); environment variables with
// the RIG_ prefix override file values.
func Load(path string) (*Manifest, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrManifestLoad, "failed to load manifest defaults")
	}

	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestParse, "failed to parse manifest %s", path)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrManifestLoad, "failed to load environment overrides")
	}

	var m Manifest
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &m,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &m, unmarshalConf); err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestParse, "failed to unmarshal manifest %s", path)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("path", path).
		Int("base", len(m.Packages.Base)).
		Int("extra", len(m.Packages.Extra)).
		Int("dotfiles", len(m.Dotfiles)).
		Msg("manifest loaded")

	return &m, nil
}

// envTransform maps RIG_SYNC_MIRROR to sync.mirror. Variables that do
// not address a manifest section (e.g. RIG_DOTFILES, which names the
// dotfiles root) are skipped by returning the empty string.
func envTransform(s string) string {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	for _, section := range []string{"packages.", "sync.", "origin.", "gpu."} {
		if strings.HasPrefix(key, section) {
			return key
		}
	}
	return ""
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return ktoml.Parser(), nil
	case ".yaml", ".yml":
		return kyaml.Parser(), nil
	default:
		return nil, errors.Newf(errors.ErrManifestLoad, "unsupported manifest format %q", filepath.Ext(path))
	}
}
