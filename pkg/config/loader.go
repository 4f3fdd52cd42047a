package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/distbuild/pkg/errors"
	"github.com/arthur-debert/distbuild/pkg/logging"
)

// EnvPrefix prefixes every environment variable read as configuration.
const EnvPrefix = "DISTBUILD_"

// FileNames are the configuration files looked up in the project directory,
// in order. The first one found is loaded.
var FileNames = []string{"distbuild.toml", ".distbuild.toml", "distbuild.yaml", "distbuild.yml"}

// LoadOptions selects the layers Load merges.
type LoadOptions struct {
	// ProjectDir is searched for one of FileNames.
	ProjectDir string
	// File, when set, is loaded instead of searching ProjectDir. It must
	// exist.
	File string
	// Overrides are applied last, keyed by dotted paths such as
	// "compile.enabled". Lists merge like any other layer.
	Overrides map[string]interface{}
	// Environ replaces os.Environ when set.
	Environ []string
}

// Load merges every configuration layer into a Config. The result is not
// resolved; call Resolve before using its paths.
func Load(opts LoadOptions) (*Config, error) {
	logger := logging.GetLogger("config")

	base, err := parseBytes(defaultConfig, toml.Parser())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to load defaults")
	}

	path, err := findConfigFile(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		tempK := koanf.New(".")
		if err := tempK.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigInvalid, "failed to load config from %s", path)
		}
		mergeMaps(base, tempK.Raw())
		logger.Debug().Str("file", path).Msg("Loaded project configuration")
	}

	envK := koanf.New(".")
	if err := envK.Load(envProvider(opts.Environ), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigInvalid, "failed to load env vars")
	}
	mergeMaps(base, envK.Raw())

	if len(opts.Overrides) > 0 {
		flagK := koanf.New(".")
		if err := flagK.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigInvalid, "failed to load overrides")
		}
		mergeMaps(base, flagK.Raw())
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(base, "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to load merged config")
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigInvalid, "failed to unmarshal configuration")
	}
	cfg.File = path

	return &cfg, nil
}

func findConfigFile(opts LoadOptions) (string, error) {
	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return "", errors.Newf(errors.ErrConfigInvalid, "configuration file not found: %s", opts.File)
		}
		return opts.File, nil
	}

	dir := opts.ProjectDir
	if dir == "" {
		dir = "."
	}
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

func parseBytes(data []byte, parser koanf.Parser) (map[string]interface{}, error) {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: data}, parser); err != nil {
		return nil, err
	}
	return k.Raw(), nil
}

// envKey maps DISTBUILD_COMPILE__ENABLED to compile.enabled.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func envProvider(environ []string) koanf.Provider {
	if environ == nil {
		return env.Provider(EnvPrefix, ".", envKey)
	}

	values := make(map[string]interface{})
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		values[envKey(key)] = value
	}
	return confmap.Provider(values, ".")
}

// appendKeys name the lists that accumulate across layers: match lists,
// rule files, extra files and hooks. Any other list, such as
// compile.command, is replaced by the later layer.
var appendKeys = map[string]bool{
	"files":      true,
	"files_from": true,
	"keep":       true,
	"sources":    true,
	"extra":      true,
	"pre_build":  true,
	"post_build": true,
}

// mergeMaps merges src into dest. Nested tables merge key by key, lists named
// in appendKeys are appended and anything else is overwritten.
func mergeMaps(dest, src map[string]interface{}) {
	for key, srcVal := range src {
		destVal, destOk := dest[key]
		if !destOk {
			dest[key] = srcVal
			continue
		}

		// Merge maps
		if srcMap, srcOk := srcVal.(map[string]interface{}); srcOk {
			if destMap, destOk := destVal.(map[string]interface{}); destOk {
				mergeMaps(destMap, srcMap)
				continue
			}
		}

		// Append match lists
		if appendKeys[key] && isSlice(srcVal) && isSlice(destVal) {
			dest[key] = appendSlices(destVal, srcVal)
			continue
		}

		// Otherwise, overwrite
		dest[key] = srcVal
	}
}

func isSlice(v interface{}) bool {
	switch v.(type) {
	case []interface{}, []string, []map[string]interface{}:
		return true
	default:
		return false
	}
}

func appendSlices(dest, src interface{}) interface{} {
	destSlice := toInterfaceSlice(dest)
	srcSlice := toInterfaceSlice(src)
	out := make([]interface{}, 0, len(destSlice)+len(srcSlice))
	out = append(out, destSlice...)
	return append(out, srcSlice...)
}

func toInterfaceSlice(v interface{}) []interface{} {
	switch s := v.(type) {
	case []interface{}:
		return s
	case []string:
		result := make([]interface{}, len(s))
		for i, v := range s {
			result[i] = v
		}
		return result
	case []map[string]interface{}:
		result := make([]interface{}, len(s))
		for i, v := range s {
			result[i] = v
		}
		return result
	default:
		return []interface{}{}
	}
}
