// Package config loads docsplit settings from defaults, an optional YAML
// file and DOCSPLIT_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/noodnik2/docsplit/textsplitter"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DOCSPLIT_"

// Separator kinds accepted in configuration.
const (
	KindLiteral = "literal"
	KindPattern = "pattern"
)

// Config is the top level docsplit configuration.
type Config struct {
	Splitter SplitterConfig `koanf:"splitter"`
	Log      LogConfig      `koanf:"log"`
}

// SplitterConfig mirrors textsplitter.Options.
type SplitterConfig struct {
	ChunkSize       int         `koanf:"chunk_size"       validate:"gt=0"`
	ChunkOverlap    int         `koanf:"chunk_overlap"    validate:"gte=0,ltfield=ChunkSize"`
	Separators      []Separator `koanf:"separators"       validate:"dive"`
	KeepSeparator   bool        `koanf:"keep_separator"`
	StripWhitespace bool        `koanf:"strip_whitespace"`
	AddStartIndex   bool        `koanf:"add_start_index"`
	// Length is "chars" or a tiktoken encoding/model name.
	Length string `koanf:"length" validate:"required"`
}

// Separator is a configured split boundary.
type Separator struct {
	Kind  string `koanf:"kind"  yaml:"kind"  validate:"oneof=literal pattern"`
	Value string `koanf:"value" yaml:"value"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error disabled"`
	JSON  bool   `koanf:"json"`
}

// LengthChars measures chunks in characters.
const LengthChars = "chars"

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Splitter: SplitterConfig{
			ChunkSize:    800,
			ChunkOverlap: 100,
			Separators: []Separator{
				{Kind: KindLiteral, Value: "\n\n"},
				{Kind: KindLiteral, Value: "\n"},
				{Kind: KindLiteral, Value: " "},
				{Kind: KindLiteral, Value: ""},
			},
			KeepSeparator:   true,
			StripWhitespace: true,
			Length:          LengthChars,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration. path may be empty; a missing file is an
// error when a path is given.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		if err := k.Load(rawMap(raw), nil); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnv,
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// transformEnv maps DOCSPLIT_SPLITTER_CHUNK_SIZE to splitter.chunk_size.
// Only the first underscore after the prefix separates sections.
func transformEnv(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, field, ok := strings.Cut(key, "_")
	if !ok {
		return key, value
	}
	return section + "." + field, value
}

var validate = validator.New()

// Validate checks struct constraints.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: configuration cannot be nil")
	}
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	return nil
}

// SplitterOptions converts the splitter section into textsplitter options.
func (c *Config) SplitterOptions(logger textsplitter.Logger) (textsplitter.Options, error) {
	options := textsplitter.DefaultOptions()
	options.ChunkSize = c.Splitter.ChunkSize
	options.ChunkOverlap = c.Splitter.ChunkOverlap
	options.KeepSeparator = c.Splitter.KeepSeparator
	options.StripWhitespace = c.Splitter.StripWhitespace
	options.AddStartIndex = c.Splitter.AddStartIndex
	if logger != nil {
		options.Logger = logger
	}

	options.Separators = make([]textsplitter.Separator, 0, len(c.Splitter.Separators))
	for _, sep := range c.Splitter.Separators {
		switch sep.Kind {
		case KindPattern:
			compiled, err := textsplitter.CompilePattern(sep.Value)
			if err != nil {
				return textsplitter.Options{}, fmt.Errorf("config: %w", err)
			}
			options.Separators = append(options.Separators, compiled)
		default:
			options.Separators = append(options.Separators, textsplitter.Literal(sep.Value))
		}
	}

	if length := c.Splitter.Length; length != "" && length != LengthChars {
		lenFunc, err := textsplitter.TokenLenFunc(length)
		if err != nil {
			return textsplitter.Options{}, fmt.Errorf("config: %w", err)
		}
		options.LenFunc = lenFunc
	}

	return options, options.Validate()
}

// rawMap is a koanf.Provider adapter for map[string]any data.
type rawMap map[string]any

func (r rawMap) Read() (map[string]any, error) {
	return r, nil
}

func (r rawMap) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("ReadBytes not implemented")
}
