// Package config holds the extraction engine's external interface: every
// configurable option and its default, loaded from a YAML project config
// file with defaults applied first and the file unmarshaled on top.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// HookEntry is one entry of UseTranslationNames: either a bare hook name
// (defaulting nsArg=0, keyPrefixArg=1) or the full record form.
type HookEntry struct {
	Name         string
	NSArg        int
	KeyPrefixArg int
}

// UnmarshalYAML accepts both the bare-name scalar form (`useTranslation`)
// and the record form (`{name: useTranslation, nsArg: 0, keyPrefixArg: 1}`).
func (h *HookEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		h.Name = value.Value
		h.NSArg = 0
		h.KeyPrefixArg = 1
		return nil
	}

	var record struct {
		Name         string `yaml:"name"`
		NSArg        *int   `yaml:"nsArg"`
		KeyPrefixArg *int   `yaml:"keyPrefixArg"`
	}
	if err := value.Decode(&record); err != nil {
		return err
	}
	h.Name = record.Name
	h.NSArg = 0
	if record.NSArg != nil {
		h.NSArg = *record.NSArg
	}
	h.KeyPrefixArg = 1
	if record.KeyPrefixArg != nil {
		h.KeyPrefixArg = *record.KeyPrefixArg
	}
	return nil
}

// StringOrFalse models an option that is either a configured string or the
// literal YAML `false`, disabling the feature entirely: used by
// `defaultNS`, `nsSeparator`, and `keySeparator`, where `false` means
// "disabled" or "flat keys" rather than an empty string.
type StringOrFalse struct {
	Value    string
	Disabled bool
}

// UnmarshalYAML reads either a scalar string or the boolean `false`.
func (s *StringOrFalse) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!bool" {
		var b bool
		if err := value.Decode(&b); err != nil {
			return err
		}
		s.Disabled = !b
		if b {
			// `true` is not a meaningful value for these options; treat as
			// "use the default", i.e. leave Value as it was and not disabled.
			s.Disabled = false
		}
		return nil
	}
	var str string
	if err := value.Decode(&str); err != nil {
		return err
	}
	s.Value = str
	s.Disabled = false
	return nil
}

// Config carries every extraction option the engine accepts.
type Config struct {
	Functions                  []string       `yaml:"functions"`
	UseTranslationNames        []HookEntry    `yaml:"useTranslationNames"`
	TransComponents             []string      `yaml:"transComponents"`
	TransKeepBasicHtmlNodesFor  []string      `yaml:"transKeepBasicHtmlNodesFor"`
	DefaultNS                  StringOrFalse  `yaml:"defaultNS"`
	NSSeparator                StringOrFalse  `yaml:"nsSeparator"`
	KeySeparator                StringOrFalse `yaml:"keySeparator"`
	ContextSeparator            string        `yaml:"contextSeparator"`
	PluralSeparator             string        `yaml:"pluralSeparator"`
	NestingPrefix               string        `yaml:"nestingPrefix"`
	NestingSuffix               string        `yaml:"nestingSuffix"`
	NestingOptionsSeparator     string        `yaml:"nestingOptionsSeparator"`
	InterpolationPrefix         string        `yaml:"interpolationPrefix"`
	InterpolationSuffix         string        `yaml:"interpolationSuffix"`
	Locales                     []string      `yaml:"locales"`
	PrimaryLanguage              string       `yaml:"primaryLanguage"`
	GenerateBasePluralForms      bool         `yaml:"generateBasePluralForms"`
	DisablePlurals               bool         `yaml:"disablePlurals"`
	PreservePatterns             []string     `yaml:"preservePatterns"`
}

// Defaults returns the zero-config engine default, matching i18next's own
// out-of-the-box behavior.
func Defaults() *Config {
	return &Config{
		Functions:                 []string{"t", "*.t"},
		UseTranslationNames:       []HookEntry{{Name: "useTranslation", NSArg: 0, KeyPrefixArg: 1}},
		TransComponents:           []string{"Trans"},
		TransKeepBasicHtmlNodesFor: []string{"br", "strong", "i", "p"},
		DefaultNS:                 StringOrFalse{Value: "translation"},
		NSSeparator:               StringOrFalse{Value: ":"},
		KeySeparator:              StringOrFalse{Value: "."},
		ContextSeparator:          "_",
		PluralSeparator:           "_",
		NestingPrefix:             "$t(",
		NestingSuffix:             ")",
		NestingOptionsSeparator:   ",",
		InterpolationPrefix:       "{{",
		InterpolationSuffix:      "}}",
		Locales:                   []string{"en"},
		PrimaryLanguage:           "en",
		GenerateBasePluralForms:   true,
		DisablePlurals:            false,
	}
}

// Load reads and parses a YAML config file at path, applying Defaults()
// first so any field the file omits keeps its default value.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MatchesFunctionName reports whether name matches one of patterns, where
// each pattern is either an exact function name or a `*.suffix` wildcard,
// as used by the `functions` config option to recognize a call site.
func MatchesFunctionName(patterns []string, name string) bool {
	for _, p := range patterns {
		if strings.HasPrefix(p, "*.") {
			suffix := strings.TrimPrefix(p, "*")
			if strings.HasSuffix(name, suffix) {
				return true
			}
			continue
		}
		if p == name {
			return true
		}
	}
	return false
}
