// Package kernel holds the parsed models of the three kernel build
// description languages: the kernel configuration file, the option routing
// table and the file manifest.
package kernel

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownDirective = errors.New("unknown directive")
	ErrDuplicateMachine = errors.New("only one machine directive may be provided")
)

// Option is one configured kernel option. A nil-equivalent value is
// represented by the empty string with HasValue false.
type Option struct {
	Name     string
	Value    string
	HasValue bool
}

// Config is the merged kernel configuration, built by streaming the DEFAULTS
// file and then the user's configuration file through ParseData. It is
// read-only once both files have been consumed.
type Config struct {
	// Filename is the path of the user's configuration file, recorded so
	// the generated build file can depend on it.
	Filename string

	Machine     string
	Ident       string
	CPU         []string
	Devices     []string
	MakeOptions []string

	options   []Option
	optionIdx map[string]int
	deviceSet map[string]bool
}

func NewConfig() *Config {
	cfg := &Config{
		optionIdx: make(map[string]int),
		deviceSet: make(map[string]bool),
	}
	cfg.SetOption("MAXUSERS", "0")
	return cfg
}

// Options returns the configured options in insertion order.
func (cfg *Config) Options() []Option {
	return cfg.options
}

func (cfg *Config) SetOption(name, value string) {
	if i, ok := cfg.optionIdx[name]; ok {
		cfg.options[i] = Option{Name: name, Value: value, HasValue: true}
		return
	}
	cfg.optionIdx[name] = len(cfg.options)
	cfg.options = append(cfg.options, Option{Name: name, Value: value, HasValue: true})
}

func (cfg *Config) setBoolOption(name string) {
	if i, ok := cfg.optionIdx[name]; ok {
		cfg.options[i] = Option{Name: name}
		return
	}
	cfg.optionIdx[name] = len(cfg.options)
	cfg.options = append(cfg.options, Option{Name: name})
}

// OptionSet reports whether name is satisfied by the configuration: either
// its upper-cased form is a configured option or its lower-cased form is a
// configured device.
func (cfg *Config) OptionSet(name string) bool {
	if _, ok := cfg.optionIdx[strings.ToUpper(name)]; ok {
		return true
	}
	return cfg.deviceSet[strings.ToLower(name)]
}

// configDirectives maps directive keywords to handlers. An explicit table
// rather than reflection so an unknown keyword is a typed error.
var configDirectives = map[string]func(*Config, string) error{
	"machine":     (*Config).directiveMachine,
	"cpu":         (*Config).directiveCPU,
	"ident":       (*Config).directiveIdent,
	"makeoptions": (*Config).directiveMakeOptions,
	"options":     (*Config).directiveOptions,
	"device":      (*Config).directiveDevice,
}

// ParseData streams one configuration file's text through the directive
// table. Comments run from # to end of line.
func (cfg *Config) ParseData(data string) error {
	for _, line := range strings.Split(data, "\n") {
		if i := strings.IndexByte(line, '#'); i != -1 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		directive, value, ok := strings.Cut(line, " ")
		if !ok {
			directive, value, _ = strings.Cut(line, "\t")
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return fmt.Errorf("missing value for directive %q", directive)
		}

		handler, ok := configDirectives[directive]
		if !ok {
			return fmt.Errorf("%w in kernel configuration: %s", ErrUnknownDirective, directive)
		}
		if err := handler(cfg, value); err != nil {
			return err
		}
	}

	return nil
}

func (cfg *Config) directiveMachine(value string) error {
	if cfg.Machine != "" {
		return ErrDuplicateMachine
	}
	cfg.Machine = value
	return nil
}

func (cfg *Config) directiveCPU(value string) error {
	cfg.CPU = append(cfg.CPU, value)
	return nil
}

func (cfg *Config) directiveIdent(value string) error {
	cfg.Ident = value
	return nil
}

func (cfg *Config) directiveMakeOptions(value string) error {
	cfg.MakeOptions = append(cfg.MakeOptions, value)
	return nil
}

func (cfg *Config) directiveOptions(value string) error {
	if name, v, ok := strings.Cut(value, "="); ok {
		cfg.SetOption(name, v)
	} else {
		cfg.setBoolOption(value)
	}
	return nil
}

func (cfg *Config) directiveDevice(value string) error {
	cfg.SetOption("DEV_"+strings.ToUpper(value), "1")
	if !cfg.deviceSet[value] {
		cfg.deviceSet[value] = true
		cfg.Devices = append(cfg.Devices, value)
	}
	return nil
}
