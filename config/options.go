package config

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Option is one bit of export options set
type Option uint64

const (
	// OptMarkMesh writes comment with object name before every object
	OptMarkMesh Option = 1 << iota
	// OptMarkTransform writes comment with node name before animation block
	OptMarkTransform
	OptMarkLOD
	// OptDebug enables debug level logging of pass
	OptDebug
	OptSignature
	OptSkipTrailer
)

var optionNames = map[string]Option{
	"mark_mesh":      OptMarkMesh,
	"mark_transform": OptMarkTransform,
	"mark_lod":       OptMarkLOD,
	"debug":          OptDebug,
	"signature":      OptSignature,
	"skip_trailer":   OptSkipTrailer,
}

// Options is open 64 bit flag set. Bits without name are kept as is.
type Options struct {
	bits uint64
}

func OptionsFromRaw(raw uint64) Options {
	return Options{bits: raw}
}

func (o Options) Raw() uint64 { return o.bits }

func (o *Options) Enable(opt Option) { o.bits |= uint64(opt) }

func (o *Options) Disable(opt Option) { o.bits &^= uint64(opt) }

func (o Options) IsEnabled(opt Option) bool {
	return opt != 0 && o.bits&uint64(opt) == uint64(opt)
}

// Names returns names of enabled known options
func (o Options) Names() []string {
	names := make([]string, 0)
	for name, opt := range optionNames {
		if o.IsEnabled(opt) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func ParseOption(name string) (Option, error) {
	if opt, ok := optionNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return opt, nil
	}
	return 0, errors.Errorf("Unknown option %q", name)
}

// ParseOptions enables every named option
func ParseOptions(names []string) (Options, error) {
	var o Options
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		opt, err := ParseOption(name)
		if err != nil {
			return o, err
		}
		o.Enable(opt)
	}
	return o, nil
}

func OptionNames() []string {
	names := make([]string, 0, len(optionNames))
	for name := range optionNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
