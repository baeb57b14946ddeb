package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Settings is content of conversion settings file (yaml or toml)
type Settings struct {
	Options      []string  `yaml:"options" toml:"options"`
	Signature    string    `yaml:"signature" toml:"signature"`
	Encoding     string    `yaml:"encoding" toml:"encoding"`
	DatarefTable string    `yaml:"dataref_table" toml:"dataref_table"`
	CommandTable string    `yaml:"command_table" toml:"command_table"`
	RootMatrix   []float32 `yaml:"root_matrix" toml:"root_matrix"`
	// RootRotateX is shortcut for y-up to z-up style corrections, degrees
	RootRotateX float32 `yaml:"root_rotate_x" toml:"root_rotate_x"`
}

func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read settings")
	}
	s := &Settings{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, s)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(data, s)
	default:
		return nil, errors.Errorf("Unknown settings format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to parse settings %q", path)
	}
	if len(s.RootMatrix) != 0 && len(s.RootMatrix) != 16 {
		return nil, errors.Errorf("root_matrix must have 16 values, got %d", len(s.RootMatrix))
	}
	return s, nil
}

func (s *Settings) ExportOptions() (Options, error) {
	return ParseOptions(s.Options)
}

// Root returns root correction matrix, column-major
func (s *Settings) Root() mgl32.Mat4 {
	m := mgl32.Ident4()
	if len(s.RootMatrix) == 16 {
		copy(m[:], s.RootMatrix)
	}
	if s.RootRotateX != 0 {
		m = mgl32.HomogRotate3DX(mgl32.DegToRad(s.RootRotateX)).Mul4(m)
	}
	return m
}
