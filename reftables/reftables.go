// Package reftables loads id tables used to resolve symbolic
// dataref and command references like "@42".
package reftables

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/mogaika/xobjconv/scene"
)

// Load parses table "id<space or tab>value" line by line and calls fn for every entry.
// Blank lines and lines started with '#' are skipped.
func Load(r io.Reader, fn func(line int, id uint64, value string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return errors.Errorf("Line %d: expected id and value, got %q", line, text)
		}
		id, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return errors.Wrapf(err, "Line %d: invalid id %q", line, fields[0])
		}
		fn(line, id, fields[1])
	}
	return errors.Wrapf(sc.Err(), "Failed to read table")
}

type Table struct {
	Name   string
	values map[uint64]string
}

func NewTable(name string) *Table {
	return &Table{Name: name, values: make(map[uint64]string)}
}

// ReadTable loads table, duplicated ids are reported as warnings and last one wins
func ReadTable(name string, r io.Reader, logger *log.Logger) (*Table, error) {
	t := NewTable(name)
	err := Load(r, func(line int, id uint64, value string) {
		if prev, ok := t.values[id]; ok && logger != nil {
			logger.Warn("Duplicated id in table", "table", name, "line", line, "id", id, "was", prev, "now", value)
		}
		t.values[id] = value
	})
	if err != nil {
		return nil, errors.Wrapf(err, "Table %q", name)
	}
	return t, nil
}

func OpenTable(path string, logger *log.Logger) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &scene.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()
	return ReadTable(path, f, logger)
}

func (t *Table) Set(id uint64, value string) { t.values[id] = value }

func (t *Table) Get(id uint64) (string, bool) {
	if t == nil {
		return "", false
	}
	v, ok := t.values[id]
	return v, ok
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.values)
}

// Tables are optional, nil Tables or nil table resolves nothing
type Tables struct {
	Datarefs *Table
	Commands *Table
}

// SymbolicId parses "@<id>" reference
func SymbolicId(s string) (uint64, bool) {
	if len(s) < 2 || s[0] != '@' {
		return 0, false
	}
	id, err := strconv.ParseUint(s[1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (ts *Tables) ResolveDataref(s string, logger *log.Logger) string {
	if ts == nil {
		return resolve(nil, s, logger)
	}
	return resolve(ts.Datarefs, s, logger)
}

func (ts *Tables) ResolveCommand(s string, logger *log.Logger) string {
	if ts == nil {
		return resolve(nil, s, logger)
	}
	return resolve(ts.Commands, s, logger)
}

func resolve(t *Table, s string, logger *log.Logger) string {
	id, ok := SymbolicId(s)
	if !ok {
		return s
	}
	if v, ok := t.Get(id); ok {
		return v
	}
	if logger != nil {
		logger.Warn("Can't resolve symbolic reference", "ref", s)
	}
	return s
}

// OpenTables loads both tables, empty path leaves table nil.
// Returns nil when both paths are empty.
func OpenTables(datarefPath, commandPath string, logger *log.Logger) (*Tables, error) {
	if datarefPath == "" && commandPath == "" {
		return nil, nil
	}
	ts := &Tables{}
	var err error
	if datarefPath != "" {
		if ts.Datarefs, err = OpenTable(datarefPath, logger); err != nil {
			return nil, err
		}
	}
	if commandPath != "" {
		if ts.Commands, err = OpenTable(commandPath, logger); err != nil {
			return nil, err
		}
	}
	return ts, nil
}
