package obj8

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/xobjconv/scene"
)

// Record is one non empty line of file split into fields.
// Comment is text of comment lines directly preceding the record,
// Trailing is comment at the end of record line, starting with '#'.
type Record struct {
	Line     int
	Fields   []string
	Comment  string
	Trailing string

	err error
}

func (r *Record) Keyword() string {
	if len(r.Fields) == 0 {
		return ""
	}
	return r.Fields[0]
}

func (r *Record) fail(format string, args ...interface{}) {
	if r.err == nil {
		r.err = scene.Structuralf(fmt.Sprintf("line %d", r.Line), "%s: %s", r.Keyword(), fmt.Sprintf(format, args...))
	}
}

func (r *Record) field(i int) (string, bool) {
	if i >= len(r.Fields) {
		r.fail("missing field %d", i)
		return "", false
	}
	return r.Fields[i], true
}

// Has reports whether field i is present
func (r *Record) Has(i int) bool { return i < len(r.Fields) }

func (r *Record) String(i int) string {
	s, _ := r.field(i)
	return s
}

func (r *Record) Float(i int) float32 {
	s, ok := r.field(i)
	if !ok {
		return 0
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		r.fail("field %d is not a number: %q", i, s)
		return 0
	}
	return float32(v)
}

func (r *Record) Uint(i int) uint32 {
	s, ok := r.field(i)
	if !ok {
		return 0
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		r.fail("field %d is not an index: %q", i, s)
		return 0
	}
	return uint32(v)
}

func (r *Record) Vec3(i int) mgl32.Vec3 {
	return mgl32.Vec3{r.Float(i), r.Float(i + 1), r.Float(i + 2)}
}

func (r *Record) Vec4(i int) mgl32.Vec4 {
	return mgl32.Vec4{r.Float(i), r.Float(i + 1), r.Float(i + 2), r.Float(i + 3)}
}

// Rest joins fields starting from i, empty if there are none
func (r *Record) Rest(i int) string {
	if i >= len(r.Fields) {
		return ""
	}
	return strings.Join(r.Fields[i:], " ")
}

// Text is Rest with trailing comment kept, for free text like tooltips
func (r *Record) Text(i int) string {
	rest := r.Rest(i)
	switch {
	case r.Trailing == "":
		return rest
	case rest == "":
		return r.Trailing
	}
	return rest + " " + r.Trailing
}

// Err returns first field conversion error
func (r *Record) Err() error { return r.err }
