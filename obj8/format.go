// Package obj8 reads and writes X-Plane OBJ8 text files.
package obj8

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Version is written into trailer of exported files
const Version = "1.0.0"

const (
	headerVersion = "800"
	headerKind    = "OBJ"
	trailerPrefix = "# Exported with xobjconv "
	signaturePfx  = "## "

	// indices per IDX10 line
	idxPerLine = 10
)

// FormatFloat returns shortest text which reads back into same float32.
// Negative zero is printed as 0.
func FormatFloat(v float32) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}

// LineWriter writes records of whitespace separated fields.
// First write error is kept and all following writes are ignored.
type LineWriter struct {
	w     *bufio.Writer
	lines int
	err   error
}

func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: bufio.NewWriter(w)}
}

func (lw *LineWriter) writeString(s string) {
	if lw.err != nil {
		return
	}
	_, lw.err = lw.w.WriteString(s)
}

// Line writes one record. Fields are formatted by type:
// float32 and vectors with FormatFloat, integers in decimal, strings as is.
func (lw *LineWriter) Line(fields ...interface{}) {
	var sb strings.Builder
	first := true
	add := func(s string) {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		sb.WriteString(s)
	}
	for _, f := range fields {
		switch v := f.(type) {
		case string:
			add(v)
		case float32:
			add(FormatFloat(v))
		case int:
			add(strconv.Itoa(v))
		case uint32:
			add(strconv.FormatUint(uint64(v), 10))
		case mgl32.Vec2:
			add(FormatFloat(v[0]))
			add(FormatFloat(v[1]))
		case mgl32.Vec3:
			for _, c := range v {
				add(FormatFloat(c))
			}
		case mgl32.Vec4:
			for _, c := range v {
				add(FormatFloat(c))
			}
		default:
			panic("obj8: unsupported field type")
		}
	}
	sb.WriteByte('\n')
	lw.writeString(sb.String())
	lw.lines++
}

func (lw *LineWriter) Comment(text string) {
	lw.writeString("# " + singleLine(text) + "\n")
	lw.lines++
}

func (lw *LineWriter) Blank() {
	lw.writeString("\n")
	lw.lines++
}

func (lw *LineWriter) Lines() int { return lw.lines }

// Flush writes buffered data and returns first error
func (lw *LineWriter) Flush() error {
	if lw.err != nil {
		return lw.err
	}
	lw.err = lw.w.Flush()
	return lw.err
}

// singleLine makes free text safe to be used as last field of record
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
