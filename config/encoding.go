package config

import (
	"io"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// nil means utf-8, text is passed as is
var currentCharMap *charmap.Charmap

// SetEncoding selects charmap for text of object files, empty name resets to utf-8.
// Called once on startup, before any conversion.
func SetEncoding(name string) error {
	if name == "" || name == "utf-8" || name == "UTF-8" {
		currentCharMap = nil
		return nil
	}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			if cm.String() == name {
				currentCharMap = cm
				return nil
			}
		}
	}
	return errors.Errorf("Failed to find encoding %q", name)
}

func ListEncodings() []string {
	list := []string{"utf-8"}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}

func GetEncoding() *charmap.Charmap {
	return currentCharMap
}

func DecodingReader(r io.Reader) io.Reader {
	if cm := currentCharMap; cm != nil {
		return transform.NewReader(r, cm.NewDecoder())
	}
	return r
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// EncodingWriter must be closed to flush tail of transformed text
func EncodingWriter(w io.Writer) io.WriteCloser {
	if cm := currentCharMap; cm != nil {
		return transform.NewWriter(w, cm.NewEncoder())
	}
	return nopWriteCloser{w}
}
