package gltfutils

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

func NewDocument() *gltf.Document {
	return gltf.NewDocument()
}

// ExportBinary writes doc as glb, used to build uploads and fixtures
func ExportBinary(w io.Writer, doc *gltf.Document) error {
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return errors.Wrapf(encoder.Encode(doc), "Failed to encode gltf")
}

// Decode reads self-contained gltf or glb document from memory.
// External buffers can't be resolved and produce error.
func Decode(data []byte) (*gltf.Document, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, errors.Wrapf(err, "Failed to decode gltf")
	}
	return doc, nil
}
