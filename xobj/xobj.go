// Package xobj converts scenes to X-Plane object files and back.
package xobj

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/xobjconv/config"
	"github.com/mogaika/xobjconv/correction"
	"github.com/mogaika/xobjconv/lods"
	"github.com/mogaika/xobjconv/obj8"
	"github.com/mogaika/xobjconv/reftables"
	"github.com/mogaika/xobjconv/scene"
	"github.com/mogaika/xobjconv/utils"
)

type ExportParams struct {
	// Root correction matrix, zero matrix means identity
	Root      mgl32.Mat4
	Options   config.Options
	Tables    *reftables.Tables
	Signature string
	Logger    *log.Logger
}

type ImportParams struct {
	Root   mgl32.Mat4
	Tables *reftables.Tables
	Logger *log.Logger
}

func rootOrIdentity(m mgl32.Mat4) mgl32.Mat4 {
	if m == (mgl32.Mat4{}) {
		return mgl32.Ident4()
	}
	return m
}

func passLogger(l *log.Logger, pass string, debug bool) *log.Logger {
	logger := utils.LoggerOr(l).With("pass", pass)
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func groups(sc *scene.Scene) []*scene.LODGroup {
	gs := append([]*scene.LODGroup(nil), sc.LODs...)
	if sc.Draped != nil {
		gs = append(gs, sc.Draped)
	}
	return gs
}

// render runs whole export pipeline and returns file text.
// Scene is modified in place and can't be exported again.
func render(ctx context.Context, sc *scene.Scene, params ExportParams) ([]byte, *obj8.Stats, error) {
	logger := passLogger(params.Logger, "export", params.Options.IsEnabled(config.OptDebug))

	if err := lods.Prepare(ctx, sc, logger); err != nil {
		return nil, nil, err
	}

	root := rootOrIdentity(params.Root)
	for _, g := range groups(sc) {
		if err := correction.Export(ctx, sc, g.Root, root); err != nil {
			return nil, nil, err
		}
	}

	stats := &obj8.Stats{}
	w := obj8.NewWriter(sc, obj8.WriterParams{
		Options:   params.Options,
		Tables:    params.Tables,
		Signature: params.Signature,
		Logger:    logger,
		Stats:     stats,
	})
	if err := w.Collect(ctx); err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	if err := w.WriteTo(ctx, &buf); err != nil {
		return nil, nil, err
	}
	logger.Debug("Export done", "lods", stats.LODs, "meshes", stats.Meshes, "lines", stats.LinesWritten)
	return buf.Bytes(), stats, nil
}

// ExportTo writes scene into w. Nothing is written if scene is invalid.
func ExportTo(ctx context.Context, sc *scene.Scene, w io.Writer, params ExportParams) (*obj8.Stats, error) {
	data, stats, err := render(ctx, sc, params)
	if err != nil {
		return nil, err
	}
	ew := config.EncodingWriter(w)
	if _, err := ew.Write(data); err != nil {
		ew.Close()
		return nil, errors.Wrapf(err, "Failed to write")
	}
	if err := ew.Close(); err != nil {
		return nil, errors.Wrapf(err, "Failed to flush")
	}
	return stats, nil
}

// Export writes scene into file at path. File is created only
// after scene passed validation.
func Export(ctx context.Context, sc *scene.Scene, path string, params ExportParams) (*obj8.Stats, error) {
	data, stats, err := render(ctx, sc, params)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, &scene.IOError{Op: "create", Path: path, Err: err}
	}
	ew := config.EncodingWriter(f)
	_, err = ew.Write(data)
	if cerr := ew.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, &scene.IOError{Op: "write", Path: path, Err: err}
	}
	return stats, nil
}

// ImportFrom reads object file from r
func ImportFrom(ctx context.Context, r io.Reader, params ImportParams) (*scene.Scene, *obj8.Stats, error) {
	text, err := io.ReadAll(config.DecodingReader(r))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Failed to read")
	}
	return importText(ctx, text, params)
}

// Import reads object file at path
func Import(ctx context.Context, path string, params ImportParams) (*scene.Scene, *obj8.Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &scene.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	text, err := io.ReadAll(config.DecodingReader(f))
	if err != nil {
		return nil, nil, &scene.IOError{Op: "read", Path: path, Err: err}
	}
	return importText(ctx, text, params)
}

func importText(ctx context.Context, text []byte, params ImportParams) (*scene.Scene, *obj8.Stats, error) {
	logger := passLogger(params.Logger, "import", false)

	stats := &obj8.Stats{}
	sc, err := obj8.Read(ctx, text, obj8.ReaderParams{Tables: params.Tables, Logger: logger, Stats: stats})
	if err != nil {
		return nil, nil, err
	}

	root := rootOrIdentity(params.Root)
	for _, g := range groups(sc) {
		if err := correction.Import(ctx, sc, g.Root, root); err != nil {
			return nil, nil, err
		}
	}
	return sc, stats, nil
}
