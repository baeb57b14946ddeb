package web

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/mogaika/xobjconv/config"
	"github.com/mogaika/xobjconv/gltfsrc"
	"github.com/mogaika/xobjconv/obj8"
	"github.com/mogaika/xobjconv/utils/gltfutils"
	"github.com/mogaika/xobjconv/webutils"
	"github.com/mogaika/xobjconv/xobj"
)

// requestOptions returns server options, form value "options"
// (comma separated names) replaces them
func (s *Server) requestOptions(r *http.Request) (config.Options, error) {
	raw := r.FormValue("options")
	if raw == "" {
		return s.options, nil
	}
	return config.ParseOptions(strings.Split(raw, ","))
}

func (s *Server) HandlerExport(w http.ResponseWriter, r *http.Request) {
	data, name, err := webutils.ReadFormFile(r, "model")
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	options, err := s.requestOptions(r)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	doc, err := gltfutils.Decode(data)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	sc, err := gltfsrc.Load(doc, s.logger)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	var out bytes.Buffer
	stats, err := xobj.ExportTo(r.Context(), sc, &out, xobj.ExportParams{
		Root:      s.settings.Root(),
		Options:   options,
		Tables:    s.tables,
		Signature: s.settings.Signature,
		Logger:    s.logger,
	})
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	s.logger.Info("Exported", "file", name, "lods", stats.LODs, "meshes", stats.Meshes)

	webutils.WriteFile(w, &out, strings.TrimSuffix(name, filepath.Ext(name))+".obj")
}

type importResult struct {
	File    string        `json:"file"`
	Summary *xobj.Summary `json:"summary"`
	Stats   *obj8.Stats   `json:"stats"`
}

func (s *Server) HandlerImport(w http.ResponseWriter, r *http.Request) {
	data, name, err := webutils.ReadFormFile(r, "obj")
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	sc, stats, err := xobj.ImportFrom(r.Context(), bytes.NewReader(data), xobj.ImportParams{
		Root:   s.settings.Root(),
		Tables: s.tables,
		Logger: s.logger,
	})
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, &importResult{File: name, Summary: xobj.Summarize(sc), Stats: stats})
}

func (s *Server) HandlerOptions(w http.ResponseWriter, r *http.Request) {
	webutils.WriteJson(w, map[string]interface{}{
		"options":   config.OptionNames(),
		"enabled":   s.options.Names(),
		"encodings": config.ListEncodings(),
	})
}
