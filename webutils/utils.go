package webutils

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/mogaika/xobjconv/scene"
)

// MaxUploadSize limits multipart uploads kept in memory
const MaxUploadSize = 64 << 20

func WriteFileHeaders(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
}

func WriteFile(w http.ResponseWriter, in io.Reader, name string) {
	WriteFileHeaders(w, name)
	if _, err := io.Copy(w, in); err != nil {
		log.Error("Error when writing file response", "file", name, "err", err)
	}
}

func WriteJson(w http.ResponseWriter, data interface{}) {
	res, err := json.Marshal(data)
	if err != nil {
		WriteError(w, err)
	} else {
		w.Header().Set("Content-Type", "application/json")
		WriteResult(w, res)
	}
}

// ReadFormFile returns content and name of uploaded file
func ReadFormFile(r *http.Request, formFileKey string) ([]byte, string, error) {
	if strings.ToUpper(r.Method) != "POST" {
		return nil, "", errors.Errorf("Invalid http method %q", r.Method)
	}
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		return nil, "", errors.Wrapf(err, "Failed to parse form")
	}

	f, header, err := r.FormFile(formFileKey)
	if err != nil {
		return nil, "", errors.Wrapf(err, "Failed to get file %q", formFileKey)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", errors.Wrapf(err, "Failed to read")
	}
	return data, header.Filename, nil
}

func WriteResult(w http.ResponseWriter, data []byte) {
	_, err := w.Write(data)
	if err != nil {
		log.Error("Error when writing response", "err", err)
	}
}

// ErrorStatus maps conversion errors to http status
func ErrorStatus(err error) int {
	switch {
	case scene.IsStructural(err):
		return http.StatusUnprocessableEntity
	case scene.IsInterrupted(err):
		return http.StatusServiceUnavailable
	case scene.IsIO(err):
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

func WriteError(w http.ResponseWriter, err error) {
	type jError struct {
		Error string `json:"error"`
	}
	data, merr := json.Marshal(&jError{Error: err.Error()})
	if merr != nil {
		log.Error("Error marshaling error", "err", err, "marshal", merr)
		return
	}
	log.Warn("[web] request failed", "err", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ErrorStatus(err))
	WriteResult(w, data)
}
