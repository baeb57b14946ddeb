// Package web serves conversions over http
package web

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mogaika/xobjconv/config"
	"github.com/mogaika/xobjconv/reftables"
	"github.com/mogaika/xobjconv/utils"
)

type Server struct {
	settings *config.Settings
	options  config.Options
	tables   *reftables.Tables
	logger   *log.Logger
}

// NewServer prepares options and reference tables from settings
func NewServer(settings *config.Settings, logger *log.Logger) (*Server, error) {
	if settings == nil {
		settings = &config.Settings{}
	}
	logger = utils.LoggerOr(logger).WithPrefix("web")

	options, err := settings.ExportOptions()
	if err != nil {
		return nil, err
	}
	tables, err := reftables.OpenTables(settings.DatarefTable, settings.CommandTable, logger)
	if err != nil {
		return nil, err
	}
	return &Server{settings: settings, options: options, tables: tables, logger: logger}, nil
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/export", s.HandlerExport).Methods(http.MethodPost)
	r.HandleFunc("/import", s.HandlerImport).Methods(http.MethodPost)
	r.HandleFunc("/options", s.HandlerOptions).Methods(http.MethodGet)
	return r
}

func (s *Server) Handler() http.Handler {
	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(s.Router())
	return handlers.LoggingHandler(s.logger.StandardLog().Writer(), h)
}

func StartServer(addr string, settings *config.Settings, logger *log.Logger) error {
	s, err := NewServer(settings, logger)
	if err != nil {
		return err
	}
	s.logger.Info("Starting server", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}
