package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/mogaika/xobjconv/config"
	"github.com/mogaika/xobjconv/utils"
	"github.com/mogaika/xobjconv/web"
)

func main() {
	var in, out, settingsPath, options, inspect, addr string
	var watch, dump bool
	flag.StringVar(&in, "in", "", "Source glTF/glb model")
	flag.StringVar(&out, "out", "", "Output object file, defaults to -in with .obj extension")
	flag.StringVar(&settingsPath, "config", "", "Settings file (yaml or toml)")
	flag.StringVar(&options, "options", "", "Comma separated export options ("+strings.Join(config.OptionNames(), ", ")+")")
	flag.BoolVar(&watch, "watch", false, "Convert again every time -in changes")
	flag.BoolVar(&dump, "dump", false, "Dump loaded scene summary and stats")
	flag.StringVar(&inspect, "inspect", "", "Read object file and print its summary")
	flag.StringVar(&addr, "serve", "", "Start conversion server on address, e.g. :8000")
	flag.Parse()

	logger := utils.DefaultLogger()

	settings := &config.Settings{}
	if settingsPath != "" {
		var err error
		if settings, err = config.LoadSettings(settingsPath); err != nil {
			logger.Fatal("Failed to load settings", "err", err)
		}
	}
	if options != "" {
		settings.Options = append(settings.Options, strings.Split(options, ",")...)
	}
	if settings.Encoding != "" {
		if err := config.SetEncoding(settings.Encoding); err != nil {
			logger.Fatal("Failed to set encoding", "err", err, "known", config.ListEncodings())
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case addr != "":
		if err := web.StartServer(addr, settings, logger); err != nil {
			logger.Fatal("Server stopped", "err", err)
		}
	case inspect != "":
		if err := inspectFile(ctx, inspect, settings, dump, logger); err != nil {
			logger.Fatal("Failed to inspect", "file", inspect, "err", err)
		}
	case in != "":
		if out == "" {
			out = strings.TrimSuffix(in, filepath.Ext(in)) + ".obj"
		}
		c, err := newConverter(settings, dump, logger)
		if err != nil {
			logger.Fatal("Bad settings", "err", err)
		}
		if err := c.convert(ctx, in, out); err != nil {
			if !watch {
				logger.Fatal("Conversion failed", "in", in, "err", err)
			}
			logger.Error("Conversion failed", "in", in, "err", err)
		}
		if watch {
			if err := c.watch(ctx, in, out); err != nil {
				logger.Fatal("Watch failed", "err", err)
			}
		}
	default:
		flag.PrintDefaults()
	}
}
