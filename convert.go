package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/mogaika/xobjconv/config"
	"github.com/mogaika/xobjconv/gltfsrc"
	"github.com/mogaika/xobjconv/obj8"
	"github.com/mogaika/xobjconv/reftables"
	"github.com/mogaika/xobjconv/utils"
	"github.com/mogaika/xobjconv/xobj"
)

type converter struct {
	settings *config.Settings
	options  config.Options
	tables   *reftables.Tables
	dump     bool
	logger   *log.Logger
}

func newConverter(settings *config.Settings, dump bool, logger *log.Logger) (*converter, error) {
	options, err := settings.ExportOptions()
	if err != nil {
		return nil, err
	}
	tables, err := reftables.OpenTables(settings.DatarefTable, settings.CommandTable, logger)
	if err != nil {
		return nil, err
	}
	return &converter{settings: settings, options: options, tables: tables, dump: dump, logger: logger}, nil
}

func (c *converter) convert(ctx context.Context, in, out string) error {
	sc, err := gltfsrc.Open(in, c.logger)
	if err != nil {
		return err
	}
	if c.dump {
		fmt.Print(utils.SDump(xobj.Summarize(sc)))
	}

	stats, err := xobj.Export(ctx, sc, out, xobj.ExportParams{
		Root:      c.settings.Root(),
		Options:   c.options,
		Tables:    c.tables,
		Signature: c.settings.Signature,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	c.report(out, stats)
	return nil
}

func (c *converter) report(out string, stats *obj8.Stats) {
	c.logger.Info("Exported", "out", out, "lods", stats.LODs, "meshes", stats.Meshes,
		"faces", stats.Faces, "anims", stats.TranslationAnims+stats.RotationAnims+stats.VisibilityAnims)
	if c.dump {
		fmt.Print(utils.SDump(stats))
	}
}

// inspectFile reads object file and prints what it contains
func inspectFile(ctx context.Context, path string, settings *config.Settings, dump bool, logger *log.Logger) error {
	tables, err := reftables.OpenTables(settings.DatarefTable, settings.CommandTable, logger)
	if err != nil {
		return err
	}
	sc, stats, err := xobj.Import(ctx, path, xobj.ImportParams{Root: settings.Root(), Tables: tables, Logger: logger})
	if err != nil {
		return err
	}

	summary := xobj.Summarize(sc)
	logger.Info("Object", "file", path, "texture", summary.Texture, "lines", stats.LinesRead)
	for _, lod := range summary.LODs {
		logger.Info("LOD", "name", lod.Name, "near", lod.Near, "far", lod.Far, "draped", lod.Draped,
			"nodes", lod.Nodes, "animated", lod.Animated, "objects", lod.Objects)
	}
	if dump {
		fmt.Print(utils.SDump(summary, stats))
	}
	return nil
}
