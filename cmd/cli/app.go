package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"maika/internal/config"
	"maika/internal/core"
	"maika/internal/plugins"
	"maika/internal/plugins/settings"
	"maika/internal/storage"
	"maika/internal/storage/backend"
	v "maika/internal/version"
)

var (
	driverFlag = &cli.StringFlag{
		Name:    "driver",
		Usage:   "storage driver (json or sqlite)",
		EnvVars: []string{"STORAGE_DRIVER"},
	}
	pathFlag = &cli.StringFlag{
		Name:    "path",
		Usage:   "storage file",
		EnvVars: []string{"STORAGE_PATH"},
	}
	manifestFlag = &cli.StringFlag{
		Name:    "plugins",
		Usage:   "plugin manifest (YAML)",
		EnvVars: []string{"PLUGINS_FILE"},
	}
	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "output format (json or yaml)",
		Value: "json",
	}
)

func newApp(out io.Writer, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:      strings.ToLower(v.AppName),
		Usage:     "inspect and edit " + v.AppName + " data without the bot running",
		Version:   fmt.Sprintf("%s (%s, %s)", v.Version, v.BuildDate, v.GoVersion),
		Writer:    out,
		ErrWriter: out,
		Flags:     []cli.Flag{driverFlag, pathFlag, manifestFlag, formatFlag},
		Before: func(c *cli.Context) error {
			switch c.String(formatFlag.Name) {
			case "json", "yaml":
				return nil
			default:
				return fmt.Errorf("unknown format %q", c.String(formatFlag.Name))
			}
		},
		Commands: []*cli.Command{
			{
				Name:   "plugins",
				Usage:  "list the plugins and commands the manifest loads",
				Action: func(c *cli.Context) error { return listPlugins(c, cfg) },
			},
			{
				Name:  "stats",
				Usage: "count the stored guild and user records",
				Action: func(c *cli.Context) error {
					return withStore(c, cfg, func(ctx context.Context, s storage.Store) error {
						sr, ok := s.(storage.StatsReporter)
						if !ok {
							return errors.New("storage driver cannot report stats")
						}
						st, err := sr.Stats(ctx)
						if err != nil {
							return err
						}
						return render(c, st)
					})
				},
			},
			{
				Name:  "guild",
				Usage: "guild records",
				Subcommands: []*cli.Command{
					{
						Name:      "show",
						Usage:     "print a guild record",
						ArgsUsage: "<guild id>",
						Action: func(c *cli.Context) error {
							return withStore(c, cfg, func(ctx context.Context, s storage.Store) error {
								id, err := requireArg(c, 0, "guild id")
								if err != nil {
									return err
								}
								g, err := s.Guild(ctx, id)
								if err != nil {
									return err
								}
								return render(c, g)
							})
						},
					},
					{
						Name:      "set-prefix",
						Usage:     "change the prefix of a guild",
						ArgsUsage: "<guild id> <prefix>",
						Action: func(c *cli.Context) error {
							return withStore(c, cfg, func(ctx context.Context, s storage.Store) error {
								return setPrefix(ctx, c, s)
							})
						},
					},
				},
			},
			{
				Name:  "user",
				Usage: "user records",
				Subcommands: []*cli.Command{
					{
						Name:      "show",
						Usage:     "print a user record",
						ArgsUsage: "<user id>",
						Action: func(c *cli.Context) error {
							return withStore(c, cfg, func(ctx context.Context, s storage.Store) error {
								id, err := requireArg(c, 0, "user id")
								if err != nil {
									return err
								}
								u, err := s.User(ctx, id)
								if err != nil {
									return err
								}
								return render(c, u)
							})
						},
					},
				},
			},
		},
	}
	return app
}

func withStore(c *cli.Context, cfg *config.Config, fn func(context.Context, storage.Store) error) error {
	driver, path := cfg.StorageDriver, cfg.StoragePath
	if c.IsSet(driverFlag.Name) {
		driver = c.String(driverFlag.Name)
	}
	if c.IsSet(pathFlag.Name) {
		path = c.String(pathFlag.Name)
	}

	store, err := backend.Open(driver, path, zerolog.Nop())
	if err != nil {
		return err
	}
	err = fn(c.Context, store)
	return errors.Join(err, store.Close())
}

func setPrefix(ctx context.Context, c *cli.Context, s storage.Store) error {
	id, err := requireArg(c, 0, "guild id")
	if err != nil {
		return err
	}
	prefix, err := requireArg(c, 1, "prefix")
	if err != nil {
		return err
	}
	if utf8.RuneCountInString(prefix) > settings.MaxPrefixLen {
		return fmt.Errorf("prefix is longer than %d characters", settings.MaxPrefixLen)
	}

	var updated storage.GuildRecord
	err = s.UpdateGuild(ctx, id, func(g *storage.GuildRecord) error {
		g.Prefix = prefix
		updated = *g
		return nil
	})
	if err != nil {
		return err
	}
	return render(c, updated)
}

type pluginRow struct {
	Name     string   `json:"name" yaml:"name"`
	Title    string   `json:"title" yaml:"title"`
	Visible  bool     `json:"visible" yaml:"visible"`
	Commands []string `json:"commands" yaml:"commands"`
}

func listPlugins(c *cli.Context, cfg *config.Config) error {
	path := cfg.PluginsFile
	if c.IsSet(manifestFlag.Name) {
		path = c.String(manifestFlag.Name)
	}
	manifest, err := plugins.Load(path)
	if err != nil {
		return err
	}

	reg := core.NewRegistry(zerolog.Nop())
	if err := reg.Load(manifest.Sources()); err != nil {
		return err
	}

	var rows []pluginRow
	for _, p := range reg.List(true) {
		row := pluginRow{Name: p.Name(), Title: p.Title(), Visible: p.Visible()}
		for _, cmd := range p.Commands() {
			row.Commands = append(row.Commands, cmd.Name())
		}
		rows = append(rows, row)
	}
	return render(c, rows)
}

func requireArg(c *cli.Context, i int, what string) (string, error) {
	arg := strings.TrimSpace(c.Args().Get(i))
	if arg == "" {
		return "", fmt.Errorf("missing %s", what)
	}
	return arg, nil
}

func render(c *cli.Context, value any) error {
	w := c.App.Writer
	if c.String(formatFlag.Name) == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
