// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for rigrun-diffs.
//
// Command: config [subcommand]
// Short:   View or create the configuration file
//
// Subcommands:
//   show (default)      Print the effective configuration
//   path                Print the configuration file path
//   init                Write a default config.toml if none exists
//
// Examples:
//   rigrun-diffs config                       Show current config (TOML)
//   rigrun-diffs config show --format yaml    Show as YAML
//   rigrun-diffs config show --json           Config in a JSON envelope
//   rigrun-diffs config init                  Create ~/.rigrun-diffs/config.toml

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jeranaias/rigrun-diffs/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(_ context.Context, args *ArgParser, env Env) error {
	switch sub := args.Positional(1); sub {
	case "", "show":
		return handleConfigShow(args, env)
	case "path":
		return handleConfigPath(args, env)
	case "init":
		return handleConfigInit(args, env)
	default:
		return &ValidationError{
			Field:   "config subcommand",
			Value:   sub,
			Reason:  "want show, path or init",
			Example: "rigrun-diffs config show",
		}
	}
}

func handleConfigShow(args *ArgParser, env Env) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	if args.BoolFlag("json") {
		return NewJSONResponse("config", cfg).Write(env.Stdout)
	}

	format := config.Format(args.FlagOrDefault("format", string(config.FormatTOML)))
	switch format {
	case config.FormatTOML, config.FormatJSON, config.FormatYAML:
	default:
		return ErrInvalidValue("format", string(format), errors.New("want toml, json or yaml"))
	}
	var buf bytes.Buffer
	if err := cfg.Encode(&buf, format); err != nil {
		return NewCommandError("config", "encode", err)
	}
	_, err = env.Stdout.Write(buf.Bytes())
	return err
}

// configPath is --config when given, otherwise the default config.toml.
func configPath(args *ArgParser) (string, error) {
	if path := args.Flag("config"); path != "" {
		return path, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func handleConfigPath(args *ArgParser, env Env) error {
	path, err := configPath(args)
	if err != nil {
		return NewCommandError("config", "resolve path", err)
	}
	_, statErr := os.Stat(path)
	exists := statErr == nil

	if args.BoolFlag("json") {
		return NewJSONResponse("config", map[string]any{"path": path, "exists": exists}).Write(env.Stdout)
	}
	fmt.Fprintln(env.Stdout, path)
	if !exists {
		fmt.Fprintln(env.Stderr, DimStyle.Render("(file does not exist, defaults are in effect)"))
	}
	return nil
}

func handleConfigInit(args *ArgParser, env Env) error {
	path, err := configPath(args)
	if err != nil {
		return NewCommandError("config", "resolve path", err)
	}
	if _, err := os.Stat(path); err == nil {
		return NewCommandError("config", "init", fmt.Errorf("%s: %w", path, fs.ErrExist))
	}
	if err := config.Default().Save(path); err != nil {
		return NewCommandError("config", "save", err)
	}
	env.Logger.Printf("CONFIG_INIT | path=%s", path)
	fmt.Fprintf(env.Stdout, "%s wrote %s\n", SuccessStyle.Render("[OK]"), path)
	return nil
}
