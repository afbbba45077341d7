package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/reoring/jtdguard/i18n"
	"github.com/reoring/jtdguard/internal/config"
	"github.com/reoring/jtdguard/jtd"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	switch sub {
	case "compile":
		os.Exit(compileCmd(os.Args[2:]))
	case "check":
		os.Exit(checkCmd(os.Args[2:]))
	case "serve":
		os.Exit(serveCmd(os.Args[2:]))
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `jtdguard CLI

Usage:
  jtdguard compile -schema schema.(json|yaml) [-o normalized.json]
  jtdguard check -bindings bindings.yaml -request request.json [-preserialized] [-lang en|ja] [-config FILE] [-v]
  jtdguard serve [-config FILE] [-bindings bindings.yaml] [-addr :8080] [-v]

Environment:
  JTDGUARD_* overrides config keys, "__" separates levels (JTDGUARD_SERVER__ADDR).`)
}

// loadConfig reads the config file and applies the common flag overrides.
func loadConfig(path, lang string, verbose bool) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if lang != "" {
		cfg.Language = lang
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	i18n.SetLanguage(cfg.Language)
	logger, err := cfg.Log.Logger(os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// loadSchema reads a schema, choosing the parser by file extension.
func loadSchema(path string) (*jtd.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return jtd.ParseYAML(data)
	default:
		return jtd.ParseJSON(data)
	}
}

func errorf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "jtdguard: "+format+"\n", a...)
}
