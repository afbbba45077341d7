package main

import (
	"flag"
	"fmt"
	"os"

	j "github.com/goccy/go-json"

	"github.com/reoring/jtdguard"
	"github.com/reoring/jtdguard/internal/bindfile"
	"github.com/reoring/jtdguard/middleware"
)

// checkCmd dispatches a recorded request (a JSON object of request
// properties) through the top-level bindings of a bindings file.
func checkCmd(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	var bindingsPath, requestPath, cfgPath, lang string
	var preSerialized, verbose bool
	fs.StringVar(&bindingsPath, "bindings", "", "bindings file")
	fs.StringVar(&requestPath, "request", "", "recorded request: JSON object of properties")
	fs.StringVar(&cfgPath, "config", "", "config file (default ./jtdguard.yaml when present)")
	fs.StringVar(&lang, "lang", "", "diagnostic language (en, ja)")
	fs.BoolVar(&preSerialized, "preserialized", false, "serialize properties to JSON text before parsing")
	fs.BoolVar(&verbose, "v", false, "enable debug logs")
	_ = fs.Parse(args)
	if bindingsPath == "" || requestPath == "" {
		fs.Usage()
		return 2
	}

	cfg, logger, err := loadConfig(cfgPath, lang, verbose)
	if err != nil {
		errorf("%v", err)
		return 2
	}
	if preSerialized {
		cfg.Validator.PreSerialized = true
	}

	f, err := bindfile.Load(bindingsPath)
	if err != nil {
		errorf("%v", err)
		return 2
	}
	bindings, err := f.Build()
	if err != nil {
		errorf("%v", err)
		return 2
	}
	v, err := jtdguard.New(cfg.Validator.Options(logger)...)
	if err != nil {
		errorf("%v", err)
		return 2
	}
	d, err := v.Validate(bindings...)
	if err != nil {
		errorf("%v", err)
		return 2
	}

	data, err := os.ReadFile(requestPath)
	if err != nil {
		errorf("%v", err)
		return 2
	}
	var props map[string]any
	if err := j.Unmarshal(data, &props); err != nil {
		errorf("%s: request must be a JSON object: %v", requestPath, err)
		return 2
	}

	req := jtdguard.NewMapRequest(props)
	ve, err := middleware.Run(d, req)
	if err != nil {
		errorf("%v", err)
		return 2
	}
	if ve != nil {
		printJSON(middleware.ErrorPayload(ve))
		return 1
	}
	printJSON(map[string]any{"parsed": req.Parsed()})
	return 0
}

func printJSON(v any) {
	b, err := j.MarshalIndent(v, "", "  ")
	if err != nil {
		errorf("encode output: %v", err)
		return
	}
	fmt.Println(string(b))
}
