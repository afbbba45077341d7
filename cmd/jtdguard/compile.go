package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	j "github.com/goccy/go-json"

	"github.com/reoring/jtdguard/jtd"
)

func compileCmd(args []string) int {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	var schemaPath, out string
	fs.StringVar(&schemaPath, "schema", "", "schema file (.json, .yaml or .yml)")
	fs.StringVar(&out, "o", "", "write the normalized JSON schema to this file")
	_ = fs.Parse(args)
	if schemaPath == "" {
		fs.Usage()
		return 2
	}

	s, err := loadSchema(schemaPath)
	if err != nil {
		errorf("%s: %v", schemaPath, err)
		return 1
	}
	if _, err := jtd.NewCompiler(jtd.Options{}).Compile(s); err != nil {
		errorf("%s: %v", schemaPath, err)
		return 1
	}
	fmt.Printf("%s: ok (%s form)\n", schemaPath, s.Form())

	if out == "" {
		return 0
	}
	b, err := j.MarshalIndent(s, "", "  ")
	if err != nil {
		errorf("encode schema: %v", err)
		return 1
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		errorf("creating output dir: %v", err)
		return 1
	}
	if err := os.WriteFile(out, append(b, '\n'), 0o644); err != nil {
		errorf("writing output: %v", err)
		return 1
	}
	return 0
}
