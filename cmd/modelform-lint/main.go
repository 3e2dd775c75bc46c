package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	pkgopenapi "github.com/goliatone/go-modelform/pkg/openapi"
)

func main() {
	flag.Usage = func() {
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [paths...]\n", filepath.Base(os.Args[0])); err != nil {
			panic(err)
		}
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "\nLint OpenAPI documents for unsupported x-formgen model extensions.\n"); err != nil {
			panic(err)
		}
	}
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var violations []pkgopenapi.Violation
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lint %s: %v\n", path, err)
			os.Exit(1)
		}
		linted, err := pkgopenapi.Lint(path, raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lint %s: %v\n", path, err)
			os.Exit(1)
		}
		violations = append(violations, linted...)
	}

	if len(violations) > 0 {
		sort.SliceStable(violations, func(i, j int) bool {
			return violations[i].File < violations[j].File
		})
		for _, v := range violations {
			fmt.Fprintln(os.Stderr, v.String())
		}
		os.Exit(1)
	}
}
