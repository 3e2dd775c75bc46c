package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goliatone/go-modelform"
	"github.com/goliatone/go-modelform/pkg/metadata"
)

func main() {
	source := flag.String("source", "examples/fixtures/shop.yaml", "OpenAPI document to import")
	output := flag.String("output", "", "metadata file to write (.json or .yaml)")
	flag.Parse()

	if *output == "" {
		fmt.Fprintln(os.Stderr, "-output is required")
		os.Exit(2)
	}
	if err := run(*source, *output); err != nil {
		fmt.Fprintf(os.Stderr, "generate-metadata: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Metadata written to %s\n", *output)
}

func run(source, output string) error {
	catalog, err := modelform.LoadCatalog(context.Background(), source, modelform.FormatOpenAPI)
	if err != nil {
		return err
	}
	data, err := metadata.Encode(catalog.Registry, output)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return err
	}
	return os.WriteFile(output, data, 0o644)
}
