// A command line entry point that runs a single import synchronously and
// prints the resulting post ID.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ameyrk/gutengo/internal/core"
	"github.com/ameyrk/gutengo/internal/models"
)

func main() {
	source := flag.String("source", "", "source slug (medium, notion, gdocs, markdown); auto-detected when empty")
	file := flag.String("file", "", "path to a local file to import")
	url := flag.String("url", "", "URL to import")
	downloadImages := flag.Bool("download-images", false, "store remote images locally and rewrite their URLs")
	status := flag.String("status", "", "target post status (default draft)")
	flag.Parse()

	if *file == "" && *url == "" {
		fmt.Fprintln(os.Stderr, "usage: gutengo-cli [-source slug] (-file doc.md | -url https://...)")
		os.Exit(2)
	}

	locator := *url
	if *file != "" {
		content, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", *file, err)
		}
		locator = string(content)
	}

	app, err := core.New()
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()

	slug := *source
	if slug == "md" {
		slug = "markdown"
	}
	if slug == "" {
		detected, ok := app.Registry.Detect(locator)
		if !ok {
			log.Fatal("Could not detect a source for the given input; pass -source explicitly.")
		}
		slug = detected
	}

	result, err := app.Runner.Run(context.Background(), slug, locator, models.Options{
		DownloadImages: *downloadImages,
		TargetStatus:   *status,
	})
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	fmt.Printf("Imported %q from %s as post %d\n", result.Title, result.Source, result.PostID)
}
