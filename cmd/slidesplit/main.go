// slidesplit is a command-line tool that turns slide images or a slide PDF
// into layered PDFs with editable text over a text-free background.
//
// Each page goes through three stages:
//
//   - Text structure is extracted (vision LLM, Document AI or Tesseract)
//   - The text is painted out of the page image by an image model
//   - The background and the text are written as separate PDF layers
//
// Configuration:
//
// An optional YAML file selects backends; see pkg/config for all keys:
//
//	extractor:
//	  backend: llm
//	  provider: openai
//	  model: gpt-4o
//	restorer:
//	  backend: openai
//	  auth_policy: pause
//
// Usage:
//
//	slidesplit -in deck.pdf -out ./out [options]
//	slidesplit -pages slide1.png,slide2.png -out ./out [options]
//	slidesplit -inspect out/deck_Final.pdf
//
// Output options:
//
//	-artifacts string  Comma-separated artifacts: text, picture, final (default all)
//	-images string     Directory to save the restored backgrounds
//	-report string     Path to save the page states as JSON
//
// Debug options:
//
//	-debug-api string  Directory to save raw Document AI responses per page
//
// Authentication:
//
// API keys are read from the environment (OPENAI_API_KEY, ANTHROPIC_API_KEY,
// MISTRAL_API_KEY, GOOGLE_APPLICATION_CREDENTIALS), optionally from a .env file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/gardar/slidelayers/internal/app"
	"github.com/gardar/slidelayers/pkg/config"
	"github.com/gardar/slidelayers/pkg/gdocai"
	"github.com/gardar/slidelayers/pkg/raster"
	"github.com/gardar/slidelayers/pkg/session"
	"github.com/gardar/slidelayers/pkg/slidedoc"
)

func main() {
	configPath := flag.String("config", "", "Path to the config YAML file (defaults apply when omitted)")
	envPath := flag.String("env", ".env", "Path to a .env file with API keys (ignored if missing)")
	inPath := flag.String("in", "", "Path to the input PDF or image (required if -pages not specified)")
	pagePaths := flag.String("pages", "", "Comma-separated list of page images (required if -in not specified)")
	outDir := flag.String("out", ".", "Directory for the generated PDFs")
	name := flag.String("name", "", "Base name of the generated PDFs (default: input file name)")
	artifacts := flag.String("artifacts", "text,picture,final", "Comma-separated artifacts to write: text, picture, final")
	skipRestore := flag.Bool("skip-restore", false, "Skip background restoration and write only the text layer")
	imagesDir := flag.String("images", "", "Directory to save the restored background of each page")
	reportPath := flag.String("report", "", "Path to save page states as JSON")
	debugAPIDir := flag.String("debug-api", "", "Directory to save raw Document AI responses as JSON for debugging purposes")
	inspectPath := flag.String("inspect", "", "List the optional content layers of a PDF and exit")
	verbose := flag.Bool("v", false, "Verbose logging")

	flag.Parse()

	if *inspectPath != "" {
		if err := inspect(*inspectPath); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		return
	}

	if (*inPath == "" && *pagePaths == "") || (*inPath != "" && *pagePaths != "") {
		fmt.Fprintln(os.Stderr, "Error: Either -in or -pages flag must be provided (but not both)")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	kinds, err := parseArtifacts(*artifacts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		flag.PrintDefaults()
		os.Exit(1)
	}

	log := logrus.StandardLogger()
	opts := options{
		configPath:  *configPath,
		envPath:     *envPath,
		inPath:      *inPath,
		pagePaths:   *pagePaths,
		outDir:      *outDir,
		name:        *name,
		artifacts:   kinds,
		skipRestore: *skipRestore,
		imagesDir:   *imagesDir,
		reportPath:  *reportPath,
		debugAPIDir: *debugAPIDir,
		verbose:     *verbose,
	}
	if err := run(log, opts); err != nil {
		log.Fatalf("%v", err)
	}
}

// options are the parsed command-line flags.
type options struct {
	configPath  string
	envPath     string
	inPath      string
	pagePaths   string
	outDir      string
	name        string
	artifacts   []slidedoc.Artifact
	skipRestore bool
	imagesDir   string
	reportPath  string
	debugAPIDir string
	verbose     bool
}

// run converts one document. Backends opened here are closed before it
// returns, whatever the outcome.
func run(log *logrus.Logger, opts options) error {
	if err := config.LoadEnv(opts.envPath); err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Log.Apply(log); err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}
	if opts.verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to set up backends: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.WithError(err).Warn("Failed to close backends")
		}
	}()

	images, inputName, err := readInput(ctx, a.Deps.Rasterizer, opts.inPath, opts.pagePaths)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if opts.name != "" {
		inputName = opts.name
	}

	sess, err := session.New(inputName, images, a.Deps)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	if opts.debugAPIDir != "" {
		if err := dumpDocumentAI(ctx, a.DocAI, images, opts.debugAPIDir); err != nil {
			return fmt.Errorf("failed to save Document AI responses: %w", err)
		}
	}

	if err := sess.ExtractAll(ctx); err != nil {
		return fmt.Errorf("extraction stopped: %w", err)
	}

	if !opts.skipRestore && a.Deps.Pipeline != nil {
		batch, err := sess.Restore(ctx)
		if err != nil {
			return fmt.Errorf("restoration failed: %w", err)
		}
		if batch.Paused {
			log.WithFields(logrus.Fields{"page": batch.Auth.Page, "reason": batch.Auth.Reason}).
				Warn("Restoration paused: the image service requires authorization. Fix billing or credentials and run again, or set restorer.auth_policy to continue")
		}
	}

	if err := os.MkdirAll(opts.outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, kind := range opts.artifacts {
		path := filepath.Join(opts.outDir, sess.FileName(kind))
		if err := writeArtifact(sess, kind, path); err != nil {
			log.WithError(err).WithField("artifact", kind.String()).Warn("Skipped artifact")
			continue
		}
		fmt.Printf("%s layer saved to: %s\n", kind, path)
	}

	if opts.imagesDir != "" {
		if err := saveBackgrounds(sess, opts.imagesDir); err != nil {
			return fmt.Errorf("failed to save backgrounds: %w", err)
		}
	}

	if opts.reportPath != "" {
		report, err := gdocai.ToJSON(sess.Snapshot())
		if err != nil {
			return fmt.Errorf("failed to convert report to JSON: %w", err)
		}
		if err := os.WriteFile(opts.reportPath, []byte(report), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Println("Page report saved to:", opts.reportPath)
	}
	return nil
}

func parseArtifacts(list string) ([]slidedoc.Artifact, error) {
	var kinds []slidedoc.Artifact
	for _, s := range strings.Split(list, ",") {
		if strings.TrimSpace(s) == "" {
			continue
		}
		kind, err := slidedoc.ParseArtifact(s)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no artifacts selected")
	}
	return kinds, nil
}

// readInput loads one PDF or image from -in, or every image from -pages.
func readInput(ctx context.Context, r session.Rasterizer, in, pages string) ([]raster.Image, string, error) {
	if in != "" {
		data, err := os.ReadFile(in)
		if err != nil {
			return nil, "", err
		}
		if raster.SniffMime(data) == "application/pdf" {
			images, err := session.Rasterize(ctx, r, data)
			return images, in, err
		}
		return []raster.Image{{Data: data, MimeType: raster.SniffMime(data)}}, in, nil
	}

	var images []raster.Image
	first := ""
	for _, path := range strings.Split(pages, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", err
		}
		if first == "" {
			first = path
		}
		images = append(images, raster.Image{Data: data, MimeType: raster.SniffMime(data)})
	}
	return images, first, nil
}

func writeArtifact(sess *session.Session, kind slidedoc.Artifact, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sess.WriteArtifact(f, kind); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func saveBackgrounds(sess *session.Session, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, pair := range sess.Pairs() {
		if !pair.HasBackground() {
			continue
		}
		img, err := raster.EncodePNG(pair.Background)
		if err != nil {
			return fmt.Errorf("page %d: %w", pair.Index, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("page_%d.png", pair.Index))
		if err := os.WriteFile(path, img.Data, 0644); err != nil {
			return err
		}
		fmt.Printf("Saved background for page %d to %s\n", pair.Index, path)
	}
	return nil
}

// dumpDocumentAI saves the raw Document AI response of every page.
func dumpDocumentAI(ctx context.Context, client *gdocai.Client, images []raster.Image, dir string) error {
	if client == nil {
		return fmt.Errorf("-debug-api needs a configured Document AI processor")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for i, img := range images {
		if img.Empty() {
			continue
		}
		doc, err := client.ProcessDocument(ctx, img.Data, img.MimeType)
		if err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
		apiJSON, err := gdocai.ToJSON(doc)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, fmt.Sprintf("page_%d.json", i+1))
		if err := os.WriteFile(path, []byte(apiJSON), 0644); err != nil {
			return err
		}
		fmt.Println("API response JSON saved to:", path)
	}
	return nil
}

func inspect(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	layers, err := slidedoc.DetectLayers(data)
	if err != nil {
		return err
	}
	if len(layers) == 0 {
		fmt.Println("No layers found")
		return nil
	}
	fmt.Println("Layers detected in PDF:")
	for i, l := range layers {
		fmt.Printf("  %d. %s\n", i+1, l)
	}
	return nil
}
