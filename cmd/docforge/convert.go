package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsawler/docforge"
	"github.com/tsawler/docforge/fault"
	"github.com/tsawler/docforge/ingest"
	"github.com/tsawler/docforge/manifest"
	"github.com/tsawler/docforge/postprocess"
	"github.com/tsawler/docforge/render"
)

func convertCmd() *cobra.Command {
	var out string
	var configPath string
	var title string
	var policy string
	var strict bool
	var dryRun bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Convert a document into per-section Markdown files and a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(verbose)

			opts, err := loadOptions(configPath)
			if err != nil {
				return err
			}
			opts.Headings.Strict = strict
			if policy != "" {
				opts.XRefs.Policy = postprocess.XRefPolicy(policy)
			}

			in, err := loadInput(args[0])
			if err != nil {
				return err
			}
			if title != "" {
				in.Title = title
			}

			pipeline := docforge.NewWithOptions(opts, log)
			res, err := pipeline.Run(*in)
			if err != nil {
				return err
			}

			if !dryRun {
				files := pipeline.Render(res.Tree)
				if err := render.Verify(files); err != nil {
					return err
				}
				if err := writeCorpus(out, files, res.Manifest); err != nil {
					return err
				}
				log.Info("corpus_written", "dir", out, "files", len(files))
			}

			pretty, err := json.MarshalIndent(res.Manifest, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "docs", "output directory for the corpus")
	cmd.Flags().StringVar(&configPath, "config", "", "JSON options file overlaid on the defaults")
	cmd.Flags().StringVar(&title, "title", "", "override the detected document title")
	cmd.Flags().StringVar(&policy, "policy", "", "unresolved reference policy: annotate|keep|drop")
	cmd.Flags().BoolVar(&strict, "strict", false, "treat duplicate chapter numbers and appendix letters as fatal")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "run the pipeline and print the manifest without writing files")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadOptions overlays a JSON options file on the defaults. An empty path
// returns the defaults unchanged.
func loadOptions(path string) (docforge.Options, error) {
	opts := docforge.DefaultOptions()
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fault.IOErr(fault.CodeInputUnreadable,
			"cannot read options file", map[string]any{"path": path, "cause": err.Error()})
	}
	if err := json.Unmarshal(data, &opts); err != nil {
		return opts, fault.ConfigErr(fault.CodeConfigInvalidValue,
			"cannot parse options file", map[string]any{"path": path, "cause": err.Error()})
	}
	return opts, nil
}

// loadInput picks the loader by file extension.
func loadInput(path string) (*docforge.Input, error) {
	var res *ingest.Result
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		res, err = ingest.LoadPDF(path)
	case ".html", ".htm":
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, fault.IOErr(fault.CodeInputUnreadable,
				"cannot open html", map[string]any{"path": path, "cause": openErr.Error()})
		}
		defer f.Close()
		res, err = ingest.LoadHTML(f)
	case ".docx":
		res, err = ingest.LoadDOCX(path)
	default:
		return nil, fault.ConfigErr(fault.CodeConfigInvalidValue,
			"unsupported input format", map[string]any{"path": path})
	}
	if err != nil {
		return nil, err
	}

	return &docforge.Input{
		Title:   res.Title,
		Spans:   res.Spans,
		Pages:   res.Pages,
		Figures: res.Figures,
	}, nil
}

// writeCorpus writes the rendered files plus manifest.json into dir. The
// manifest is serialized canonically so the written bytes are reproducible.
func writeCorpus(dir string, files map[string][]byte, man map[string]any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fault.IOErr(fault.CodeOutputUnwritable,
			"cannot create output directory", map[string]any{"dir": dir, "cause": err.Error()})
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
			return fault.IOErr(fault.CodeOutputUnwritable,
				"cannot write file", map[string]any{"file": name, "cause": err.Error()})
		}
	}

	canonical, err := manifest.CanonicalJSON(man)
	if err != nil {
		return err
	}
	canonical = append(canonical, '\n')
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), canonical, 0o644); err != nil {
		return fault.IOErr(fault.CodeOutputUnwritable,
			"cannot write manifest", map[string]any{"cause": err.Error()})
	}
	return nil
}
