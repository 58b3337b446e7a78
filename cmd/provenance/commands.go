package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/brunobiangulo/goprovenance/link"
	"github.com/brunobiangulo/goprovenance/parser"
)

func indexCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or inspect the canonical entity index",
	}
	cmd.AddCommand(indexBuildCmd(g))
	cmd.AddCommand(indexShowCmd(g))
	return cmd
}

func indexBuildCmd(g *globals) *cobra.Command {
	var refsDir string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the index from a directory of reference pages",
		Example: `  provenance index build --refs ./glossary
  provenance index build --refs ./glossary --cache ./provenance.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.openEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			refs, err := parser.LoadDir(cmd.Context(), refsDir, nil, g.log)
			if err != nil {
				return fmt.Errorf("loading references: %w", err)
			}
			status, buildErr := e.PrepareIndex(cmd.Context(), refs)
			if status != nil {
				if err := writeJSON(cmd.OutOrStdout(), status); err != nil {
					return err
				}
			}
			if buildErr != nil {
				return buildErr
			}
			color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "index %s: %d entities (%s)\n",
				short(status.ContentHash), status.Entities, status.Source)
			return nil
		},
	}
	cmd.Flags().StringVar(&refsDir, "refs", "", "directory of reference pages")
	cmd.MarkFlagRequired("refs")
	return cmd
}

func indexShowCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List cached index snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.openEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			snaps, err := e.Snapshots(cmd.Context())
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				color.New(color.FgYellow).Fprintln(cmd.ErrOrStderr(), "no cached snapshots")
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"id", "content hash", "format", "entities", "created"})
			table.SetAutoFormatHeaders(false)
			for _, s := range snaps {
				table.Append([]string{
					fmt.Sprint(s.ID),
					short(s.ContentHash),
					fmt.Sprint(s.FormatVersion),
					fmt.Sprint(s.EntityCount),
					s.CreatedAt.Local().Format(time.DateTime),
				})
			}
			table.Render()
			return nil
		},
	}
}

func processCmd(g *globals) *cobra.Command {
	var refsDir, docsDir, outPath string
	var quiet bool
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Extract and link metadata for a directory of documents",
		Long: `Process every document under --docs against the index built from
--refs (or the newest cached index when --refs is omitted). Records are
written as JSON lines; a coverage table goes to stderr.`,
		Example: `  provenance process --refs ./glossary --docs ./archive --out records.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, _, err := g.readyEngine(ctx, refsDir)
			if err != nil {
				return err
			}
			defer e.Close()

			docs, err := parser.LoadDir(ctx, docsDir, nil, g.log)
			if err != nil {
				return fmt.Errorf("loading documents: %w", err)
			}
			res, err := e.ProcessBatch(ctx, docs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			w := bufio.NewWriter(out)
			enc := json.NewEncoder(w)
			for _, rec := range res.Records {
				if err := enc.Encode(rec); err != nil {
					return err
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if !quiet {
				res.Coverage.Render(cmd.ErrOrStderr())
			}
			for _, f := range res.Failures {
				color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", f.Identifier, f.Error)
			}
			g.log.Info("provenance: batch done",
				"records", len(res.Records), "failures", len(res.Failures), "duration", res.Duration)
			return nil
		},
	}
	cmd.Flags().StringVar(&refsDir, "refs", "", "directory of reference pages (default: newest cached index)")
	cmd.Flags().StringVar(&docsDir, "docs", "", "directory of documents to process")
	cmd.Flags().StringVar(&outPath, "out", "", "write JSON lines here instead of stdout")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress the coverage table")
	cmd.MarkFlagRequired("docs")
	return cmd
}

func linkCmd(g *globals) *cobra.Command {
	var refsDir, text string
	var year int
	cmd := &cobra.Command{
		Use:   "link NAME",
		Short: "Resolve a name against the index",
		Example: `  provenance link "Marx"
  provenance link "Smith" --year 1905 --context "strike report"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := g.readyEngine(cmd.Context(), refsDir)
			if err != nil {
				return err
			}
			defer e.Close()

			var lctx *link.Context
			if year != 0 || text != "" {
				lctx = &link.Context{Year: year, Text: text}
			}
			l, err := e.Link(args[0], lctx)
			if err != nil {
				return err
			}
			if !l.Resolved() {
				color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "%q is unresolved\n", args[0])
			}
			return writeJSON(cmd.OutOrStdout(), l)
		},
	}
	cmd.Flags().StringVar(&refsDir, "refs", "", "directory of reference pages (default: newest cached index)")
	cmd.Flags().IntVar(&year, "year", 0, "document year used to disambiguate")
	cmd.Flags().StringVar(&text, "context", "", "surrounding text used to disambiguate")
	return cmd
}

// graphView is what the graph command prints.
type graphView struct {
	Seed      string   `json:"seed"`
	Depth     int      `json:"depth"`
	Reachable []entity `json:"reachable"`
}

type entity struct {
	ID   string `json:"canonical_id"`
	Name string `json:"canonical_name"`
}

func graphCmd(g *globals) *cobra.Command {
	var refsDir string
	var depth int
	cmd := &cobra.Command{
		Use:   "graph ID",
		Short: "List entities reachable from a canonical id through cross-references",
		Example: `  provenance graph "$(provenance link Marx | jq -r .canonical_id)" --depth 2`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := g.readyEngine(cmd.Context(), refsDir)
			if err != nil {
				return err
			}
			defer e.Close()

			gr, err := e.Graph()
			if err != nil {
				return err
			}
			id := strings.TrimSpace(args[0])
			if !gr.Has(id) {
				return fmt.Errorf("unknown canonical id %q", id)
			}

			idx := e.Index()
			view := graphView{Seed: id, Depth: depth}
			for _, r := range gr.Reachable([]string{id}, depth) {
				ent, _ := idx.Entity(r)
				view.Reachable = append(view.Reachable, entity{ID: r, Name: ent.Name})
			}
			return writeJSON(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().StringVar(&refsDir, "refs", "", "directory of reference pages (default: newest cached index)")
	cmd.Flags().IntVar(&depth, "depth", 1, "maximum number of hops")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
