package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/internal/export"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runOpts struct {
	file     string
	format   string
	save     string
	progress bool
}

var runCmd = &cobra.Command{
	Use:   "run [keywords]",
	Short: "Researches the comma separated keywords given as arguments, or one keyword per line from --file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(runOpts.format)
		if err != nil {
			return err
		}

		req := domain.ResearchRequest{RawInput: strings.Join(args, ",")}
		if runOpts.file != "" {
			raw, err := readInput(runOpts.file)
			if err != nil {
				return err
			}
			req = domain.ResearchRequest{RawInput: raw, BulkMode: true}
		}

		var progress domain.ProgressFunc
		if runOpts.progress {
			progress = func(p domain.Progress) {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %d/%d %s\n", p.Stage, p.Done, p.Total, p.Keyword)
			}
		}

		resp, err := container.Aggregator.RunWithProgress(cmd.Context(), req, progress)
		if err != nil {
			return err
		}

		if err := container.Store.Autosave(cmd.Context(), resp.Results); err != nil {
			logger.Warn("Autosave failed", zap.Error(err))
		}
		if runOpts.save != "" {
			id, err := container.Store.SaveSession(cmd.Context(), runOpts.save, resp.Results)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved session %q (%s)\n", runOpts.save, id)
		}

		return export.Write(cmd.OutOrStdout(), format, resp.Results)
	},
}

// readInput reads seeds from path, or from stdin when path is "-".
func readInput(path string) (string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read keywords: %w", err)
	}
	return string(raw), nil
}

func init() {
	runCmd.Flags().StringVarP(&runOpts.file, "file", "f", "", "read one keyword per line from this file (\"-\" for stdin)")
	runCmd.Flags().StringVarP(&runOpts.format, "format", "o", string(export.FormatTable), "output format: csv, json, table, markdown")
	runCmd.Flags().StringVar(&runOpts.save, "save", "", "also save the results as a named session")
	runCmd.Flags().BoolVar(&runOpts.progress, "progress", false, "print progress to stderr")
	rootCmd.AddCommand(runCmd)
}
