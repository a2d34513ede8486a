package main

import (
	"encoding/json"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/kapu/kdp-keyword-go/internal/export"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Lists saved sessions.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := container.Store.ListSessions(cmd.Context())
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"ID", "Name", "Keywords", "Updated"})
		for _, s := range sessions {
			t.AppendRow(table.Row{s.ID, s.Name, s.KeywordCount, s.UpdatedAt.Local().Format(time.DateTime)})
		}
		t.Render()
		return nil
	},
}

var showFormat string

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Prints the results stored in a session (\"autosave\" for the last run).",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(showFormat)
		if err != nil {
			return err
		}
		session, err := container.Store.LoadSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return export.Write(cmd.OutOrStdout(), format, session.Records)
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Deletes a saved session.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return container.Store.DeleteSession(cmd.Context(), args[0])
	},
}

var sessionsBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Writes every named session as JSON to stdout.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backup, err := container.Store.Backup(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(backup)
	},
}

func init() {
	sessionsShowCmd.Flags().StringVarP(&showFormat, "format", "o", string(export.FormatTable), "output format: csv, json, table, markdown")
	sessionsCmd.AddCommand(sessionsShowCmd, sessionsDeleteCmd, sessionsBackupCmd)
	rootCmd.AddCommand(sessionsCmd)
}
