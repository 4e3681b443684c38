package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/foodlens/internal/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect previously analysed photos",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List history entries, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one history entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	a, _, err := openApp(context.Background(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Teardown()

	entries := a.History.Get()
	if jsonOutput {
		if entries == nil {
			entries = []types.HistoryEntry{}
		}
		return printJSON(cmd.OutOrStdout(), types.HistoryResponse{Entries: entries, Total: len(entries)})
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No history yet.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tCREATED\tNAME\tCALORIES")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\n",
			e.ID,
			e.CreatedAt().Format("2006-01-02 15:04"),
			e.Record.Name,
			e.Record.Nutrition.Calories,
		)
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	a, _, err := openApp(context.Background(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Teardown()

	entry, err := a.History.Find(args[0])
	if err != nil {
		return fmt.Errorf("history entry %s: %w", args[0], err)
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), entry)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ID:      %s\nCreated: %s\n\n", entry.ID, entry.CreatedAt().Format("2006-01-02 15:04:05"))
	return printRecord(cmd.OutOrStdout(), entry.Record)
}
