package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/foodlens/internal/workflow"
)

var searchCmd = &cobra.Command{
	Use:   "search <dish name>",
	Short: "Look up a dish by name",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var scanCmd = &cobra.Command{
	Use:   "scan <image file>",
	Short: "Analyse a photo of a dish and save it to history",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Take a photo with the configured camera and analyse it",
	Args:  cobra.NoArgs,
	RunE:  runCapture,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(captureCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, wf *workflow.Controller) (workflow.State, error) {
		return wf.Search(ctx, strings.Join(args, " "))
	})
}

func runScan(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	return withApp(cmd, func(ctx context.Context, wf *workflow.Controller) (workflow.State, error) {
		return wf.Upload(ctx, f, "")
	})
}

func runCapture(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, wf *workflow.Controller) (workflow.State, error) {
		st, err := wf.StartCamera(ctx)
		if err != nil || st.Mode != workflow.ModeCameraActive {
			return st, err
		}
		return wf.Capture(ctx)
	})
}

// withApp runs one workflow trigger against a fresh App and prints the
// resulting record. An Error state is reported as a command error.
func withApp(cmd *cobra.Command, trigger func(context.Context, *workflow.Controller) (workflow.State, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, _, err := openApp(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Teardown()

	st, err := trigger(ctx, a.Workflow)
	if err != nil {
		return err
	}
	return printOutcome(cmd.OutOrStdout(), st)
}

func printOutcome(out io.Writer, st workflow.State) error {
	switch {
	case st.Mode == workflow.ModeError:
		return errors.New(st.Error)
	case st.Record == nil:
		return fmt.Errorf("no result (state %s)", st.Mode)
	case jsonOutput:
		return printJSON(out, st)
	}

	if err := printRecord(out, *st.Record); err != nil {
		return err
	}
	if st.EntryID != "" {
		fmt.Fprintf(out, "\nSaved to history as %s\n", st.EntryID)
	}
	return nil
}
