package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cinematch/internal/checkpoint"
	"cinematch/internal/ledger"
)

func newCheckpointCommand(ctx *commandContext) *cobra.Command {
	checkpointCmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect or reset resume checkpoints",
	}
	checkpointCmd.AddCommand(newCheckpointShowCommand(ctx))
	checkpointCmd.AddCommand(newCheckpointResetCommand(ctx))
	return checkpointCmd
}

type checkpointView struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	IDs     int       `json:"ids"`
	LastRun time.Time `json:"last_run,omitzero"`
}

func newCheckpointShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "show <movies|people>",
		Short:     "Show how many ids the enrichment and apply checkpoints hold",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kindArg(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			label := ledger.KindLabel(kind)
			files := []struct {
				name string
				path string
				mode checkpoint.Mode
			}{
				{"enrichment", checkpoint.ProgressPath(cfg.Paths.StateDir, label), checkpoint.ModeProcessed},
				{"apply", checkpoint.ApplyPath(cfg.Paths.StateDir, label), checkpoint.ModeApplied},
			}

			views := make([]checkpointView, 0, len(files))
			for _, f := range files {
				ids, lastRun, err := checkpoint.Peek(f.path, f.mode)
				if err != nil {
					return err
				}
				views = append(views, checkpointView{Name: f.name, Path: f.path, IDs: len(ids), LastRun: lastRun})
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, views)
			}
			rows := make([][]string, 0, len(views))
			for _, view := range views {
				last := "never"
				if !view.LastRun.IsZero() {
					last = humanize.Time(view.LastRun)
				}
				rows = append(rows, []string{view.Name, count(view.IDs), last, view.Path})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Checkpoint", "IDs", "Last run", "Path"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft}))
			return nil
		},
	}
}

func newCheckpointResetCommand(ctx *commandContext) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:       "reset <movies|people>",
		Short:     "Forget processed ids so the next run starts over",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kindArg(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			label := ledger.KindLabel(kind)
			path := checkpoint.ProgressPath(cfg.Paths.StateDir, label)
			mode := checkpoint.ModeProcessed
			if apply {
				path = checkpoint.ApplyPath(cfg.Paths.StateDir, label)
				mode = checkpoint.ModeApplied
			}
			if err := resetCheckpoint(path, mode, checkpoint.WithLogger(logger)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %s checkpoint for %s\n", mode, label)
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "Reset the apply checkpoint instead of the enrichment one")
	return cmd
}

func resetCheckpoint(path string, mode checkpoint.Mode, opts ...checkpoint.Option) error {
	cp, err := checkpoint.Open(path, mode, opts...)
	if err != nil {
		return err
	}
	if err := cp.Reset(); err != nil {
		_ = cp.Close()
		return err
	}
	return cp.Close()
}
