package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"satchel/internal/store"
)

func newQueueCommand(cctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the submission queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	queueCmd.AddCommand(newQueueListCommand(cctx))
	queueCmd.AddCommand(newQueueShowCommand(cctx))
	queueCmd.AddCommand(newQueueRetryCommand(cctx))
	return queueCmd
}

func newQueueListCommand(cctx *commandContext) *cobra.Command {
	var (
		onlyValid      bool
		onlyInvalid    bool
		onlyCheckedOut bool
		limit          uint64
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submission attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cctx.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			filter := store.AttemptFilter{Limit: limit}
			if onlyValid {
				v := true
				filter.IsValid = &v
			}
			if onlyInvalid {
				v := false
				filter.IsValid = &v
			}
			if onlyCheckedOut {
				v := true
				filter.CheckedOut = &v
			}

			attempts, err := s.ListAttempts(cmd.Context(), filter)
			if err != nil {
				return err
			}

			tw := newTableWriter()
			tw.AppendHeader(table.Row{"ID", "Started", "Valid", "Checkout", "Retries", "Package"})
			for _, attempt := range attempts {
				tw.AppendRow(table.Row{
					attempt.ID,
					attempt.StartedAt.Local().Format(time.DateTime),
					attempt.IsValid,
					checkoutState(&attempt),
					attempt.CheckoutRetries,
					attempt.FilePath,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
			return nil
		},
	}

	cmd.Flags().BoolVar(&onlyValid, "valid", false, "Only valid attempts")
	cmd.Flags().BoolVar(&onlyInvalid, "invalid", false, "Only invalid attempts")
	cmd.Flags().BoolVar(&onlyCheckedOut, "checked-out", false, "Only checked-out attempts")
	cmd.Flags().Uint64Var(&limit, "limit", 0, "Maximum number of attempts to list")
	cmd.MarkFlagsMutuallyExclusive("valid", "invalid")
	return cmd
}

func newQueueShowCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <attempt-id>",
		Short: "Show an attempt with its checkpoints and notices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid attempt id %q", args[0])
			}

			s, err := cctx.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			attempt, err := s.GetAttempt(ctx, id)
			if err != nil {
				return err
			}
			pkg, err := s.GetPackage(ctx, attempt.PackageID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Attempt %d\n", attempt.ID)
			fmt.Fprintf(out, "  Article:   %s\n", pkg.ArticleTitle)
			fmt.Fprintf(out, "  Journal:   %s\n", pkg.JournalTitle)
			fmt.Fprintf(out, "  AID:       %s\n", pkg.AID)
			fmt.Fprintf(out, "  Package:   %s\n", attempt.FilePath)
			fmt.Fprintf(out, "  Checksum:  %s\n", attempt.Checksum)
			fmt.Fprintf(out, "  Valid:     %v\n", attempt.IsValid)
			fmt.Fprintf(out, "  Checkout:  %s\n", checkoutState(attempt))
			if attempt.CheckinURI != nil {
				fmt.Fprintf(out, "  Checkin:   %s\n", *attempt.CheckinURI)
			}

			for _, point := range []store.Point{store.PointCheckin, store.PointValidation, store.PointCheckout} {
				cp, err := s.GetCheckpoint(ctx, attempt.ID, point)
				if err != nil {
					continue
				}
				fmt.Fprintf(out, "\nCheckpoint %s (started %s", point, formatTime(cp.StartedAt))
				fmt.Fprintf(out, ", ended %s)\n", formatTime(cp.EndedAt))

				notices, err := s.Notices(ctx, cp.ID)
				if err != nil {
					return err
				}
				if len(notices) == 0 {
					continue
				}
				tw := newTableWriter()
				tw.AppendHeader(table.Row{"Stage", "Status", "Message"})
				for _, notice := range notices {
					tw.AppendRow(table.Row{notice.Stage, notice.Status, notice.Message})
				}
				fmt.Fprintln(out, tw.Render())
			}
			return nil
		},
	}
}

func newQueueRetryCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <attempt-id>",
		Short: "Rearm an attempt for checkout and clear its retry counter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid attempt id %q", args[0])
			}

			s, err := cctx.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.ResetCheckout(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "attempt %d rearmed for checkout\n", id)
			return nil
		},
	}
}

func newTableWriter() table.Writer {
	tw := table.NewWriter()
	if isatty.IsTerminal(os.Stdout.Fd()) {
		tw.SetStyle(table.StyleLight)
	}
	return tw
}

func checkoutState(attempt *store.Attempt) string {
	switch {
	case attempt.CheckedOut():
		return "done"
	case attempt.QueuedCheckout:
		return "queued"
	case attempt.ProceedToCheckout:
		return "pending"
	default:
		return "-"
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}
