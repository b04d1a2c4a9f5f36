package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"satchel/internal/checkin"
	"satchel/internal/logging"
	"satchel/internal/notifier"
	"satchel/internal/registry"
	"satchel/internal/validation"
)

// newValidateCommand checks in and validates a single package archive
// without the daemon.
func newValidateCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <archive>",
		Short: "Check in and validate one package archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			s, err := cctx.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			client, err := registry.New(cfg.Registry)
			if err != nil {
				return err
			}
			factory, err := notifier.NewFactory(s, client, cfg.Registry.Notifications, logger)
			if err != nil {
				return err
			}

			svc, err := checkin.NewService(s, factory, logger)
			if err != nil {
				return err
			}
			attempt, err := svc.Process(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			deps, err := validation.NewDeps(s, client, factory, logger)
			if err != nil {
				return err
			}
			runner, err := validation.NewRunner(deps)
			if err != nil {
				return err
			}
			if err := runner.Process(cmd.Context(), attempt); err != nil {
				return err
			}

			verdict := "valid"
			if !attempt.IsValid {
				verdict = "invalid"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "attempt %d: %s\n", attempt.ID, verdict)
			return nil
		},
	}
}
