package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"satchel/internal/checkout"
	"satchel/internal/logging"
	"satchel/internal/notifier"
	"satchel/internal/registry"
	"satchel/internal/stasher"
)

// newCheckoutCommand runs one checkout batch: the eligible attempts by
// default, or the attempts named in a manifest.
func newCheckoutCommand(cctx *commandContext) *cobra.Command {
	var manifestFlag string

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Run a checkout batch",
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
			backend, err := stasher.New(cfg.Storage)
			if err != nil {
				return err
			}
			factory, err := notifier.NewFactory(s, client, cfg.Registry.Notifications, logger)
			if err != nil {
				return err
			}
			processor, err := checkout.New(s, client, backend, factory, cfg.Checkout, cfg.Workflow, logger)
			if err != nil {
				return err
			}

			var succeeded int
			if manifestFlag != "" {
				manifest, err := checkout.LoadManifest(manifestFlag)
				if err != nil {
					return err
				}
				succeeded, err = processor.RunManifest(cmd.Context(), manifest)
				if err != nil {
					return err
				}
			} else {
				succeeded, err = processor.ProcessBatch(cmd.Context())
				if err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d attempt(s) checked out\n", succeeded)
			return nil
		},
	}

	cmd.Flags().StringVar(&manifestFlag, "manifest", "", "Manifest file naming the attempts to check out")
	return cmd
}
