package main

import (
	"fmt"
	"io"
	"os"

	"codefusion/internal/validator"

	"github.com/spf13/cobra"
)

// readSource reads the named file, or stdin when no file is given.
func readSource(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(args[0])
	return string(data), err
}

func newConvertCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a source file (or stdin) to another language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := readSource(cmd, args)
			if err != nil {
				return fmt.Errorf("reading source: %w", err)
			}
			if err := validator.NewPresenceValidator().Validate(code, from); err != nil {
				return err
			}

			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			converted, err := newConverter(cfg, logger).Convert(cmd.Context(), code, from, to)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), converted)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "source language")
	cmd.Flags().StringVar(&to, "to", "", "target language")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review [file]",
		Short: "Review a source file (or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := readSource(cmd, args)
			if err != nil {
				return fmt.Errorf("reading source: %w", err)
			}

			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			reviewer, err := newReviewer(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			return reviewer.StreamReview(cmd.Context(), code, func(chunk string) error {
				_, err := fmt.Fprint(cmd.OutOrStdout(), chunk)
				return err
			})
		},
	}
}
