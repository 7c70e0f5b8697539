package commands

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/benvon/study-planner/internal/credentials"
	"github.com/spf13/cobra"
)

func newKeyCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the AI API key stored in the OS keyring",
	}
	cmd.AddCommand(newKeySetCmd(), newKeyDeleteCmd(), newKeyTestCmd(opts))
	return cmd
}

func newKeySetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [key]",
		Short: "Store the API key; reads the first line of stdin when no argument is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read key from stdin: %w", err)
				}
				key = line
			}
			key = strings.TrimSpace(key)

			if err := credentials.SetAPIKey(key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key stored in keyring")
			return nil
		},
	}
}

func newKeyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := credentials.DeleteAPIKey()
			if errors.Is(err, credentials.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "No API key stored")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key removed from keyring")
			return nil
		},
	}
}

func newKeyTestCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Make one minimal generation to verify the configured key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.plannerService(cmd, false)
			if err != nil {
				return err
			}
			if err := svc.CheckAPIKey(cmd.Context()); err != nil {
				return fmt.Errorf("API key check failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API key accepted by %s\n", opts.provider)
			return nil
		},
	}
}
