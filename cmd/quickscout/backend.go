package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/quickscout/quickscout-go/internal/submit"
)

// backendCmd builds a one-shot command against the scouting backend.
func backendCmd(a *app, use, short string, args cobra.PositionalArgs, run func(ctx context.Context, c *submit.Client, args []string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			client, err := a.submitClient()
			if err != nil {
				return err
			}
			msg, err := run(cmd.Context(), client, argv)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newClaimCmd(a *app) *cobra.Command {
	return backendCmd(a, "claim <position>", "Claim a driver-station scouting seat", cobra.ExactArgs(1),
		func(ctx context.Context, c *submit.Client, args []string) (string, error) {
			if err := c.ClaimPosition(ctx, args[0]); err != nil {
				return "", err
			}
			return "claimed " + args[0], nil
		})
}

func newReleaseCmd(a *app) *cobra.Command {
	return backendCmd(a, "release <position>", "Release a claimed scouting seat", cobra.ExactArgs(1),
		func(ctx context.Context, c *submit.Client, args []string) (string, error) {
			if err := c.RemovePosition(ctx, args[0]); err != nil {
				return "", err
			}
			return "released " + args[0], nil
		})
}

func newSuperscoutCmd(a *app) *cobra.Command {
	return backendCmd(a, "superscout <user-id>", "Toggle a user's superscout role", cobra.ExactArgs(1),
		func(ctx context.Context, c *submit.Client, args []string) (string, error) {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return "", fmt.Errorf("user id %q: %w", args[0], err)
			}
			if err := c.ToggleSuperscout(ctx, id); err != nil {
				return "", err
			}
			return fmt.Sprintf("toggled superscout for user %d", id), nil
		})
}

func newPredictCmd(a *app) *cobra.Command {
	return backendCmd(a, "predict <match> <red|blue>", "Predict the winning alliance of a match", cobra.ExactArgs(2),
		func(ctx context.Context, c *submit.Client, args []string) (string, error) {
			match, err := strconv.Atoi(args[0])
			if err != nil {
				return "", fmt.Errorf("match %q: %w", args[0], err)
			}
			if err := c.Predict(ctx, match, args[1]); err != nil {
				return "", err
			}
			return fmt.Sprintf("predicted %s for match %d", args[1], match), nil
		})
}
