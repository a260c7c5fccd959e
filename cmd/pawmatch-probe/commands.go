package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/pawmatch/internal/domain/model"
	"github.com/okian/pawmatch/internal/probe"
)

// NewRankCmd prints a user's ranked list.
func NewRankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank <user>",
		Short: "Fetch a user's ranked list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			list, err := clientFrom(cmd).Matches(cmd.Context(), args[0], limit)
			if err != nil {
				return fmt.Errorf("rank %s: %w", args[0], err)
			}
			return printList(cmd, list)
		},
	}
	cmd.Flags().Int("limit", 0, "Maximum number of pets (0 for all)")
	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}

// NewRefreshCmd forces a reload of a user's ranked list.
func NewRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh <user>",
		Short: "Reload a user's ranked list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			list, err := clientFrom(cmd).Refresh(cmd.Context(), args[0], limit)
			if err != nil {
				return fmt.Errorf("refresh %s: %w", args[0], err)
			}
			return printList(cmd, list)
		},
	}
	cmd.Flags().Int("limit", 0, "Maximum number of pets (0 for all)")
	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}

// NewScoreCmd prints one pet's score for a user.
func NewScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <user> <pet>",
		Short: "Fetch one pet's score",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := clientFrom(cmd).Score(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("score %s/%s: %w", args[0], args[1], err)
			}
			if st.Pending {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: pending\n", st.PetID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %.1f (%s)\n", st.PetID, st.Score, st.Origin)
			return nil
		},
	}
}

// NewNotifyCmd posts a change notification.
func NewNotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify <catalog|preferences|history> [user]",
		Short: "Post a change notification",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			e := model.ChangeEvent{Kind: kind}
			if len(args) == 2 {
				e.UserID = args[1]
			}
			if !e.Global() && e.UserID == "" {
				return fmt.Errorf("%s notifications need a user", args[0])
			}
			e.EventID, _ = cmd.Flags().GetString("id")

			ack, err := clientFrom(cmd).Notify(cmd.Context(), e)
			if err != nil {
				return fmt.Errorf("notify: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ack.Status)
			return nil
		},
	}
	cmd.Flags().String("id", "", "Event id (default: random UUID)")
	return cmd
}

// NewVerifyCmd checks ranking invariants for a set of users.
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <user>...",
		Short: "Verify ranked-list invariants for users",
		Long:  `Fetch each user's list and check descending order, score bounds, unique pets and neutral scores.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workers, _ := cmd.Flags().GetInt("workers")
			rep, err := probe.Verify(cmd.Context(), clientFrom(cmd), args, workers, loggerFrom(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "users: %d  verified: %d  failed: %d  in %s\n",
				rep.Users, rep.Verified, rep.Failed, rep.Duration.Round(time.Millisecond))
			for user, errs := range rep.Violations {
				for _, e := range errs {
					fmt.Fprintf(out, "  %s: %v\n", user, e)
				}
			}
			if !rep.OK() {
				return fmt.Errorf("verification failed")
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
	cmd.Flags().Int("workers", 4, "Concurrent requests")
	return cmd
}

func parseKind(s string) (model.ChangeKind, error) {
	switch strings.ToLower(s) {
	case "catalog", string(model.ChangeCatalog):
		return model.ChangeCatalog, nil
	case "preferences", string(model.ChangePreferences):
		return model.ChangePreferences, nil
	case "history", string(model.ChangeHistory):
		return model.ChangeHistory, nil
	default:
		return "", fmt.Errorf("unknown change kind %q", s)
	}
}

func printList(cmd *cobra.Command, list model.RankedList) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), list)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s, generation %d)\n", list.UserID, list.Mode, list.Generation)
	for i, p := range list.Pets {
		fmt.Fprintf(out, "%3d. %-10s %-12s %6.1f  %s\n", i+1, p.Pet.ID, p.Pet.Name, p.Score, p.Origin)
	}
	return nil
}
