package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newShortlistCmd(opts *globalOptions) *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "shortlist [id]",
		Short: "Add a candidate to (or remove from) the shortlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SetShortlisted(cmd.Context(), args[0], !remove); err != nil {
				return err
			}
			if remove {
				cmd.Printf("Removed %s from the shortlist\n", args[0])
			} else {
				cmd.Printf("Shortlisted %s\n", args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "remove from the shortlist")
	return cmd
}

func newStatsCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise the candidate database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				data, err := json.MarshalIndent(stats, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal stats: %w", err)
				}
				cmd.Println(string(data))
				return nil
			}

			cmd.Printf("Candidates:      %d\n", stats.Count)
			cmd.Printf("Average score:   %.1f\n", stats.AverageScore)
			cmd.Printf("High performers: %d\n", stats.HighPerformers)
			cmd.Printf("Shortlisted:     %d\n", stats.Shortlisted)
			printCounts(cmd, "Score categories", stats.ScoreCategories)
			printCounts(cmd, "Experience", stats.ExperienceCategories)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func printCounts(cmd *cobra.Command, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	cmd.Printf("%s:\n", title)
	for _, k := range keys {
		cmd.Printf("  %-32s %d\n", k, counts[k])
	}
}
