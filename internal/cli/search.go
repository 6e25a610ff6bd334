package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"resume-analyzer-go/internal/storage"
)

type searchOptions struct {
	category    string
	minScore    int
	status      string
	shortlisted bool
	sort        string
	limit       int
	asJSON      bool
}

func newSearchCmd(opts *globalOptions) *cobra.Command {
	so := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search candidates",
		Long: `Lists candidates from the local database. The query is split on commas and any term may match;
--category limits the match to Skills, Name or Email.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := storage.SearchQuery{
				Category: storage.SearchCategory(so.category),
				MinScore: so.minScore,
				Status:   so.status,
				Sort:     storage.SortOrder(so.sort),
				Limit:    so.limit,
			}
			if len(args) == 1 {
				q.Query = args[0]
			}
			if cmd.Flags().Changed("shortlisted") {
				q.Shortlisted = &so.shortlisted
			}

			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			candidates, err := store.Search(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			if so.asJSON {
				for _, c := range candidates {
					c.Record = nil
				}
				data, err := json.MarshalIndent(candidates, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal results: %w", err)
				}
				cmd.Println(string(data))
				return nil
			}
			printCandidates(cmd, candidates)
			return nil
		},
	}
	cmd.Flags().StringVar(&so.category, "category", string(storage.SearchAll), "All, Skills, Name or Email")
	cmd.Flags().IntVar(&so.minScore, "min-score", 0, "minimum resume score")
	cmd.Flags().StringVar(&so.status, "status", "", "Active or Archived")
	cmd.Flags().BoolVar(&so.shortlisted, "shortlisted", false, "only shortlisted (or, with =false, not shortlisted) candidates")
	cmd.Flags().StringVar(&so.sort, "sort", string(storage.SortScore), "score, experience, recent or name")
	cmd.Flags().IntVarP(&so.limit, "limit", "n", 20, "maximum number of results")
	cmd.Flags().BoolVar(&so.asJSON, "json", false, "output results as JSON")
	return cmd
}

func printCandidates(cmd *cobra.Command, candidates []*storage.Candidate) {
	if len(candidates) == 0 {
		cmd.Println("No candidates found.")
		return
	}
	for i, c := range candidates {
		mark := " "
		if c.Shortlisted {
			mark = "*"
		}
		cmd.Printf("%s[%d] %s  %s  score %d  %dy %s\n", mark, i+1, c.ID, c.FullName(), c.Score, c.ExperienceYears, c.Seniority)
		if c.Email != "" {
			cmd.Printf("      %s\n", c.Email)
		}
		if len(c.Skills) > 0 {
			cmd.Printf("      %s\n", strings.Join(c.Skills, ", "))
		}
	}
}
