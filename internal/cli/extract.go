package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"resume-analyzer-go/internal/parser"
	"resume-analyzer-go/internal/types"
)

func newExtractCmd(opts *globalOptions) *cobra.Command {
	var scheme string
	var sections bool
	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract a structured record from a resume",
		Long:  `Reads a PDF or plain-text resume and prints the extracted record as JSON.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sections {
				opts.cfg.Extractor.IncludeSections = true
			}
			record, err := extractFile(cmd.Context(), opts, args[0], scheme)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(record, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal record: %w", err)
			}
			cmd.Println(string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&scheme, "scheme", "", "scoring scheme: weighted or coarse")
	cmd.Flags().BoolVar(&sections, "sections", false, "include section segmentation in the output")
	return cmd
}

func newScoreCmd(opts *globalOptions) *cobra.Command {
	var scheme string
	cmd := &cobra.Command{
		Use:   "score [file]",
		Short: "Print the resume score breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := extractFile(cmd.Context(), opts, args[0], scheme)
			if err != nil {
				return err
			}
			printScore(cmd, record.Score)
			return nil
		},
	}
	cmd.Flags().StringVar(&scheme, "scheme", "", "scoring scheme: weighted or coarse")
	return cmd
}

func printScore(cmd *cobra.Command, score types.ScoreComponents) {
	components := score.Map()
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)

	cmd.Printf("Scheme: %s\n", score.Scheme)
	for _, name := range names {
		cmd.Printf("  %-13s %3d\n", name, components[name])
	}
	cmd.Printf("Total: %d (%s)\n", score.Total(), score.Interpretation())
}

// extractFile 读取文件文本并抽取
func extractFile(ctx context.Context, opts *globalOptions, path, scheme string) (*types.ResumeRecord, error) {
	text, err := readResumeText(ctx, opts, path)
	if err != nil {
		return nil, err
	}
	ext, err := opts.newExtractor(scheme)
	if err != nil {
		return nil, err
	}
	return ext.Extract(ctx, text)
}

// readResumeText PDF走解析器，其余按UTF-8文本读取
func readResumeText(ctx context.Context, opts *globalOptions, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("读取文件失败: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") || parser.IsPDF(data) {
		provider, err := parser.NewFromConfig(ctx, opts.cfg)
		if err != nil {
			return "", err
		}
		return provider.ExtractText(ctx, data, path)
	}
	return strings.ToValidUTF8(string(data), ""), nil
}
