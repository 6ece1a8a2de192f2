package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cinematch/internal/ledger"
	"cinematch/internal/names"
)

// nameReviewFile is written to the reports directory when a split needs a
// human decision.
const nameReviewFile = "people-for-review.csv"

func newNamesCommand(ctx *commandContext) *cobra.Command {
	namesCmd := &cobra.Command{
		Use:   "names",
		Short: "Name normalization utilities",
	}
	namesCmd.AddCommand(newNamesSplitCommand(ctx))
	return namesCmd
}

type splitRow struct {
	FullName    string `json:"full_name"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Gender      string `json:"gender,omitempty"`
	NeedsReview bool   `json:"needs_review"`
	Reason      string `json:"reason,omitempty"`
}

func newNamesSplitCommand(ctx *commandContext) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "split [name...]",
		Short: "Split full names into first name and surname",
		Long: `Split each full name into first name(s) and surname using the first-name
gender table. Unknown first names are resolved through the LLM oracle when
OPENROUTER_API_KEY is set. Names that need a human decision are written to
people-for-review.csv in the reports directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := collectNames(args, file)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return errors.New("no names given (pass names as arguments or use --file)")
			}
			return runNamesSplit(cmd, ctx, inputs)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read names from a file, one per line")
	return cmd
}

func collectNames(args []string, path string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if name := strings.TrimSpace(arg); name != "" {
			out = append(out, name)
		}
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return out, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open names file: %w", err)
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			out = append(out, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read names file: %w", err)
	}
	return out, nil
}

func runNamesSplit(cmd *cobra.Command, ctx *commandContext, inputs []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	runCtx := cmd.Context()
	st, err := ctx.openStore(runCtx)
	if err != nil {
		return err
	}
	defer st.Close()

	splitter, err := ctx.newSplitter(runCtx, st)
	if err != nil {
		return err
	}

	rows := make([]splitRow, 0, len(inputs))
	var reviews []ledger.NameReview
	for _, full := range inputs {
		if err := runCtx.Err(); err != nil {
			return err
		}
		result := splitter.Split(runCtx, full)
		rows = append(rows, splitRow{
			FullName:    full,
			FirstName:   result.FirstName,
			LastName:    result.LastName,
			Gender:      string(result.Gender),
			NeedsReview: result.NeedsReview,
			Reason:      result.ReviewReason,
		})
		if result.NeedsReview {
			reviews = append(reviews, ledger.NameReview{
				FullName:  full,
				FirstName: result.FirstName,
				LastName:  result.LastName,
				Gender:    string(result.Gender),
				Reason:    result.ReviewReason,
			})
		}
	}

	reviewPath := ""
	if len(reviews) > 0 {
		reviewPath = filepath.Join(cfg.Paths.ReportsDir, nameReviewFile)
		if err := ledger.WriteNameReviews(reviewPath, reviews); err != nil {
			return err
		}
	}

	if ctx.jsonOutput() {
		return writeJSON(cmd, rows)
	}

	out := cmd.OutOrStdout()
	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		review := ""
		if row.NeedsReview {
			review = row.Reason
		}
		table = append(table, []string{row.FullName, row.FirstName, row.LastName, genderLabel(names.Gender(row.Gender)), review})
	}
	fmt.Fprintln(out, renderTable([]string{"Full name", "First name", "Last name", "Gender", "Review"}, table, nil))
	if reviewPath != "" {
		fmt.Fprintf(out, "%d name(s) need review: %s\n", len(reviews), reviewPath)
	}
	return nil
}

func genderLabel(g names.Gender) string {
	if g == "" {
		return "-"
	}
	return string(g)
}
