package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"yashubustudio/talentos/internal/config"
	"yashubustudio/talentos/profiler"
)

func newVocabCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "vocab [term...]",
		Short: "List the skill categories and terms in use, or the categories of the given terms",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd, root)
			if err != nil {
				return err
			}
			categories, err := config.LoadVocabulary(settings.VocabularyPath)
			if err != nil {
				return err
			}
			vocab := profiler.NewVocabulary(categories)
			out := cmd.OutOrStdout()
			if len(args) > 0 {
				return lookupTerms(cmd, vocab, args, asJSON)
			}
			if asJSON {
				return writeJSON(out, vocab.Categories())
			}
			for _, c := range vocab.Categories() {
				fmt.Fprintf(out, "%s (%d): %s\n", c.Name, len(c.Terms), strings.Join(c.Terms, ", "))
			}
			for _, rule := range settings.Scoring.Composites {
				fmt.Fprintf(out, "%s = %s\n", rule.Name, strings.Join(rule.Requires, " + "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json-output", false, "print the categories as JSON")
	return cmd
}

// lookupTerms prints the categories owning each term; unknown terms map to
// an empty list.
func lookupTerms(cmd *cobra.Command, vocab *profiler.Vocabulary, terms []string, asJSON bool) error {
	owners := make(map[string][]string, len(terms))
	for _, term := range terms {
		cats := vocab.CategoriesOf(term)
		if cats == nil {
			cats = []string{}
		}
		owners[term] = cats
	}
	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, owners)
	}
	for _, term := range terms {
		cats := owners[term]
		if len(cats) == 0 {
			fmt.Fprintf(out, "%s: -\n", term)
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", term, strings.Join(cats, ", "))
	}
	return nil
}
