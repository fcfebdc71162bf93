package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"yashubustudio/talentos/internal/config"
	"yashubustudio/talentos/profiler"
)

func newInitCmd() *cobra.Command {
	var (
		configPath string
		vocabPath  string
		force      bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file and vocabulary file to edit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if _, err := os.Stat(configPath); err == nil && !force {
				fmt.Fprintf(out, "config %s already exists, skipping\n", configPath)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			} else {
				if err := config.WriteDefaults(configPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote config %s\n", configPath)
			}

			wrote, err := profiler.EnsureVocabularyFile(vocabPath, profiler.DefaultCategories())
			if err != nil {
				return err
			}
			if wrote {
				fmt.Fprintf(out, "wrote vocabulary %s\n", vocabPath)
			} else {
				fmt.Fprintf(out, "vocabulary %s already exists, skipping\n", vocabPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config-out", config.DefaultName+".yaml", "config file to write")
	cmd.Flags().StringVar(&vocabPath, "vocabulary-out", "vocabulary.json", "vocabulary file to write")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	return cmd
}
