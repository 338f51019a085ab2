package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"beespeak/internal/config"
	"beespeak/internal/voice"
)

var (
	vocabDefaults bool
)

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Print the active vocabulary as YAML",
	Long: `Print the command and flag tables in the format BEESPEAK_VOCABULARY_FILE
accepts. The output is a starting point for a custom vocabulary file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		vocab := voice.DefaultVocabulary()
		if !vocabDefaults {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if vocab, err = voice.LoadVocabulary(cfg.Voice.VocabularyPath); err != nil {
				return fmt.Errorf("load vocabulary: %w", err)
			}
		}

		data, err := vocab.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(vocabCmd)
	vocabCmd.Flags().BoolVar(&vocabDefaults, "defaults", false, "Ignore the vocabulary file and print the built-in tables")
}
