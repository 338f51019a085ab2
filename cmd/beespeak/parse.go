package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"beespeak/internal/config"
	"beespeak/internal/corrections"
	"beespeak/internal/domain"
	"beespeak/internal/voice"
)

var (
	parseJSON bool
)

// interpretation is what the voice engine makes of one utterance.
type interpretation struct {
	Raw       string                 `json:"raw"`
	Corrected string                 `json:"corrected"`
	Flags     domain.InspectionFlags `json:"flags"`
	Command   domain.CommandID       `json:"command,omitempty"`
	Lifecycle bool                   `json:"lifecycle"`
}

var parseCmd = &cobra.Command{
	Use:   "parse [utterance...]",
	Short: "Interpret an utterance with the configured corrections and vocabulary",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		vocab, err := voice.LoadVocabulary(cfg.Voice.VocabularyPath)
		if err != nil {
			return fmt.Errorf("load vocabulary: %w", err)
		}
		engine, err := corrections.Load(cfg.Corrections.Path, cfg.Corrections.IterationLimit)
		if err != nil {
			return fmt.Errorf("load corrections: %w", err)
		}

		result, err := interpret(vocab, engine, strings.Join(args, " "))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if parseJSON {
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		}

		fmt.Fprintf(out, "corrected: %s\n", result.Corrected)
		for _, field := range domain.FlagFields {
			if value := result.Flags.Get(field); value != nil {
				fmt.Fprintf(out, "%s: %t\n", field, *value)
			}
		}
		if result.Flags.VarroaLevel != domain.VarroaNone {
			fmt.Fprintf(out, "varroa_level: %s\n", result.Flags.VarroaLevel)
		}
		if result.Command != "" {
			fmt.Fprintf(out, "command: %s\n", result.Command)
		}
		return nil
	},
}

func interpret(vocab voice.Vocabulary, engine *corrections.Engine, raw string) (interpretation, error) {
	corrected, err := engine.Apply(raw)
	if err != nil {
		return interpretation{}, fmt.Errorf("apply corrections: %w", err)
	}
	result := interpretation{
		Raw:       raw,
		Corrected: corrected,
		Flags:     vocab.ExtractFlags(corrected),
	}
	if command, ok := vocab.MatchCommand(corrected); ok {
		result.Command = command
		result.Flags = voice.ApplyCommand(result.Flags, command)
		result.Lifecycle = voice.IsLifecycleCommand(command)
	}
	return result, nil
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Output in JSON format")
}
