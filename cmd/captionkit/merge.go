package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/camerabench/captionkit/internal/config"
	"github.com/camerabench/captionkit/internal/merged"
	"github.com/camerabench/captionkit/pkg/log"
)

func runMergeCaptions(cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("merge-captions", flag.ExitOnError)
	input := flags.String("input", "", "JSON file mapping caption types to caption text")
	configPath := flags.String("config", "", "merge config file (default: built-in prompt)")
	model := flags.String("model", "", "LLM model override")
	output := flags.String("output", "", "write the result JSON here instead of stdout")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return fmt.Errorf("--input is required")
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		return err
	}
	var captions map[string]string
	if err := json.Unmarshal(data, &captions); err != nil {
		return fmt.Errorf("parse captions %s: %w", *input, err)
	}

	mergeConfig, err := merged.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *model == "" && mergeConfig.DefaultModel != "" {
		*model = mergeConfig.DefaultModel
	}

	client, err := newLLMClient(cfg, *model)
	if err != nil {
		return err
	}
	merger, err := merged.NewMerger(client, mergeConfig)
	if err != nil {
		return err
	}

	result := merger.Merge(context.Background(), captions)
	if !result.Success {
		log.Warn("Merge failed: %s", result.ErrorMessage)
	} else {
		log.Info("Merged caption: %d words, ~%d tokens", result.WordCount, result.TokenCount)
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	if *output == "" {
		fmt.Println(string(encoded))
		return nil
	}
	return os.WriteFile(*output, append(encoded, '\n'), 0o644)
}

func runExtractConfig(cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("extract-config", flag.ExitOnError)
	output := flags.String("output", "configs/summary_caption_config.json", "config file path")
	model := flags.String("model", "", "default model to record in the config")
	if err := flags.Parse(args); err != nil {
		return err
	}

	mergeConfig := merged.DefaultConfig()
	mergeConfig.DefaultModel = *model
	if mergeConfig.DefaultModel == "" {
		mergeConfig.DefaultModel = cfg.LLM.Model
	}

	if err := merged.SaveConfig(*output, mergeConfig); err != nil {
		return err
	}
	log.Info("Wrote merge config to %s", *output)
	return nil
}
