package eval

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/personabench/lmeval/config"
	"github.com/personabench/lmeval/llm"
	"github.com/personabench/lmeval/providers"
	"github.com/personabench/lmeval/utils"
)

// Runner drives one experiment: every provider x model x prompt version
// combination, each isolated so a failing combination never takes down
// the run.
type Runner struct {
	cfg      *config.Config
	registry *providers.Registry
	logger   utils.Logger
}

// NewRunner creates a runner backed by the given provider registry.
func NewRunner(cfg *config.Config, registry *providers.Registry, logger utils.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		registry: registry,
		logger:   logger,
	}
}

// clientFactory adapts the registry to the dispatcher: each worker gets a
// newly constructed provider and HTTP client.
func (r *Runner) clientFactory(comb Combination) (Invoker, error) {
	provider, err := r.registry.Get(comb.Provider, comb.APIKey, comb.Model, nil)
	if err != nil {
		return nil, err
	}
	return llm.NewClient(provider, r.cfg, r.logger), nil
}

// modelBaseName strips any routing namespace from a model identifier, so
// "meta-llama/llama-3-70b" files as "llama-3-70b".
func modelBaseName(model string) string {
	if idx := strings.LastIndex(model, "/"); idx >= 0 {
		return model[idx+1:]
	}
	return model
}

// RunExperiment executes every combination of an experiment. A provider
// with no credential in the environment is skipped and logged; any other
// per-combination failure is logged and the run continues.
func (r *Runner) RunExperiment(ctx context.Context, exp config.Experiment, data []Entry) error {
	runID := time.Now().Format("20060102_150405") + "_" + uuid.NewString()[:8]
	expDir := filepath.Join(r.cfg.OutputDir, exp.Name, runID)

	r.logger.Info("starting experiment", "name", exp.Name, "run_id", runID)
	if exp.Description != "" {
		r.logger.Info("experiment description", "description", exp.Description)
	}

	dispatcher := NewDispatcher(r.cfg, r.clientFactory, r.logger)

	providerNames := make([]string, 0, len(exp.Providers))
	for name := range exp.Providers {
		providerNames = append(providerNames, name)
	}
	sort.Strings(providerNames)

	for _, providerName := range providerNames {
		apiKey, ok := r.cfg.APIKey(providerName)
		if !ok {
			r.logger.Error("missing API key for provider, skipping",
				"provider", providerName,
				"variable", strings.ToUpper(providerName)+"_API_KEY")
			continue
		}

		providerDir := filepath.Join(expDir, providerName)
		spec := exp.Providers[providerName]

		for _, model := range spec.Models {
			for _, promptVersion := range exp.Prompts {
				if err := r.runCombination(ctx, dispatcher, data, Combination{
					Provider:      providerName,
					Model:         model,
					PromptVersion: promptVersion,
					APIKey:        apiKey,
				}, providerDir); err != nil {
					r.logger.Error("combination failed",
						"provider", providerName,
						"model", model,
						"prompt_version", promptVersion,
						"error", err)
				}
			}
		}
		r.logger.Info("completed provider", "provider", providerName)
	}

	r.logger.Info("completed experiment", "name", exp.Name)
	return nil
}

func (r *Runner) runCombination(ctx context.Context, dispatcher *Dispatcher, data []Entry, comb Combination, providerDir string) error {
	templates, err := LoadPromptTemplates(r.cfg.PromptDir, comb.PromptVersion)
	if err != nil {
		return fmt.Errorf("loading prompt templates: %w", err)
	}

	records, summary, err := dispatcher.Run(ctx, data, comb, templates)
	if err != nil {
		return err
	}

	outputPath := filepath.Join(providerDir,
		fmt.Sprintf("%s_%s_results.json", modelBaseName(comb.Model), comb.PromptVersion))
	if err := SaveRecords(outputPath, records); err != nil {
		return err
	}

	r.logger.Info("run summary",
		"provider", comb.Provider,
		"model", comb.Model,
		"prompt_version", comb.PromptVersion,
		"total", summary.Total(),
		"successful", summary.Processed,
		"errors", summary.Errors,
		"output", outputPath)
	return nil
}
