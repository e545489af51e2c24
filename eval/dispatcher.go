package eval

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/personabench/lmeval/config"
	"github.com/personabench/lmeval/providers"
	"github.com/personabench/lmeval/retry"
	"github.com/personabench/lmeval/utils"
)

// oversubscription is how many batches each worker gets on average, so
// stragglers do not stall the run.
const oversubscription = 4

// Combination identifies one (provider, model, prompt version) run.
type Combination struct {
	Provider      string
	Model         string
	PromptVersion string
	APIKey        string
}

// Invoker is the single-call surface the dispatcher needs from a client.
type Invoker interface {
	Invoke(ctx context.Context, req *providers.Request) (*providers.Response, error)
}

// ClientFactory builds a fresh client for one worker. Clients are never
// shared between workers, so whatever session state they hold stays
// confined to a single goroutine.
type ClientFactory func(comb Combination) (Invoker, error)

// Summary carries the success and error counts for one combination.
type Summary struct {
	Processed int64
	Errors    int64
}

// Total returns the number of outputs accounted for.
func (s Summary) Total() int64 {
	return s.Processed + s.Errors
}

// Dispatcher processes every output of every entry for one combination
// concurrently and aggregates the result records.
type Dispatcher struct {
	cfg       *config.Config
	newClient ClientFactory
	logger    utils.Logger
}

// NewDispatcher creates a dispatcher. The factory is called once per
// batch worker.
func NewDispatcher(cfg *config.Config, factory ClientFactory, logger utils.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:       cfg,
		newClient: factory,
		logger:    logger,
	}
}

// workerCount sizes the pool as a fraction of available parallelism,
// clamped to [1, batches].
func (d *Dispatcher) workerCount(batches int) int {
	workers := int(float64(runtime.GOMAXPROCS(0)) * d.cfg.WorkerFraction)
	if workers < 1 {
		workers = 1
	}
	if workers > batches {
		workers = batches
	}
	return workers
}

// partition splits entries into contiguous batches of
// max(1, len/(workers*oversubscription)).
func partition(entries []Entry, workers int) [][]Entry {
	batchSize := len(entries) / (workers * oversubscription)
	if batchSize < 1 {
		batchSize = 1
	}
	var batches [][]Entry
	for i := 0; i < len(entries); i += batchSize {
		end := i + batchSize
		if end > len(entries) {
			end = len(entries)
		}
		batches = append(batches, entries[i:end])
	}
	return batches
}

// Run processes all entries for one combination. Results merge in
// completion order, which is not the input order; counters are atomic and
// only ever updated here, and the progress count reported per batch is
// monotonically increasing. The returned error covers dispatch-level
// failures only; per-output failures are folded into the records.
func (d *Dispatcher) Run(ctx context.Context, entries []Entry, comb Combination, templates *PromptTemplates) ([]ResultRecord, Summary, error) {
	totalOutputs := 0
	for i := range entries {
		totalOutputs += len(entries[i].Outputs)
	}

	preWorkers := int(float64(runtime.GOMAXPROCS(0)) * d.cfg.WorkerFraction)
	if preWorkers < 1 {
		preWorkers = 1
	}
	batches := partition(entries, preWorkers)
	workers := d.workerCount(len(batches))

	d.logger.Info("processing combination",
		"provider", comb.Provider,
		"model", comb.Model,
		"prompt_version", comb.PromptVersion,
		"entries", len(entries),
		"outputs", totalOutputs,
		"batches", len(batches),
		"workers", workers)

	var processed, errCount atomic.Int64

	resultsCh := make(chan []ResultRecord, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			records, err := d.processBatch(gctx, batch, comb, templates)
			if err != nil {
				return err
			}
			resultsCh <- records
			return nil
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
		close(resultsCh)
	}()

	allResults := make([]ResultRecord, 0, totalOutputs)
	for records := range resultsCh {
		for i := range records {
			if records[i].IsError() {
				errCount.Add(1)
			} else {
				processed.Add(1)
			}
		}
		allResults = append(allResults, records...)
		d.logger.Info("batch complete",
			"provider", comb.Provider,
			"model", comb.Model,
			"progress", processed.Load()+errCount.Load(),
			"total", totalOutputs)
	}

	summary := Summary{Processed: processed.Load(), Errors: errCount.Load()}
	if err := <-done; err != nil {
		return allResults, summary, err
	}
	return allResults, summary, nil
}

// processBatch rates every output of every entry in one batch with its
// own client. Failures are recorded at output granularity and never abort
// sibling outputs or entries.
func (d *Dispatcher) processBatch(ctx context.Context, batch []Entry, comb Combination, templates *PromptTemplates) ([]ResultRecord, error) {
	client, err := d.newClient(comb)
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", comb.Provider, err)
	}

	handler := retry.NewHandler(d.cfg.MaxRetries, d.cfg.BaseDelay, d.cfg.MaxDelay, true, d.logger)

	var records []ResultRecord
	for i := range batch {
		records = append(records, d.processEntry(ctx, client, handler, &batch[i], comb, templates)...)
	}
	return records, nil
}

func (d *Dispatcher) processEntry(ctx context.Context, client Invoker, handler *retry.Handler, entry *Entry, comb Combination, templates *PromptTemplates) []ResultRecord {
	template, family, err := templates.ForPortrait(entry.PortraitID)
	if err != nil {
		d.logger.Error("portrait routing failed", "portrait_id", entry.PortraitID, "error", err)
		return []ResultRecord{{
			PortraitID: entry.PortraitID,
			Error:      err.Error(),
		}}
	}

	records := make([]ResultRecord, 0, len(entry.Outputs))
	for _, output := range entry.Outputs {
		records = append(records, d.processOutput(ctx, client, handler, entry, &output, comb, template, family))
	}
	return records
}

func (d *Dispatcher) processOutput(ctx context.Context, client Invoker, handler *retry.Handler, entry *Entry, output *Output, comb Combination, template, family string) ResultRecord {
	prompt := BuildPrompt(template, family, entry, output.Content)
	if tokens := EstimateTokens(prompt); tokens > 0 {
		d.logger.Debug("prompt prepared",
			"portrait_id", entry.PortraitID,
			"option_id", output.ID,
			"estimated_tokens", tokens)
	}

	req := &providers.Request{
		Messages:    []providers.Message{{Role: "user", Content: prompt}},
		Model:       comb.Model,
		Temperature: d.cfg.Temperature,
		MaxTokens:   d.cfg.MaxTokens,
		Seed:        d.cfg.Seed,
	}

	var resp *providers.Response
	err := handler.Execute(ctx, func() error {
		r, invokeErr := client.Invoke(ctx, req)
		if invokeErr != nil {
			return invokeErr
		}
		resp = r
		return nil
	})
	if err != nil {
		d.logger.Error("output failed",
			"portrait_id", entry.PortraitID, "option_id", output.ID, "error", err)
		return failureRecord(entry, output, prompt, err)
	}

	parsed, err := ParseLikert(resp.Content)
	if err != nil {
		d.logger.Error("unparsable response",
			"portrait_id", entry.PortraitID, "option_id", output.ID, "raw", resp.Content)
		return failureRecord(entry, output, prompt, err)
	}
	score, ok := LikertScore(parsed)
	if !ok {
		return failureRecord(entry, output, prompt, fmt.Errorf("no numeric mapping for category: %s", parsed))
	}

	return ResultRecord{
		PortraitID:            entry.PortraitID,
		OptionID:              output.ID,
		RawResponse:           resp.Content,
		ParsedResponse:        parsed,
		NumericResponse:       score,
		Content:               snapshotContent(entry, output.Content),
		Prompt:                prompt,
		Reasoning:             resp.Reasoning,
		Correlations:          output.Correlations,
		BFICorrelations:       output.BFICorrelations,
		HigherPVQCorrelations: output.HigherPVQCorrelations,
	}
}

func failureRecord(entry *Entry, output *Output, prompt string, err error) ResultRecord {
	return ResultRecord{
		PortraitID: entry.PortraitID,
		OptionID:   output.ID,
		Error:      err.Error(),
		Content:    snapshotContent(entry, output.Content),
		Prompt:     prompt,
	}
}
