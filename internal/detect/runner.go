package detect

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/camerabench/captionkit/internal/export"
	"github.com/camerabench/captionkit/internal/persistence"
	"github.com/camerabench/captionkit/pkg/log"
)

// Store persists classification progress so an interrupted run can resume
// without repeating model calls.
type Store interface {
	UpsertRun(ctx context.Context, run *persistence.DetectionRun) error
	UpsertResult(ctx context.Context, result *persistence.ResultRecord) error
	LoadResults(ctx context.Context, runID string) (map[string]persistence.ResultRecord, error)
}

// Runner classifies a set of samples with a bounded worker pool,
// checkpointing each result as it lands.
type Runner struct {
	detector Detector
	client   TextGenerator
	store    Store
	workers  int
}

// NewRunner builds a runner. client may be nil for rule detectors; store may
// be nil to run without checkpointing.
func NewRunner(detector Detector, client TextGenerator, store Store, workers int) (*Runner, error) {
	if detector.UsesLLM() && client == nil {
		return nil, fmt.Errorf("detector %s requires an LLM client", detector.Name)
	}
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		detector: detector,
		client:   client,
		store:    store,
		workers:  workers,
	}, nil
}

// Run classifies every sample, reusing checkpointed Yes/No results from a
// previous pass over the same run id. Unexpected results are retried. The
// returned slice is the input with classification fields filled in.
func (r *Runner) Run(ctx context.Context, run *persistence.DetectionRun, samples []export.Sample) ([]export.Sample, error) {
	previous := map[string]persistence.ResultRecord{}
	if r.store != nil {
		if err := r.store.UpsertRun(ctx, run); err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
		loaded, err := r.store.LoadResults(ctx, run.ID)
		if err != nil {
			return nil, fmt.Errorf("load checkpoint: %w", err)
		}
		previous = loaded
	}

	pending := make([]int, 0, len(samples))
	reused := 0
	for i := range samples {
		record, ok := previous[samples[i].Key()]
		if ok && record.Label != LabelUnexpected {
			samples[i].Label = record.Label
			samples[i].Rationale = record.Rationale
			samples[i].RawOutput = record.RawOutput
			reused++
			continue
		}
		pending = append(pending, i)
	}
	if reused > 0 {
		log.Info("Resuming run %s: %d checkpointed results reused, %d to classify", run.ID, reused, len(pending))
	}

	if len(pending) == 0 {
		return samples, ctx.Err()
	}

	indexCh := make(chan int)
	var wg sync.WaitGroup
	var progressMu sync.Mutex
	done := 0

	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexCh {
				r.classifyOne(ctx, run.ID, &samples[i])

				progressMu.Lock()
				done++
				if done%25 == 0 || done == len(pending) {
					log.Info("Classified %d/%d samples", done, len(pending))
				}
				progressMu.Unlock()
			}
		}()
	}

feed:
	for _, i := range pending {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indexCh)
	wg.Wait()

	return samples, ctx.Err()
}

func (r *Runner) classifyOne(ctx context.Context, runID string, sample *export.Sample) {
	var result Result
	if r.detector.UsesLLM() {
		classifier := NewClassifier(r.client, r.detector.Prompt)
		result = classifier.Classify(ctx, sample.FinalFeedback, sample.PreCaption, sample.FinalCaption)
	} else {
		result = r.detector.Classify(*sample)
	}

	sample.Label = result.Label
	sample.Rationale = result.Rationale
	sample.RawOutput = result.Raw

	if r.store == nil {
		return
	}
	record := &persistence.ResultRecord{
		RunID:     runID,
		SampleKey: sample.Key(),
		Label:     result.Label,
		Rationale: result.Rationale,
		RawOutput: result.Raw,
		UpdatedAt: time.Now().UTC(),
	}
	if err := r.store.UpsertResult(ctx, record); err != nil {
		log.Error("Failed to checkpoint result for %s: %v", sample.Key(), err)
	}
}
