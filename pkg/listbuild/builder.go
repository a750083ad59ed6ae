// Package listbuild runs the declared artifact sources concurrently, merges
// their partial results into the priority-keyed artifact set and applies the
// filter pipeline.
package listbuild

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/repotools/artlist/pkg/artifact"
	"github.com/repotools/artlist/pkg/config"
	"github.com/repotools/artlist/pkg/errors"
	"github.com/repotools/artlist/pkg/observability"
	"github.com/repotools/artlist/pkg/sources"
)

// poolSizes bounds the parallelism per source type. Tag and dependency-graph
// queries are cheap for the client and parallelize well; dependency-list
// sources spawn external tool runs and recurse, so they stay narrow.
var poolSizes = map[string]int{
	config.SourceTypeTag:             2,
	config.SourceTypeDependencyList:  1,
	config.SourceTypeDependencyGraph: 6,
	config.SourceTypeRepository:      2,
}

// Source pairs a collector with the exclusion patterns applied to its
// partial result before aggregation.
type Source struct {
	Collector    sources.Collector
	ExcludedGAVs []string
}

// Builder aggregates the partial results of all declared sources. Each
// source is tagged with its 1-based declaration-order priority.
type Builder struct {
	sources []Source
	logger  *log.Logger
}

// NewBuilder creates a builder over the declared sources. Source order
// matters: it assigns the priorities the duplicate filter resolves by.
func NewBuilder(srcs []Source, logger *log.Logger) *Builder {
	return &Builder{sources: srcs, logger: logger}
}

type job struct {
	priority int
	source   Source
}

type outcome struct {
	priority int
	result   sources.Result
	err      error
}

// Build runs every source exactly once in a bounded pool per source type and
// merges the results into the artifact set. The first collector failure
// cancels all in-flight work and the build fails with an error naming the
// number of failed sources. On success every declared priority has been
// merged, even when its source found nothing.
func (b *Builder) Build(ctx context.Context) (artifact.Set, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobsByType := make(map[string]chan job)
	outcomes := make(chan outcome, len(b.sources))

	for i, src := range b.sources {
		typ := src.Collector.Type()
		jobs, ok := jobsByType[typ]
		if !ok {
			jobs = make(chan job, len(b.sources))
			jobsByType[typ] = jobs
			for w := 0; w < poolSizes[typ]; w++ {
				go b.worker(ctx, jobs, outcomes)
			}
		}
		jobs <- job{priority: i + 1, source: src}
	}
	for _, jobs := range jobsByType {
		close(jobs)
	}

	// The builder goroutine is the only writer of the set, so collector
	// merges can never interleave.
	set := make(artifact.Set)
	merged := make(map[int]bool, len(b.sources))
	failed := 0
	for range b.sources {
		out := <-outcomes
		if out.err != nil {
			if failed == 0 {
				b.logger.Error("artifact source failed, cancelling remaining work",
					"priority", out.priority, "error", out.err)
				cancel()
			}
			// Cancellation fallout of the first failure is not its own failure.
			if failed == 0 || !stderrors.Is(out.err, context.Canceled) {
				failed++
			}
			continue
		}
		if failed > 0 {
			continue
		}

		b.logger.Debug("placing artifacts in the result list",
			"priority", out.priority, "artifacts", len(out.result))
		for coord, spec := range out.result {
			if err := set.Add(coord, out.priority, spec); err != nil {
				return nil, err
			}
		}
		merged[out.priority] = true
	}

	if failed > 0 {
		return nil, errors.New(errors.ErrCodeSourceFailed,
			"%d error(s) occurred during reading of the artifact list", failed)
	}
	if len(merged) != len(b.sources) {
		return nil, errors.New(errors.ErrCodeInternal,
			"not all artifact sources reported a result")
	}
	return set, nil
}

func (b *Builder) worker(ctx context.Context, jobs <-chan job, outcomes chan<- outcome) {
	for j := range jobs {
		if err := ctx.Err(); err != nil {
			outcomes <- outcome{priority: j.priority, err: err}
			continue
		}
		typ := j.source.Collector.Type()
		observability.Collector().OnCollectStart(ctx, typ, j.priority)
		start := time.Now()
		result, err := j.source.Collector.Collect(ctx)
		if err == nil {
			err = sources.FilterExcludedGAVs(result, j.source.ExcludedGAVs)
		}
		observability.Collector().OnCollectComplete(ctx, typ, j.priority, len(result), time.Since(start), err)
		outcomes <- outcome{priority: j.priority, result: result, err: err}
	}
}
