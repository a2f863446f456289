package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/models"
)

// Stats summarizes one enrichment pass.
type Stats struct {
	Input         int
	Chunks        int
	NamesCleaned  int
	GenresSet     int
	ArtworkFilled int
	ChunkFailures int
}

// Pipeline enriches channels in fixed-size chunks processed by a
// bounded worker pool. Within a chunk the operations run sequentially:
// name cleaning, genre inference, artwork synthesis. A failing chunk
// never aborts the pass; its channels keep their pre-enrichment fields.
type Pipeline struct {
	chunkSize   int
	concurrency int
	artwork     *ArtworkGenerator
	logger      *slog.Logger
}

// New creates an enrichment pipeline from the configuration. Pass a
// nil artwork generator to skip artwork synthesis.
func New(cfg *config.Config, artwork *ArtworkGenerator, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		chunkSize:   cfg.ChunkSize,
		concurrency: cfg.MaxConcurrency,
		artwork:     artwork,
		logger:      logger,
	}
}

// Enrich processes every channel in place and returns the same slice.
func (p *Pipeline) Enrich(ctx context.Context, channels []*models.Channel) ([]*models.Channel, Stats, error) {
	stats := Stats{Input: len(channels)}
	if len(channels) == 0 {
		return channels, stats, nil
	}

	type chunkResult struct {
		stats Stats
		err   error
	}

	var chunks [][]*models.Channel
	for start := 0; start < len(channels); start += p.chunkSize {
		end := start + p.chunkSize
		if end > len(channels) {
			end = len(channels)
		}
		chunks = append(chunks, channels[start:end])
	}
	stats.Chunks = len(chunks)

	results := make([]chunkResult, len(chunks))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.concurrency)

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, chunk []*models.Channel) {
			defer wg.Done()
			defer func() { <-sem }()
			chunkStats, err := p.enrichChunk(ctx, chunk)
			results[i] = chunkResult{stats: chunkStats, err: err}
		}(i, chunk)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	for i, res := range results {
		if res.err != nil {
			stats.ChunkFailures++
			p.logger.Warn("enrichment chunk failed, channels keep pre-enrichment fields",
				slog.Int("chunk", i),
				slog.String("error", res.err.Error()),
			)
			continue
		}
		stats.NamesCleaned += res.stats.NamesCleaned
		stats.GenresSet += res.stats.GenresSet
		stats.ArtworkFilled += res.stats.ArtworkFilled
	}

	p.logger.Info("enrichment finished",
		slog.Int("channels", stats.Input),
		slog.Int("chunks", stats.Chunks),
		slog.Int("names_cleaned", stats.NamesCleaned),
		slog.Int("genres_set", stats.GenresSet),
		slog.Int("artwork_filled", stats.ArtworkFilled),
		slog.Int("chunk_failures", stats.ChunkFailures),
	)
	return channels, stats, nil
}

// enrichChunk runs the sequential operations over one chunk. Changes
// are staged on clones and only applied when the whole chunk succeeds,
// so a failing chunk leaves its channels untouched.
func (p *Pipeline) enrichChunk(ctx context.Context, chunk []*models.Channel) (Stats, error) {
	var stats Stats

	staged := make([]*models.Channel, len(chunk))
	for i, ch := range chunk {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		clone := ch.Clone()

		if cleaned := CleanName(clone.Name); cleaned != clone.Name {
			clone.SetCleanName(cleaned)
			stats.NamesCleaned++
		}

		if clone.Genre == "" {
			clone.Genre = InferGenre(clone.Name)
			if len(clone.Categories) == 0 {
				clone.Categories = []string{clone.Genre}
			}
			stats.GenresSet++
		}

		if p.artwork != nil {
			before := artworkFields(clone)
			if err := p.artwork.Generate(clone); err != nil {
				return stats, fmt.Errorf("channel %q: %w", ch.Name, err)
			}
			if artworkFields(clone) != before {
				stats.ArtworkFilled++
			}
		}
		staged[i] = clone
	}

	for i, ch := range chunk {
		*ch = *staged[i]
	}
	return stats, nil
}

func artworkFields(ch *models.Channel) [3]string {
	return [3]string{ch.Logo, ch.Background, ch.Poster}
}
