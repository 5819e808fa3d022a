// Package ingest loads normalized records and enrichment text into the document store.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pokerag/internal/domain/batch"
)

// Source names the files to ingest.
type Source struct {
	Records    []string
	Enrichment []string
}

// ProgressFunc is called after each processed record.
type ProgressFunc func(done, total int)

// Report summarizes an ingest run.
type Report struct {
	Files    int
	Created  int
	Updated  int
	Results  []batch.Result
	Summary  batch.Summary
	Duration time.Duration
}

// Service upserts records into the document store.
type Service struct {
	store  DocumentStore
	logger *zap.Logger
}

// New creates an ingest service.
func New(store DocumentStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Ingest reads every record file and upserts one document per record.
// Unreadable files and invalid records are reported per item; only a bad
// glob, unreadable enrichment or store failure aborts the run.
func (s *Service) Ingest(ctx context.Context, src Source, progress ProgressFunc) (Report, error) {
	start := time.Now()
	files, err := Expand(src.Records)
	if err != nil {
		return Report{}, err
	}
	if len(files) == 0 {
		return Report{}, fmt.Errorf("no record files match %v", src.Records)
	}
	enrich, err := ReadEnrichment(src.Enrichment)
	if err != nil {
		return Report{}, fmt.Errorf("load enrichment: %w", err)
	}

	type item struct {
		id  string
		rec *Record
		err error
	}
	var items []item
	for _, f := range files {
		recs, err := ReadRecords(f)
		if err != nil {
			items = append(items, item{id: f, err: err})
			continue
		}
		for i := range recs {
			items = append(items, item{id: recs[i].Name, rec: &recs[i]})
		}
	}

	report := Report{Files: len(files), Results: make([]batch.Result, 0, len(items))}
	for i, it := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, created, err := s.put(ctx, it.id, it.rec, it.err, enrich)
		if err != nil {
			return report, err
		}
		report.Results = append(report.Results, res)
		switch {
		case res.Status() != batch.StatusOK:
		case created:
			report.Created++
		default:
			report.Updated++
		}
		if progress != nil {
			progress(i+1, len(items))
		}
	}

	report.Summary = batch.Summarize(report.Results)
	report.Duration = time.Since(start)
	s.logger.Info("ingest completed",
		zap.Int("files", report.Files),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("failed", report.Summary.Failed),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// put returns a per-item result, or an error when the store itself fails.
func (s *Service) put(ctx context.Context, id string, rec *Record, readErr error, enrich Enrichment) (batch.Result, bool, error) {
	if readErr != nil {
		s.logger.Warn("skipping unreadable file", zap.String("file", id), zap.Error(readErr))
		return batch.NewError(id, readErr), false, nil
	}
	doc, err := rec.ToDocument(enrich.Lookup(rec.Name))
	if err != nil {
		s.logger.Warn("skipping invalid record", zap.String("name", id), zap.Error(err))
		return batch.NewError(id, err), false, nil
	}
	created, err := s.store.Put(ctx, &doc)
	if err != nil {
		return batch.Result{}, false, fmt.Errorf("store %s: %w", doc.ID(), err)
	}
	return batch.NewOK(doc.ID()), created, nil
}
