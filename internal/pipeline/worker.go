package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/dgallion1/jsonlens/internal/beautify"
	"github.com/dgallion1/jsonlens/internal/scan"
	"github.com/dgallion1/jsonlens/internal/settings"
)

// Worker processes a single scan job.
type Worker struct {
	beautifier *beautify.Beautifier
	log        *slog.Logger
	scanOpts   scan.Options

	maxConcurrentBeautify int
}

func NewWorker(b *beautify.Beautifier, log *slog.Logger, scanOpts scan.Options, maxBeautify int) *Worker {
	if maxBeautify <= 0 {
		maxBeautify = 1
	}
	return &Worker{
		beautifier:            b,
		log:                   log,
		scanOpts:              scanOpts,
		maxConcurrentBeautify: maxBeautify,
	}
}

// Process scans the job's file with the field names from s and beautifies
// every cell found. With s disabled the run ends at once with no cells.
func (w *Worker) Process(ctx context.Context, job *Job, s settings.Settings) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	job.StartRun()
	if !s.Enabled {
		log.Info("beautifier disabled, skipping")
		job.SetStatus(StatusCompleted, "disabled")
		return
	}

	// Phase 1: Scan
	job.SetStatus(StatusScanning, "scanning")
	sc, err := scan.ForFile(job.Filename, w.scanOpts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "scanning")
		return
	}

	doc, err := sc.Scan(bytes.NewReader(job.FileData()), job.Filename, scan.NewFilter(s.FieldNames))
	if err != nil {
		log.Error("scan failed", "error", err)
		job.AddError(fmt.Sprintf("scan: %s", err))
		job.SetStatus(StatusFailed, "scanning")
		return
	}
	job.SetCells(doc.Title, len(doc.Cells))
	log.Info("scanned document", "cells", len(doc.Cells))

	if len(doc.Cells) == 0 {
		job.SetStatus(StatusCompleted, "no_cells")
		return
	}

	// Phase 2: Beautify cells with bounded concurrency.
	job.SetStatus(StatusBeautifying, "beautifying")
	b := w.beautifier.WithRepair(s.RepairTruncatedJSON)

	var wg sync.WaitGroup
	pool, err := ants.NewPool(w.maxConcurrentBeautify, ants.WithPanicHandler(func(p any) {
		log.Error("beautify panicked", "panic", p)
		job.AddError(fmt.Sprintf("panic: %v", p))
	}))
	if err != nil {
		log.Error("create pool failed", "error", err)
		job.AddError(fmt.Sprintf("pool: %s", err))
		job.SetStatus(StatusFailed, "beautifying")
		return
	}
	defer pool.Release()

	for i, cell := range doc.Cells {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			job.RecordResult(i, cell, b.Beautify(cell.Text))
		})
		if submitErr != nil {
			wg.Done()
			log.Error("submit failed", "cell", i, "error", submitErr)
			job.AddError(fmt.Sprintf("cell %d: %s", i, submitErr))
		}
	}
	wg.Wait()

	snap := job.Snapshot()
	log.Info("beautify complete",
		"parsed", snap.Progress.Parsed,
		"repaired", snap.Progress.Repaired,
		"skipped", snap.Progress.Skipped,
		"errors", len(snap.Progress.Errors),
	)

	if ctx.Err() != nil {
		job.AddError("cancelled: " + ctx.Err().Error())
	}

	hadErrors := job.ErrorCount() > 0
	switch {
	case hadErrors && snap.Progress.CellsProcessed > 0:
		job.SetStatus(StatusPartial, "done")
	case hadErrors:
		job.SetStatus(StatusFailed, "beautifying")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}
