package main

import (
	"io"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"NewsAnalyzer/internal/domain"
	"NewsAnalyzer/internal/ports"
)

var stageLabels = map[domain.Stage]string{
	domain.StageFetchingPages:     "Fetching pages: ",
	domain.StageExtractingDetails: "Extracting articles: ",
	domain.StageTraining:          "Training model: ",
	domain.StageEmbedding:         "Embedding: ",
}

// barObserver renders one progress bar per counted stage.
type barObserver struct {
	mu       sync.Mutex
	progress *mpb.Progress
	bar      *mpb.Bar
	stage    domain.Stage
}

var _ ports.ProgressObserver = (*barObserver)(nil)

func newBarObserver(out io.Writer) *barObserver {
	return &barObserver{progress: mpb.New(mpb.WithOutput(out), mpb.WithWidth(60))}
}

func (o *barObserver) StageChanged(stage domain.Stage) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.finishBar(stage == domain.StageAborted || stage == domain.StageFailed)
	o.stage = stage

	label, ok := stageLabels[stage]
	if !ok {
		return
	}
	o.bar = o.progress.AddBar(0,
		mpb.PrependDecorators(
			decor.Name(label),
			decor.CountersNoUnit("%d / %d", decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.Percentage(decor.WCSyncSpace), "done!"),
		),
	)
}

func (o *barObserver) ProgressChanged(p domain.Progress) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.bar == nil || p.Stage != o.stage {
		return
	}
	o.bar.SetTotal(int64(p.Target), false)
	o.bar.SetCurrent(int64(p.Processed))
}

// Wait flushes the remaining bar and stops rendering.
func (o *barObserver) Wait() {
	o.mu.Lock()
	o.finishBar(o.stage != domain.StageDone)
	o.mu.Unlock()
	o.progress.Wait()
}

func (o *barObserver) finishBar(abort bool) {
	if o.bar == nil {
		return
	}
	if abort {
		o.bar.Abort(false)
	} else {
		o.bar.SetTotal(-1, true)
	}
	o.bar = nil
}
