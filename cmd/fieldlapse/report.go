package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/fieldlapse/fieldlapse/internal/progressbus"
)

// terminalSubscriber renders human-friendly progress for one or more
// concurrently running jobs: per-stage section headers, a percent-driven
// progress bar per job, and colored complete/failed summaries.
type terminalSubscriber struct {
	mu    sync.Mutex
	bars  map[string]*progressbar.ProgressBar
	stage map[string]string

	cyan  *color.Color
	green *color.Color
	red   *color.Color
	bold  *color.Color
}

func newTerminalSubscriber() *terminalSubscriber {
	return &terminalSubscriber{
		bars:  make(map[string]*progressbar.ProgressBar),
		stage: make(map[string]string),
		cyan:  color.New(color.FgCyan, color.Bold),
		green: color.New(color.FgGreen),
		red:   color.New(color.FgRed, color.Bold),
		bold:  color.New(color.Bold),
	}
}

func (t *terminalSubscriber) handle(ev progressbus.Event) {
	switch ev.Kind {
	case progressbus.EventStarted:
		t.onStarted(ev)
	case progressbus.EventStageChanged:
		t.onStageChanged(ev)
	case progressbus.EventProgress:
		t.onProgress(ev)
	case progressbus.EventCompleted:
		t.onTerminal(ev, t.green, "completed")
	case progressbus.EventFailed:
		t.onTerminal(ev, t.red, "failed: "+ev.Message)
	case progressbus.EventCancelled:
		t.onTerminal(ev, t.red, "cancelled")
	}
}

func (t *terminalSubscriber) onStarted(ev progressbus.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Println()
	_, _ = t.cyan.Printf("job %s\n", ev.JobID)
	t.bars[ev.JobID] = progressbar.NewOptions64(100,
		progressbar.OptionSetDescription(ev.JobID),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer: "=", SaucerHead: ">", SaucerPadding: " ",
			BarStart: "[", BarEnd: "]",
		}),
	)
}

func (t *terminalSubscriber) onStageChanged(ev progressbus.Event) {
	t.mu.Lock()
	last := t.stage[ev.JobID]
	t.stage[ev.JobID] = ev.Stage
	t.mu.Unlock()
	if last == ev.Stage {
		return
	}
	fmt.Printf("  %s %s: %s\n", t.bold.Sprint(ev.JobID), ev.Stage, ev.Message)
}

func (t *terminalSubscriber) onProgress(ev progressbus.Event) {
	t.mu.Lock()
	bar := t.bars[ev.JobID]
	t.mu.Unlock()
	if bar == nil {
		return
	}
	_ = bar.Set64(int64(ev.Percent))
}

func (t *terminalSubscriber) onTerminal(ev progressbus.Event, c *color.Color, label string) {
	t.mu.Lock()
	bar := t.bars[ev.JobID]
	delete(t.bars, ev.JobID)
	t.mu.Unlock()
	if bar != nil {
		_ = bar.Finish()
	}
	_, _ = c.Printf("  %s %s\n", ev.JobID, label)
}

// jsonSubscriber emits newline-delimited progressbus.Event.WireEvent()
// payloads for machine consumption. Writes are mutex-guarded since the
// bus dispatches from a single goroutine but callers may share one
// subscriber across jobs.
type jsonSubscriber struct {
	mu sync.Mutex
	w  io.Writer
}

func newJSONSubscriber(w io.Writer) *jsonSubscriber {
	return &jsonSubscriber{w: w}
}

func (j *jsonSubscriber) handle(ev progressbus.Event) {
	data, err := ev.WireEvent()
	if err != nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	fmt.Fprintln(j.w, string(data))
}
