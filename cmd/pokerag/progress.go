package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// progressReporter lazily creates a bar once the total is known.
// Callbacks may arrive from several goroutines.
type progressReporter struct {
	out         io.Writer
	description string

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newProgress(out io.Writer, description string) *progressReporter {
	return &progressReporter{out: out, description: description}
}

// Update matches the ingest, index and evaluate progress callbacks.
func (p *progressReporter) Update(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		if total <= 0 {
			return
		}
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]"+p.description+"[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(p.out)
			}),
		)
	}
	_ = p.bar.Set(done)
}
