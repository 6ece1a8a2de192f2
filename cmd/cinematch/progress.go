package main

import (
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"

	"cinematch/internal/enrich"
	"cinematch/internal/logging"
)

// progressLogEvery is the record interval between progress log lines when
// no terminal is attached.
const progressLogEvery = 25

// progressReporter draws a progress bar on a terminal and falls back to
// periodic log lines otherwise.
type progressReporter struct {
	bar    *progressbar.ProgressBar
	out    io.Writer
	logger *slog.Logger
	label  string
}

func newProgressReporter(out io.Writer, logger *slog.Logger, label string) *progressReporter {
	p := &progressReporter{out: out, logger: logger, label: label}
	if !isTerminal(out) {
		p.out = nil
	}
	return p
}

func (p *progressReporter) update(progress enrich.Progress) {
	if p.out != nil {
		if p.bar == nil {
			p.bar = progressbar.NewOptions(progress.Total,
				progressbar.OptionSetWriter(p.out),
				progressbar.OptionSetDescription(p.label),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(30),
				progressbar.OptionThrottle(100*time.Millisecond),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = p.bar.Set(progress.Done)
		return
	}
	if progress.Done == progress.Total || progress.Done%progressLogEvery == 0 {
		p.logger.Info("batch progress",
			logging.String("kind", p.label),
			logging.Int("done", progress.Done),
			logging.Int("total", progress.Total),
			logging.String("last", progress.Label),
			logging.String("status", string(progress.Status)),
		)
	}
}

func (p *progressReporter) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
