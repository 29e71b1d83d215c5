package transfer

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/jaywantadh/gwbench/internal/chunker"
)

// Progress renders one bar per transfer on Out. A nil *Progress or a nil Out
// renders nothing.
type Progress struct {
	Out io.Writer
}

// progressTracker feeds a single bar.
type progressTracker struct {
	bar *progressbar.ProgressBar
}

// track starts a bar for a transfer of total bytes; total < 0 shows a spinner.
func (p *Progress) track(description string, total int64) *progressTracker {
	if p == nil || p.Out == nil {
		return &progressTracker{}
	}

	out := p.Out
	if total <= 0 {
		total = -1
	}
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(out, "\n")
		}),
	)
	return &progressTracker{bar: bar}
}

// observer returns the callback to hand to a chunker.
func (t *progressTracker) observer() chunker.Observer {
	if t.bar == nil {
		return nil
	}
	return func(n int) {
		t.bar.Add(n)
	}
}

func (t *progressTracker) finish() {
	if t.bar != nil {
		t.bar.Finish()
	}
}
