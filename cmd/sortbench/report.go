package main

import (
	"fmt"
	"io"
	"runtime"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tamirms/sortbench"
)

// dots prints one '.' per progress report and a newline when the pass
// completes. The header is printed before the first dot of each pass.
type dots struct {
	w       io.Writer
	header  string
	started bool
}

func newDots(w io.Writer, header string) *dots {
	return &dots{w: w, header: header}
}

func (d *dots) report(done, total uint64) {
	if !d.started {
		if d.header != "" {
			fmt.Fprintln(d.w, d.header)
		}
		d.started = true
	}
	fmt.Fprint(d.w, ".")
	if done >= total {
		fmt.Fprintln(d.w)
		d.started = false
	}
}

// formatPass renders an elapsed time as "XmYs", or "XhYmZs" past ten
// minutes.
func formatPass(d time.Duration) string {
	if d > 10*time.Minute {
		secs := int(d.Seconds())
		return fmt.Sprintf("%dh%dm%ds", secs/3600, secs%3600/60, secs%60)
	}
	m := int(d.Minutes())
	s := d.Seconds() - float64(m*60)
	return fmt.Sprintf("%dm%.3fs", m, s)
}

// maxRSS returns the peak resident set size in bytes.
func maxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// macOS reports bytes, Linux kilobytes.
	rss := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		rss *= 1024
	}
	return rss
}

func throughput(size int64, d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(float64(size)/d.Seconds())) + "/s"
}

func printLayout(w io.Writer, l sortbench.Layout) {
	fmt.Fprintf(w, "  elements:      %s\n", humanize.Comma(int64(l.Elements)))
	fmt.Fprintf(w, "  memory:        %s\n", humanize.IBytes(l.Memory))
	fmt.Fprintf(w, "  bucket size:   %s values (%s)\n",
		humanize.Comma(int64(l.BucketSize)), humanize.IBytes(l.BucketSize*8))
	fmt.Fprintf(w, "  bucket count:  %s (%s on disk)\n",
		humanize.Comma(int64(l.BucketCount)), humanize.Comma(int64(l.OnDisk())))
	fmt.Fprintf(w, "  bucket range:  %#x\n", l.BucketRange)
}
