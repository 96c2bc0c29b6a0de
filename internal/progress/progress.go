// Package progress draws a single-line progress bar for archive digesting.
package progress

import (
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	barWidth    = 50
	maxDirs     = 3
	minInterval = 100 * time.Millisecond
)

// Bar counts digested archive entries, in total and per archive directory.
type Bar struct {
	mu         sync.Mutex
	writer     io.Writer
	total      int64
	done       int64
	perDir     map[string]int
	lastRender time.Time
}

// New returns a bar drawing to w. A nil writer disables drawing; entries are
// still counted.
func New(total int64, w io.Writer) *Bar {
	return &Bar{
		writer: w,
		total:  total,
		perDir: make(map[string]int),
	}
}

// IsTerminal reports whether f is a character device.
func IsTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// SetTotal starts a new run of total entries.
func (b *Bar) SetTotal(total int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.total = total
	b.done = 0
	b.perDir = make(map[string]int)
}

// Done records that entry has been digested.
func (b *Bar) Done(entry string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.done++
	b.perDir[dirOf(entry)]++

	now := time.Now()
	if now.Sub(b.lastRender) >= minInterval || b.done == b.total {
		b.lastRender = now
		b.render()
	}
}

// Current returns the number of digested entries.
func (b *Bar) Current() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done
}

// Finish draws the bar as complete and ends the line.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.writer == nil {
		return
	}
	b.done = b.total
	b.render()
	fmt.Fprintln(b.writer)
}

// dirOf returns the archive directory of entry, "/" for the root.
func dirOf(entry string) string {
	dir := path.Dir(entry)
	if dir == "." || dir == "/" {
		return "/"
	}
	return dir
}

// render must be called with mu held.
func (b *Bar) render() {
	if b.writer == nil || b.total == 0 {
		return
	}

	done := min(b.done, b.total)
	filled := int(int64(barWidth) * done / b.total)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(b.writer, "\r\033[K[%s] %3d%% (%d/%d entries)%s",
		bar, done*100/b.total, done, b.total, b.dirSummary())
}

// dirSummary lists the directories with the most digested entries.
func (b *Bar) dirSummary() string {
	if len(b.perDir) == 0 {
		return ""
	}

	dirs := make([]string, 0, len(b.perDir))
	for d := range b.perDir {
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool {
		if b.perDir[dirs[i]] != b.perDir[dirs[j]] {
			return b.perDir[dirs[i]] > b.perDir[dirs[j]]
		}
		return dirs[i] < dirs[j]
	})

	shown := dirs
	if len(shown) > maxDirs {
		shown = shown[:maxDirs]
	}
	parts := make([]string, 0, len(shown))
	for _, d := range shown {
		parts = append(parts, fmt.Sprintf("%s:%d", d, b.perDir[d]))
	}

	s := " | " + strings.Join(parts, " ")
	if extra := len(dirs) - len(shown); extra > 0 {
		s += fmt.Sprintf(" +%d dirs", extra)
	}
	return s
}
