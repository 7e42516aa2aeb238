package sink

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gyaneshwarpardhi/blockwatch/internal/event"
)

var actorReplacer = strings.NewReplacer(
	".", "", ":", "", "<", "", ">", "", "*", "",
	`\`, "", "/", "", "?", "", `"`, "", "|", "",
)

// SanitizeActor strips characters that are unsafe in file names.
func SanitizeActor(actor string) string {
	return actorReplacer.Replace(actor)
}

// FormatLine renders the flat-file line for ev from its raw values.
func FormatLine(ev event.Event) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(ev.Timestamp.UnixMilli(), 10))
	b.WriteString(" - ")
	b.WriteString(ev.Action.Label())
	b.WriteString(" ")
	b.WriteString(strconv.Itoa(ev.World))
	fmt.Fprintf(&b, "@(%d,%d,%d) info: %d, ", ev.X, ev.Y, ev.Z, ev.Type)
	b.WriteString(ev.Data)
	return b.String()
}

// FlatFile mirrors events into one append-only log per actor.
type FlatFile struct {
	dir string
}

// NewFlatFile mirrors into dir, which is created on first use.
func NewFlatFile(dir string) *FlatFile {
	return &FlatFile{dir: dir}
}

// Dir returns the log directory.
func (f *FlatFile) Dir() string { return f.dir }

// Mirror appends one line per event and returns how many lines were written.
// Failures are logged per event and never stop the pass.
func (f *FlatFile) Mirror(batch []event.Event) int {
	if len(batch) == 0 {
		return 0
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		slog.Error("flat log dir unavailable", "dir", f.dir, "err", err)
		return 0
	}
	written := 0
	for _, ev := range batch {
		if err := f.appendLine(ev); err != nil {
			slog.Error("flat log write failed", "actor", ev.Actor, "err", err)
			continue
		}
		written++
	}
	return written
}

func (f *FlatFile) appendLine(ev event.Event) error {
	path := filepath.Join(f.dir, SanitizeActor(ev.Actor)+".log")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := file.WriteString(FormatLine(ev) + "\n"); err != nil {
		file.Close()
		return fmt.Errorf("append %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
