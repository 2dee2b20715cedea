package diag

import (
	"fmt"
	"log"
	"os"
)

// Warning is a non-fatal diagnostic: a deprecation notice, an unknown
// command-line option, or a detection quirk (spec §7).
type Warning struct {
	Message string
	Site    Site
}

func (w Warning) String() string {
	if w.Site.HasSite() {
		return fmt.Sprintf("%s: WARNING: %s", w.Site, w.Message)
	}
	return "WARNING: " + w.Message
}

// Sink accumulates warnings across a configure run and, at the end,
// escalates them to a single error when Werror is set.
type Sink struct {
	Werror   bool
	seen     map[string]bool
	warnings []Warning
	log      *log.Logger
}

func NewSink(werror bool) *Sink {
	return &Sink{
		Werror: werror,
		seen:   make(map[string]bool),
		log:    log.New(os.Stderr, "[mesongo] ", 0),
	}
}

// Warn records a warning once per distinct (site, message) pair, matching
// the §5 ordering guarantee that side effects fire at most once per
// distinct observation within a configure run.
func (s *Sink) Warn(site Site, format string, args ...any) {
	w := Warning{Message: fmt.Sprintf(format, args...), Site: site}
	key := w.Site.String() + "\x00" + w.Message
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.warnings = append(s.warnings, w)
	s.log.Print(w.String())
}

func (s *Sink) Warnings() []Warning {
	return append([]Warning(nil), s.warnings...)
}

// Finish returns an error if Werror escalation applies and any warning was
// recorded during the run. This is a configuration-error condition (bad
// input, exit code 1, spec §6.1), not an internal invariant violation, so
// it must not use Internal.
func (s *Sink) Finish() error {
	if s.Werror && len(s.warnings) > 0 {
		return Option("warnings escalated to errors (--werror): %d warning(s)", len(s.warnings))
	}
	return nil
}

// Info logs an informational configure-progress line (compiler found,
// option resolved, …) — not accumulated, not escalated.
func (s *Sink) Info(format string, args ...any) {
	s.log.Printf("INFO: "+format, args...)
}
