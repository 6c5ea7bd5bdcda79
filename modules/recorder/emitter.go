package recorder

import (
	"log/slog"

	"github.com/airwav/icyrec/pkg/cue"
)

// emitter fans one track change out to every configured sidecar writer.
// Artifact write failures are logged once and never interrupt recording;
// the audio file is the primary deliverable.
type emitter struct {
	logger  *slog.Logger
	writers []cue.Writer
	count   int
	warned  bool
}

func newEmitter(logger *slog.Logger, writers ...cue.Writer) *emitter {
	return &emitter{logger: logger, writers: writers}
}

func (e *emitter) add(t cue.Track) {
	e.count++
	t.Index = e.count
	for _, w := range e.writers {
		if err := w.Add(t); err != nil {
			if !e.warned {
				e.logger.Error("error writing track artifact", "err", err)
				e.warned = true
			}
		}
	}
}

// tracks returns how many track changes were emitted.
func (e *emitter) tracks() int { return e.count }

func (e *emitter) closeAll() {
	for _, w := range e.writers {
		if err := w.Close(); err != nil {
			e.logger.Error("error closing track artifact", "err", err)
		}
	}
}
