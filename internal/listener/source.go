package listener

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// Source errors.
var (
	// ErrNoSpeech means nothing intelligible was heard. Listeners retry.
	ErrNoSpeech = errors.New("listener: no speech")
	// ErrSourceClosed means the source has no more input.
	ErrSourceClosed = errors.New("listener: source closed")
)

// Source yields transcribed utterances. Listen blocks until an utterance
// is available, ctx is done, or the source ends.
type Source interface {
	Listen(ctx context.Context) (string, error)
}

// LineSource reads one transcript per line from a reader. Blank lines
// are reported as ErrNoSpeech.
type LineSource struct {
	r     io.Reader
	once  sync.Once
	lines chan string
	err   error // set before lines is closed
}

// NewLineSource returns a source over r.
func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{r: r, lines: make(chan string)}
}

func (s *LineSource) Listen(ctx context.Context) (string, error) {
	s.once.Do(func() { go s.scan() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			if s.err != nil {
				return "", s.err
			}
			return "", ErrSourceClosed
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return "", ErrNoSpeech
		}
		return line, nil
	}
}

// scan feeds lines to Listen. It exits once the reader ends; a reader
// that never ends keeps it parked on the next read.
func (s *LineSource) scan() {
	sc := bufio.NewScanner(s.r)
	for sc.Scan() {
		s.lines <- sc.Text()
	}
	s.err = sc.Err()
	close(s.lines)
}
