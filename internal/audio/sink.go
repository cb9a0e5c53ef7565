package audio

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
)

// Sink consumes interleaved PCM.
type Sink interface {
	Write(pcm []int16) error
	Close() error
}

// DiscardSink drops everything. Used when playback is disabled.
type DiscardSink struct{}

func (DiscardSink) Write([]int16) error { return nil }
func (DiscardSink) Close() error        { return nil }

// DefaultPlayerCommand plays raw PCM from stdin without a window.
var DefaultPlayerCommand = []string{
	"ffplay", "-nodisp", "-autoexit", "-loglevel", "error",
	"-f", "s16le", "-ar", "48000", "-ch_layout", "stereo", "-i", "pipe:0",
}

// ExecSink pipes PCM into an external player. It never blocks the caller:
// frames go through a bounded queue and are dropped when the player lags. If
// the player cannot be started or its pipe breaks, the sink turns into a
// no-op and logs once.
type ExecSink struct {
	log    *slog.Logger
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	frames chan []byte
	done   chan struct{}
	failed atomic.Bool
	closed atomic.Bool
	once   sync.Once
}

// queueFrames holds about a second of 20ms frames.
const queueFrames = 50

func StartExecSink(ctx context.Context, command []string, logger *slog.Logger) *ExecSink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(command) == 0 {
		command = DefaultPlayerCommand
	}
	s := &ExecSink{log: logger, frames: make(chan []byte, queueFrames), done: make(chan struct{})}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	stdin, err := cmd.StdinPipe()
	if err == nil {
		err = cmd.Start()
	}
	if err != nil {
		logger.Warn("audio player unavailable", "cmd", command[0], "err", err)
		s.failed.Store(true)
		close(s.done)
		return s
	}
	s.cmd, s.stdin = cmd, stdin
	go s.pump()
	return s
}

func (s *ExecSink) pump() {
	defer close(s.done)
	for b := range s.frames {
		if s.failed.Load() {
			continue
		}
		if _, err := s.stdin.Write(b); err != nil {
			s.log.Warn("audio player pipe closed", "err", err)
			s.failed.Store(true)
		}
	}
}

// Failed reports whether the sink has degraded to a no-op.
func (s *ExecSink) Failed() bool { return s.failed.Load() }

func (s *ExecSink) Write(pcm []int16) error {
	if s.failed.Load() || s.closed.Load() || len(pcm) == 0 {
		return nil
	}
	select {
	case s.frames <- SamplesToBytes(pcm):
	default:
		s.log.Debug("audio frame dropped", "samples", len(pcm))
	}
	return nil
}

func (s *ExecSink) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		if s.cmd == nil {
			return
		}
		close(s.frames)
		<-s.done
		s.stdin.Close()
		err = s.cmd.Wait()
	})
	return err
}
