package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

// lineWriter moves complete lines to a background goroutine that writes them
// to every sink. Write blocks rather than drop a line when the queue is full.
type lineWriter struct {
	lines   chan []byte
	flushes chan chan error
	done    chan struct{}
	out     *bufio.Writer

	mu     sync.RWMutex
	closed bool

	errMu sync.Mutex
	err   error
}

func newLineWriter(sinks []io.Writer, bufSize int) *lineWriter {
	live := make([]io.Writer, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	if bufSize <= 0 {
		bufSize = 64 << 10
	}
	w := &lineWriter{
		lines:   make(chan []byte, 256),
		flushes: make(chan chan error),
		done:    make(chan struct{}),
		out:     bufio.NewWriterSize(io.MultiWriter(live...), bufSize),
	}
	go w.run()
	return w
}

func (w *lineWriter) run() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.fail(w.out.Flush())
				return
			}
			_, err := w.out.Write(line)
			if err == nil && len(w.lines) == 0 {
				err = w.out.Flush()
			}
			w.fail(err)
		case ack := <-w.flushes:
			ack <- w.out.Flush()
		}
	}
}

// Write queues a copy of p.
func (w *lineWriter) Write(p []byte) error {
	if err := w.failure(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	line := append([]byte(nil), p...)
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.lines <- line
	return nil
}

// Flush returns once every line queued before the call reached the sinks.
func (w *lineWriter) Flush() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return w.failure()
	}
	ack := make(chan error, 1)
	w.flushes <- ack
	if err := <-ack; err != nil {
		return err
	}
	return w.failure()
}

// Close writes out the queue and stops the goroutine.
func (w *lineWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.lines)
	}
	w.mu.Unlock()
	<-w.done
	return w.failure()
}

func (w *lineWriter) fail(err error) {
	if err == nil {
		return
	}
	w.errMu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.errMu.Unlock()
}

func (w *lineWriter) failure() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}
