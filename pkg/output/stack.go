// Package output holds the nested text buffers emission writes into.
//
// A Stack always has a root frame. Nested emission pushes a frame, writes into
// it in isolation, reads the buffer and restores the previous frame. Writes
// always target the top frame.
package output

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ErrDesynchronized reports that push/pop/restore discipline was broken. It is
// an emitter bug, not an input problem.
var ErrDesynchronized = errors.Base("emitter desynchronized")

// Frame is one text accumulation context.
type Frame struct {
	buf strings.Builder
}

func (f *Frame) String() string {
	return f.buf.String()
}

func (f *Frame) Len() int {
	return f.buf.Len()
}

// Handle identifies the frame that was active before a Push.
type Handle struct {
	depth int
}

// Checkpoint records a stack depth for a later Verify.
type Checkpoint struct {
	depth int
}

type Stack struct {
	frames     []*Frame
	indent     int
	indentUnit string
}

func NewStack() *Stack {
	return &Stack{
		frames:     []*Frame{{}},
		indentUnit: "    ",
	}
}

func (s *Stack) top() *Frame {
	return s.frames[len(s.frames)-1]
}

// Depth is the number of frames, the root included.
func (s *Stack) Depth() int {
	return len(s.frames)
}

// Push makes a fresh frame the write target.
func (s *Stack) Push() Handle {
	h := Handle{depth: len(s.frames)}
	s.frames = append(s.frames, &Frame{})
	return h
}

// Pop discards the top frame without reading it.
func (s *Stack) Pop() error {
	if len(s.frames) == 1 {
		return errors.Errorf("%w: pop of the root frame", ErrDesynchronized)
	}
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
	return nil
}

// Restore makes the frame named by h active again, discarding every frame
// pushed after it. Restoring the same handle twice is a no-op.
func (s *Stack) Restore(h Handle) error {
	if h.depth < 1 || h.depth > len(s.frames) {
		return errors.Errorf("%w: restore to depth %d with %d frames", ErrDesynchronized, h.depth, len(s.frames))
	}
	for i := h.depth; i < len(s.frames); i++ {
		s.frames[i] = nil
	}
	s.frames = s.frames[:h.depth]
	return nil
}

// Capture runs fn against a fresh frame and returns what it wrote. The
// previous frame is active again when Capture returns, even on error. fn must
// leave the stack exactly as it found it.
func (s *Stack) Capture(fn func() error) (string, error) {
	h := s.Push()
	want := len(s.frames)

	err := fn()

	got := len(s.frames)
	text := ""
	if got >= want {
		text = s.frames[want-1].String()
	}

	if rerr := s.Restore(h); rerr != nil {
		return "", rerr
	}

	if err != nil {
		return "", err
	}

	if got != want {
		return "", errors.Errorf("%w: capture left %d frames, expected %d", ErrDesynchronized, got, want)
	}

	return text, nil
}

func (s *Stack) Checkpoint() Checkpoint {
	return Checkpoint{depth: len(s.frames)}
}

// Verify fails when the stack depth differs from the one at cp.
func (s *Stack) Verify(cp Checkpoint) error {
	if len(s.frames) != cp.depth {
		return errors.Errorf("%w: %d frames, expected %d", ErrDesynchronized, len(s.frames), cp.depth)
	}
	return nil
}

func (s *Stack) Write(p []byte) (int, error) {
	return s.top().buf.Write(p)
}

func (s *Stack) WriteString(str string) (int, error) {
	return s.top().buf.WriteString(str)
}

// String returns the text of the top frame.
func (s *Stack) String() string {
	return s.top().String()
}

// Len returns the byte length of the top frame.
func (s *Stack) Len() int {
	return s.top().Len()
}
