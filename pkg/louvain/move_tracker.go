package louvain

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// MoveEvent is one accepted node migration of the local search
type MoveEvent struct {
	MoveNumber int     `json:"move"`
	Run        string  `json:"run,omitempty"`
	Level      int     `json:"level"`
	Round      int     `json:"round"`
	Node       int     `json:"node"`
	FromComm   int     `json:"from_comm"`
	ToComm     int     `json:"to_comm"`
	Gain       float64 `json:"gain"`
	Timestamp  int64   `json:"timestamp"`
}

// moveSink is the writer shared by a tracker and all of its forks
type moveSink struct {
	mu      sync.Mutex
	closer  io.Closer
	encoder *json.Encoder
	moves   int
	err     error
}

// MoveTracker writes move events as JSON lines. A nil tracker discards
// everything, so callers never need to check before logging.
//
// Forks share the sink and may log from different goroutines; each event is
// written as one whole line.
type MoveTracker struct {
	sink  *moveSink
	run   string
	level int
}

// NewMoveTracker writes events to w
func NewMoveTracker(w io.Writer) *MoveTracker {
	return &MoveTracker{sink: &moveSink{encoder: json.NewEncoder(w)}}
}

// NewMoveTrackerFile creates (or truncates) filename and writes events to it
func NewMoveTrackerFile(filename string) (*MoveTracker, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create move log: %w", err)
	}

	mt := NewMoveTracker(file)
	mt.sink.closer = file
	return mt, nil
}

// Fork returns a tracker writing to the same sink whose events carry run.
// Forks have their own level and need no Close.
func (mt *MoveTracker) Fork(run string) *MoveTracker {
	if mt == nil {
		return nil
	}
	return &MoveTracker{sink: mt.sink, run: run}
}

// SetLevel tags subsequent events with the optimizer level
func (mt *MoveTracker) SetLevel(level int) {
	if mt == nil {
		return
	}
	mt.level = level
}

// LogMove records one migration. Only the first write error is kept.
func (mt *MoveTracker) LogMove(round, node, fromComm, toComm int, gain float64) {
	if mt == nil {
		return
	}

	s := mt.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}

	s.moves++
	event := MoveEvent{
		MoveNumber: s.moves,
		Run:        mt.run,
		Level:      mt.level,
		Round:      round,
		Node:       node,
		FromComm:   fromComm,
		ToComm:     toComm,
		Gain:       gain,
		Timestamp:  time.Now().Unix(),
	}

	s.err = s.encoder.Encode(event)
}

// Moves returns the number of events logged to the sink so far
func (mt *MoveTracker) Moves() int {
	if mt == nil {
		return 0
	}
	mt.sink.mu.Lock()
	defer mt.sink.mu.Unlock()
	return mt.sink.moves
}

// Close releases the underlying file and reports the first write error
func (mt *MoveTracker) Close() error {
	if mt == nil {
		return nil
	}

	s := mt.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closer != nil {
		if err := s.closer.Close(); err != nil && s.err == nil {
			s.err = err
		}
		s.closer = nil
	}
	return s.err
}
