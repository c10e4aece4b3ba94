package transcript

import (
	"gridsandbox.ai/internal/sim/engine"
)

// Recorder fans each resolved turn out to the JSONL trail and the sqlite
// index. Either sink may be nil. It satisfies engine.Recorder.
type Recorder struct {
	runID string
	w     *Writer
	idx   *SQLiteIndex
}

func NewRecorder(runID string, w *Writer, idx *SQLiteIndex) *Recorder {
	return &Recorder{runID: runID, w: w, idx: idx}
}

func (r *Recorder) RecordTurn(res *engine.TurnResult) error {
	if r.w != nil {
		if err := r.w.Write(res); err != nil {
			return err
		}
	}
	if r.idx != nil {
		if err := r.idx.RecordTurn(r.runID, res); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the owned writer; the index may be shared across runs and is
// closed by its owner.
func (r *Recorder) Close() error {
	if r.w != nil {
		return r.w.Close()
	}
	return nil
}
