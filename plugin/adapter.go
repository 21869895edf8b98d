package plugin

/*

	The Adapter sits aside /sargam/
	Contains core interfaces for Plugin

*/

import (
	"time"

	St "github.com/maroda/sargam/types"
)

// SampleTransformer cleans up the pitch stream before classification.
// Transform returns the (possibly rewritten) sample and whether to keep it.
// history holds the samples already kept, oldest first, at most
// HistoryReq long: median smoothing needs a window, a range gate needs none.
type SampleTransformer interface {
	Transform(sample St.PitchSample, history []St.PitchSample) (St.PitchSample, bool, error)
	HistoryReq() int // Required samples in the past needed for calculation
	Type() string    // Unique ID for the transformer
}

// OutputAdapter can be used to define a place for generated melodies to go,
// melody-by-melody or in batches if supported by the output type.
type OutputAdapter interface {
	WriteMelody(m *St.GeneratedMelody) error                        // Write a single melody
	WriteBatch(ms []*St.GeneratedMelody) error                      // Write batches of melodies
	QueryRange(start, end time.Time) ([]*St.GeneratedMelody, error) // Time range query tool
	Flush() error                                                   // Flush any buffered data
	Close() error                                                   // Close the adapter and release resources
	Type() string                                                   // ID for output
}
