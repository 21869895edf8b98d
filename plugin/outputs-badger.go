package plugin

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	St "github.com/maroda/sargam/types"
)

// keyPrefixLen is how much of the raga ID goes into a key.
const keyPrefixLen = 5

// BadgerOutput archives generated melodies.
type BadgerOutput struct {
	MU        sync.Mutex
	DB        *badger.DB
	BatchSize int
	Buffer    []*St.GeneratedMelody
}

func NewBadgerOutput(path string, batchSize int) (*BadgerOutput, error) {
	return openBadger(badger.DefaultOptions(path), batchSize)
}

// NewBadgerMemOutput is an archive that lives only in memory.
func NewBadgerMemOutput(batchSize int) (*BadgerOutput, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true), batchSize)
}

func openBadger(opts badger.Options, batchSize int) (*BadgerOutput, error) {
	if batchSize < 1 {
		batchSize = 1
	}
	opts = opts.
		WithCompression(options.ZSTD).
		WithNumVersionsToKeep(1).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		slog.Error("BadgerOutput failed to open database", slog.Any("error", err))
		return nil, fmt.Errorf("database error: %w", err)
	}

	slog.Info("BadgerOutput opened",
		slog.String("path", opts.Dir),
		slog.Bool("inMemory", opts.InMemory),
		slog.Int("batchSize", batchSize))

	return &BadgerOutput{
		DB:        db,
		BatchSize: batchSize,
		Buffer:    make([]*St.GeneratedMelody, 0, batchSize),
	}, nil
}

// WriteMelody queues up a batch of melodies,
// when batchsize is reached, it calls flushLocked
// which calls WriteBatch() with the new batch
func (bo *BadgerOutput) WriteMelody(m *St.GeneratedMelody) error {
	bo.MU.Lock()
	defer bo.MU.Unlock()

	bo.Buffer = append(bo.Buffer, m)
	if len(bo.Buffer) >= bo.BatchSize {
		return bo.flushLocked() // private Flush that does not lock
	}
	return nil
}

// WriteBatch performs the key/value creation to be stored
// and actually calls BadgerDB to write the data
func (bo *BadgerOutput) WriteBatch(ms []*St.GeneratedMelody) error {
	wb := bo.DB.NewWriteBatch()
	defer wb.Cancel()

	for _, m := range ms {
		v, err := MelodyEncode(m)
		if err != nil {
			slog.Error("BadgerOutput failed to encode melody",
				slog.Any("error", err),
				slog.String("id", m.ID))
			return fmt.Errorf("encode error: %w", err)
		}
		if err := wb.Set(MelodyKey(m), v); err != nil {
			slog.Error("BadgerOutput failed to set key in batch",
				slog.Any("error", err),
				slog.Time("createdAt", m.CreatedAt),
				slog.String("raga", m.GrammarID))
			return fmt.Errorf("write batch error: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		slog.Error("BadgerOutput failed to flush batch", slog.Any("error", err))
		return fmt.Errorf("batch flush error: %w", err)
	}

	return nil
}

// Flush is the public method that blocks,
// it sends data to WriteBatch and then clears the buffer
func (bo *BadgerOutput) Flush() error {
	bo.MU.Lock()
	defer bo.MU.Unlock()

	if len(bo.Buffer) == 0 {
		return nil
	}
	return bo.flushLocked()
}

// flushLocked mimics Flush without locking, called by WriteMelody
func (bo *BadgerOutput) flushLocked() error {
	err := bo.WriteBatch(bo.Buffer) // Delegate to WriteBatch
	bo.Buffer = bo.Buffer[:0]       // Clear but keep capacity
	return err
}

// Close returns a Flush error but still attempts to close
func (bo *BadgerOutput) Close() error {
	bo.MU.Lock()
	slog.Info("BadgerOutput closing, flushing buffer",
		slog.Int("bufferSize", len(bo.Buffer)))
	var flushErr error
	if len(bo.Buffer) > 0 {
		flushErr = bo.flushLocked()
	}
	bo.MU.Unlock()
	closeErr := bo.DB.Close()

	if flushErr != nil {
		slog.Error("BadgerOutput failed to flush on close", slog.Any("error", flushErr))
		return fmt.Errorf("flush failed, close may have failed: %w", flushErr)
	}

	if closeErr != nil {
		slog.Error("BadgerOutput failed to close database", slog.Any("error", closeErr))
		return fmt.Errorf("close failed: %w", closeErr)
	}

	slog.Info("BadgerOutput closed successfully")
	return nil
}

func (bo *BadgerOutput) Type() string { return "BadgerDB" }

// MelodyKey creates a composite key
// timestamp + first five letters of the raga ID + melody ID
func MelodyKey(m *St.GeneratedMelody) []byte {
	key := make([]byte, 8+keyPrefixLen, 8+keyPrefixLen+len(m.ID))

	// Using positive BigEndian integer to convert timestamp
	// so keys can be sorted chronologically by BadgerDB
	binary.BigEndian.PutUint64(key[0:8], uint64(m.CreatedAt.UnixNano()))

	// Keep raga prefix at five chars, zero padded
	copy(key[8:8+keyPrefixLen], m.GrammarID)

	// Melody ID keeps keys unique within one nanosecond
	return append(key, m.ID...)
}

// MelodyEncode serializes the melody struct for data storage
func MelodyEncode(m *St.GeneratedMelody) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MelodyDecode deserializes the melody data
func MelodyDecode(data []byte) (*St.GeneratedMelody, error) {
	var m St.GeneratedMelody
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&m)
	return &m, err
}

// QueryRange retrieves melodies created in [start, end).
// Keys sort by time, so iteration seeks to start and stops at end.
func (bo *BadgerOutput) QueryRange(start, end time.Time) ([]*St.GeneratedMelody, error) {
	var melodies []*St.GeneratedMelody

	seek := make([]byte, 8)
	binary.BigEndian.PutUint64(seek, uint64(start.UnixNano()))
	stop := uint64(end.UnixNano())

	// db.View() callback
	// BadgerDB provides a transaction in which to get item.Value()
	err := bo.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(seek); it.Valid(); it.Next() {
			item := it.Item()
			if binary.BigEndian.Uint64(item.Key()[0:8]) >= stop {
				break
			}

			// item.Value() callback
			// BadgerDB passes bytes to the anon func
			err := item.Value(func(val []byte) error {
				m, err := MelodyDecode(val)
				if err != nil {
					slog.Error("BadgerOutput failed to decode melody", slog.Any("error", err))
					return fmt.Errorf("melody decode error: %w", err)
				}
				melodies = append(melodies, m)
				return nil
			})
			if err != nil {
				slog.Error("BadgerOutput callback failure", slog.Any("error", err))
				return fmt.Errorf("item data error: %w", err)
			}
		}
		return nil
	})

	slog.Debug("BadgerOutput QueryRange", slog.Int("count", len(melodies)))

	return melodies, err
}
