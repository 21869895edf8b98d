package plugin

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	Ss "github.com/maroda/sargam/server"
	St "github.com/maroda/sargam/types"
)

// SMFOutput writes every melody to its own .mid file in Dir.
// Files are named <created unix nanos>-<raga>-<melody id>.mid
// so a directory listing is already in time order.
type SMFOutput struct {
	MU  sync.Mutex
	Dir string
}

func NewSMFOutput(dir string) (*SMFOutput, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error("SMFOutput could not create directory", slog.String("dir", dir), slog.Any("error", err))
		return nil, fmt.Errorf("smf output dir: %w", err)
	}
	return &SMFOutput{Dir: dir}, nil
}

// FileName is where a melody is written, relative to Dir.
func FileName(m *St.GeneratedMelody) string {
	return fmt.Sprintf("%020d-%s-%s.mid", m.CreatedAt.UnixNano(), m.GrammarID, m.ID)
}

func (so *SMFOutput) WriteMelody(m *St.GeneratedMelody) error {
	so.MU.Lock()
	defer so.MU.Unlock()
	return so.writeLocked(m)
}

func (so *SMFOutput) WriteBatch(ms []*St.GeneratedMelody) error {
	so.MU.Lock()
	defer so.MU.Unlock()
	for _, m := range ms {
		if err := so.writeLocked(m); err != nil {
			return err
		}
	}
	return nil
}

func (so *SMFOutput) writeLocked(m *St.GeneratedMelody) error {
	path := filepath.Join(so.Dir, FileName(m))
	if err := os.WriteFile(path, Ss.SerializeSMF(m), 0o644); err != nil {
		slog.Error("SMFOutput write failed", slog.String("path", path), slog.Any("error", err))
		return fmt.Errorf("smf write: %w", err)
	}
	slog.Debug("SMFOutput wrote melody", slog.String("path", path))
	return nil
}

// QueryRange reads back the files created in [start, end).
// Only the note timing survives a file, so the returned melodies
// carry IDs, raga, tempo and the note-on count, not degrees.
func (so *SMFOutput) QueryRange(start, end time.Time) ([]*St.GeneratedMelody, error) {
	entries, err := os.ReadDir(so.Dir)
	if err != nil {
		return nil, fmt.Errorf("smf read dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".mid") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out []*St.GeneratedMelody
	for _, name := range names {
		m, ok := parseFileName(name)
		if !ok || m.CreatedAt.Before(start) || !m.CreatedAt.Before(end) {
			continue
		}
		if err := readSMFSummary(filepath.Join(so.Dir, name), m); err != nil {
			slog.Error("SMFOutput could not read file", slog.String("file", name), slog.Any("error", err))
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func parseFileName(name string) (*St.GeneratedMelody, bool) {
	base := strings.TrimSuffix(name, ".mid")
	parts := strings.SplitN(base, "-", 3)
	if len(parts) != 3 {
		return nil, false
	}
	var nanos int64
	if _, err := fmt.Sscanf(parts[0], "%d", &nanos); err != nil {
		return nil, false
	}
	// raga IDs never hold a dash, UUIDs do
	return &St.GeneratedMelody{
		CreatedAt: time.Unix(0, nanos),
		GrammarID: parts[1],
		ID:        parts[2],
	}, true
}

// readSMFSummary fills tempo and placeholder notes from a file.
func readSMFSummary(path string, m *St.GeneratedMelody) error {
	f, err := smf.ReadFile(path)
	if err != nil {
		return err
	}
	if len(f.Tracks) == 0 {
		return fmt.Errorf("no tracks")
	}

	for _, ev := range f.Tracks[0] {
		var (
			bpm        float64
			name       string
			ch, key, v uint8
		)
		switch {
		case ev.Message.GetMetaTempo(&bpm):
			m.TempoBPM = bpm
		case ev.Message.GetMetaTrackName(&name):
			m.GrammarName = strings.TrimPrefix(name, "Raga ")
		case midi.Message(ev.Message).GetNoteStart(&ch, &key, &v):
			m.Notes = append(m.Notes, St.GeneratedNote{Pitch: int(key), Velocity: int(v)})
		}
	}
	return nil
}

func (so *SMFOutput) Flush() error { return nil }
func (so *SMFOutput) Close() error { return nil }
func (so *SMFOutput) Type() string { return "SMF" }
