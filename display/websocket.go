package sargam

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	Sp "github.com/maroda/sargam/plugin"
	Ss "github.com/maroda/sargam/server"
	St "github.com/maroda/sargam/types"
)

const (
	wsReadLimit = 4096
	wsWriteWait = 5 * time.Second
)

// PitchFrame is the reply to every inbound sample.
type PitchFrame struct {
	Dropped    bool                 `json:"dropped,omitempty"`
	Sample     St.PitchSample       `json:"sample"`
	Validation *St.ValidationResult `json:"validation,omitempty"`
	Quality    St.PitchQuality      `json:"quality,omitempty"`
	Session    St.SessionStats      `json:"session"`
	Error      string               `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// PitchStreamHandler runs a live practice session against one raga.
// Each inbound frame is a JSON pitch reading from the client's detector.
// The session lives as long as the connection.
func (s *Studio) PitchStreamHandler(w http.ResponseWriter, r *http.Request) {
	raga := mux.Vars(r)["raga"]
	if _, err := s.Catalog.Lookup(raga); err != nil {
		writeError(w, err)
		return
	}

	chain, err := Sp.NewChain(s.Transformers)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsReadLimit)

	slog.Info("Pitch stream opened", slog.String("raga", raga), slog.String("remote", r.RemoteAddr))

	decoder := Sp.NewJSONSampleDecoder()
	session := Ss.NewSession()
	opened := time.Now()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Error("Pitch stream read failed", slog.Any("error", err))
			}
			break
		}

		reply := s.handleSample(raga, frame, decoder, chain, session)

		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			break // Connection closed
		}
	}

	stats := session.Stats()
	slog.Info("Pitch stream closed",
		slog.String("raga", raga),
		slog.Int("attempts", stats.TotalAttempts),
		slog.Float64("accuracy", Ss.FloatPrecise(stats.Accuracy, 1)))
	s.recordTraining(raga, session, opened)
}

func (s *Studio) handleSample(raga string, frame []byte, dec *Sp.JSONSampleDecoder, chain *Sp.Chain, session *Ss.Session) PitchFrame {
	sample, err := dec.Decode(frame)
	if err != nil {
		return PitchFrame{Session: session.Stats(), Error: err.Error()}
	}

	sample, keep, err := chain.Apply(sample)
	if err != nil {
		return PitchFrame{Sample: sample, Session: session.Stats(), Error: err.Error()}
	}
	if !keep {
		s.Stats.RecDropped()
		return PitchFrame{Dropped: true, Sample: sample, Session: session.Stats()}
	}

	res, err := s.Trainer.ValidateSample(raga, sample)
	if err != nil {
		return PitchFrame{Sample: sample, Session: session.Stats(), Error: err.Error()}
	}
	s.Stats.RecSample(string(res.Classification))

	return PitchFrame{
		Sample:     sample,
		Validation: &res,
		Quality:    Ss.QualityFor(res.CentsDeviation),
		Session:    session.Record(res, sample.Confidence),
	}
}

// recordTraining adds the finished stream to the learner history,
// scored by its accuracy. A stream with no validated samples is skipped.
func (s *Studio) recordTraining(raga string, session *Ss.Session, opened time.Time) {
	stats := session.Stats()
	if stats.TotalAttempts == 0 {
		return
	}
	score := Ss.FloatPrecise(stats.Accuracy, 1)
	s.recordPractice(St.PracticeSession{
		GrammarID:       raga,
		Activity:        St.ActivityPitchTraining,
		Score:           &score,
		DurationSeconds: time.Since(opened).Seconds(),
		Notes:           fmt.Sprintf("%d of %d samples in the raga", stats.CorrectAttempts, stats.TotalAttempts),
	})
}
