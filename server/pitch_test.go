package sargam_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	Ss "github.com/maroda/sargam/server"
	St "github.com/maroda/sargam/types"
)

func TestSwaraTable(t *testing.T) {
	t.Run("Has both octaves in rising order", func(t *testing.T) {
		table := Ss.Swaras()
		require.Len(t, table, 24)
		for i := 1; i < len(table); i++ {
			assert.Greater(t, table[i].Cents, table[i-1].Cents)
			assert.Equal(t, table[i-1].Pitch+1, table[i].Pitch)
		}
		assert.Equal(t, St.Degree("S"), table[0].Degree)
		assert.Equal(t, St.Degree("S'"), table[12].Degree)
		assert.InDelta(t, 1200, table[12].Cents, 1e-9)
	})

	t.Run("Maps Sa to middle C", func(t *testing.T) {
		p, err := Ss.PitchOf("S")
		require.NoError(t, err)
		assert.Equal(t, 60, p)
	})

	t.Run("Tivra Ma sits between Ma and Pa", func(t *testing.T) {
		p, err := Ss.PitchOf("M+")
		require.NoError(t, err)
		assert.Equal(t, 66, p)
	})

	t.Run("Refuses an unmapped swara", func(t *testing.T) {
		_, err := Ss.PitchOf("Q")
		assert.ErrorIs(t, err, Ss.ErrDataIntegrity)
	})

	t.Run("Reference frequency follows the ratio", func(t *testing.T) {
		pa, ok := Ss.LookupSwara("P")
		require.True(t, ok)
		assert.InDelta(t, 330, pa.Hz(220), 1e-9)
	})
}

func TestClassifier_Classify(t *testing.T) {
	c := Ss.NewClassifier(Ss.DefaultTonicHz)

	t.Run("Tonic is Sa with no deviation", func(t *testing.T) {
		d, cents, err := c.Classify(Ss.DefaultTonicHz)
		require.NoError(t, err)
		assert.Equal(t, St.Degree("S"), d)
		assert.InDelta(t, 0, cents, 1e-9)
	})

	t.Run("440 Hz is Dha, slightly flat of just intonation", func(t *testing.T) {
		d, cents, err := c.Classify(440)
		require.NoError(t, err)
		assert.Equal(t, St.Degree("D"), d)
		// 440 sits about 900 cents over C4, just Dha is 905.87
		assert.InDelta(t, -5.9, cents, 0.1)
	})

	t.Run("Octave above is tar Sa", func(t *testing.T) {
		d, cents, err := c.Classify(2 * Ss.DefaultTonicHz)
		require.NoError(t, err)
		assert.Equal(t, St.Degree("S'"), d)
		assert.InDelta(t, 0, cents, 1e-9)
	})

	t.Run("Sharp readings report positive cents", func(t *testing.T) {
		hz := Ss.DefaultTonicHz * 1.5 * math.Pow(2, 20.0/1200)
		d, cents, err := c.Classify(hz)
		require.NoError(t, err)
		assert.Equal(t, St.Degree("P"), d)
		assert.InDelta(t, 20, cents, 1e-6)
	})

	t.Run("Below the table still finds Sa", func(t *testing.T) {
		d, cents, err := c.Classify(Ss.DefaultTonicHz / 2)
		require.NoError(t, err)
		assert.Equal(t, St.Degree("S"), d)
		assert.InDelta(t, -1200, cents, 1e-9)
	})

	for _, hz := range []float64{0, -440, math.NaN(), math.Inf(1)} {
		t.Run("Rejects a bad frequency", func(t *testing.T) {
			_, _, err := c.Classify(hz)
			assert.ErrorIs(t, err, Ss.ErrInvalidArgument)
		})
	}

	t.Run("A bad tonic falls back to the default", func(t *testing.T) {
		assert.Equal(t, Ss.DefaultTonicHz, Ss.NewClassifier(-1).TonicHz)
		assert.Equal(t, 220.0, Ss.NewClassifier(220).TonicHz)
	})
}

func TestCatalog_Validate(t *testing.T) {
	cat := makeTestCatalog(t)

	tests := []struct {
		name     string
		degree   St.Degree
		raga     string
		want     St.Classification
		valid    bool
		feedback string
	}{
		{"Natural Ma is forbidden in Yaman", "M", "yaman", St.Forbidden, false, "M is forbidden in Yaman"},
		{"Ga is the vadi of Yaman", "G", "yaman", St.Emphasized, true,
			"Excellent! G is the Vadi (most important note) of Yaman"},
		{"Ni is the samvadi of Yaman", "N", "yaman", St.SecondaryEmphasis, true,
			"Great! N is the Samvadi (second most important note) of Yaman"},
		{"Re belongs to Yaman", "R", "yaman", St.Allowed, true, "Correct! R belongs to Yaman"},
		{"Pa is outside Bageshri", "P", "bageshri", St.OutOfGrammar, false, "P is not typically used in Bageshri"},
		{"Komal Dha is the vadi of Bhairav", "d", "bhairav", St.Emphasized, true,
			"Excellent! d is the Vadi (most important note) of Bhairav"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := cat.Validate(tt.degree, tt.raga)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Classification)
			assert.Equal(t, tt.valid, res.IsValid)
			assert.Equal(t, tt.feedback, res.Feedback)
			assert.Equal(t, tt.degree, res.NearestDegree)
		})
	}

	t.Run("Repeated validation gives the same result", func(t *testing.T) {
		for _, tt := range tests {
			first, err := cat.Validate(tt.degree, tt.raga)
			require.NoError(t, err)
			for range 3 {
				again, err := cat.Validate(tt.degree, tt.raga)
				require.NoError(t, err)
				assert.Equal(t, first, again, tt.name)
			}
		}

		g, err := cat.Lookup("yaman")
		require.NoError(t, err)
		assert.Equal(t, []St.Degree{"S", "R", "G", "M+", "P", "D", "N"}, g.Allowed)
	})

	t.Run("Tar octave swaras are outside every grammar", func(t *testing.T) {
		res, err := cat.Validate("S'", "yaman")
		require.NoError(t, err)
		assert.Equal(t, St.OutOfGrammar, res.Classification)
		assert.False(t, res.IsValid)
	})

	t.Run("Forbidden suggests the allowed swaras", func(t *testing.T) {
		res, err := cat.Validate("M", "yaman")
		require.NoError(t, err)
		assert.Equal(t, "Try S, R, G, M+, P, D, N instead", res.Suggestion)
	})

	t.Run("Out of grammar lists what the raga uses", func(t *testing.T) {
		res, err := cat.Validate("P", "bageshri")
		require.NoError(t, err)
		assert.Equal(t, "This raga uses: S, R, g, M, D, n", res.Suggestion)
	})

	t.Run("Unknown raga is NotFound", func(t *testing.T) {
		_, err := cat.Validate("S", "craquemattic")
		assert.ErrorIs(t, err, Ss.ErrNotFound)
	})

	t.Run("Unknown swara is NotFound", func(t *testing.T) {
		_, err := cat.Validate("Q", "yaman")
		assert.ErrorIs(t, err, Ss.ErrNotFound)
	})
}

func TestTrainer_ValidateSample(t *testing.T) {
	tr := Ss.NewTrainer(makeTestCatalog(t), Ss.NewClassifier(Ss.DefaultTonicHz))

	t.Run("Natural Ma sung in Yaman is forbidden", func(t *testing.T) {
		res, err := tr.ValidateSample("yaman", St.PitchSample{FrequencyHz: 349.23, Confidence: 0.9})
		require.NoError(t, err)
		assert.Equal(t, St.Degree("M"), res.NearestDegree)
		assert.Equal(t, St.Forbidden, res.Classification)
		assert.InDelta(t, 2, res.CentsDeviation, 0.5)
	})

	t.Run("Bad frequency is InvalidArgument", func(t *testing.T) {
		_, err := tr.ValidateSample("yaman", St.PitchSample{FrequencyHz: 0})
		assert.ErrorIs(t, err, Ss.ErrInvalidArgument)
	})
}

func TestQualityFor(t *testing.T) {
	tests := []struct {
		cents float64
		want  St.PitchQuality
		conf  float64
	}{
		{0, St.Excellent, 0.95},
		{-9.9, St.Excellent, 0.95},
		{10, St.Good, 0.85},
		{-24, St.Good, 0.85},
		{25, St.Acceptable, 0.7},
		{49.9, St.Acceptable, 0.7},
		{-50, St.Poor, 0.5},
		{99, St.Poor, 0.5},
		{100, St.VeryPoor, 0.25},
		{-600, St.VeryPoor, 0.25},
	}
	for _, tt := range tests {
		t.Run("Grades "+string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, Ss.QualityFor(tt.cents), "cents %v", tt.cents)
			assert.Equal(t, tt.conf, Ss.ConfidenceFor(tt.cents), "cents %v", tt.cents)
		})
	}
}
