package sargam_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	Ss "github.com/maroda/sargam/server"
)

func TestFillEnvVar(t *testing.T) {
	t.Run("Returns the value when set", func(t *testing.T) {
		t.Setenv("SARGAM_TEST_VAR", "yaman")
		assert.Equal(t, "yaman", Ss.FillEnvVar("SARGAM_TEST_VAR"))
	})

	t.Run("Returns ENOENT when unset", func(t *testing.T) {
		assert.Equal(t, "ENOENT", Ss.FillEnvVar("SARGAM_TEST_NOT_SET"))
	})
}

func TestUrlCat(t *testing.T) {
	got := Ss.UrlCat("http://", "localhost:8090", "/api/ragas")
	assert.Equal(t, "http://localhost:8090/api/ragas", got)
}

func TestFloatPrecise(t *testing.T) {
	assert.Equal(t, 3.14, Ss.FloatPrecise(3.14159, 2))
	assert.Equal(t, -5.87, Ss.FloatPrecise(-5.8654, 2))
	assert.Equal(t, 2.0, Ss.FloatPrecise(1.96, 0))
}
