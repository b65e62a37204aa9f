package bootstrap

import (
	"context"
	"io"
	"testing"
	"time"

	"visit-tracking-service/config"
	"visit-tracking-service/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalLocation(t *testing.T) {
	loc, err := CanonicalLocation("Local")
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = CanonicalLocation("")
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = CanonicalLocation("UTC")
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	_, err = CanonicalLocation("Nowhere/Special")
	assert.Error(t, err)
}

func TestRunSeedOnMemoryRepositories(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	repos := NewMemoryRepositories()

	opts := SeedOptions(config.SeedConfig{Doctors: 3, Patients: 10, Visits: 20, RandomSeed: 5})
	require.NoError(t, RunSeed(context.Background(), log, repos, service.NewTimeConverter(time.UTC), opts))

	count, err := repos.Seed.CountDoctors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	patient, err := repos.Patients.FindByID(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, patient)
}

func TestSetupLogger_ProductionFallsBackToInfo(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "production"}, Log: config.LogConfig{Level: "nope"}}
	log := setupLogger(cfg)

	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	_, ok := log.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
}
