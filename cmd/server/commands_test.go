package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ZenCode/backend/internal/infrastructure/server"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), server.Version)
}

func TestIngestRequiresUser(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"ingest", "--dir", t.TempDir()})

	assert.Error(t, root.Execute())
}

func TestIngestRejectsBadUser(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"ingest", "--dir", t.TempDir(), "--user", "../etc"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid characters")
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig(&globalFlags{port: "9090", dev: true})
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestSummary(t *testing.T) {
	now := time.Now()
	job := &types.IngestJob{ID: "job_1", Status: types.JobCompleted, Components: 3, DesignFile: 1, FinishedAt: &now}
	assert.Equal(t, "COMPLETED: 3 components, 1 design files (job job_1)", summary(job))
}
