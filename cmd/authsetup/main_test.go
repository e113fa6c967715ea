package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuitang/pwhelpers/auth"
	"github.com/kuitang/pwhelpers/internal/config"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.AuthSetupConfig{
		BaseURL:           "https://stage.example.com/app/",
		User:              "u",
		Pass:              "p",
		TAN:               "654321",
		StatePath:         "state/user.json",
		Timeout:           5 * time.Second,
		KeepTrackingFlags: true,
		SkipStateCleanup:  true,
	}
	opts := optionsFromConfig(cfg)

	assert.Equal(t, "https://stage.example.com/app/", opts.BaseURL)
	assert.Equal(t, "state/user.json", opts.StatePath)
	assert.True(t, opts.KeepTrackingFlags)
	assert.True(t, opts.SkipStateCleanup)
	require.NotNil(t, opts.SecondFactor)
	code, err := opts.SecondFactor(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "654321", code)

	cfg.TAN = ""
	assert.Nil(t, optionsFromConfig(cfg).SecondFactor)
}

func TestNewMirror_DisabledWithoutBucket(t *testing.T) {
	mirror, err := newMirror(context.Background(), config.MirrorConfig{})
	require.NoError(t, err)
	assert.Nil(t, mirror)
}

func TestWriteReport(t *testing.T) {
	report := &auth.Report{
		RunID:      "run-1",
		Config:     auth.Resolved{LoginURL: "https://example.com/app/"},
		Variant:    auth.FormCurrent,
		Cleanup:    auth.CleanupOutcome{Decision: auth.CleanupRemove, Target: "playwright"},
		Advisories: []auth.Advisory{{Step: "login_page_network_idle", Err: errors.New("timeout")}},
		StatePath:  "playwright/.auth/user.json",
	}

	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, report))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.Equal(t, "current", got["form_variant"])
	assert.Equal(t, "remove", got["cleanup"])
	assert.Equal(t, "playwright", got["removed"])
	assert.Equal(t, []any{"login_page_network_idle: timeout"}, got["advisories"])
	assert.NotContains(t, got, "mirror")
}
