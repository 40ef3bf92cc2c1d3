// Engage Core
// Copyright (c) 2026 The Kimya Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Engage Core.
//
// Engage Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Engage Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Engage Core.  If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigWritesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, CfgFile))
	require.NoError(t, err, "default config file should have been written")

	assert.Equal(t, 3*time.Minute, cfg.PreviewBudget())
	assert.Equal(t, 20*time.Minute, cfg.SegmentLength())
	assert.Equal(t, 2*time.Minute, cfg.MeaningfulSession())
	assert.Equal(t, 300*time.Millisecond, cfg.ModalReleaseDebounce())
	assert.Equal(t, time.Minute, cfg.StatusRefreshInterval())
	assert.Equal(t, 7497, cfg.APIPort())
	assert.False(t, cfg.FreshSession())
	assert.False(t, cfg.MQTTEnabled())

	initial, minIvl, maxIvl := cfg.EncouragementDelays()
	assert.Equal(t, 30*time.Second, initial)
	assert.Equal(t, 6*time.Minute, minIvl)
	assert.Equal(t, 10*time.Minute, maxIvl)
}

func TestNewConfigLoadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	contents := `
config_schema = 1

[engagement]
preview_budget = "5m"
segment_length = "10m"

[service]
api_port = 9000

[mqtt]
broker = "localhost:1883"
topic = "custom/topic"
`
	require.NoError(t,
		os.WriteFile(filepath.Join(dir, CfgFile), []byte(contents), 0o600))

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.PreviewBudget())
	assert.Equal(t, 10*time.Minute, cfg.SegmentLength())
	assert.Equal(t, 9000, cfg.APIPort())

	require.True(t, cfg.MQTTEnabled())
	broker, topic, filter := cfg.MQTTSettings()
	assert.Equal(t, "localhost:1883", broker)
	assert.Equal(t, "custom/topic", topic)
	assert.Empty(t, filter)
}

func TestMalformedDurationFallsBack(t *testing.T) {
	dir := t.TempDir()
	contents := `
config_schema = 1

[engagement]
preview_budget = "banana"

[modals]
release_debounce = "-5s"
`
	require.NoError(t,
		os.WriteFile(filepath.Join(dir, CfgFile), []byte(contents), 0o600))

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	// tracking must start even over a bad value
	assert.Equal(t, 3*time.Minute, cfg.PreviewBudget())
	assert.Equal(t, 300*time.Millisecond, cfg.ModalReleaseDebounce())
}

func TestInvalidPortRejected(t *testing.T) {
	dir := t.TempDir()
	contents := `
config_schema = 1

[service]
api_port = 99999
`
	require.NoError(t,
		os.WriteFile(filepath.Join(dir, CfgFile), []byte(contents), 0o600))

	_, err := NewConfig(dir, BaseDefaults)
	require.Error(t, err)
}

func TestEncouragementMaxClampedToMin(t *testing.T) {
	dir := t.TempDir()
	contents := `
config_schema = 1

[engagement.encouragement]
min_interval = "8m"
max_interval = "2m"
`
	require.NoError(t,
		os.WriteFile(filepath.Join(dir, CfgFile), []byte(contents), 0o600))

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	_, minIvl, maxIvl := cfg.EncouragementDelays()
	assert.Equal(t, 8*time.Minute, minIvl)
	assert.Equal(t, 8*time.Minute, maxIvl)
}

func TestCfgEnvOverridesPath(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "custom.toml")
	t.Setenv(CfgEnv, custom)

	cfg, err := NewConfig(filepath.Join(dir, "ignored"), BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, custom, cfg.Path())

	_, err = os.Stat(custom)
	require.NoError(t, err)
}

func TestSetFreshSession(t *testing.T) {
	dir := t.TempDir()
	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	require.False(t, cfg.FreshSession())
	cfg.SetFreshSession(true)
	assert.True(t, cfg.FreshSession())
}
