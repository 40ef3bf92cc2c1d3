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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KimyaProject/engage-core/pkg/helpers/syncutil"
	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "ENGAGE_CFG"

	CfgFile       = "config.toml"
	LogFile       = "core.log"
	SessionFile   = "session.db"
	MetricsDbFile = "metrics.db"
)

type Values struct {
	Engagement   Engagement `toml:"engagement,omitempty"`
	Modals       Modals     `toml:"modals,omitempty"`
	Status       Status     `toml:"status,omitempty"`
	Service      Service    `toml:"service,omitempty"`
	MQTT         MQTT       `toml:"mqtt,omitempty"`
	ConfigSchema int        `toml:"config_schema"`
	DebugLogging bool       `toml:"debug_logging"`
}

type Engagement struct {
	// PreviewBudget is the cumulative watch allowance per lesson for
	// anonymous visitors, e.g. "3m".
	PreviewBudget string `toml:"preview_budget,omitempty"`
	// SegmentLength is the size of one completed focus segment, e.g. "20m".
	SegmentLength string `toml:"segment_length,omitempty"`
	// MeaningfulSession is the minimum accumulated active time for a
	// session to count as genuine engagement, e.g. "2m".
	MeaningfulSession string        `toml:"meaningful_session,omitempty"`
	Encouragement     Encouragement `toml:"encouragement,omitempty"`
}

type Encouragement struct {
	InitialDelay string `toml:"initial_delay,omitempty"`
	MinInterval  string `toml:"min_interval,omitempty"`
	MaxInterval  string `toml:"max_interval,omitempty"`
}

type Modals struct {
	ReleaseDebounce string `toml:"release_debounce,omitempty"`
}

type Status struct {
	RefreshInterval string `toml:"refresh_interval,omitempty"`
}

type Service struct {
	APIPort      int  `toml:"api_port" validate:"gte=0,lte=65535"`
	FreshSession bool `toml:"fresh_session"`
}

type MQTT struct {
	Broker string   `toml:"broker,omitempty"`
	Topic  string   `toml:"topic,omitempty"`
	Filter []string `toml:"filter,omitempty,multiline"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Engagement: Engagement{
		PreviewBudget:     "3m",
		SegmentLength:     "20m",
		MeaningfulSession: "2m",
		Encouragement: Encouragement{
			InitialDelay: "30s",
			MinInterval:  "6m",
			MaxInterval:  "10m",
		},
	},
	Modals: Modals{
		ReleaseDebounce: "300ms",
	},
	Status: Status{
		RefreshInterval: "1m",
	},
	Service: Service{
		APIPort: 7497,
	},
}

type Instance struct {
	cfgPath  string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := Instance{
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		log.Info().Msg("saving new default config to disk")
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
		return &cfg, nil
	}

	if err := cfg.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	newVals := c.defaults
	if err := toml.Unmarshal(data, &newVals); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validator.New().Struct(&newVals); err != nil {
		return fmt.Errorf("invalid config values: %w", err)
	}

	c.vals = newVals
	log.Debug().Str("path", c.cfgPath).Msg("config loaded")
	return nil
}

func (c *Instance) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	if err := os.MkdirAll(filepath.Dir(c.cfgPath), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Instance) Path() string {
	return c.cfgPath
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}
