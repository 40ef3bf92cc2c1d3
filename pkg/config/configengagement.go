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
	"time"

	"github.com/rs/zerolog/log"
)

// parseDuration parses a config duration string, falling back to the given
// default when the value is empty or malformed. Engagement tracking must
// never fail to start over a bad config value.
func parseDuration(val, field string, fallback time.Duration) time.Duration {
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		log.Warn().Str("field", field).Str("value", val).
			Msg("invalid duration in config, using default")
		return fallback
	}
	return d
}

// PreviewBudget returns the anonymous preview allowance per lesson.
func (c *Instance) PreviewBudget() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(c.vals.Engagement.PreviewBudget, "preview_budget", 3*time.Minute)
}

// SegmentLength returns the size of one completed focus segment.
func (c *Instance) SegmentLength() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(c.vals.Engagement.SegmentLength, "segment_length", 20*time.Minute)
}

// MeaningfulSession returns the minimum active time for a session to count
// toward engagement metrics.
func (c *Instance) MeaningfulSession() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(c.vals.Engagement.MeaningfulSession, "meaningful_session", 2*time.Minute)
}

// EncouragementDelays returns the initial delay and the bounds of the random
// interval between encouragement notifications while a lesson is active.
func (c *Instance) EncouragementDelays() (initial, minInterval, maxInterval time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	enc := c.vals.Engagement.Encouragement
	initial = parseDuration(enc.InitialDelay, "initial_delay", 30*time.Second)
	minInterval = parseDuration(enc.MinInterval, "min_interval", 6*time.Minute)
	maxInterval = parseDuration(enc.MaxInterval, "max_interval", 10*time.Minute)
	if maxInterval < minInterval {
		maxInterval = minInterval
	}
	return initial, minInterval, maxInterval
}

// ModalReleaseDebounce returns the delay between a modal being released and
// the next queued modal being promoted.
func (c *Instance) ModalReleaseDebounce() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(c.vals.Modals.ReleaseDebounce, "release_debounce", 300*time.Millisecond)
}

// StatusRefreshInterval returns how often the status monitor recomputes the
// system status from fresh metrics.
func (c *Instance) StatusRefreshInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(c.vals.Status.RefreshInterval, "refresh_interval", time.Minute)
}
