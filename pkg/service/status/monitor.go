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

package status

import (
	"context"
	"time"

	"github.com/KimyaProject/engage-core/pkg/api/models"
	"github.com/KimyaProject/engage-core/pkg/api/notifications"
	"github.com/KimyaProject/engage-core/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// MetricsProvider supplies a freshly computed metrics snapshot on demand.
// The engine itself performs no I/O; all fetching lives behind this port.
type MetricsProvider interface {
	ComputeMetrics(ctx context.Context) (Metrics, error)
}

// Monitor periodically refreshes metrics, runs the engine, and publishes a
// status.changed notification when the derived code changes. A failed fetch
// surfaces as CodeDataLoadError here, around the pure engine, never inside
// it.
type Monitor struct {
	clock    clockwork.Clock
	provider MetricsProvider
	ns       chan<- models.Notification
	current  Code
	metrics  Metrics
	interval time.Duration
	mu       syncutil.RWMutex
}

// NewMonitor creates a monitor refreshing every interval. A nil clock uses
// the real clock.
func NewMonitor(
	provider MetricsProvider,
	interval time.Duration,
	clock clockwork.Clock,
	ns chan<- models.Notification,
) *Monitor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Monitor{
		clock:    clock,
		provider: provider,
		ns:       ns,
		interval: interval,
	}
}

// Start runs the refresh loop until the context is cancelled. An immediate
// refresh happens before the first tick.
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		m.Refresh(ctx)

		ticker := m.clock.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.Chan():
				m.Refresh(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Refresh fetches a fresh snapshot and recomputes the status, returning the
// resulting code. Collaborators call this on relevant data-change events in
// addition to the periodic cycle.
func (m *Monitor) Refresh(ctx context.Context) Code {
	var code Code
	var metrics Metrics

	fetched, err := m.provider.ComputeMetrics(ctx)
	if err != nil {
		log.Error().Err(err).Msg("status: metrics fetch failed")
		code = CodeDataLoadError
	} else {
		metrics = fetched
		code = Compute(metrics)
	}

	m.mu.Lock()
	prev := m.current
	m.current = code
	if err == nil {
		m.metrics = metrics
	}
	ns := m.ns
	m.mu.Unlock()

	if code != prev && ns != nil {
		log.Info().Str("code", string(code)).Str("previous", string(prev)).
			Msg("status: system status changed")
		notifications.StatusChanged(ns, models.StatusChangedParams{
			Code:     string(code),
			Previous: string(prev),
		})
	}
	return code
}

// Current returns the most recently derived code, or empty before the first
// refresh.
func (m *Monitor) Current() Code {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// LastMetrics returns the snapshot behind the most recent successful
// refresh.
func (m *Monitor) LastMetrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metrics
}
