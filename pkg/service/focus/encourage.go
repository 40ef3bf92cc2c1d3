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

package focus

import (
	"math/rand/v2"
	"time"

	"github.com/KimyaProject/engage-core/pkg/api/models"
	"github.com/KimyaProject/engage-core/pkg/api/notifications"
	"github.com/jonboulle/clockwork"
)

// encourager schedules non-authoritative encouragement notifications while
// a session stays active: an initial delay, then repeats at a random
// interval drawn uniformly from the configured bounds. The machine stops it
// whenever the session leaves ACTIVE or the page hides, so it can never
// fire outside an active, visible session.
type encourager struct {
	clock    clockwork.Clock
	ns       chan<- models.Notification
	stats    func() Stats
	allowed  func() bool
	stopCh   chan struct{}
	lessonID string
	initial  time.Duration
	min      time.Duration
	max      time.Duration
}

func newEncourager(
	clock clockwork.Clock,
	ns chan<- models.Notification,
	lessonID string,
	cfg Config,
	stats func() Stats,
	allowed func() bool,
) *encourager {
	return &encourager{
		clock:    clock,
		ns:       ns,
		stats:    stats,
		allowed:  allowed,
		stopCh:   make(chan struct{}),
		lessonID: lessonID,
		initial:  cfg.EncouragementInitialDelay,
		min:      cfg.EncouragementMinInterval,
		max:      cfg.EncouragementMaxInterval,
	}
}

func (e *encourager) run() {
	if !e.wait(e.initial) {
		return
	}
	for {
		if !e.wait(e.nextInterval()) {
			return
		}
		minutes := e.stats().TotalMinutes
		// the machine may have stopped us between the timer fire and here;
		// re-check both the stop channel and the session state before sending
		select {
		case <-e.stopCh:
			return
		default:
		}
		if e.allowed != nil && !e.allowed() {
			return
		}
		notifications.Encouragement(e.ns, models.EncouragementParams{
			LessonID:      e.lessonID,
			ActiveMinutes: minutes,
		})
	}
}

// wait blocks for d, returning false if the encourager was stopped first.
func (e *encourager) wait(d time.Duration) bool {
	timer := e.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.Chan():
		return true
	case <-e.stopCh:
		return false
	}
}

// nextInterval draws a uniform random interval from [min, max].
func (e *encourager) nextInterval() time.Duration {
	if e.max <= e.min {
		return e.min
	}
	return e.min + rand.N(e.max-e.min+1)
}

func (e *encourager) stop() {
	close(e.stopCh)
}
