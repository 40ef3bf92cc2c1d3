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

package preview

import (
	"strconv"
	"time"

	"github.com/KimyaProject/engage-core/pkg/api/models"
	"github.com/KimyaProject/engage-core/pkg/api/notifications"
	"github.com/KimyaProject/engage-core/pkg/helpers/syncutil"
	"github.com/KimyaProject/engage-core/pkg/store"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "preview:"

// State is a read-only snapshot of the preview budget for one lesson.
type State struct {
	LessonID         string `json:"lessonId"`
	RemainingSeconds int    `json:"remainingSeconds"`
	IsLocked         bool   `json:"isLocked"`
	IsRunning        bool   `json:"isRunning"`
}

// Timer gives an anonymous visitor a fixed cumulative preview budget per
// lesson, persisted for the duration of the session. The budget is
// independent of how many times playback starts and stops.
type Timer struct {
	clock    clockwork.Clock
	st       store.Store
	ns       chan<- models.Notification
	cd       *Countdown
	lessonID string
	budget   time.Duration
	mu       syncutil.Mutex
}

// NewTimer creates a preview timer with the given per-lesson budget. The
// timer is inert until ResetForNewLesson binds a lesson identity.
func NewTimer(
	budget time.Duration,
	clock clockwork.Clock,
	st store.Store,
	ns chan<- models.Notification,
) *Timer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Timer{
		clock:  clock,
		st:     st,
		ns:     ns,
		budget: budget,
		cd:     NewCountdown(clock, st),
	}
}

// ResetForNewLesson switches the tracked lesson identity, persisting the
// previous lesson's remaining budget and restoring the new lesson's from the
// session store (full budget when no record exists). A restored value of
// zero reports locked immediately without ever running.
func (t *Timer) ResetForNewLesson(lessonID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if lessonID == t.lessonID {
		return
	}

	// flush the previous lesson's remaining time before switching
	t.cd.Pause()

	t.lessonID = lessonID
	if lessonID == "" {
		t.cd.Reset("", 0, nil)
		return
	}

	remaining := t.restore(lessonID)
	ns := t.ns
	t.cd.Reset(keyPrefix+lessonID, remaining, func() {
		if ns != nil {
			notifications.PreviewLocked(ns, models.PreviewLockedParams{LessonID: lessonID})
		}
	})

	log.Debug().Str("lesson_id", lessonID).
		Dur("remaining", remaining).
		Msg("preview: lesson bound")
}

// StartTimer begins decrementing if a lesson is bound and the budget is not
// exhausted. Idempotent.
func (t *Timer) StartTimer() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lessonID == "" {
		return
	}
	t.cd.Start()
}

// PauseTimer stops decrementing, retaining the remaining value. Idempotent.
// The countdown synchronizes itself; no Timer lock is held here so a lock
// announcement from the final commit sends outside any lock.
func (t *Timer) PauseTimer() {
	t.cd.Pause()
}

// SetVisible forwards a page visibility change to the countdown.
func (t *Timer) SetVisible(visible bool) {
	t.cd.SetVisible(visible)
}

// Remaining returns the live remaining budget in whole seconds.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cd.Remaining()
}

// Locked reports whether the current lesson's budget is exhausted.
func (t *Timer) Locked() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cd.Locked()
}

// Snapshot returns the current preview state.
func (t *Timer) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return State{
		LessonID:         t.lessonID,
		RemainingSeconds: t.cd.Remaining(),
		IsLocked:         t.cd.Locked(),
		IsRunning:        t.cd.Running(),
	}
}

// Stop tears the timer down, persisting the current lesson's budget.
func (t *Timer) Stop() {
	t.cd.Stop()
}

// restore reads the persisted remaining budget for a lesson, degrading to
// the full budget on any storage failure or malformed record.
func (t *Timer) restore(lessonID string) time.Duration {
	if t.st == nil {
		return t.budget
	}
	raw, ok := t.st.Get(keyPrefix + lessonID)
	if !ok {
		return t.budget
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("lesson_id", lessonID).Str("value", raw).
			Msg("preview: malformed stored budget, using full budget")
		return t.budget
	}
	if secs < 0 {
		secs = 0
	}
	remaining := time.Duration(secs) * time.Second
	if remaining > t.budget {
		remaining = t.budget
	}
	return remaining
}
