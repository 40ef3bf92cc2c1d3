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

// Package focus implements the per-lesson watch-session state machine: the
// authoritative record of whether a student is meaningfully watching a
// lesson, accumulating trustworthy active time and deriving segment and
// interruption statistics for downstream engagement metrics.
package focus

import (
	"time"

	"github.com/KimyaProject/engage-core/pkg/api/models"
	"github.com/KimyaProject/engage-core/pkg/api/notifications"
	"github.com/KimyaProject/engage-core/pkg/helpers/syncutil"
	"github.com/KimyaProject/engage-core/pkg/service/visibility"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// State is the watch-session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateActive
	StatePaused
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Stats is a read-only snapshot of one watch session.
type Stats struct {
	LessonID           string `json:"lessonId"`
	SessionID          string `json:"sessionId"`
	State              string `json:"state"`
	TotalActiveSeconds int    `json:"totalActiveSeconds"`
	TotalPausedSeconds int    `json:"totalPausedSeconds"`
	TotalMinutes       int    `json:"totalMinutes"`
	CompletedSegments  int    `json:"completedSegments"`
	Interruptions      int    `json:"interruptions"`
}

// endPauseGrace is how close a pause must be to the completion event for it
// to count as the player winding down rather than a student interruption.
// Real players emit pause then ended back to back, milliseconds apart.
const endPauseGrace = time.Second

// Config carries the tunable thresholds of the machine.
type Config struct {
	// SegmentLength is the size of one completed active-time block.
	SegmentLength time.Duration
	// EncouragementInitialDelay is how long a session must be active before
	// the first encouragement can be scheduled.
	EncouragementInitialDelay time.Duration
	// EncouragementMinInterval and EncouragementMaxInterval bound the random
	// interval between encouragement notifications.
	EncouragementMinInterval time.Duration
	EncouragementMaxInterval time.Duration
}

// Machine tracks one continuous watching attempt for one lesson.
//
// IDLE → ACTIVE ⇄ PAUSED → COMPLETED, with COMPLETED terminal until Reset.
// Active time accrues only while the state is ACTIVE and the page is
// visible; it is accounted by clock deltas between transitions, so rapid
// play/pause toggles cannot drift or double-count.
//
// LOCKING RULES: mu protects all mutable fields. Notification payloads are
// prepared under the lock and sent outside it. Timer callbacks carry a
// generation number and are discarded when stale, so a dangling schedule
// from a previous lesson can never mutate the current lesson's counters.
type Machine struct {
	clock         clockwork.Clock
	ns            chan<- models.Notification
	vis           visibility.Source
	enc           *encourager
	segTimer      clockwork.Timer
	lessonID      string
	sessionID     string
	cfg           Config
	active        time.Duration
	paused        time.Duration
	activeSince   time.Time
	pausedSince   time.Time
	lastPauseAt   time.Time
	mu            syncutil.Mutex
	gen           int
	state         State
	segmentsFired int
	interruptions int
	visible       bool
}

// NewMachine creates an idle machine with no lesson bound. A nil clock uses
// the real clock. A nil vis starts the machine visible; otherwise the
// machine bootstraps its visibility from vis, with SetVisible tracking
// changes from then on.
func NewMachine(
	cfg Config,
	clock clockwork.Clock,
	vis visibility.Source,
	ns chan<- models.Notification,
) *Machine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.SegmentLength <= 0 {
		cfg.SegmentLength = 20 * time.Minute
	}
	return &Machine{
		clock:   clock,
		ns:      ns,
		vis:     vis,
		cfg:     cfg,
		visible: vis == nil || vis.Visible(),
	}
}

// SetLesson binds the machine to a lesson, atomically discarding any state
// and pending schedules belonging to the previous lesson. An empty id
// leaves the machine inert in IDLE.
func (m *Machine) SetLesson(lessonID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetLocked()
	m.lessonID = lessonID
	if lessonID != "" {
		m.sessionID = uuid.New().String()
	}
}

// Reset returns the machine to IDLE from any state, clearing all counters
// and cancelling all pending schedules. Used when switching lessons.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

func (m *Machine) resetLocked() {
	m.gen++
	m.stopSchedules()
	m.lessonID = ""
	m.sessionID = ""
	m.state = StateIdle
	m.active = 0
	m.paused = 0
	m.activeSince = time.Time{}
	m.pausedSince = time.Time{}
	m.lastPauseAt = time.Time{}
	m.segmentsFired = 0
	m.interruptions = 0
}

// VideoPlay transitions IDLE|PAUSED → ACTIVE and begins accruing active
// time. No-op without a lesson, while COMPLETED, or when already ACTIVE.
func (m *Machine) VideoPlay() {
	m.mu.Lock()

	if m.lessonID == "" || m.state == StateCompleted || m.state == StateActive {
		m.mu.Unlock()
		return
	}

	prev := m.state
	if prev == StatePaused {
		m.commitPaused()
	}
	m.state = StateActive
	m.startAccrual()
	payload := m.transitionParams(prev, StateActive)
	ns := m.ns
	m.mu.Unlock()

	log.Debug().Str("lesson_id", payload.LessonID).Str("from", payload.From).
		Msg("focus: session active")
	if ns != nil {
		notifications.FocusStarted(ns, payload)
	}
}

// VideoPause transitions ACTIVE → PAUSED, counting an interruption. A
// VideoEnd or LessonComplete following within the grace window cancels the
// interruption (a player's natural pause-before-end is not an
// interruption).
func (m *Machine) VideoPause() {
	m.mu.Lock()

	if m.state != StateActive {
		m.mu.Unlock()
		return
	}

	m.commitActive()
	m.stopSchedules()
	m.state = StatePaused
	m.pausedSince = m.clock.Now()
	m.lastPauseAt = m.pausedSince
	m.interruptions++
	payload := m.transitionParams(StateActive, StatePaused)
	ns := m.ns
	m.mu.Unlock()

	if ns != nil {
		notifications.FocusPaused(ns, payload)
	}
}

// VideoEnd transitions any state → COMPLETED.
func (m *Machine) VideoEnd() {
	m.complete()
}

// LessonComplete marks the lesson explicitly finished. Equivalent to
// VideoEnd; both may fire for the same moment and the second is a no-op.
func (m *Machine) LessonComplete() {
	m.complete()
}

func (m *Machine) complete() {
	m.mu.Lock()

	if m.lessonID == "" || m.state == StateCompleted {
		m.mu.Unlock()
		return
	}

	// a pause recorded just before the end was the player winding down,
	// not the student walking away
	if m.state == StatePaused && m.interruptions > 0 &&
		m.clock.Since(m.lastPauseAt) <= endPauseGrace {
		m.interruptions--
	}

	prev := m.state
	m.commitActive()
	m.commitPaused()
	m.stopSchedules()
	m.state = StateCompleted
	payload := m.transitionParams(prev, StateCompleted)
	ns := m.ns
	m.mu.Unlock()

	log.Info().Str("lesson_id", payload.LessonID).
		Int("active_seconds", payload.ActiveSeconds).
		Int("interruptions", payload.Interruptions).
		Msg("focus: session completed")
	if ns != nil {
		notifications.FocusCompleted(ns, payload)
	}
}

// SetVisible records a page visibility change. Hiding suspends active-time
// accrual and all scheduled notifications without leaving ACTIVE; both
// resume when the page becomes visible again.
func (m *Machine) SetVisible(visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if visible == m.visible {
		return
	}
	m.visible = visible

	if m.state != StateActive {
		return
	}
	if !visible {
		m.commitActive()
		m.stopSchedules()
		return
	}
	m.startAccrual()
}

// Stats returns a read-only snapshot of the current session. It never
// mutates state.
func (m *Machine) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	activeSecs := int(m.liveActive().Seconds())
	return Stats{
		LessonID:           m.lessonID,
		SessionID:          m.sessionID,
		State:              m.state.String(),
		TotalActiveSeconds: activeSecs,
		TotalPausedSeconds: int(m.livePaused().Seconds()),
		TotalMinutes:       activeSecs / 60,
		CompletedSegments:  activeSecs / int(m.cfg.SegmentLength.Seconds()),
		Interruptions:      m.interruptions,
	}
}

// LessonID returns the currently bound lesson id.
func (m *Machine) LessonID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lessonID
}

// liveActive returns accrued active time including any uncommitted delta.
// Callers must hold the lock.
func (m *Machine) liveActive() time.Duration {
	total := m.active
	if !m.activeSince.IsZero() {
		total += m.clock.Since(m.activeSince)
	}
	return total
}

// livePaused returns accrued paused time including any uncommitted delta.
// Callers must hold the lock.
func (m *Machine) livePaused() time.Duration {
	total := m.paused
	if !m.pausedSince.IsZero() {
		total += m.clock.Since(m.pausedSince)
	}
	return total
}

// commitActive folds the running active delta into the committed total.
// Callers must hold the lock.
func (m *Machine) commitActive() {
	if m.activeSince.IsZero() {
		return
	}
	m.active += m.clock.Since(m.activeSince)
	m.activeSince = time.Time{}
}

// commitPaused folds the running paused delta into the committed total.
// Callers must hold the lock.
func (m *Machine) commitPaused() {
	if m.pausedSince.IsZero() {
		return
	}
	m.paused += m.clock.Since(m.pausedSince)
	m.pausedSince = time.Time{}
}

// startAccrual begins counting active time and arms the segment boundary
// timer and the encouragement scheduler. No-op while hidden. Callers must
// hold the lock and have set state to ACTIVE.
func (m *Machine) startAccrual() {
	if !m.visible {
		return
	}
	m.activeSince = m.clock.Now()
	m.armSegmentTimer()
	m.startEncourager()
}

// armSegmentTimer schedules a callback for the moment accrued active time
// next crosses a segment boundary. Callers must hold the lock.
func (m *Machine) armSegmentTimer() {
	untilBoundary := m.cfg.SegmentLength - (m.active % m.cfg.SegmentLength)
	gen := m.gen
	m.segTimer = m.clock.AfterFunc(untilBoundary, func() {
		m.onSegmentBoundary(gen)
	})
}

// onSegmentBoundary fires each time a full segment of active time elapses.
func (m *Machine) onSegmentBoundary(gen int) {
	m.mu.Lock()
	if gen != m.gen || m.state != StateActive || !m.visible {
		m.mu.Unlock()
		return
	}

	m.commitActive()
	crossed := int(m.active / m.cfg.SegmentLength)
	if crossed <= m.segmentsFired {
		m.mu.Unlock()
		return
	}
	m.segmentsFired = crossed

	// keep accruing and arm the next boundary
	m.activeSince = m.clock.Now()
	m.armSegmentTimer()

	payload := models.FocusSegmentParams{
		LessonID:      m.lessonID,
		SessionID:     m.sessionID,
		Segment:       crossed,
		ActiveSeconds: int(m.active.Seconds()),
	}
	ns := m.ns
	m.mu.Unlock()

	log.Info().Str("lesson_id", payload.LessonID).Int("segment", payload.Segment).
		Msg("focus: segment completed")
	if ns != nil {
		notifications.FocusSegment(ns, payload)
	}
}

// startEncourager launches the encouragement scheduler for the current
// session. Callers must hold the lock.
func (m *Machine) startEncourager() {
	if m.enc != nil || m.ns == nil {
		return
	}
	if m.cfg.EncouragementMinInterval <= 0 || m.cfg.EncouragementMaxInterval <= 0 {
		return
	}
	m.enc = newEncourager(m.clock, m.ns, m.lessonID, m.cfg, m.Stats, m.encouragementAllowed)
	go m.enc.run()
}

// encouragementAllowed reports whether an encouragement may be sent right
// now. The encourager re-checks this after each timer fire so a stop racing
// the timer cannot let a notification through.
func (m *Machine) encouragementAllowed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateActive && m.visible
}

// stopSchedules cancels the segment timer and encouragement scheduler and
// freezes accrual bookkeeping timers. Callers must hold the lock.
func (m *Machine) stopSchedules() {
	if m.segTimer != nil {
		m.segTimer.Stop()
		m.segTimer = nil
	}
	if m.enc != nil {
		m.enc.stop()
		m.enc = nil
	}
}

// transitionParams builds a notification payload from the current counters.
// Callers must hold the lock.
func (m *Machine) transitionParams(from, to State) models.FocusTransitionParams {
	return models.FocusTransitionParams{
		LessonID:      m.lessonID,
		SessionID:     m.sessionID,
		From:          from.String(),
		To:            to.String(),
		ActiveSeconds: int(m.liveActive().Seconds()),
		Interruptions: m.interruptions,
	}
}
