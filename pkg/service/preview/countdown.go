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

// Package preview implements the anonymous-visitor watch budget: a generic
// pausable, visibility-gated countdown plus the per-lesson preview timer
// built on top of it.
package preview

import (
	"strconv"
	"time"

	"github.com/KimyaProject/engage-core/pkg/helpers/syncutil"
	"github.com/KimyaProject/engage-core/pkg/store"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Countdown counts a time budget down to zero, but only while it is both
// running and the page is visible. Time is accounted by clock deltas between
// transitions rather than a per-second tick, so repeated start/pause cycles
// accumulate no drift. At zero the countdown locks permanently until the
// next Reset.
//
// All entry points are idempotent. A stale timer callback from a previous
// identity is discarded by generation check and can never touch the counters
// of the current identity.
type Countdown struct {
	clock        clockwork.Clock
	st           store.Store
	onZero       func()
	lockTimer    clockwork.Timer
	flushStop    chan struct{}
	key          string
	remaining    time.Duration
	runningSince time.Time
	mu           syncutil.Mutex
	gen          int
	running      bool
	visible      bool
	locked       bool
	zeroNotified bool
}

// NewCountdown creates an unbound countdown. Reset must be called to bind an
// identity and budget before Start has any effect. A nil clock uses the real
// clock.
func NewCountdown(clock clockwork.Clock, st store.Store) *Countdown {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Countdown{
		clock:   clock,
		st:      st,
		visible: true,
	}
}

// Reset binds the countdown to a new identity with a fresh budget,
// cancelling anything scheduled for the previous identity. A non-positive
// budget locks immediately without ever running. onZero, if not nil, is
// called once when the budget reaches zero.
func (c *Countdown) Reset(key string, budget time.Duration, onZero func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.stopSchedules()
	c.key = key
	c.onZero = onZero
	c.running = false
	c.runningSince = time.Time{}

	if key == "" {
		c.remaining = 0
		c.locked = false
		c.zeroNotified = false
		return
	}
	if budget <= 0 {
		// restored as already exhausted; lock silently, nothing to announce
		c.remaining = 0
		c.locked = true
		c.zeroNotified = true
		return
	}
	c.remaining = budget
	c.locked = false
	c.zeroNotified = false
}

// Start arms the countdown. No-op if already running, locked, or unbound.
func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key == "" || c.locked || c.running {
		return
	}
	c.running = true
	c.resume()
}

// Pause disarms the countdown, retaining the remaining budget. Idempotent.
// A pause that commits the final second of budget still announces the lock.
func (c *Countdown) Pause() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.commit()
	c.running = false
	c.stopSchedules()
	c.persist()
	onZero := c.zeroCallback()
	c.mu.Unlock()

	if onZero != nil {
		onZero()
	}
}

// SetVisible records a page visibility change. Hiding the page suspends
// accrual without altering the running intent; the countdown resumes by
// itself when the page becomes visible again.
func (c *Countdown) SetVisible(visible bool) {
	c.mu.Lock()

	if visible == c.visible {
		c.mu.Unlock()
		return
	}
	c.visible = visible

	if !visible {
		c.commit()
		c.stopSchedules()
		c.persist()
		onZero := c.zeroCallback()
		c.mu.Unlock()
		if onZero != nil {
			onZero()
		}
		return
	}
	if c.running && !c.locked {
		c.resume()
	}
	c.mu.Unlock()
}

// Remaining returns the live remaining budget in whole seconds.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.live().Seconds())
}

// Locked reports whether the budget has reached zero.
func (c *Countdown) Locked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	// an in-flight delta may have consumed the rest of the budget
	return c.locked || (c.key != "" && c.live() <= 0)
}

// Running reports the logical running intent, independent of visibility.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Stop tears the countdown down entirely, persisting the remaining budget.
// Used when the owning view unmounts.
func (c *Countdown) Stop() {
	c.mu.Lock()
	c.gen++
	c.commit()
	c.running = false
	c.stopSchedules()
	c.persist()
	onZero := c.zeroCallback()
	c.mu.Unlock()

	if onZero != nil {
		onZero()
	}
}

// live returns the current remaining budget including any uncommitted
// accrual. Callers must hold the lock.
func (c *Countdown) live() time.Duration {
	rem := c.remaining
	if !c.runningSince.IsZero() {
		rem -= c.clock.Since(c.runningSince)
	}
	if rem < 0 {
		rem = 0
	}
	return rem
}

// commit folds accrued time into the remaining budget and updates the
// locked flag. Callers must hold the lock.
func (c *Countdown) commit() {
	if c.runningSince.IsZero() {
		return
	}
	c.remaining -= c.clock.Since(c.runningSince)
	c.runningSince = time.Time{}
	if c.remaining <= 0 {
		c.remaining = 0
		c.locked = true
		c.running = false
	}
}

// resume begins accrual and schedules the zero-lock callback and the
// periodic persistence flush. Callers must hold the lock and have verified
// running && !locked.
func (c *Countdown) resume() {
	if !c.visible {
		return
	}
	c.runningSince = c.clock.Now()

	gen := c.gen
	c.lockTimer = c.clock.AfterFunc(c.remaining, func() {
		c.onBudgetExhausted(gen)
	})

	c.flushStop = make(chan struct{})
	go c.flushLoop(gen, c.flushStop)
}

// stopSchedules cancels the zero-lock timer and persistence flusher.
// Callers must hold the lock.
func (c *Countdown) stopSchedules() {
	if c.lockTimer != nil {
		c.lockTimer.Stop()
		c.lockTimer = nil
	}
	if c.flushStop != nil {
		close(c.flushStop)
		c.flushStop = nil
	}
}

// onBudgetExhausted fires when the scheduled budget runs out.
func (c *Countdown) onBudgetExhausted(gen int) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.commit()
	if !c.locked {
		// re-check race: pause landed between schedule and fire
		c.mu.Unlock()
		return
	}
	c.stopSchedules()
	c.persist()
	onZero := c.zeroCallback()
	key := c.key
	c.mu.Unlock()

	log.Debug().Str("key", key).Msg("countdown: budget exhausted, locked")
	if onZero != nil {
		onZero()
	}
}

// zeroCallback returns the callback to invoke once the budget has locked,
// or nil when there is nothing to announce. Every lock path calls this, so
// whichever of the scheduled timer or a committing transition observes zero
// first fires the callback, and exactly once. Callers must hold the lock
// and invoke the returned func after releasing it.
func (c *Countdown) zeroCallback() func() {
	if !c.locked || c.zeroNotified || c.onZero == nil {
		return nil
	}
	c.zeroNotified = true
	return c.onZero
}

// flushLoop persists the live remaining value once per second while the
// countdown is accruing, so a client reload restores an up-to-date value
// even without a clean pause.
func (c *Countdown) flushLoop(gen int, stop <-chan struct{}) {
	ticker := c.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			c.mu.Lock()
			if gen != c.gen {
				c.mu.Unlock()
				return
			}
			c.persistLive()
			c.mu.Unlock()
		case <-stop:
			return
		}
	}
}

// persist writes the committed remaining budget. Callers must hold the lock.
func (c *Countdown) persist() {
	if c.st == nil || c.key == "" {
		return
	}
	c.st.Set(c.key, strconv.Itoa(int(c.remaining.Seconds())))
}

// persistLive writes the live remaining budget without committing it.
// Callers must hold the lock.
func (c *Countdown) persistLive() {
	if c.st == nil || c.key == "" {
		return
	}
	c.st.Set(c.key, strconv.Itoa(int(c.live().Seconds())))
}
