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

// Package modals arbitrates system-level interstitials so at most one is
// ever visible: priority-queued promotion at release time, a short debounce
// between one modal closing and the next opening, and a session-scoped
// dismissal set that suppresses a modal type permanently.
package modals

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/KimyaProject/engage-core/pkg/api/models"
	"github.com/KimyaProject/engage-core/pkg/api/notifications"
	"github.com/KimyaProject/engage-core/pkg/helpers/syncutil"
	"github.com/KimyaProject/engage-core/pkg/store"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Priority orders competing modal requests. Lower values win queue position
// but never preempt an already-active modal.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityNotificationPermission
	PriorityInstallPrompt
	PriorityGuidance
)

const dismissedKey = "modals:dismissed"

type request struct {
	modalType string
	priority  Priority
}

// Controller owns the single active-modal slot. It is constructed
// explicitly and injected into feature code rather than living as a
// module-level singleton, so tests can build isolated instances.
//
// The single-threadedness of each caller is not assumed: the mutex makes
// the slot safe under concurrent requests, and arbitration only ever
// happens at release time.
type Controller struct {
	clock     clockwork.Clock
	st        store.Store
	ns        chan<- models.Notification
	dismissed map[string]bool
	active    string
	queue     []request
	debounce  time.Duration
	mu        syncutil.Mutex
	gen       int
	locked    bool
}

// NewController builds a controller with the given release debounce. The
// session dismissal set is restored from the store; a missing or unreadable
// record degrades to an empty set. A nil clock uses the real clock.
func NewController(
	debounce time.Duration,
	clock clockwork.Clock,
	st store.Store,
	ns chan<- models.Notification,
) *Controller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	c := &Controller{
		clock:     clock,
		st:        st,
		ns:        ns,
		debounce:  debounce,
		dismissed: make(map[string]bool),
	}
	c.loadDismissed()
	return c
}

// Request asks for screen time for a modal type. Returns true when the
// modal is (or already was) active; a session-dismissed type is rejected
// and any other contender is queued, deduplicated, for promotion at the
// next release.
func (c *Controller) Request(modalType string, priority Priority) bool {
	if modalType == "" {
		return false
	}

	c.mu.Lock()

	if c.dismissed[modalType] {
		c.mu.Unlock()
		return false
	}
	if c.active == modalType {
		c.mu.Unlock()
		return true
	}
	if c.locked {
		c.enqueue(modalType, priority)
		c.mu.Unlock()
		return false
	}

	c.active = modalType
	c.locked = true
	payload := models.ModalActivatedParams{Type: modalType, Priority: int(priority)}
	ns := c.ns
	c.mu.Unlock()

	log.Debug().Str("type", modalType).Msg("modals: activated")
	if ns != nil {
		notifications.ModalActivated(ns, payload)
	}
	return true
}

// Release gives up the active slot. Only effective for the currently active
// type. The slot stays locked for the debounce delay to avoid visual
// flicker, then the highest-priority queued request is promoted.
func (c *Controller) Release(modalType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != modalType {
		return
	}
	c.active = ""
	c.scheduleUnlock()
}

// DismissForSession permanently suppresses a modal type for the rest of the
// session: it is removed from the queue, released if active, and every
// future Request for it returns false.
func (c *Controller) DismissForSession(modalType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dismissed[modalType] = true
	c.persistDismissed()

	for i, req := range c.queue {
		if req.modalType == modalType {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			break
		}
	}
	if c.active == modalType {
		c.active = ""
		c.scheduleUnlock()
	}

	log.Debug().Str("type", modalType).Msg("modals: dismissed for session")
}

// CanShow reports whether a modal type could be shown right now: not
// session-dismissed, and either the slot is free or this type holds it.
// During the release debounce the slot counts as held even though no modal
// is visible, so no type reports showable until the window settles; this
// keeps callers from flashing a modal that promotion is about to replace.
func (c *Controller) CanShow(modalType string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dismissed[modalType] {
		return false
	}
	return !c.locked || c.active == modalType
}

// Active returns the currently visible modal type, or empty.
func (c *Controller) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// enqueue adds a deduplicated pending request. Callers must hold the lock.
func (c *Controller) enqueue(modalType string, priority Priority) {
	for _, req := range c.queue {
		if req.modalType == modalType {
			return
		}
	}
	c.queue = append(c.queue, request{modalType: modalType, priority: priority})
}

// scheduleUnlock arms the debounce timer that promotes the next queued
// request (or unlocks the slot). Callers must hold the lock.
func (c *Controller) scheduleUnlock() {
	c.gen++
	gen := c.gen
	c.clock.AfterFunc(c.debounce, func() {
		c.promote(gen)
	})
}

// promote activates the highest-priority queued request after a release.
func (c *Controller) promote(gen int) {
	c.mu.Lock()
	if gen != c.gen || c.active != "" {
		// a newer release cycle superseded this one
		c.mu.Unlock()
		return
	}

	if len(c.queue) == 0 {
		c.locked = false
		c.mu.Unlock()
		return
	}

	// stable: equal priorities promote in request order
	sort.SliceStable(c.queue, func(i, j int) bool {
		return c.queue[i].priority < c.queue[j].priority
	})
	next := c.queue[0]
	c.queue = c.queue[1:]
	c.active = next.modalType
	c.locked = true
	payload := models.ModalActivatedParams{Type: next.modalType, Priority: int(next.priority)}
	ns := c.ns
	c.mu.Unlock()

	log.Debug().Str("type", next.modalType).Msg("modals: promoted from queue")
	if ns != nil {
		notifications.ModalActivated(ns, payload)
	}
}

// loadDismissed restores the dismissal set, degrading silently to empty.
func (c *Controller) loadDismissed() {
	if c.st == nil {
		return
	}
	raw, ok := c.st.Get(dismissedKey)
	if !ok {
		return
	}
	var types []string
	if err := json.Unmarshal([]byte(raw), &types); err != nil {
		log.Warn().Err(err).Msg("modals: malformed dismissal record, starting empty")
		return
	}
	for _, t := range types {
		c.dismissed[t] = true
	}
}

// persistDismissed writes the dismissal set. Callers must hold the lock.
func (c *Controller) persistDismissed() {
	if c.st == nil {
		return
	}
	types := make([]string, 0, len(c.dismissed))
	for t := range c.dismissed {
		types = append(types, t)
	}
	sort.Strings(types)
	data, err := json.Marshal(types)
	if err != nil {
		return
	}
	c.st.Set(dismissedKey, string(data))
}
