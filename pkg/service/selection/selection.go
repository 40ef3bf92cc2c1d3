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

// Package selection manages the course/chapter/lesson choice as the single
// source of truth over the session store, guarding a user's explicit
// selection against being silently reset by data refetch cycles.
package selection

import (
	"github.com/KimyaProject/engage-core/pkg/api/models"
	"github.com/KimyaProject/engage-core/pkg/api/notifications"
	"github.com/KimyaProject/engage-core/pkg/helpers/syncutil"
	"github.com/KimyaProject/engage-core/pkg/store"
	"github.com/rs/zerolog/log"
)

// Level identifies one tier of the hierarchy.
type Level int

const (
	LevelCourse Level = iota
	LevelChapter
	LevelLesson
)

func (l Level) String() string {
	switch l {
	case LevelCourse:
		return "course"
	case LevelChapter:
		return "chapter"
	case LevelLesson:
		return "lesson"
	default:
		return "unknown"
	}
}

const (
	keyCourse  = "selection:course"
	keyChapter = "selection:chapter"
	keyLesson  = "selection:lesson"
)

// Selection is the current three-level choice. Empty strings mean no
// selection at that level.
type Selection struct {
	CourseID  string `json:"courseId"`
	ChapterID string `json:"chapterId"`
	LessonID  string `json:"lessonId"`
}

// Controller enforces the hierarchy invariants: setting a parent clears and
// unlocks its children, and a level that has received any explicit or
// default-applied value is locked against re-defaulting until ClearAll.
//
// All writes to the backing store go through SetAll so independent readers
// of the shared keys never observe a torn state (a new course with a stale
// lesson).
type Controller struct {
	st     store.Store
	ns     chan<- models.Notification
	sel    Selection
	mu     syncutil.Mutex
	locked [3]bool
}

// NewController builds a controller over the backing store. Levels that
// already hold a value in the store (e.g. restored from a shared link) are
// treated as locked from the very first read and are never re-defaulted.
func NewController(st store.Store, ns chan<- models.Notification) *Controller {
	c := &Controller{st: st, ns: ns}

	if st != nil {
		c.sel.CourseID, _ = st.Get(keyCourse)
		c.sel.ChapterID, _ = st.Get(keyChapter)
		c.sel.LessonID, _ = st.Get(keyLesson)
	}
	c.locked[LevelCourse] = c.sel.CourseID != ""
	c.locked[LevelChapter] = c.sel.ChapterID != ""
	c.locked[LevelLesson] = c.sel.LessonID != ""

	if c.locked[LevelCourse] {
		log.Debug().Str("course_id", c.sel.CourseID).
			Msg("selection: restored from session store")
	}
	return c
}

// SetCourse records an explicit course choice, cascading: the chapter is
// set to the course's default (may be empty) and the lesson is cleared,
// with both child levels unlocked. All three fields are written atomically.
func (c *Controller) SetCourse(courseID, defaultChapter string) {
	c.mu.Lock()
	c.sel = Selection{CourseID: courseID, ChapterID: defaultChapter}
	c.locked = [3]bool{true, false, false}
	c.persist()
	payload := c.params()
	ns := c.ns
	c.mu.Unlock()

	c.notify(ns, payload)
}

// SetChapter records an explicit chapter choice, clearing and unlocking the
// lesson level.
func (c *Controller) SetChapter(chapterID string) {
	c.mu.Lock()
	c.sel.ChapterID = chapterID
	c.sel.LessonID = ""
	c.locked[LevelChapter] = true
	c.locked[LevelLesson] = false
	c.persist()
	payload := c.params()
	ns := c.ns
	c.mu.Unlock()

	c.notify(ns, payload)
}

// SetLesson records an explicit lesson choice.
func (c *Controller) SetLesson(lessonID string) {
	c.mu.Lock()
	c.sel.LessonID = lessonID
	c.locked[LevelLesson] = true
	c.persist()
	payload := c.params()
	ns := c.ns
	c.mu.Unlock()

	c.notify(ns, payload)
}

// ApplyDefaultCourseIfEmpty sets the course only when no course is selected
// AND the course level has never been locked. It is designed to be called
// unconditionally on every data-load completion: after the first successful
// application, or after any user interaction, it is a guaranteed no-op — a
// refetch of the course list must never overwrite a user's selection.
// Returns whether the default was applied.
func (c *Controller) ApplyDefaultCourseIfEmpty(courseID string) bool {
	c.mu.Lock()
	if c.sel.CourseID != "" || c.locked[LevelCourse] || courseID == "" {
		c.mu.Unlock()
		return false
	}

	c.sel = Selection{CourseID: courseID}
	// a default application locks the level too: the next refresh cycle
	// must not re-default over it
	c.locked = [3]bool{true, false, false}
	c.persist()
	payload := c.params()
	ns := c.ns
	c.mu.Unlock()

	log.Debug().Str("course_id", courseID).Msg("selection: default course applied")
	c.notify(ns, payload)
	return true
}

// HasUserSelection reports whether a level is currently lock-protected.
func (c *Controller) HasUserSelection(level Level) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if level < LevelCourse || level > LevelLesson {
		return false
	}
	return c.locked[level]
}

// Current returns the selection snapshot.
func (c *Controller) Current() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel
}

// ClearAll resets every level and unlocks them all.
func (c *Controller) ClearAll() {
	c.mu.Lock()
	c.sel = Selection{}
	c.locked = [3]bool{}
	c.persist()
	payload := c.params()
	ns := c.ns
	c.mu.Unlock()

	c.notify(ns, payload)
}

// persist writes the full selection in one atomic update. Callers must hold
// the lock.
func (c *Controller) persist() {
	if c.st == nil {
		return
	}
	c.st.SetAll(map[string]string{
		keyCourse:  c.sel.CourseID,
		keyChapter: c.sel.ChapterID,
		keyLesson:  c.sel.LessonID,
	})
}

func (c *Controller) params() models.SelectionParams {
	return models.SelectionParams{
		CourseID:  c.sel.CourseID,
		ChapterID: c.sel.ChapterID,
		LessonID:  c.sel.LessonID,
	}
}

func (c *Controller) notify(ns chan<- models.Notification, payload models.SelectionParams) {
	if ns != nil {
		notifications.SelectionChanged(ns, payload)
	}
}
