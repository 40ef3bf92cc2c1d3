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

// Package models defines the in-process notification types shared between
// the engagement state machines and their consumers (websocket clients,
// MQTT publisher, analytics writer).
package models

const (
	NotificationFocusStarted   = "focus.started"
	NotificationFocusPaused    = "focus.paused"
	NotificationFocusCompleted = "focus.completed"
	NotificationFocusSegment   = "focus.segment"
	NotificationEncouragement  = "focus.encouragement"
	NotificationPreviewLocked  = "preview.locked"
	NotificationStatusChanged  = "status.changed"
	NotificationModalActivated = "modals.activated"
	NotificationSelection      = "selection.changed"
)

// Notification is a single in-process event. Params is one of the typed
// params structs below, chosen by Method.
type Notification struct {
	Params any
	Method string
}

// FocusTransitionParams describes a focus state machine transition. Used by
// focus.started, focus.paused, and focus.completed notifications.
type FocusTransitionParams struct {
	LessonID      string `json:"lessonId"`
	SessionID     string `json:"sessionId"`
	From          string `json:"from"`
	To            string `json:"to"`
	ActiveSeconds int    `json:"activeSeconds"`
	Interruptions int    `json:"interruptions"`
}

// FocusSegmentParams is fired once each time a full segment of active watch
// time completes.
type FocusSegmentParams struct {
	LessonID      string `json:"lessonId"`
	SessionID     string `json:"sessionId"`
	Segment       int    `json:"segment"`
	ActiveSeconds int    `json:"activeSeconds"`
}

// EncouragementParams accompanies a focus.encouragement notification.
type EncouragementParams struct {
	LessonID      string `json:"lessonId"`
	ActiveMinutes int    `json:"activeMinutes"`
}

// PreviewLockedParams is fired when an anonymous preview budget reaches zero.
type PreviewLockedParams struct {
	LessonID string `json:"lessonId"`
}

// StatusChangedParams is fired when the derived system status code changes.
type StatusChangedParams struct {
	Code     string `json:"code"`
	Previous string `json:"previous"`
}

// ModalActivatedParams is fired when a modal takes the active slot.
type ModalActivatedParams struct {
	Type     string `json:"type"`
	Priority int    `json:"priority"`
}

// SelectionParams is fired on any course/chapter/lesson selection change.
type SelectionParams struct {
	CourseID  string `json:"courseId"`
	ChapterID string `json:"chapterId"`
	LessonID  string `json:"lessonId"`
}
