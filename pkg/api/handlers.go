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

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/KimyaProject/engage-core/pkg/service/modals"
	"github.com/rs/zerolog/log"
)

const (
	playerEventPlay     = "play"
	playerEventPause    = "pause"
	playerEventEnd      = "end"
	playerEventComplete = "complete"
)

type lessonRequest struct {
	LessonID string `json:"lessonId" validate:"required"`
}

type playerEventRequest struct {
	LessonID string `json:"lessonId"`
	Event    string `json:"event" validate:"required,oneof=play pause end complete"`
}

type pageEventRequest struct {
	Visible bool `json:"visible"`
}

type courseRequest struct {
	CourseID       string `json:"courseId" validate:"required"`
	DefaultChapter string `json:"defaultChapter"`
}

type chapterRequest struct {
	ChapterID string `json:"chapterId" validate:"required"`
}

type selectLessonRequest struct {
	LessonID string `json:"lessonId" validate:"required"`
}

type defaultCourseRequest struct {
	CourseID string `json:"courseId" validate:"required"`
}

type modalRequest struct {
	Type     string `json:"type" validate:"required"`
	Priority int    `json:"priority" validate:"gte=0,lte=3"`
}

type modalTypeRequest struct {
	Type string `json:"type" validate:"required"`
}

// decode parses and validates a JSON request body.
func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("api: failed to encode response")
	}
}

func respondError(w http.ResponseWriter, code int, err error) {
	log.Debug().Err(err).Msg("api: rejected request")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// handleLesson binds the focus machine and preview timer to a lesson.
func (s *Server) handleLesson(w http.ResponseWriter, r *http.Request) {
	var req lessonRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	s.deps.Focus.SetLesson(req.LessonID)
	s.deps.Preview.ResetForNewLesson(req.LessonID)
	respondJSON(w, s.deps.Focus.Stats())
}

// handlePlayerEvent routes video player lifecycle events into the focus
// machine and the preview timer.
func (s *Server) handlePlayerEvent(w http.ResponseWriter, r *http.Request) {
	var req playerEventRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	if req.LessonID != "" && req.LessonID != s.deps.Focus.LessonID() {
		s.deps.Focus.SetLesson(req.LessonID)
		s.deps.Preview.ResetForNewLesson(req.LessonID)
	}

	switch req.Event {
	case playerEventPlay:
		s.deps.Focus.VideoPlay()
		s.deps.Preview.StartTimer()
	case playerEventPause:
		s.deps.Focus.VideoPause()
		s.deps.Preview.PauseTimer()
	case playerEventEnd:
		s.deps.Focus.VideoEnd()
		s.deps.Preview.PauseTimer()
	case playerEventComplete:
		s.deps.Focus.LessonComplete()
		s.deps.Preview.PauseTimer()
	}

	respondJSON(w, s.deps.Focus.Stats())
}

// handlePageEvent applies a page visibility change to everything that
// accrues time.
func (s *Server) handlePageEvent(w http.ResponseWriter, r *http.Request) {
	var req pageEventRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	if s.deps.Visibility != nil {
		s.deps.Visibility.Set(req.Visible)
	}
	s.deps.Focus.SetVisible(req.Visible)
	s.deps.Preview.SetVisible(req.Visible)
	respondJSON(w, map[string]bool{"visible": req.Visible})
}

func (s *Server) handleFocusStats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, s.deps.Focus.Stats())
}

func (s *Server) handlePreview(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, s.deps.Preview.Snapshot())
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, map[string]any{
		"code":    string(s.deps.Status.Current()),
		"metrics": s.deps.Status.LastMetrics(),
	})
}

func (s *Server) handleStatusRefresh(w http.ResponseWriter, r *http.Request) {
	code := s.deps.Status.Refresh(r.Context())
	respondJSON(w, map[string]string{"code": string(code)})
}

func (s *Server) handleGetSelection(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, s.deps.Selection.Current())
}

func (s *Server) handleSetCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	s.deps.Selection.SetCourse(req.CourseID, req.DefaultChapter)
	respondJSON(w, s.deps.Selection.Current())
}

func (s *Server) handleSetChapter(w http.ResponseWriter, r *http.Request) {
	var req chapterRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	s.deps.Selection.SetChapter(req.ChapterID)
	respondJSON(w, s.deps.Selection.Current())
}

func (s *Server) handleSetLesson(w http.ResponseWriter, r *http.Request) {
	var req selectLessonRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	s.deps.Selection.SetLesson(req.LessonID)
	respondJSON(w, s.deps.Selection.Current())
}

// handleDefaultCourse applies a course default only when nothing is
// selected; data refresh cycles call this unconditionally and it must never
// clobber an existing selection.
func (s *Server) handleDefaultCourse(w http.ResponseWriter, r *http.Request) {
	var req defaultCourseRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	applied := s.deps.Selection.ApplyDefaultCourseIfEmpty(req.CourseID)
	respondJSON(w, map[string]any{
		"applied":   applied,
		"selection": s.deps.Selection.Current(),
	})
}

func (s *Server) handleClearSelection(w http.ResponseWriter, _ *http.Request) {
	s.deps.Selection.ClearAll()
	respondJSON(w, s.deps.Selection.Current())
}

func (s *Server) handleModalRequest(w http.ResponseWriter, r *http.Request) {
	var req modalRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	granted := s.deps.Modals.Request(req.Type, modals.Priority(req.Priority))
	respondJSON(w, map[string]any{
		"granted": granted,
		"active":  s.deps.Modals.Active(),
	})
}

func (s *Server) handleModalRelease(w http.ResponseWriter, r *http.Request) {
	var req modalTypeRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	s.deps.Modals.Release(req.Type)
	respondJSON(w, map[string]string{"active": s.deps.Modals.Active()})
}

func (s *Server) handleModalDismiss(w http.ResponseWriter, r *http.Request) {
	var req modalTypeRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	s.deps.Modals.DismissForSession(req.Type)
	respondJSON(w, map[string]string{"active": s.deps.Modals.Active()})
}

func (s *Server) handleModalCanShow(w http.ResponseWriter, r *http.Request) {
	modalType := r.URL.Query().Get("type")
	if modalType == "" {
		respondError(w, http.StatusBadRequest, errors.New("missing type parameter"))
		return
	}
	respondJSON(w, map[string]bool{"canShow": s.deps.Modals.CanShow(modalType)})
}
