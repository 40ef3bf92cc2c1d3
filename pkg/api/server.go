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

// Package api exposes the engagement core over HTTP: REST ingest for the
// video player and page lifecycle collaborators, state queries for
// dashboards, and a websocket stream of notifications.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/KimyaProject/engage-core/pkg/api/models"
	"github.com/KimyaProject/engage-core/pkg/service/broker"
	"github.com/KimyaProject/engage-core/pkg/service/focus"
	"github.com/KimyaProject/engage-core/pkg/service/modals"
	"github.com/KimyaProject/engage-core/pkg/service/preview"
	"github.com/KimyaProject/engage-core/pkg/service/selection"
	"github.com/KimyaProject/engage-core/pkg/service/status"
	"github.com/KimyaProject/engage-core/pkg/service/visibility"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

const requestTimeout = 30 * time.Second

// Deps are the engagement components the server drives and queries.
type Deps struct {
	Focus      *focus.Machine
	Preview    *preview.Timer
	Selection  *selection.Controller
	Modals     *modals.Controller
	Status     *status.Monitor
	Visibility *visibility.Flag
	Broker     *broker.Broker
}

// Server is the HTTP/websocket surface of the engagement core.
type Server struct {
	deps     Deps
	router   chi.Router
	ws       *melody.Melody
	validate *validator.Validate
	port     int
}

// NewServer builds the server and its routes.
func NewServer(port int, deps Deps) *Server {
	s := &Server{
		deps:     deps,
		validate: validator.New(),
		port:     port,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	s.ws = melody.New()
	s.ws.Upgrader.CheckOrigin = func(_ *http.Request) bool { return true }

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
			if err := s.ws.HandleRequest(w, req); err != nil {
				log.Error().Err(err).Msg("handling websocket request")
			}
		})

		r.Post("/lesson", s.handleLesson)
		r.Post("/events/player", s.handlePlayerEvent)
		r.Post("/events/page", s.handlePageEvent)

		r.Get("/focus/stats", s.handleFocusStats)
		r.Get("/preview", s.handlePreview)
		r.Get("/status", s.handleStatus)
		r.Post("/status/refresh", s.handleStatusRefresh)

		r.Get("/selection", s.handleGetSelection)
		r.Post("/selection/course", s.handleSetCourse)
		r.Post("/selection/chapter", s.handleSetChapter)
		r.Post("/selection/lesson", s.handleSetLesson)
		r.Post("/selection/default-course", s.handleDefaultCourse)
		r.Delete("/selection", s.handleClearSelection)

		r.Post("/modals/request", s.handleModalRequest)
		r.Post("/modals/release", s.handleModalRelease)
		r.Post("/modals/dismiss", s.handleModalDismiss)
		r.Get("/modals/can-show", s.handleModalCanShow)
	})

	s.router = r
	return s
}

// Router exposes the routes for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run subscribes to the broker, starts broadcasting notifications to
// websocket clients, and serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if s.deps.Broker != nil {
		notifs, subID := s.deps.Broker.Subscribe(100)
		go s.broadcastNotifications(ctx, notifs)
		defer s.deps.Broker.Unsubscribe(subID)
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Int("port", s.port).Msg("api: server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err //nolint:wrapcheck // top-level server error
	}
	return nil
}

// broadcastNotifications forwards broker notifications to all websocket
// sessions as JSON envelopes.
func (s *Server) broadcastNotifications(ctx context.Context, notifs <-chan models.Notification) {
	for {
		select {
		case notif, ok := <-notifs:
			if !ok {
				return
			}
			data, err := json.Marshal(map[string]any{
				"method": notif.Method,
				"params": notif.Params,
			})
			if err != nil {
				log.Error().Err(err).Msg("api: failed to marshal notification")
				continue
			}
			if err := s.ws.Broadcast(data); err != nil {
				log.Debug().Err(err).Msg("api: websocket broadcast failed")
			}
		case <-ctx.Done():
			return
		}
	}
}
