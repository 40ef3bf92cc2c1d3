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

// Package service wires the engagement components together: the state
// machines, the session store, the metrics database, the notification
// broker, and the outward-facing API and MQTT surfaces.
package service

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/KimyaProject/engage-core/pkg/api"
	"github.com/KimyaProject/engage-core/pkg/api/models"
	"github.com/KimyaProject/engage-core/pkg/config"
	"github.com/KimyaProject/engage-core/pkg/database/metricsdb"
	"github.com/KimyaProject/engage-core/pkg/service/broker"
	"github.com/KimyaProject/engage-core/pkg/service/focus"
	"github.com/KimyaProject/engage-core/pkg/service/modals"
	"github.com/KimyaProject/engage-core/pkg/service/preview"
	"github.com/KimyaProject/engage-core/pkg/service/publishers"
	"github.com/KimyaProject/engage-core/pkg/service/selection"
	"github.com/KimyaProject/engage-core/pkg/service/status"
	"github.com/KimyaProject/engage-core/pkg/service/visibility"
	"github.com/KimyaProject/engage-core/pkg/store"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const notificationBufferSize = 500

// Service is the assembled engagement core.
type Service struct {
	cfg        *config.Instance
	ns         chan models.Notification
	broker     *broker.Broker
	st         store.Store
	visibility *visibility.Flag
	focus      *focus.Machine
	preview    *preview.Timer
	selection  *selection.Controller
	modals     *modals.Controller
	metrics    *metricsdb.MetricsDB
	monitor    *status.Monitor
	server     *api.Server
	mqtt       *publishers.MQTTPublisher
	cancel     context.CancelFunc
}

// New assembles all engagement components under dataDir. Nothing starts
// running until Run is called.
func New(cfg *config.Instance, dataDir string) (*Service, error) {
	ns := make(chan models.Notification, notificationBufferSize)

	st := store.Open(filepath.Join(dataDir, config.SessionFile), cfg.FreshSession())

	visFlag := visibility.NewFlag()

	initial, minIvl, maxIvl := cfg.EncouragementDelays()
	focusMachine := focus.NewMachine(focus.Config{
		SegmentLength:             cfg.SegmentLength(),
		EncouragementInitialDelay: initial,
		EncouragementMinInterval:  minIvl,
		EncouragementMaxInterval:  maxIvl,
	}, nil, visFlag, ns)

	previewTimer := preview.NewTimer(cfg.PreviewBudget(), nil, st, ns)
	selectionCtrl := selection.NewController(st, ns)
	modalCtrl := modals.NewController(cfg.ModalReleaseDebounce(), nil, st, ns)

	metrics, err := metricsdb.Open(dataDir, int(cfg.MeaningfulSession().Seconds()))
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics database: %w", err)
	}

	monitor := status.NewMonitor(metrics, cfg.StatusRefreshInterval(), nil, ns)

	svc := &Service{
		cfg:        cfg,
		ns:         ns,
		st:         st,
		visibility: visFlag,
		focus:      focusMachine,
		preview:    previewTimer,
		selection:  selectionCtrl,
		modals:     modalCtrl,
		metrics:    metrics,
		monitor:    monitor,
	}
	return svc, nil
}

// Run starts the broker, status monitor, analytics writer, optional MQTT
// publisher, and the API server, then blocks until the context is cancelled
// or the server fails.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.broker = broker.NewBroker(ctx, s.ns)
	s.broker.Start()

	s.monitor.Start(ctx)

	analyticsChan, analyticsID := s.broker.Subscribe(100)
	go s.recordAnalytics(ctx, analyticsChan)
	defer s.broker.Unsubscribe(analyticsID)

	if s.cfg.MQTTEnabled() {
		brokerAddr, topic, filter := s.cfg.MQTTSettings()
		s.mqtt = publishers.NewMQTTPublisher(brokerAddr, topic, filter)
		mqttChan, mqttID := s.broker.Subscribe(100)
		if err := s.mqtt.Start(mqttChan); err != nil {
			log.Warn().Err(err).Msg("service: mqtt publisher failed to start, continuing without it")
			s.broker.Unsubscribe(mqttID)
			s.mqtt = nil
		} else {
			defer s.broker.Unsubscribe(mqttID)
		}
	}

	s.server = api.NewServer(s.cfg.APIPort(), api.Deps{
		Focus:      s.focus,
		Preview:    s.preview,
		Selection:  s.selection,
		Modals:     s.modals,
		Status:     s.monitor,
		Visibility: s.visibility,
		Broker:     s.broker,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.server.Run(gctx)
	})

	err := g.Wait()
	s.shutdown()
	return err
}

// Stop cancels the running service.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// recordAnalytics turns focus lifecycle notifications into metrics rows:
// a started session records attendance, a completed one records a focus
// snapshot.
func (s *Service) recordAnalytics(ctx context.Context, notifs <-chan models.Notification) {
	for {
		select {
		case notif, ok := <-notifs:
			if !ok {
				return
			}
			switch notif.Method {
			case models.NotificationFocusStarted:
				params, ok := notif.Params.(models.FocusTransitionParams)
				if !ok || params.From != focus.StateIdle.String() {
					continue
				}
				if err := s.metrics.RecordAttendance(ctx, params.LessonID, ""); err != nil {
					log.Error().Err(err).Msg("service: failed to record attendance")
				}
			case models.NotificationFocusCompleted:
				params, ok := notif.Params.(models.FocusTransitionParams)
				if !ok {
					continue
				}
				snap := metricsdb.SnapshotFromStats(s.focus.Stats(), "")
				snap.SessionID = params.SessionID
				snap.LessonID = params.LessonID
				if err := s.metrics.RecordFocusSnapshot(ctx, snap); err != nil {
					log.Error().Err(err).Msg("service: failed to record focus snapshot")
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// shutdown tears down components in dependency order.
func (s *Service) shutdown() {
	log.Info().Msg("service: shutting down")

	s.preview.Stop()
	s.focus.Reset()

	if s.mqtt != nil {
		s.mqtt.Stop()
	}
	if s.broker != nil {
		s.broker.Stop()
	}
	if err := s.metrics.Close(); err != nil {
		log.Warn().Err(err).Msg("service: failed to close metrics database")
	}
	if closer, ok := s.st.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Warn().Err(err).Msg("service: failed to close session store")
		}
	}
}
