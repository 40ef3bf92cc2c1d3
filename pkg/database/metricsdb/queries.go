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

package metricsdb

import (
	"context"
	"fmt"

	"github.com/KimyaProject/engage-core/pkg/service/focus"
	"github.com/KimyaProject/engage-core/pkg/service/status"
)

// FocusSnapshot is one recorded watch-session outcome.
type FocusSnapshot struct {
	SessionID     string
	LessonID      string
	StudentID     string
	ActiveSeconds int
	PausedSeconds int
	Segments      int
	Interruptions int
	Completed     bool
}

// SnapshotFromStats converts a focus stats snapshot into a storable record.
func SnapshotFromStats(stats focus.Stats, studentID string) FocusSnapshot {
	return FocusSnapshot{
		SessionID:     stats.SessionID,
		LessonID:      stats.LessonID,
		StudentID:     studentID,
		ActiveSeconds: stats.TotalActiveSeconds,
		PausedSeconds: stats.TotalPausedSeconds,
		Segments:      stats.CompletedSegments,
		Interruptions: stats.Interruptions,
		Completed:     stats.State == focus.StateCompleted.String(),
	}
}

// RecordFocusSnapshot stores a watch-session outcome for analytics.
func (db *MetricsDB) RecordFocusSnapshot(ctx context.Context, snap FocusSnapshot) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	_, err := db.sql.ExecContext(ctx, `
		INSERT INTO focus_snapshots
			(session_id, lesson_id, student_id, active_seconds, paused_seconds,
			 segments, interruptions, completed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.SessionID, snap.LessonID, snap.StudentID, snap.ActiveSeconds,
		snap.PausedSeconds, snap.Segments, snap.Interruptions, snap.Completed,
	)
	if err != nil {
		return fmt.Errorf("failed to record focus snapshot: %w", err)
	}
	return nil
}

// RecordAttendance stores one lesson attendance event.
func (db *MetricsDB) RecordAttendance(ctx context.Context, lessonID, studentID string) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	_, err := db.sql.ExecContext(ctx, `
		INSERT INTO lesson_attendance (lesson_id, student_id) VALUES (?, ?)`,
		lessonID, studentID,
	)
	if err != nil {
		return fmt.Errorf("failed to record attendance: %w", err)
	}
	return nil
}

// ComputeMetrics builds a fresh status metrics snapshot from the current
// table contents. Implements status.MetricsProvider.
func (db *MetricsDB) ComputeMetrics(ctx context.Context) (status.Metrics, error) {
	if db.sql == nil {
		return status.Metrics{}, ErrNullSQL
	}

	var m status.Metrics

	row := db.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`)
	if err := row.Scan(&m.TotalStudents); err != nil {
		return status.Metrics{}, fmt.Errorf("failed to count students: %w", err)
	}

	row = db.sql.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enrollments WHERE active = 1`)
	if err := row.Scan(&m.ActiveEnrollments); err != nil {
		return status.Metrics{}, fmt.Errorf("failed to count enrollments: %w", err)
	}

	row = db.sql.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM focus_snapshots WHERE active_seconds >= ?`,
		db.meaningfulSeconds)
	if err := row.Scan(&m.MeaningfulFocusSessions); err != nil {
		return status.Metrics{}, fmt.Errorf("failed to count focus sessions: %w", err)
	}

	row = db.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM lesson_attendance`)
	if err := row.Scan(&m.LessonAttendance); err != nil {
		return status.Metrics{}, fmt.Errorf("failed to count attendance: %w", err)
	}

	row = db.sql.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(passed), 0),
		       COUNT(*) - COALESCE(SUM(passed), 0),
		       COALESCE(AVG(score), 0)
		FROM exam_attempts`)
	if err := row.Scan(
		&m.TotalExamAttempts, &m.PassedExams, &m.FailedExams, &m.AvgExamScore,
	); err != nil {
		return status.Metrics{}, fmt.Errorf("failed to aggregate exam attempts: %w", err)
	}
	if m.TotalExamAttempts > 0 {
		m.PassRate = float64(m.PassedExams) / float64(m.TotalExamAttempts) * 100
	}

	var published int
	row = db.sql.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM exams WHERE published = 1`)
	if err := row.Scan(&published); err != nil {
		return status.Metrics{}, fmt.Errorf("failed to count published exams: %w", err)
	}
	m.HasPublishedExams = published > 0

	return m, nil
}
