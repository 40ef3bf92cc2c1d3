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
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/KimyaProject/engage-core/pkg/service/focus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeMetrics(t *testing.T) {
	t.Parallel()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = sqlDB.Close() }()

	db := NewWithDB(sqlDB, 120)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM students`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM enrollments WHERE active = 1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(20))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM focus_snapshots WHERE active_seconds >= \?`).
		WithArgs(120).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(40))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM lesson_attendance`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(150))
	mock.ExpectQuery(`FROM exam_attempts`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "passed", "failed", "avg"}).
			AddRow(10, 8, 2, 71.5))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM exams WHERE published = 1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	m, err := db.ComputeMetrics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 25, m.TotalStudents)
	assert.Equal(t, 20, m.ActiveEnrollments)
	assert.Equal(t, 40, m.MeaningfulFocusSessions)
	assert.Equal(t, 150, m.LessonAttendance)
	assert.Equal(t, 10, m.TotalExamAttempts)
	assert.Equal(t, 8, m.PassedExams)
	assert.Equal(t, 2, m.FailedExams)
	assert.InDelta(t, 71.5, m.AvgExamScore, 0.001)
	assert.InDelta(t, 80.0, m.PassRate, 0.001)
	assert.True(t, m.HasPublishedExams)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestComputeMetricsZeroAttemptsHasZeroPassRate(t *testing.T) {
	t.Parallel()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = sqlDB.Close() }()

	db := NewWithDB(sqlDB, 120)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM students`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM enrollments WHERE active = 1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM focus_snapshots WHERE active_seconds >= \?`).
		WithArgs(120).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM lesson_attendance`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`FROM exam_attempts`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "passed", "failed", "avg"}).
			AddRow(0, 0, 0, 0.0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM exams WHERE published = 1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	m, err := db.ComputeMetrics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, m.PassRate)
	assert.False(t, m.HasPublishedExams)
}

func TestComputeMetricsPropagatesQueryError(t *testing.T) {
	t.Parallel()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = sqlDB.Close() }()

	db := NewWithDB(sqlDB, 120)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM students`).
		WillReturnError(errors.New("disk I/O error"))

	_, err = db.ComputeMetrics(context.Background())
	require.Error(t, err)
}

func TestRecordFocusSnapshot(t *testing.T) {
	t.Parallel()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = sqlDB.Close() }()

	db := NewWithDB(sqlDB, 120)

	snap := FocusSnapshot{
		SessionID:     "s1",
		LessonID:      "l1",
		StudentID:     "u1",
		ActiveSeconds: 1300,
		PausedSeconds: 60,
		Segments:      1,
		Interruptions: 2,
		Completed:     true,
	}

	mock.ExpectExec(`INSERT INTO focus_snapshots`).
		WithArgs("s1", "l1", "u1", 1300, 60, 1, 2, true).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, db.RecordFocusSnapshot(context.Background(), snap))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordAttendance(t *testing.T) {
	t.Parallel()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = sqlDB.Close() }()

	db := NewWithDB(sqlDB, 120)

	mock.ExpectExec(`INSERT INTO lesson_attendance`).
		WithArgs("l1", "u1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, db.RecordAttendance(context.Background(), "l1", "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotFromStats(t *testing.T) {
	t.Parallel()

	stats := focus.Stats{
		LessonID:           "l1",
		SessionID:          "s1",
		State:              "completed",
		TotalActiveSeconds: 1250,
		TotalPausedSeconds: 90,
		CompletedSegments:  1,
		Interruptions:      3,
	}

	snap := SnapshotFromStats(stats, "u1")
	assert.Equal(t, FocusSnapshot{
		SessionID:     "s1",
		LessonID:      "l1",
		StudentID:     "u1",
		ActiveSeconds: 1250,
		PausedSeconds: 90,
		Segments:      1,
		Interruptions: 3,
		Completed:     true,
	}, snap)
}

func TestNilConnectionRejected(t *testing.T) {
	t.Parallel()

	db := &MetricsDB{}
	_, err := db.ComputeMetrics(context.Background())
	require.ErrorIs(t, err, ErrNullSQL)
	require.ErrorIs(t, db.RecordAttendance(context.Background(), "l1", ""), ErrNullSQL)
}
