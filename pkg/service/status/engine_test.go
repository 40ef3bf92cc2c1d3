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

package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestCompute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		metrics Metrics
		want    Code
	}{
		{
			name: "population without any engagement or exams is not activated",
			metrics: Metrics{
				TotalStudents:     10,
				ActiveEnrollments: 5,
			},
			want: CodeNotActivated,
		},
		{
			name:    "empty platform has no students or enrollments",
			metrics: Metrics{},
			want:    CodeNoStudentsOrEnrollments,
		},
		{
			name: "students without enrollments still count as missing population",
			metrics: Metrics{
				TotalStudents:    10,
				LessonAttendance: 50,
			},
			want: CodeNoStudentsOrEnrollments,
		},
		{
			name: "missing population outranks bad exam results",
			metrics: Metrics{
				TotalStudents:     0,
				TotalExamAttempts: 20,
				PassRate:          10,
				AvgExamScore:      20,
			},
			want: CodeNoStudentsOrEnrollments,
		},
		{
			name: "pass rate below 30 is critical",
			metrics: Metrics{
				TotalStudents:           10,
				ActiveEnrollments:       10,
				MeaningfulFocusSessions: 5,
				TotalExamAttempts:       20,
				PassedExams:             5,
				FailedExams:             15,
				PassRate:                25,
				AvgExamScore:            55,
			},
			want: CodeCriticalPassRate,
		},
		{
			name: "average score below 40 is critical even with a decent pass rate",
			metrics: Metrics{
				TotalStudents:     10,
				ActiveEnrollments: 10,
				LessonAttendance:  30,
				TotalExamAttempts: 20,
				PassedExams:       13,
				FailedExams:       7,
				PassRate:          65,
				AvgExamScore:      35,
			},
			want: CodeCriticalPassRate,
		},
		{
			name: "failure share above 60 percent is a high failure rate",
			metrics: Metrics{
				TotalStudents:     10,
				ActiveEnrollments: 10,
				LessonAttendance:  30,
				TotalExamAttempts: 10,
				PassedExams:       3,
				FailedExams:       7,
				PassRate:          30,
				AvgExamScore:      50,
			},
			want: CodeHighFailureRate,
		},
		{
			name: "pass rate below 60 without critical numbers is unstable",
			metrics: Metrics{
				TotalStudents:     10,
				ActiveEnrollments: 10,
				LessonAttendance:  30,
				TotalExamAttempts: 10,
				PassedExams:       5,
				FailedExams:       5,
				PassRate:          50,
				AvgExamScore:      55,
			},
			want: CodeUnstableResults,
		},
		{
			name: "engaged students with a published exam but no attempts need followup",
			metrics: Metrics{
				TotalStudents:           10,
				ActiveEnrollments:       10,
				MeaningfulFocusSessions: 8,
				HasPublishedExams:       true,
			},
			want: CodeNeedsExamFollowup,
		},
		{
			name: "engaged students before any exam is published are pre-exam engaging",
			metrics: Metrics{
				TotalStudents:     10,
				ActiveEnrollments: 10,
				LessonAttendance:  40,
			},
			want: CodePreExamEngaging,
		},
		{
			name: "healthy numbers across the board are stable",
			metrics: Metrics{
				TotalStudents:           50,
				ActiveEnrollments:       45,
				MeaningfulFocusSessions: 100,
				LessonAttendance:        300,
				TotalExamAttempts:       40,
				PassedExams:             32,
				FailedExams:             8,
				PassRate:                80,
				AvgExamScore:            72,
				HasPublishedExams:       true,
			},
			want: CodeStable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Compute(tt.metrics))
		})
	}
}

func TestComputeRuleOrder(t *testing.T) {
	t.Parallel()

	// not_activated wins against everything when population exists but
	// nothing has happened, even with an exam published
	m := Metrics{
		TotalStudents:     10,
		ActiveEnrollments: 10,
		HasPublishedExams: true,
	}
	assert.Equal(t, CodeNotActivated, Compute(m))

	// critical_pass_rate wins over high_failure_rate when both match
	m = Metrics{
		TotalStudents:     10,
		ActiveEnrollments: 10,
		LessonAttendance:  10,
		TotalExamAttempts: 10,
		PassedExams:       1,
		FailedExams:       9,
		PassRate:          10,
		AvgExamScore:      20,
	}
	assert.Equal(t, CodeCriticalPassRate, Compute(m))
}

func TestComputeNeverYieldsDataLoadError(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		m := Metrics{
			TotalStudents:           rapid.IntRange(0, 1000).Draw(t, "students"),
			ActiveEnrollments:       rapid.IntRange(0, 1000).Draw(t, "enrollments"),
			MeaningfulFocusSessions: rapid.IntRange(0, 1000).Draw(t, "sessions"),
			LessonAttendance:        rapid.IntRange(0, 1000).Draw(t, "attendance"),
			TotalExamAttempts:       rapid.IntRange(0, 1000).Draw(t, "attempts"),
			PassedExams:             rapid.IntRange(0, 1000).Draw(t, "passed"),
			FailedExams:             rapid.IntRange(0, 1000).Draw(t, "failed"),
			AvgExamScore:            rapid.Float64Range(0, 100).Draw(t, "score"),
			PassRate:                rapid.Float64Range(0, 100).Draw(t, "passrate"),
			HasPublishedExams:       rapid.Bool().Draw(t, "published"),
		}

		code := Compute(m)
		assert.NotEqual(t, CodeDataLoadError, code,
			"the engine must never derive a data load error itself")
		assert.NotEmpty(t, code)

		// pure function: recomputation yields the identical code
		assert.Equal(t, code, Compute(m))
	})
}
