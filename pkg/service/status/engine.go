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

// Package status derives a single discrete system health code from a
// point-in-time metrics snapshot via an ordered, first-match-wins rule
// table. The derivation is a pure function: the same snapshot always yields
// the same code.
package status

// Metrics is an immutable snapshot of the aggregate engagement and exam
// counters used as engine input. A fresh snapshot is produced on each
// refresh cycle; snapshots are never mutated in place.
type Metrics struct {
	TotalStudents           int     `json:"totalStudents"`
	ActiveEnrollments       int     `json:"activeEnrollments"`
	MeaningfulFocusSessions int     `json:"meaningfulFocusSessions"`
	LessonAttendance        int     `json:"lessonAttendance"`
	TotalExamAttempts       int     `json:"totalExamAttempts"`
	PassedExams             int     `json:"passedExams"`
	FailedExams             int     `json:"failedExams"`
	AvgExamScore            float64 `json:"avgExamScore"`
	PassRate                float64 `json:"passRate"`
	HasPublishedExams       bool    `json:"hasPublishedExams"`
}

// Code is a derived system health status. It is recomputed from metrics,
// never stored.
type Code string

const (
	CodeNotActivated            Code = "not_activated"
	CodeNoStudentsOrEnrollments Code = "no_students_or_enrollments"
	CodeCriticalPassRate        Code = "critical_pass_rate"
	CodeHighFailureRate         Code = "high_failure_rate"
	CodeUnstableResults         Code = "unstable_results"
	CodeNeedsExamFollowup       Code = "needs_exam_followup"
	CodePreExamEngaging         Code = "pre_exam_engaging"
	CodeStable                  Code = "stable"

	// CodeDataLoadError is substituted by the caller when the metrics fetch
	// itself fails. It is never produced by Compute.
	CodeDataLoadError Code = "data_load_error"
)

func (m Metrics) hasPopulation() bool {
	return m.TotalStudents > 0 && m.ActiveEnrollments > 0
}

func (m Metrics) hasEngagement() bool {
	return m.MeaningfulFocusSessions > 0 || m.LessonAttendance > 0
}

// Rule pairs a predicate with the code it yields when it is the first match.
type Rule struct {
	Match func(Metrics) bool
	Code  Code
}

// Rules is the ordered rule table. Order is load-bearing: activation and
// population gaps outrank performance problems, which outrank the benign or
// concerning absence of exam data. Later rules are only reached when every
// earlier rule failed to match.
var Rules = []Rule{
	{
		Code: CodeNotActivated,
		Match: func(m Metrics) bool {
			return m.hasPopulation() && !m.hasEngagement() && m.TotalExamAttempts == 0
		},
	},
	{
		Code: CodeNoStudentsOrEnrollments,
		Match: func(m Metrics) bool {
			return !m.hasPopulation()
		},
	},
	{
		Code: CodeCriticalPassRate,
		Match: func(m Metrics) bool {
			return m.TotalExamAttempts > 0 && (m.PassRate < 30 || m.AvgExamScore < 40)
		},
	},
	{
		Code: CodeHighFailureRate,
		Match: func(m Metrics) bool {
			graded := m.PassedExams + m.FailedExams
			return m.TotalExamAttempts > 0 && graded > 0 &&
				float64(m.FailedExams)/float64(graded) > 0.6
		},
	},
	{
		Code: CodeUnstableResults,
		Match: func(m Metrics) bool {
			return m.TotalExamAttempts > 0 && (m.PassRate < 60 || m.AvgExamScore < 50)
		},
	},
	{
		Code: CodeNeedsExamFollowup,
		Match: func(m Metrics) bool {
			return m.TotalExamAttempts == 0 && m.hasEngagement() && m.HasPublishedExams
		},
	},
	{
		Code: CodePreExamEngaging,
		Match: func(m Metrics) bool {
			return m.TotalExamAttempts == 0 && m.hasEngagement() && !m.HasPublishedExams
		},
	},
}

// Compute maps a metrics snapshot to exactly one status code by evaluating
// Rules in order and returning the first match, or CodeStable when no rule
// matches. Pure and deterministic; no hidden state.
func Compute(m Metrics) Code {
	for _, rule := range Rules {
		if rule.Match(m) {
			return rule.Code
		}
	}
	return CodeStable
}
