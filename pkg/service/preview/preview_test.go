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

package preview

import (
	"testing"
	"time"

	"github.com/KimyaProject/engage-core/pkg/api/models"
	"github.com/KimyaProject/engage-core/pkg/store"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerFullBudgetForUnknownLesson(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	tm := NewTimer(testBudget, fc, store.NewMemoryStore(), nil)

	tm.ResetForNewLesson("l1")
	assert.Equal(t, 180, tm.Remaining())
	assert.False(t, tm.Locked())
}

func TestTimerRestoresPersistedBudget(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	st := store.NewMemoryStore()
	st.Set("preview:l1", "45")

	tm := NewTimer(testBudget, fc, st, nil)
	tm.ResetForNewLesson("l1")
	assert.Equal(t, 45, tm.Remaining())
}

func TestTimerRestoreDegradesOnMalformedRecord(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	st := store.NewMemoryStore()
	st.Set("preview:l1", "not-a-number")

	tm := NewTimer(testBudget, fc, st, nil)
	tm.ResetForNewLesson("l1")
	assert.Equal(t, 180, tm.Remaining())
}

func TestTimerRestoreClampsToBudget(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	st := store.NewMemoryStore()
	st.Set("preview:l1", "9999")

	tm := NewTimer(testBudget, fc, st, nil)
	tm.ResetForNewLesson("l1")
	assert.Equal(t, 180, tm.Remaining())
}

func TestTimerRestoredZeroIsLockedWithoutRunning(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	st := store.NewMemoryStore()
	st.Set("preview:l1", "0")

	ns := make(chan models.Notification, 1)
	tm := NewTimer(testBudget, fc, st, ns)
	tm.ResetForNewLesson("l1")

	assert.True(t, tm.Locked())
	tm.StartTimer()
	assert.False(t, tm.Snapshot().IsRunning)

	// already locked on restore, no fresh locked notification
	assert.Empty(t, ns)
}

func TestTimerBudgetSharedAcrossPlaybacks(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	tm := NewTimer(testBudget, fc, store.NewMemoryStore(), nil)
	tm.ResetForNewLesson("l1")

	tm.StartTimer()
	fc.Advance(100 * time.Second)
	tm.PauseTimer()

	tm.StartTimer()
	fc.Advance(50 * time.Second)
	tm.PauseTimer()

	assert.Equal(t, 30, tm.Remaining())
}

func TestTimerLockNotifiesOnce(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	ns := make(chan models.Notification, 4)
	tm := NewTimer(testBudget, fc, store.NewMemoryStore(), ns)
	tm.ResetForNewLesson("l1")

	tm.StartTimer()
	fc.Advance(testBudget)

	var notif models.Notification
	select {
	case notif = <-ns:
	case <-time.After(time.Second):
		t.Fatal("expected a preview.locked notification")
	}
	assert.Equal(t, models.NotificationPreviewLocked, notif.Method)
	params, ok := notif.Params.(models.PreviewLockedParams)
	require.True(t, ok)
	assert.Equal(t, "l1", params.LessonID)

	assert.True(t, tm.Locked())
	assert.Equal(t, 0, tm.Remaining())
	assert.Empty(t, ns)
}

func TestTimerPauseAtExhaustionStillNotifies(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	ns := make(chan models.Notification, 4)
	tm := NewTimer(10*time.Second, fc, store.NewMemoryStore(), ns)
	tm.ResetForNewLesson("l1")

	tm.StartTimer()
	fc.Advance(10 * time.Second)
	tm.PauseTimer()

	var notif models.Notification
	select {
	case notif = <-ns:
	case <-time.After(time.Second):
		t.Fatal("expected a preview.locked notification")
	}
	assert.Equal(t, models.NotificationPreviewLocked, notif.Method)
	assert.True(t, tm.Locked())

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, ns)
}

func TestTimerSwitchingLessonsPersistsAndRestores(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	st := store.NewMemoryStore()
	tm := NewTimer(testBudget, fc, st, nil)

	tm.ResetForNewLesson("l1")
	tm.StartTimer()
	fc.Advance(60 * time.Second)

	tm.ResetForNewLesson("l2")
	assert.Equal(t, 180, tm.Remaining())

	val, ok := st.Get("preview:l1")
	require.True(t, ok)
	assert.Equal(t, "120", val)

	// switching back picks the drained budget up again
	tm.ResetForNewLesson("l1")
	assert.Equal(t, 120, tm.Remaining())
}

func TestTimerSameLessonIsNoop(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	tm := NewTimer(testBudget, fc, store.NewMemoryStore(), nil)

	tm.ResetForNewLesson("l1")
	tm.StartTimer()
	fc.Advance(30 * time.Second)

	tm.ResetForNewLesson("l1")
	assert.Equal(t, 150, tm.Remaining())
	assert.True(t, tm.Snapshot().IsRunning)
}

func TestTimerStartWithoutLessonIsNoop(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	tm := NewTimer(testBudget, fc, store.NewMemoryStore(), nil)

	tm.StartTimer()
	assert.False(t, tm.Snapshot().IsRunning)
	assert.False(t, tm.Locked())
}

func TestTimerSnapshot(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	tm := NewTimer(testBudget, fc, store.NewMemoryStore(), nil)
	tm.ResetForNewLesson("l1")
	tm.StartTimer()
	fc.Advance(20 * time.Second)

	snap := tm.Snapshot()
	assert.Equal(t, State{
		LessonID:         "l1",
		RemainingSeconds: 160,
		IsLocked:         false,
		IsRunning:        true,
	}, snap)
}

func TestTimerStopPersists(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	st := store.NewMemoryStore()
	tm := NewTimer(testBudget, fc, st, nil)
	tm.ResetForNewLesson("l1")
	tm.StartTimer()
	fc.Advance(25 * time.Second)

	tm.Stop()
	val, ok := st.Get("preview:l1")
	require.True(t, ok)
	assert.Equal(t, "155", val)
}
