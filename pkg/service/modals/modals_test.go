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

package modals

import (
	"testing"
	"time"

	"github.com/KimyaProject/engage-core/pkg/store"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 300 * time.Millisecond

func waitForActive(t *testing.T, c *Controller, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.Active() == want
	}, time.Second, 5*time.Millisecond)
}

func TestRequestGrantsWhenFree(t *testing.T) {
	t.Parallel()

	c := NewController(testDebounce, clockwork.NewFakeClock(), store.NewMemoryStore(), nil)

	assert.True(t, c.Request("install-prompt", PriorityInstallPrompt))
	assert.Equal(t, "install-prompt", c.Active())
}

func TestEmptyTypeRejected(t *testing.T) {
	t.Parallel()

	c := NewController(testDebounce, clockwork.NewFakeClock(), nil, nil)
	assert.False(t, c.Request("", PriorityCritical))
	assert.Empty(t, c.Active())
}

func TestSecondRequestIsQueuedUntilRelease(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	c := NewController(testDebounce, fc, store.NewMemoryStore(), nil)

	require.True(t, c.Request("guidance", PriorityGuidance))
	assert.False(t, c.Request("install-prompt", PriorityInstallPrompt))
	assert.Equal(t, "guidance", c.Active())

	c.Release("guidance")
	assert.Empty(t, c.Active())

	// nothing is promoted before the debounce elapses
	assert.False(t, c.CanShow("install-prompt"))

	fc.Advance(testDebounce)
	waitForActive(t, c, "install-prompt")
}

func TestPromotionPicksHighestPriority(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	c := NewController(testDebounce, fc, store.NewMemoryStore(), nil)

	require.True(t, c.Request("guidance", PriorityGuidance))
	assert.False(t, c.Request("install-prompt", PriorityInstallPrompt))
	assert.False(t, c.Request("critical-alert", PriorityCritical))

	c.Release("guidance")
	fc.Advance(testDebounce)
	waitForActive(t, c, "critical-alert")
}

func TestActiveModalIsNeverPreempted(t *testing.T) {
	t.Parallel()

	c := NewController(testDebounce, clockwork.NewFakeClock(), store.NewMemoryStore(), nil)

	require.True(t, c.Request("guidance", PriorityGuidance))
	assert.False(t, c.Request("critical-alert", PriorityCritical))
	assert.Equal(t, "guidance", c.Active())
}

func TestSameTypeWhileActiveIsGranted(t *testing.T) {
	t.Parallel()

	c := NewController(testDebounce, clockwork.NewFakeClock(), nil, nil)
	require.True(t, c.Request("guidance", PriorityGuidance))
	assert.True(t, c.Request("guidance", PriorityGuidance))
}

func TestReleaseOfInactiveTypeIsNoop(t *testing.T) {
	t.Parallel()

	c := NewController(testDebounce, clockwork.NewFakeClock(), nil, nil)
	require.True(t, c.Request("guidance", PriorityGuidance))

	c.Release("install-prompt")
	assert.Equal(t, "guidance", c.Active())
}

func TestEmptyQueueUnlocksAfterDebounce(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	c := NewController(testDebounce, fc, store.NewMemoryStore(), nil)

	require.True(t, c.Request("guidance", PriorityGuidance))
	c.Release("guidance")
	fc.Advance(testDebounce)

	require.Eventually(t, func() bool {
		return c.Request("install-prompt", PriorityInstallPrompt)
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "install-prompt", c.Active())
}

func TestDismissForSession(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	fc := clockwork.NewFakeClock()
	c := NewController(testDebounce, fc, st, nil)

	c.DismissForSession("install-prompt")
	assert.False(t, c.Request("install-prompt", PriorityInstallPrompt))
	assert.False(t, c.CanShow("install-prompt"))

	// dismissal survives a controller rebuild over the same session store
	c2 := NewController(testDebounce, fc, st, nil)
	assert.False(t, c2.Request("install-prompt", PriorityInstallPrompt))
	assert.True(t, c2.Request("guidance", PriorityGuidance))
}

func TestDismissRemovesQueuedRequest(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	c := NewController(testDebounce, fc, store.NewMemoryStore(), nil)

	require.True(t, c.Request("guidance", PriorityGuidance))
	assert.False(t, c.Request("install-prompt", PriorityInstallPrompt))

	c.DismissForSession("install-prompt")
	c.Release("guidance")
	fc.Advance(testDebounce)

	// the dismissed contender must not be promoted
	require.Eventually(t, func() bool {
		return c.Request("notification-permission", PriorityNotificationPermission)
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "notification-permission", c.Active())
}

func TestDismissingActiveModalReleasesSlot(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	c := NewController(testDebounce, fc, store.NewMemoryStore(), nil)

	require.True(t, c.Request("guidance", PriorityGuidance))
	assert.False(t, c.Request("install-prompt", PriorityInstallPrompt))

	c.DismissForSession("guidance")
	assert.Empty(t, c.Active())

	fc.Advance(testDebounce)
	waitForActive(t, c, "install-prompt")
}

func TestCanShow(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	c := NewController(testDebounce, fc, nil, nil)

	assert.True(t, c.CanShow("guidance"))

	require.True(t, c.Request("guidance", PriorityGuidance))
	assert.True(t, c.CanShow("guidance"))
	assert.False(t, c.CanShow("install-prompt"))

	// the slot stays held through the release debounce; no type is
	// showable until the window settles
	c.Release("guidance")
	assert.False(t, c.CanShow("guidance"))
	assert.False(t, c.CanShow("install-prompt"))

	fc.Advance(testDebounce)
	require.Eventually(t, func() bool {
		return c.CanShow("install-prompt")
	}, time.Second, 5*time.Millisecond)
}

func TestMalformedDismissalRecordDegradesToEmpty(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	st.Set("modals:dismissed", "{not json")

	c := NewController(testDebounce, clockwork.NewFakeClock(), st, nil)
	assert.True(t, c.Request("guidance", PriorityGuidance))
}
