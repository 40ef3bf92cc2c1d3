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

package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlagDefaultsToVisible(t *testing.T) {
	t.Parallel()

	f := NewFlag()
	assert.True(t, f.Visible())
}

func TestFlagTracksLastSignal(t *testing.T) {
	t.Parallel()

	f := NewFlag()
	f.Set(false)
	assert.False(t, f.Visible())
	f.Set(true)
	assert.True(t, f.Visible())
}
