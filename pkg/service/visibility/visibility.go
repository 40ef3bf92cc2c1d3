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

// Package visibility carries the page-visibility signal supplied by the
// client. When no signal has ever been received the page is treated as
// visible; hidden is never assumed.
package visibility

import "sync/atomic"

// Source reports whether the watched page is currently visible.
type Source interface {
	Visible() bool
}

// Flag is a process-wide visibility signal, set by the page lifecycle
// collaborator and read by the engagement timers.
type Flag struct {
	hidden atomic.Bool
}

// NewFlag returns a Flag that starts visible.
func NewFlag() *Flag {
	return &Flag{}
}

// Set records the current page visibility.
func (f *Flag) Set(visible bool) {
	f.hidden.Store(!visible)
}

// Visible reports the last known page visibility.
func (f *Flag) Visible() bool {
	return !f.hidden.Load()
}
