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

// Package store provides the session-scoped key-value port used by the
// engagement state machines. Implementations never surface errors to
// callers: a store that cannot persist degrades to in-memory behavior and
// the machines fall back to their defaults.
package store

// Store is a session-scoped key-value store. Keys are namespaced
// per-feature-per-identity, e.g. "preview:<lessonID>".
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool)
	// Set writes a single key.
	Set(key, value string)
	// SetAll writes every pair in one atomic update, so a concurrent reader
	// never observes a torn multi-field state.
	SetAll(kv map[string]string)
	// Delete removes a key. Missing keys are a no-op.
	Delete(key string)
}
