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

package config

// APIPort returns the port the HTTP/websocket API listens on.
func (c *Instance) APIPort() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Service.APIPort == 0 {
		return c.defaults.Service.APIPort
	}
	return c.vals.Service.APIPort
}

// FreshSession reports whether the session store should be wiped on service
// start instead of restoring the previous session's state.
func (c *Instance) FreshSession() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.FreshSession
}

// SetFreshSession overrides the fresh-session flag, typically from a
// command line flag.
func (c *Instance) SetFreshSession(fresh bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Service.FreshSession = fresh
}

// MQTTEnabled reports whether notifications should also be published to an
// MQTT broker.
func (c *Instance) MQTTEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.MQTT.Broker != ""
}

// MQTTSettings returns the broker address, topic, and method filter for the
// MQTT publisher. The topic defaults to "engage/notifications".
func (c *Instance) MQTTSettings() (broker, topic string, filter []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	topic = c.vals.MQTT.Topic
	if topic == "" {
		topic = "engage/notifications"
	}
	filter = make([]string, len(c.vals.MQTT.Filter))
	copy(filter, c.vals.MQTT.Filter)
	return c.vals.MQTT.Broker, topic, filter
}
