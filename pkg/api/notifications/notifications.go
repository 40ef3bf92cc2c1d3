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

package notifications

import "github.com/KimyaProject/engage-core/pkg/api/models"

func FocusStarted(ns chan<- models.Notification, payload models.FocusTransitionParams) {
	ns <- models.Notification{
		Method: models.NotificationFocusStarted,
		Params: payload,
	}
}

func FocusPaused(ns chan<- models.Notification, payload models.FocusTransitionParams) {
	ns <- models.Notification{
		Method: models.NotificationFocusPaused,
		Params: payload,
	}
}

func FocusCompleted(ns chan<- models.Notification, payload models.FocusTransitionParams) {
	ns <- models.Notification{
		Method: models.NotificationFocusCompleted,
		Params: payload,
	}
}

func FocusSegment(ns chan<- models.Notification, payload models.FocusSegmentParams) {
	ns <- models.Notification{
		Method: models.NotificationFocusSegment,
		Params: payload,
	}
}

func Encouragement(ns chan<- models.Notification, payload models.EncouragementParams) {
	ns <- models.Notification{
		Method: models.NotificationEncouragement,
		Params: payload,
	}
}

func PreviewLocked(ns chan<- models.Notification, payload models.PreviewLockedParams) {
	ns <- models.Notification{
		Method: models.NotificationPreviewLocked,
		Params: payload,
	}
}

func StatusChanged(ns chan<- models.Notification, payload models.StatusChangedParams) {
	ns <- models.Notification{
		Method: models.NotificationStatusChanged,
		Params: payload,
	}
}

func ModalActivated(ns chan<- models.Notification, payload models.ModalActivatedParams) {
	ns <- models.Notification{
		Method: models.NotificationModalActivated,
		Params: payload,
	}
}

func SelectionChanged(ns chan<- models.Notification, payload models.SelectionParams) {
	ns <- models.Notification{
		Method: models.NotificationSelection,
		Params: payload,
	}
}
