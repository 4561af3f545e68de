// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sort"
	"time"
)

// =============================================================================
// LIFECYCLE STATE
// =============================================================================

// LifecycleState records what the user decided about each diff group.
// The host owns and mutates it; the rendering side only reads it to choose
// between the compact status line and the full diff.
type LifecycleState struct {
	AppliedGroupIDs    map[string]struct{}  `json:"-"`
	RejectedGroupIDs   map[string]struct{}  `json:"-"`
	AppliedTimestamps  map[string]time.Time `json:"appliedTimestamps"`
	RejectedTimestamps map[string]time.Time `json:"rejectedTimestamps"`
	LastModified       time.Time            `json:"lastModified"`
}

// NewLifecycleState returns an empty state.
func NewLifecycleState() *LifecycleState {
	return &LifecycleState{
		AppliedGroupIDs:    make(map[string]struct{}),
		RejectedGroupIDs:   make(map[string]struct{}),
		AppliedTimestamps:  make(map[string]time.Time),
		RejectedTimestamps: make(map[string]time.Time),
		LastModified:       time.Now(),
	}
}

// MarkApplied records groupID as applied, clearing any earlier rejection.
func (l *LifecycleState) MarkApplied(groupID string, at time.Time) {
	delete(l.RejectedGroupIDs, groupID)
	delete(l.RejectedTimestamps, groupID)
	l.AppliedGroupIDs[groupID] = struct{}{}
	l.AppliedTimestamps[groupID] = at
	l.LastModified = at
}

// MarkRejected records groupID as rejected, clearing any earlier apply.
func (l *LifecycleState) MarkRejected(groupID string, at time.Time) {
	delete(l.AppliedGroupIDs, groupID)
	delete(l.AppliedTimestamps, groupID)
	l.RejectedGroupIDs[groupID] = struct{}{}
	l.RejectedTimestamps[groupID] = at
	l.LastModified = at
}

// IsApplied reports whether groupID was applied.
func (l *LifecycleState) IsApplied(groupID string) bool {
	if l == nil {
		return false
	}
	_, ok := l.AppliedGroupIDs[groupID]
	return ok
}

// IsRejected reports whether groupID was rejected.
func (l *LifecycleState) IsRejected(groupID string) bool {
	if l == nil {
		return false
	}
	_, ok := l.RejectedGroupIDs[groupID]
	return ok
}

// ShowCompact reports whether the compact "changes reviewed" status should
// replace the full diff. Any applied group collapses the view.
func (l *LifecycleState) ShowCompact() bool {
	return l != nil && len(l.AppliedGroupIDs) > 0
}

// FirstAppliedAt returns the earliest apply time, if any.
func (l *LifecycleState) FirstAppliedAt() (time.Time, bool) {
	if l == nil || len(l.AppliedTimestamps) == 0 {
		return time.Time{}, false
	}
	times := make([]time.Time, 0, len(l.AppliedTimestamps))
	for _, ts := range l.AppliedTimestamps {
		times = append(times, ts)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	return times[0], true
}
