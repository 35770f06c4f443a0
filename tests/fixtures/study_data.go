package fixtures

import (
	"time"

	"studybrain/pkg/types"
)

// PublicGroup returns a seeded public group fixture.
func PublicGroup(id string, memberLimit int) types.Group {
	return types.Group{
		ID:          id,
		Name:        "Physics Finals Prep",
		Description: "Weekly prep sessions for the spring finals",
		Subject:     "physics",
		Privacy:     types.PrivacyPublic,
		MemberLimit: memberLimit,
		Tags:        []string{"physics", "finals"},
	}
}

// InviteOnlyGroup returns a seeded invite-only group fixture.
func InviteOnlyGroup(id string, memberLimit int) types.Group {
	grp := PublicGroup(id, memberLimit)
	grp.Name = "Calculus Inner Circle"
	grp.Subject = "math"
	grp.Privacy = types.PrivacyInviteOnly
	return grp
}

// DashboardData returns a consistent set of dashboard reads for one user.
func DashboardData() ([]types.StudyTimeEntry, []types.HomeworkItem, []types.Assessment, *types.SubscriptionStatus) {
	now := time.Now()
	entries := []types.StudyTimeEntry{
		{Subject: "physics", Minutes: 45, LoggedAt: now.Add(-24 * time.Hour)},
		{Subject: "math", Minutes: 30, LoggedAt: now.Add(-2 * time.Hour)},
	}
	items := []types.HomeworkItem{
		{ID: "hw1", Subject: "physics", Title: "Problem set 4", DueDate: now.Add(48 * time.Hour)},
	}
	assessments := []types.Assessment{
		{ID: "a1", Subject: "math", Title: "Derivatives quiz", Questions: 10},
	}
	status := &types.SubscriptionStatus{Plan: "premium", Active: true}
	return entries, items, assessments, status
}
