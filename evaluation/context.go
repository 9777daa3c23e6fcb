package evaluation

// UserContext carries the user-specific signals the personalization
// evaluator checks a response against. Any field may be zero; a missing
// signal simply cannot contribute to the score.
type UserContext struct {
	Name                string   `json:"name,omitempty"`
	ActiveGoals         []string `json:"active_goals,omitempty"`
	CurrentStreak       int      `json:"current_streak,omitempty"`
	PreferredCategories []string `json:"preferred_categories,omitempty"`
}
