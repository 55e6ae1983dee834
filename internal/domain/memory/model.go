package memory

import "time"

// Category classifies a long-term memory.
type Category string

const (
	CategoryPreferences        Category = "preferences"
	CategoryGoals              Category = "goals"
	CategoryIdentity           Category = "identity"
	CategoryChallenges         Category = "challenges"
	CategoryInterests          Category = "interests"
	CategoryEmotionalState     Category = "emotional_state"
	CategoryAchievements       Category = "achievements"
	CategoryPatterns           Category = "patterns"
	CategoryCommunicationStyle Category = "communication_style"
	CategoryTechnicalDecisions Category = "technical_decisions"
	CategoryProjectContext     Category = "project_context"
	CategoryLearningStyle      Category = "learning_style"
)

// Categories lists every accepted category in declaration order.
var Categories = []Category{
	CategoryPreferences,
	CategoryGoals,
	CategoryIdentity,
	CategoryChallenges,
	CategoryInterests,
	CategoryEmotionalState,
	CategoryAchievements,
	CategoryPatterns,
	CategoryCommunicationStyle,
	CategoryTechnicalDecisions,
	CategoryProjectContext,
	CategoryLearningStyle,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Memory is a long-term fact about the user.
type Memory struct {
	ID         string
	UserID     string
	Category   Category
	Text       string
	Importance int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SaveInput carries a memory write requested by the model.
type SaveInput struct {
	Category   Category
	Text       string
	Importance int
}

// SaveResult reports what a save did.
type SaveResult struct {
	Memory *Memory
	Merged bool
}
