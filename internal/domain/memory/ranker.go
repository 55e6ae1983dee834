package memory

import (
	"math"
	"sort"
	"strings"
	"time"
)

const (
	DefaultRankLimit = 20

	importanceWeight = 0.4
	recencyWeight    = 0.3
	relevanceBoost   = 3.0
)

// Ranker selects the memories injected into the grounding context.
type Ranker struct {
	limit    int
	keywords []string
}

// ScoredMemory pairs a memory with its ranking score.
type ScoredMemory struct {
	Memory
	Score float64
}

// NewRanker builds a ranker returning at most limit memories. Keywords are the
// active project terms that earn the relevance boost.
func NewRanker(limit int, keywords []string) *Ranker {
	if limit <= 0 {
		limit = DefaultRankLimit
	}
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			lowered = append(lowered, kw)
		}
	}
	return &Ranker{limit: limit, keywords: lowered}
}

// Recency decays linearly from 10 to 0 over ten weeks.
func Recency(updatedAt, now time.Time) float64 {
	days := now.Sub(updatedAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Max(0, 10-days/7)
}

// Boost returns the relevance boost for m.
func (r *Ranker) Boost(m Memory) float64 {
	if m.Category == CategoryPatterns || m.Category == CategoryTechnicalDecisions {
		return relevanceBoost
	}
	if len(r.keywords) == 0 {
		return 0
	}
	text := strings.ToLower(m.Text)
	for _, kw := range r.keywords {
		if strings.Contains(text, kw) {
			return relevanceBoost
		}
	}
	return 0
}

// Score computes 0.4*importance + 0.3*recency + boost.
func (r *Ranker) Score(m Memory, now time.Time) float64 {
	return importanceWeight*float64(m.Importance) + recencyWeight*Recency(m.UpdatedAt, now) + r.Boost(m)
}

// Rank orders memories by score, breaking ties by updated_at descending, and
// keeps the top limit entries. The input slice is not modified.
func (r *Ranker) Rank(memories []Memory, now time.Time) []ScoredMemory {
	scored := make([]ScoredMemory, len(memories))
	for i, m := range memories {
		scored[i] = ScoredMemory{Memory: m, Score: r.Score(m, now)}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if !scored[i].UpdatedAt.Equal(scored[j].UpdatedAt) {
			return scored[i].UpdatedAt.After(scored[j].UpdatedAt)
		}
		return scored[i].ID < scored[j].ID
	})

	if len(scored) > r.limit {
		scored = scored[:r.limit]
	}
	return scored
}
