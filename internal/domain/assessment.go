package domain

import (
	"time"

	"github.com/google/uuid"
)

type Verdict string

const (
	VerdictApt    Verdict = "apt"
	VerdictNotApt Verdict = "not apt"
)

type ChapterMastery struct {
	Chapter    string       `json:"chapter"`
	Percentage float64      `json:"percentage"`
	Level      MasteryLevel `json:"level"`
}

// Assessment is one evaluated case. LearnerID is nil for anonymous
// assessments, which are not persisted.
type Assessment struct {
	ID                  uuid.UUID        `json:"id"`
	TenantID            uuid.UUID        `json:"tenant_id,omitempty"`
	NetworkID           uuid.UUID        `json:"network_id"`
	LearnerID           *uuid.UUID       `json:"learner_id,omitempty"`
	Time                int              `json:"time"`
	Outcomes            []bool           `json:"outcomes"`
	Chapters            []ChapterMastery `json:"chapters"`
	Percentage          float64          `json:"percentage"`
	Verdict             Verdict          `json:"verdict"`
	EvidenceProbability float64          `json:"evidence_probability"`
	CreatedAt           time.Time        `json:"created_at"`
}

// MasteryVector returns chapter percentages scaled to [0, 1] in chapter
// order, the representation used for similarity search.
func (a *Assessment) MasteryVector() []float32 {
	out := make([]float32, len(a.Chapters))
	for i, c := range a.Chapters {
		out[i] = float32(c.Percentage / 100)
	}
	return out
}

type AssessmentWithDistance struct {
	Assessment
	Distance float32 `json:"distance"`
}
