package entity

import (
	"time"

	"gorm.io/datatypes"
)

type (
	// MemoryKind classifies what a stored memory describes.
	MemoryKind string

	// Importance weighs how aggressively a memory should be recalled.
	Importance string

	// MemoryRecord is the persisted form of a single memory. The embedding is
	// computed from Content, never from Query; Query and Answer are kept only
	// as provenance for debugging and the "what do you remember" listing.
	MemoryRecord struct {
		ID      string     `json:"id" gorm:"primaryKey"`
		Kind    MemoryKind `json:"kind" gorm:"index"`
		Content string     `json:"content"`
		Query   string     `json:"query,omitempty"`
		Answer  string     `json:"answer,omitempty"`

		Importance     Importance `json:"importance"`
		ExplicitRecall bool       `json:"explicitRecall"`

		Tags datatypes.JSONSlice[string] `json:"tags,omitempty"`

		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`

		// AccessCount is best-effort only; bumps race with readers and may be lost.
		AccessCount int64 `json:"accessCount"`
	}

	// RetrievedMemory is the query-time projection of a record plus its
	// similarity score. Never persisted.
	RetrievedMemory struct {
		ID             string     `json:"id"`
		Kind           MemoryKind `json:"kind"`
		Content        string     `json:"content"`
		Importance     Importance `json:"importance"`
		ExplicitRecall bool       `json:"explicitRecall"`
		Score          float64    `json:"score"`
		CreatedAt      time.Time  `json:"createdAt"`
	}

	// MemoryContext is what the retriever hands to the rest of the pipeline
	// before the orchestrator runs.
	MemoryContext struct {
		// SilentContext is injected into the system prompt without telling the
		// user anything was recalled.
		SilentContext    string            `json:"silentContext"`
		ExplicitMemories []RetrievedMemory `json:"explicitMemories"`
		HasMemory        bool              `json:"hasMemory"`
	}
)

func (MemoryRecord) TableName() string {
	return "memory_records"
}

const (
	MemoryKindFact         MemoryKind = "fact"
	MemoryKindPreference   MemoryKind = "preference"
	MemoryKindHabit        MemoryKind = "habit"
	MemoryKindConversation MemoryKind = "conversation"

	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
)

func (k MemoryKind) Valid() bool {
	switch k {
	case MemoryKindFact, MemoryKindPreference, MemoryKindHabit, MemoryKindConversation:
		return true
	}
	return false
}
