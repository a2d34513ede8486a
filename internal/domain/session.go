package domain

import "time"

// AutosaveSessionID addresses the single session overwritten by every research run.
const AutosaveSessionID = "autosave"

type Session struct {
	ID         string         `json:"id"`
	Name       string         `json:"session_name"`
	Records    []ScoredResult `json:"keywords_data"`
	IsAutosave bool           `json:"is_autosave"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type SessionSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	KeywordCount int       `json:"keyword_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Favorite struct {
	Record    ScoredResult `json:"record"`
	Notes     string       `json:"notes,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// SessionBackup is the downloadable snapshot of every named session.
type SessionBackup struct {
	Timestamp time.Time `json:"timestamp"`
	Sessions  []Session `json:"sessions"`
}
