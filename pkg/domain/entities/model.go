package entities

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Difficulty grades how demanding a model is to print.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid reports whether the difficulty is one of the known grades.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Requirement states how much of one filament a single unit of a model
// consumes. Material type and color name are snapshots carried by migrated
// and imported data so an unresolved reference can be rebound to a matching
// spool later.
type Requirement struct {
	FilamentRef    ID      `json:"filamentRef"`
	ExpectedWeight Grams   `json:"expectedWeight"`
	Tolerance      float64 `json:"tolerancePercent"`
	RequiredCount  int     `json:"requiredCount"`
	MaterialType   string  `json:"materialType,omitempty"`
	ColorName      string  `json:"colorName,omitempty"`
}

// NewRequirement creates a validated Requirement.
func NewRequirement(filamentRef ID, expected Grams, tolerance float64, count int) (*Requirement, error) {
	if filamentRef.IsZero() {
		return nil, fmt.Errorf("requirement filament reference cannot be empty")
	}
	if expected <= 0 {
		return nil, fmt.Errorf("expected weight must be positive, got %v", expected)
	}
	if tolerance < 0 || tolerance > 100 {
		return nil, fmt.Errorf("tolerance must be between 0 and 100, got %v", tolerance)
	}
	if count < 1 {
		return nil, fmt.Errorf("required count must be at least 1, got %d", count)
	}
	return &Requirement{
		FilamentRef:    filamentRef,
		ExpectedWeight: expected,
		Tolerance:      tolerance,
		RequiredCount:  count,
	}, nil
}

// Model represents a printable artifact blueprint.
type Model struct {
	ID               ID            `json:"id"`
	Name             string        `json:"name"`
	ExternalLink     string        `json:"externalLink,omitempty"`
	Category         string        `json:"category"`
	Difficulty       Difficulty    `json:"difficulty"`
	PrintTimeMinutes *int          `json:"estimatedPrintTimeMinutes,omitempty"`
	LayerHeightMM    *float64      `json:"layerHeightMm,omitempty"`
	InfillPercent    *int          `json:"infillPercent,omitempty"`
	SupportsRequired bool          `json:"supportsRequired"`
	Notes            string        `json:"notes,omitempty"`
	Tags             []string      `json:"tags,omitempty"`
	AddedDate        time.Time     `json:"addedDate"`
	Requirements     []Requirement `json:"requirements"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// NewModel creates a validated Model with a fresh identity. Tags are derived
// from the notes.
func NewModel(name, category string, difficulty Difficulty, requirements []Requirement) (*Model, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}
	if len(requirements) == 0 {
		return nil, fmt.Errorf("model must have at least one requirement")
	}
	if category == "" {
		category = CategoryOther
	}
	if difficulty == "" {
		difficulty = DifficultyMedium
	}
	if !difficulty.Valid() {
		return nil, fmt.Errorf("difficulty must be Easy, Medium or Hard, got %q", difficulty)
	}

	now := time.Now()
	return &Model{
		ID:           NewID(),
		Name:         name,
		Category:     category,
		Difficulty:   difficulty,
		AddedDate:    now,
		Requirements: requirements,
		UpdatedAt:    now,
	}, nil
}

var tagPattern = regexp.MustCompile(`#([A-Za-z0-9_-]+)`)

// ParseTags extracts #tag tokens from free-form notes, lower-cased and
// de-duplicated in order of first appearance.
func ParseTags(notes string) []string {
	matches := tagPattern.FindAllStringSubmatch(notes, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var tags []string
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// RefreshTags re-derives the tag list from the current notes.
func (m *Model) RefreshTags() {
	m.Tags = ParseTags(m.Notes)
}

// Touch stamps the modification time.
func (m *Model) Touch() {
	m.UpdatedAt = time.Now()
}

// Clone returns a deep copy.
func (m *Model) Clone() *Model {
	out := *m
	if m.PrintTimeMinutes != nil {
		v := *m.PrintTimeMinutes
		out.PrintTimeMinutes = &v
	}
	if m.LayerHeightMM != nil {
		v := *m.LayerHeightMM
		out.LayerHeightMM = &v
	}
	if m.InfillPercent != nil {
		v := *m.InfillPercent
		out.InfillPercent = &v
	}
	out.Tags = append([]string(nil), m.Tags...)
	out.Requirements = append([]Requirement(nil), m.Requirements...)
	return &out
}
