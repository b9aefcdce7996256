package process

import (
	"strings"
	"time"
)

// Stage represents the lifecycle position of a process.
type Stage string

const (
	StageInitiated        Stage = "initiated"
	StageTitlesReady      Stage = "titles_ready"
	StageTitleSelected    Stage = "title_selected"
	StageContentReady     Stage = "content_ready"
	StageShortReady       Stage = "short_ready"
	StageDescriptionReady Stage = "description_ready"
	StageImagePromptReady Stage = "image_prompt_ready"
	StageCompiled         Stage = "compiled"
	StageCompleted        Stage = "completed"
	StageFailed           Stage = "failed"
)

var allStages = []Stage{
	StageInitiated,
	StageTitlesReady,
	StageTitleSelected,
	StageContentReady,
	StageShortReady,
	StageDescriptionReady,
	StageImagePromptReady,
	StageCompiled,
	StageCompleted,
	StageFailed,
}

var stageSet = func() map[Stage]struct{} {
	set := make(map[Stage]struct{}, len(allStages))
	for _, stage := range allStages {
		set[stage] = struct{}{}
	}
	return set
}()

// AllStages returns the ordered list of known stages.
func AllStages() []Stage {
	cp := make([]Stage, len(allStages))
	copy(cp, allStages)
	return cp
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a stage admits no further transitions.
func (s Stage) IsTerminal() bool {
	return s == StageCompleted || s == StageFailed
}

// Payload holds the request parameters and the content accumulated by the
// pipeline stages.
type Payload struct {
	Topic      string
	Style      string
	Duration   string
	PrayerType string
	Language   string
	Notes      string

	GenerateImage bool
	// GenerateShort overrides the duration heuristic when set.
	GenerateShort       *bool
	GenerateAudio       bool
	AwaitTitleSelection bool

	Title        string
	Titles       []string
	Content      string
	ShortContent string
	Description  string
	ImagePrompt  string
	ImageRef     string
	AudioRef     string
}

// Process represents a pipeline process persisted in SQLite.
type Process struct {
	ID         string
	Stage      Stage
	StageLabel string
	Progress   float64
	Completed  bool
	ResultRef  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Payload    Payload
}

// IsActive reports whether the process is still moving through the pipeline.
func (p *Process) IsActive() bool {
	return p != nil && !p.Stage.IsTerminal()
}

// Summary describes aggregated process counts per key lifecycle states.
type Summary struct {
	Total     int
	Active    int
	Completed int
	Failed    int
}
