package daemon

import (
	"errors"
	"net/http"
	"time"

	"litany/internal/process"
	"litany/internal/services"
)

// StartProcessRequest is the JSON body accepted by POST /api/processes.
type StartProcessRequest struct {
	ProcessID           string `json:"process_id,omitempty"`
	Topic               string `json:"topic"`
	Style               string `json:"style,omitempty"`
	Duration            string `json:"duration,omitempty"`
	PrayerType          string `json:"prayer_type,omitempty"`
	Language            string `json:"language,omitempty"`
	Notes               string `json:"notes,omitempty"`
	Title               string `json:"title,omitempty"`
	GenerateImage       bool   `json:"generate_image,omitempty"`
	GenerateShort       *bool  `json:"generate_short,omitempty"`
	GenerateAudio       *bool  `json:"generate_audio,omitempty"`
	AwaitTitleSelection bool   `json:"await_title_selection,omitempty"`
}

// Payload converts the request into the stored payload shape. Audio defaults
// to enabled when the field is omitted.
func (r StartProcessRequest) Payload() process.Payload {
	generateAudio := true
	if r.GenerateAudio != nil {
		generateAudio = *r.GenerateAudio
	}
	return process.Payload{
		Topic:               r.Topic,
		Style:               r.Style,
		Duration:            r.Duration,
		PrayerType:          r.PrayerType,
		Language:            r.Language,
		Notes:               r.Notes,
		Title:               r.Title,
		GenerateImage:       r.GenerateImage,
		GenerateShort:       r.GenerateShort,
		GenerateAudio:       generateAudio,
		AwaitTitleSelection: r.AwaitTitleSelection,
	}
}

// SelectTitleRequest is the JSON body accepted by POST /api/processes/{id}/title.
type SelectTitleRequest struct {
	Title string `json:"title"`
}

// ProcessView is the externally observable process state. Payload fields are
// never exposed here; the result is fetched through its own endpoint.
type ProcessView struct {
	ProcessID  string    `json:"process_id"`
	Stage      string    `json:"stage"`
	StageLabel string    `json:"stage_label,omitempty"`
	Progress   float64   `json:"progress"`
	Completed  bool      `json:"completed"`
	ResultRef  string    `json:"result_ref,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	UpdatedAt  time.Time `json:"last_updated_at"`
}

func viewOf(proc *process.Process) ProcessView {
	return ProcessView{
		ProcessID:  proc.ID,
		Stage:      string(proc.Stage),
		StageLabel: proc.StageLabel,
		Progress:   proc.Progress,
		Completed:  proc.Completed,
		ResultRef:  proc.ResultRef,
		StartedAt:  proc.CreatedAt,
		UpdatedAt:  proc.UpdatedAt,
	}
}

// TitlesView is the response of GET /api/processes/{id}/titles.
type TitlesView struct {
	ProcessID string   `json:"process_id"`
	Titles    []string `json:"titles"`
}

// ResultView is the response of GET /api/processes/{id}/result.
type ResultView struct {
	ProcessID string `json:"process_id"`
	ResultRef string `json:"result_ref"`
}

// StatusView is the response of GET /api/status.
type StatusView struct {
	Running      bool   `json:"running"`
	PID          int    `json:"pid"`
	StorePath    string `json:"store_path"`
	LockFilePath string `json:"lock_file_path"`
	Total        int    `json:"total"`
	Active       int    `json:"active"`
	Completed    int    `json:"completed"`
	Failed       int    `json:"failed"`
}

func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
