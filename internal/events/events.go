// Package events defines the typed pipeline events and the synchronous
// publish/subscribe bus that connects stage handlers. Dispatch is
// synchronous; Publish blocks until every subscriber for the event type has
// run. Handler failures are contained per handler: they are logged and never
// stop delivery to the remaining subscribers.
package events

// Type identifies a pipeline event variant.
type Type string

const (
	// TypeInitiated is emitted when a process enters the pipeline.
	TypeInitiated Type = "process.initiated"
	// TypeTitlesReady is emitted once title candidates are persisted.
	TypeTitlesReady Type = "process.titles_ready"
	// TypeTitleSelected is emitted once a title has been chosen.
	TypeTitleSelected Type = "process.title_selected"
	// TypeContentReady is emitted once the primary content is persisted.
	TypeContentReady Type = "process.content_ready"
	// TypeShortReady is emitted once the condensed variant is resolved.
	TypeShortReady Type = "process.short_ready"
	// TypeDescriptionReady is emitted once the description is persisted.
	TypeDescriptionReady Type = "process.description_ready"
	// TypeImagePromptReady is emitted once the image prompt branch finishes.
	TypeImagePromptReady Type = "process.image_prompt_ready"
	// TypeCompiled is emitted once the final document is assembled.
	TypeCompiled Type = "process.compiled"
	// TypeCompleted is the terminal success event.
	TypeCompleted Type = "process.completed"
	// TypeFailed is the terminal failure event.
	TypeFailed Type = "process.failed"
)

// Event is the contract all pipeline events satisfy. Events carry the fields
// the next stage needs so handlers stay decoupled from each other's storage
// reads.
type Event interface {
	EventType() Type
	ProcessID() string
}

// Initiated starts the pipeline for a freshly created process.
type Initiated struct {
	ID string
}

func (e Initiated) EventType() Type   { return TypeInitiated }
func (e Initiated) ProcessID() string { return e.ID }

// TitlesReady carries the candidate titles produced by the title stage.
type TitlesReady struct {
	ID     string
	Titles []string
}

func (e TitlesReady) EventType() Type   { return TypeTitlesReady }
func (e TitlesReady) ProcessID() string { return e.ID }

// TitleSelected carries the chosen title.
type TitleSelected struct {
	ID    string
	Title string
}

func (e TitleSelected) EventType() Type   { return TypeTitleSelected }
func (e TitleSelected) ProcessID() string { return e.ID }

// ContentReady carries the primary content.
type ContentReady struct {
	ID      string
	Title   string
	Content string
}

func (e ContentReady) EventType() Type   { return TypeContentReady }
func (e ContentReady) ProcessID() string { return e.ID }

// ShortReady carries the condensed variant alongside the primary content.
type ShortReady struct {
	ID           string
	Title        string
	Content      string
	ShortContent string
}

func (e ShortReady) EventType() Type   { return TypeShortReady }
func (e ShortReady) ProcessID() string { return e.ID }

// DescriptionReady carries the promotional description. Both the image
// prompt branch and the compile branch consume it.
type DescriptionReady struct {
	ID           string
	Title        string
	Content      string
	ShortContent string
	Description  string
}

func (e DescriptionReady) EventType() Type   { return TypeDescriptionReady }
func (e DescriptionReady) ProcessID() string { return e.ID }

// ImagePromptReady closes the image branch. Nothing consumes it today; the
// compile branch runs independently off DescriptionReady.
type ImagePromptReady struct {
	ID          string
	ImagePrompt string
	ImageRef    string
}

func (e ImagePromptReady) EventType() Type   { return TypeImagePromptReady }
func (e ImagePromptReady) ProcessID() string { return e.ID }

// Compiled carries the assembled document reference for the audio stage.
type Compiled struct {
	ID        string
	Title     string
	Content   string
	ResultRef string
}

func (e Compiled) EventType() Type   { return TypeCompiled }
func (e Compiled) ProcessID() string { return e.ID }

// Completed is the terminal success event consumed by notification fan-out.
type Completed struct {
	ID        string
	Title     string
	ResultRef string
}

func (e Completed) EventType() Type   { return TypeCompleted }
func (e Completed) ProcessID() string { return e.ID }

// Failed is the terminal failure event consumed by notification fan-out.
type Failed struct {
	ID         string
	Stage      string
	Diagnostic string
}

func (e Failed) EventType() Type   { return TypeFailed }
func (e Failed) ProcessID() string { return e.ID }
