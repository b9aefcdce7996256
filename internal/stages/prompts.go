package stages

import (
	"fmt"
	"strings"

	"litany/internal/language"
	"litany/internal/process"
)

const (
	titlesSystemPrompt = `You write titles for devotional content. Respond with JSON only, using the shape {"titles": ["..."]}. Produce five distinct candidates.`

	contentSystemPrompt = `You write devotional texts meant to be read aloud. Respond with the text only, no headings, no commentary.`

	shortSystemPrompt = `You condense devotional texts into a shorter variant that keeps the tone and the key passages. Respond with the text only.`

	descriptionSystemPrompt = `You write short promotional descriptions for devotional audio content. Two or three sentences, inviting, no hashtags.`

	imagePromptSystemPrompt = `You write prompts for an image generation model. Describe a single serene scene matching the given devotional content. Respond with the prompt only.`
)

func titlesPrompt(payload process.Payload, lang string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", payload.Topic)
	if payload.PrayerType != "" {
		fmt.Fprintf(&b, "Type: %s\n", payload.PrayerType)
	}
	if payload.Style != "" {
		fmt.Fprintf(&b, "Style: %s\n", payload.Style)
	}
	if payload.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", payload.Notes)
	}
	fmt.Fprintf(&b, "Write the titles in %s.", language.DisplayName(lang))
	return b.String()
}

func contentPrompt(payload process.Payload, title, lang string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", title)
	fmt.Fprintf(&b, "Topic: %s\n", payload.Topic)
	if payload.PrayerType != "" {
		fmt.Fprintf(&b, "Type: %s\n", payload.PrayerType)
	}
	if payload.Style != "" {
		fmt.Fprintf(&b, "Style: %s\n", payload.Style)
	}
	if payload.Duration != "" {
		fmt.Fprintf(&b, "Target duration: %s\n", payload.Duration)
	}
	if payload.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", payload.Notes)
	}
	fmt.Fprintf(&b, "Write the full text in %s.", language.DisplayName(lang))
	return b.String()
}

func shortPrompt(title, content, lang string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n\n", title)
	b.WriteString("Condense the following text to roughly a third of its length:\n\n")
	b.WriteString(content)
	fmt.Fprintf(&b, "\n\nWrite the condensed text in %s.", language.DisplayName(lang))
	return b.String()
}

// reinforceLanguage appends an explicit language instruction for the single
// regeneration attempt after a mismatch.
func reinforceLanguage(prompt, lang string) string {
	display := language.DisplayName(lang)
	return prompt + fmt.Sprintf("\n\nIMPORTANT: the entire response MUST be written in %s. Do not use any other language.", display)
}

func descriptionPrompt(title, shortContent, lang string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n\n", title)
	b.WriteString("Content summary:\n")
	b.WriteString(shortContent)
	fmt.Fprintf(&b, "\n\nWrite the description in %s.", language.DisplayName(lang))
	return b.String()
}

func imagePrompt(title, description string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", title)
	if description != "" {
		fmt.Fprintf(&b, "Description: %s\n", description)
	}
	return b.String()
}
