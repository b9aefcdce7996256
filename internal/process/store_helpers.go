package process

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

func scanProcess(scanner interface{ Scan(dest ...any) error }) (*Process, error) {
	var (
		id                  string
		stageStr            string
		stageLabel          sql.NullString
		progress            sql.NullFloat64
		completed           sql.NullInt64
		resultRef           sql.NullString
		createdRaw          sql.NullString
		updatedRaw          sql.NullString
		topic               sql.NullString
		style               sql.NullString
		duration            sql.NullString
		prayerType          sql.NullString
		language            sql.NullString
		notes               sql.NullString
		generateImage       sql.NullInt64
		generateShort       sql.NullInt64
		generateAudio       sql.NullInt64
		awaitTitleSelection sql.NullInt64
		title               sql.NullString
		titlesJSON          sql.NullString
		content             sql.NullString
		shortContent        sql.NullString
		description         sql.NullString
		imagePrompt         sql.NullString
		imageRef            sql.NullString
		audioRef            sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&stageStr,
		&stageLabel,
		&progress,
		&completed,
		&resultRef,
		&createdRaw,
		&updatedRaw,
		&topic,
		&style,
		&duration,
		&prayerType,
		&language,
		&notes,
		&generateImage,
		&generateShort,
		&generateAudio,
		&awaitTitleSelection,
		&title,
		&titlesJSON,
		&content,
		&shortContent,
		&description,
		&imagePrompt,
		&imageRef,
		&audioRef,
	); err != nil {
		return nil, err
	}

	proc := &Process{
		ID:         id,
		Stage:      Stage(stageStr),
		StageLabel: stageLabel.String,
		Progress:   progress.Float64,
		Completed:  completed.Valid && completed.Int64 != 0,
		ResultRef:  resultRef.String,
		Payload: Payload{
			Topic:               topic.String,
			Style:               style.String,
			Duration:            duration.String,
			PrayerType:          prayerType.String,
			Language:            language.String,
			Notes:               notes.String,
			GenerateImage:       generateImage.Valid && generateImage.Int64 != 0,
			GenerateAudio:       generateAudio.Valid && generateAudio.Int64 != 0,
			AwaitTitleSelection: awaitTitleSelection.Valid && awaitTitleSelection.Int64 != 0,
			Title:               title.String,
			Content:             content.String,
			ShortContent:        shortContent.String,
			Description:         description.String,
			ImagePrompt:         imagePrompt.String,
			ImageRef:            imageRef.String,
			AudioRef:            audioRef.String,
		},
	}

	if generateShort.Valid {
		value := generateShort.Int64 != 0
		proc.Payload.GenerateShort = &value
	}

	if titlesJSON.Valid && titlesJSON.String != "" {
		var titles []string
		if err := json.Unmarshal([]byte(titlesJSON.String), &titles); err == nil {
			proc.Payload.Titles = titles
		}
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		proc.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		proc.UpdatedAt = updated
	}
	return proc, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableBool(value *bool) any {
	if value == nil {
		return nil
	}
	return boolToInt(*value)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
