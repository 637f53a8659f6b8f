package pipeline

import (
	"time"

	"smartcopy/internal/domain"
)

// Assumed generation throughput used by the display estimate.
const estimatedCharsPerSecond = 25.0

// Floor percentage reached when a text enters each stage.
var stageFloor = map[string]float64{
	"":                      0,
	domain.StageQuery:       5,
	domain.StageSelecting:   20,
	domain.StageStructuring: 35,
	domain.StageWriting:     50,
	domain.StageCompleted:   100,
}

// EstimateProgress converts the coarse stage marker into a display
// percentage. Within the writing stage it interpolates on elapsed time
// against an assumed throughput for the target length. This is an estimate
// only: fast or slow generations will drift from it, and the value must not
// be read as a measured completion ratio.
func EstimateProgress(progress string, startTime *time.Time, length int, now time.Time) float64 {
	if progress == domain.StageCompleted {
		return 100
	}
	if progress == domain.StageFailed {
		return stageFloor[domain.StageWriting]
	}
	if progress == domain.StageCancelled {
		return 0
	}
	floor, ok := stageFloor[progress]
	if !ok {
		return 0
	}
	if progress != domain.StageWriting || startTime == nil || length <= 0 {
		return floor
	}
	expected := float64(length) / estimatedCharsPerSecond
	elapsed := now.Sub(*startTime).Seconds()
	frac := elapsed / expected
	if frac > 1 {
		frac = 1
	}
	if frac < 0 {
		frac = 0
	}
	// Cap below 100 so only the completed marker reads as done.
	return floor + frac*(99-floor)
}
