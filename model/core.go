// Package model defines the boundary between the command line front end and a
// training engine: configuration, metadata and the Core interface.
package model

import "fmt"
import "time"

import "github.com/neurlang/nncli/datasets"

// Core is a trainable network built from a CoreConfig.
type Core interface {
	// Train runs every configured epoch over the samples. The training
	// callback may be invoked concurrently from several workers.
	Train(samples datasets.Samples) error

	// Test evaluates the loss over the samples without training.
	Test(samples datasets.Samples) (TestResult, error)

	// Predict computes the network output for one input.
	Predict(input []float64) ([]float64, error)

	// PredictMetadata describes the latest Predict call.
	PredictMetadata() PredictMetadata

	// TrainingMetadata describes the latest Train call.
	TrainingMetadata() TrainingMetadata

	// SetTrainingCallback registers the progress callback.
	SetTrainingCallback(fn func(TrainingProgress))

	// Config returns the configuration including the current parameters.
	Config() CoreConfig
}

// TrainingProgress is reported by a training worker.
type TrainingProgress struct {
	CurrentEpoch  uint64
	TotalEpochs   uint64
	CurrentSample uint64
	TotalSamples  uint64
	EpochLoss     float64
	SampleLoss    float64
	WorkerIndex   int
	TotalWorkers  int
}

// TestResult summarizes an evaluation run.
type TestResult struct {
	NumSamples  uint64
	TotalLoss   float64
	AverageLoss float64
}

// PredictMetadata is written next to prediction outputs.
type PredictMetadata struct {
	StartTime         string  `json:"startTime"`
	EndTime           string  `json:"endTime"`
	DurationSeconds   float64 `json:"durationSeconds"`
	DurationFormatted string  `json:"durationFormatted"`
}

// TrainingMetadata is saved with trained models.
type TrainingMetadata struct {
	RunID             string  `json:"runId,omitempty"`
	StartTime         string  `json:"startTime"`
	EndTime           string  `json:"endTime"`
	DurationSeconds   float64 `json:"durationSeconds"`
	DurationFormatted string  `json:"durationFormatted"`
	NumSamples        uint64  `json:"numSamples"`
	FinalLoss         float64 `json:"finalLoss"`
}

// TimeFormat is used for every timestamp in metadata.
const TimeFormat = time.RFC3339

// NewPredictMetadata measures the interval between start and end.
func NewPredictMetadata(start, end time.Time) PredictMetadata {
	d := end.Sub(start)
	return PredictMetadata{
		StartTime:         start.Format(TimeFormat),
		EndTime:           end.Format(TimeFormat),
		DurationSeconds:   d.Seconds(),
		DurationFormatted: FormatDuration(d),
	}
}

// NewTrainingMetadata measures the interval between start and end.
func NewTrainingMetadata(start, end time.Time, samples uint64, loss float64) TrainingMetadata {
	d := end.Sub(start)
	return TrainingMetadata{
		StartTime:         start.Format(TimeFormat),
		EndTime:           end.Format(TimeFormat),
		DurationSeconds:   d.Seconds(),
		DurationFormatted: FormatDuration(d),
		NumSamples:        samples,
		FinalLoss:         loss,
	}
}

// FormatDuration prints d for humans, e.g. "1h 02m 03s" or "3.250s".
func FormatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		return fmt.Sprintf("%dh %02dm %02ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm %02ds", int(d.Minutes()), int(d.Seconds())%60)
	case d >= time.Second:
		return fmt.Sprintf("%.3fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.3fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%dus", d.Microseconds())
}
