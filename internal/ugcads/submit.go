package ugcads

import (
	"context"
	"fmt"

	"dreamcut-backend/internal/kie"
	"dreamcut-backend/internal/logger"
)

// VideoGenerator submits a generation task.
type VideoGenerator interface {
	Generate(ctx context.Context, req kie.GenerateRequest) (*kie.GenerateResponse, error)
}

type SubmitState string

const (
	StateNotSubmitted      SubmitState = "not_submitted"
	StatePrimaryAttempted  SubmitState = "primary_attempted"
	StateFallbackAttempted SubmitState = "fallback_attempted"
	StateSucceeded         SubmitState = "succeeded"
	StateFailed            SubmitState = "failed"
)

// Attempt records one provider call for metadata and echo output.
type Attempt struct {
	Model string `json:"model"`
	Code  int    `json:"code,omitempty"`
	Msg   string `json:"msg,omitempty"`
	Error string `json:"error,omitempty"`
}

type Submission struct {
	State        SubmitState
	TaskID       string
	Model        string
	FallbackUsed bool
	Attempts     []Attempt
	Response     *kie.GenerateResponse
}

// Submitter tries the quality model first and retries once with the fast
// model on any transport error or non-200 code.
type Submitter struct {
	generator     VideoGenerator
	primaryModel  string
	fallbackModel string
	log           *logger.Logger
}

func NewSubmitter(generator VideoGenerator, primaryModel, fallbackModel string, log *logger.Logger) *Submitter {
	return &Submitter{
		generator:     generator,
		primaryModel:  primaryModel,
		fallbackModel: fallbackModel,
		log:           log,
	}
}

// Submit runs the primary/fallback sequence. payload.Model is overwritten.
// On failure the returned error is a *ProviderError and the Submission is
// still returned for diagnostics.
func (s *Submitter) Submit(ctx context.Context, payload kie.GenerateRequest) (*Submission, error) {
	sub := &Submission{State: StateNotSubmitted}

	sub.State = StatePrimaryAttempted
	if s.attempt(ctx, sub, payload, s.primaryModel) {
		sub.State = StateSucceeded
		return sub, nil
	}

	s.log.Warn("primary model rejected, retrying with fallback",
		"primary", s.primaryModel, "fallback", s.fallbackModel, "reason", lastReason(sub))

	sub.State = StateFallbackAttempted
	sub.FallbackUsed = true
	if s.attempt(ctx, sub, payload, s.fallbackModel) {
		sub.State = StateSucceeded
		return sub, nil
	}

	sub.State = StateFailed
	payload.Model = s.fallbackModel
	return sub, &ProviderError{
		Message:  lastReason(sub),
		Response: sub.Response,
		Payload:  payload,
		Attempts: sub.Attempts,
	}
}

func (s *Submitter) attempt(ctx context.Context, sub *Submission, payload kie.GenerateRequest, model string) bool {
	payload.Model = model
	resp, err := s.generator.Generate(ctx, payload)
	a := Attempt{Model: model}
	switch {
	case err != nil:
		a.Error = err.Error()
	case resp == nil:
		a.Error = "empty response"
	default:
		a.Code = resp.Code
		a.Msg = resp.Msg
		sub.Response = resp
	}
	sub.Attempts = append(sub.Attempts, a)

	if err != nil || resp == nil || resp.Code != 200 {
		return false
	}
	if resp.TaskID() == "" {
		sub.Attempts[len(sub.Attempts)-1].Error = "response carried no taskId"
		return false
	}
	sub.TaskID = resp.TaskID()
	sub.Model = model
	return true
}

func lastReason(sub *Submission) string {
	if len(sub.Attempts) == 0 {
		return "Video generation failed"
	}
	a := sub.Attempts[len(sub.Attempts)-1]
	switch {
	case a.Msg != "" && a.Code != 200:
		return a.Msg
	case a.Error != "":
		return a.Error
	case a.Code != 0:
		return fmt.Sprintf("provider returned code %d", a.Code)
	default:
		return "Video generation failed"
	}
}
