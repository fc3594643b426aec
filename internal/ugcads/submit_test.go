package ugcads_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreamcut-backend/internal/kie"
	"dreamcut-backend/internal/logger"
	"dreamcut-backend/internal/ugcads"
)

func testPayload() kie.GenerateRequest {
	return kie.GenerateRequest{
		Prompt:         "Create an authentic UGC-style product advertisement video.",
		ImageURLs:      []string{"https://signed/1", "https://signed/2"},
		GenerationType: kie.GenerationTypeFirstAndLastFrames,
		AspectRatio:    "9:16",
		CallBackURL:    "https://api.test/api/kie/veo/callback",
	}
}

func TestSubmitter_PrimarySucceeds(t *testing.T) {
	gen := &fakeGenerator{results: []genResult{ok("task-1")}}
	s := ugcads.NewSubmitter(gen, "veo3", "veo3_fast", logger.Nop())

	sub, err := s.Submit(context.Background(), testPayload())
	require.NoError(t, err)

	assert.Equal(t, ugcads.StateSucceeded, sub.State)
	assert.Equal(t, "task-1", sub.TaskID)
	assert.Equal(t, "veo3", sub.Model)
	assert.False(t, sub.FallbackUsed)
	require.Len(t, gen.payloads, 1)
	assert.Equal(t, "veo3", gen.payloads[0].Model)
}

func TestSubmitter_FallbackOnNon200(t *testing.T) {
	gen := &fakeGenerator{results: []genResult{rejected(500, "quality model busy"), ok("task-2")}}
	s := ugcads.NewSubmitter(gen, "veo3", "veo3_fast", logger.Nop())

	sub, err := s.Submit(context.Background(), testPayload())
	require.NoError(t, err)

	assert.Equal(t, "task-2", sub.TaskID)
	assert.Equal(t, "veo3_fast", sub.Model)
	assert.True(t, sub.FallbackUsed)
	require.Len(t, sub.Attempts, 2)
	assert.Equal(t, 500, sub.Attempts[0].Code)

	require.Len(t, gen.payloads, 2)
	primary, fallback := gen.payloads[0], gen.payloads[1]
	assert.Equal(t, "veo3", primary.Model)
	assert.Equal(t, "veo3_fast", fallback.Model)
	primary.Model, fallback.Model = "", ""
	assert.Equal(t, primary, fallback)
}

func TestSubmitter_FallbackOnTransportError(t *testing.T) {
	gen := &fakeGenerator{results: []genResult{{err: errors.New("dial tcp: timeout")}, ok("task-3")}}
	s := ugcads.NewSubmitter(gen, "veo3", "veo3_fast", logger.Nop())

	sub, err := s.Submit(context.Background(), testPayload())
	require.NoError(t, err)
	assert.Equal(t, "task-3", sub.TaskID)
	assert.Equal(t, "dial tcp: timeout", sub.Attempts[0].Error)
}

func TestSubmitter_MissingTaskIDFallsBack(t *testing.T) {
	gen := &fakeGenerator{results: []genResult{{resp: &kie.GenerateResponse{Code: 200, Msg: "success"}}, ok("task-4")}}
	s := ugcads.NewSubmitter(gen, "veo3", "veo3_fast", logger.Nop())

	sub, err := s.Submit(context.Background(), testPayload())
	require.NoError(t, err)
	assert.Equal(t, "task-4", sub.TaskID)
	assert.True(t, sub.FallbackUsed)
}

func TestSubmitter_BothFail(t *testing.T) {
	gen := &fakeGenerator{results: []genResult{rejected(500, "busy"), rejected(422, "prompt rejected")}}
	s := ugcads.NewSubmitter(gen, "veo3", "veo3_fast", logger.Nop())

	sub, err := s.Submit(context.Background(), testPayload())
	require.Error(t, err)

	var perr *ugcads.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "prompt rejected", perr.Message)
	assert.Equal(t, 422, perr.Response.Code)
	assert.Len(t, perr.Attempts, 2)
	assert.Equal(t, "veo3_fast", perr.Payload.Model)
	assert.Equal(t, ugcads.StateFailed, sub.State)
	assert.Equal(t, 502, ugcads.HTTPStatus(err))
}
