// Package llm provides abstractions for answer provider integration.
//
// Providers handle API communication with hosted model services and return
// plain messages. This keeps providers focused on transport concerns without
// coupling them to capture-session orchestration.
//
// The assistant layer is responsible for:
// - Choosing between primary and secondary providers
// - Retrying against a fallback model when one is unavailable
// - Turning answers into spoken output and notes
//
// This separation allows providers to be:
// - Reusable outside the capture client (batch tools, tests)
// - Testable independently of orchestration logic
// - Simpler to implement and maintain
package llm

import (
	"context"
	"errors"

	"github.com/notedhq/noted/pkg/types"
)

// ErrModelNotFound is returned (wrapped) by providers when the requested
// model name is unknown to the service. The assistant chain uses it to retry
// once against the provider's designated fallback model.
var ErrModelNotFound = errors.New("model not found")

// ModelCloner is an optional interface that providers can implement to
// support lightweight per-call model overrides without constructing a full
// second provider. The returned provider shares credentials and transport
// with the original but directs calls to the given model.
type ModelCloner interface {
	CloneWithModel(model string) Provider
}

// Provider defines the interface for answer provider integrations.
type Provider interface {
	// Complete sends messages to the model and returns the full response.
	//
	// Returns the assistant's response message, or an error wrapping
	// ErrModelNotFound when the configured model name is unavailable.
	Complete(ctx context.Context, messages []*types.Message) (*types.Message, error)

	// GetModel returns the model name being used.
	GetModel() string
}
