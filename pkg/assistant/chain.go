// Package assistant resolves spoken questions to spoken answers through a
// chain of answer providers: a primary provider, a same-provider fallback
// model when the configured model name is unavailable, and a secondary
// provider when the primary is unconfigured or fails outright.
package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/notedhq/noted/pkg/llm"
	"github.com/notedhq/noted/pkg/logging"
	"github.com/notedhq/noted/pkg/types"
)

// ErrNoAnswer is returned when no configured provider produced an answer.
// Callers speak an apology and log a warning; it is never fatal.
var ErrNoAnswer = errors.New("no answer available")

const answerSystemPrompt = "You are a helpful assistant that provides clear, concise answers to questions. " +
	"Keep your responses brief and conversational since they will be spoken aloud. " +
	"Focus on giving accurate, factual information."

const describePhotoPrompt = "Describe this image in detail. Focus on any text, diagrams, or important " +
	"visual elements that might be relevant for note-taking or studying."

const summaryPromptFormat = "Summarize this audio transcription in 2-3 sentences, " +
	"focusing on the key points and main topics discussed: %q"

// Chain is the conversational assistant fallback chain. Either provider may
// be nil when unconfigured; a fully unconfigured chain answers nothing.
type Chain struct {
	primary       llm.Provider
	fallbackModel string
	secondary     llm.Provider
	log           *logging.Logger
}

// NewChain creates a fallback chain. fallbackModel is the primary provider's
// designated fallback model name, tried once when the primary reports the
// configured model as not found.
func NewChain(primary llm.Provider, fallbackModel string, secondary llm.Provider, log *logging.Logger) *Chain {
	return &Chain{
		primary:       primary,
		fallbackModel: fallbackModel,
		secondary:     secondary,
		log:           log,
	}
}

// Answer resolves a spoken question to an answer, walking the full chain.
// Returns ErrNoAnswer when every configured provider failed or none is
// configured.
func (c *Chain) Answer(ctx context.Context, question string) (string, error) {
	messages := []*types.Message{
		types.NewSystemMessage(answerSystemPrompt),
		types.NewUserMessage(question),
	}

	answer, err := c.completePrimary(ctx, messages)
	if err == nil {
		return answer, nil
	}
	if c.primary != nil {
		c.log.Warnf("Primary provider failed, trying secondary: %v", err)
	}

	if c.secondary == nil {
		return "", ErrNoAnswer
	}

	msg, err := c.secondary.Complete(ctx, messages)
	if err != nil {
		c.log.Warnf("Secondary provider failed: %v", err)
		return "", ErrNoAnswer
	}

	return msg.Content, nil
}

// Summarize generates a short spoken summary of session transcript text.
// Summaries use only the primary provider (with its model fallback).
func (c *Chain) Summarize(ctx context.Context, text string) (string, error) {
	messages := []*types.Message{
		types.NewUserMessage(fmt.Sprintf(summaryPromptFormat, text)),
	}
	return c.completePrimary(ctx, messages)
}

// DescribePhoto asks the primary provider for a spoken description of an
// image. The image travels inline as base64 data.
func (c *Chain) DescribePhoto(ctx context.Context, mimeType, base64Data string) (string, error) {
	msg := types.NewUserMessage(describePhotoPrompt)
	msg.Image = &types.ImageData{MimeType: mimeType, Data: base64Data}
	return c.completePrimary(ctx, []*types.Message{msg})
}

// completePrimary calls the primary provider, retrying once against the
// fallback model when the configured model name is unavailable.
func (c *Chain) completePrimary(ctx context.Context, messages []*types.Message) (string, error) {
	if c.primary == nil {
		return "", ErrNoAnswer
	}

	msg, err := c.primary.Complete(ctx, messages)
	if err == nil {
		return msg.Content, nil
	}

	if !errors.Is(err, llm.ErrModelNotFound) || c.fallbackModel == "" {
		return "", err
	}

	cloner, ok := c.primary.(llm.ModelCloner)
	if !ok {
		return "", err
	}

	c.log.Infof("Model %s not available, trying %s", c.primary.GetModel(), c.fallbackModel)
	msg, err = cloner.CloneWithModel(c.fallbackModel).Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}
