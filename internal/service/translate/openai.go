package translate

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ybpheno16/voiceroom/internal/model/language"
	"github.com/ybpheno16/voiceroom/internal/model/room"
)

// OpenAITranslator is the alternative translation provider, reusing
// the same API key the Whisper client runs on.
type OpenAITranslator struct {
	client *openai.Client
}

func NewOpenAITranslator(apiKey string) *OpenAITranslator {
	return &OpenAITranslator{client: openai.NewClient(apiKey)}
}

func (t *OpenAITranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	system := fmt.Sprintf(
		"You are a translation engine. Translate the user's message into %s. "+
			"Output only the translation.", language.Name(targetLang))
	if sourceLang != "" {
		system += fmt.Sprintf(" The source language is %s.", language.Name(sourceLang))
	}

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: openai: %v", room.ErrTranslationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", room.ErrTranslationFailed)
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("%w: openai returned empty output", room.ErrTranslationFailed)
	}
	return out, nil
}
