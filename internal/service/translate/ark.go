package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/ybpheno16/voiceroom/internal/config"
	"github.com/ybpheno16/voiceroom/internal/model/language"
	"github.com/ybpheno16/voiceroom/internal/model/room"
)

const arkSystemPrompt = "You are a translation engine. Translate the user's message " +
	"into {target}. Preserve meaning and tone. Output only the translation, " +
	"with no quotes, notes or explanations."

// ArkTranslator drives an Ark chat model through a compiled eino chain
// with a fixed translation prompt.
type ArkTranslator struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewArkTranslator builds and compiles the translation chain.
func NewArkTranslator(ctx context.Context, cfg config.TranslateConfig) (*ArkTranslator, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(arkSystemPrompt),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile translation chain: %w", err)
	}
	return &ArkTranslator{chain: runnable}, nil
}

// Translate invokes the chain. sourceLang is unused: the model infers
// the source from the text itself.
func (t *ArkTranslator) Translate(ctx context.Context, text, _, targetLang string) (string, error) {
	resp, err := t.chain.Invoke(ctx, map[string]any{
		"target": language.Name(targetLang),
		"query":  text,
	})
	if err != nil {
		return "", fmt.Errorf("%w: ark: %v", room.ErrTranslationFailed, err)
	}
	out := strings.TrimSpace(resp.Content)
	if out == "" {
		return "", fmt.Errorf("%w: ark returned empty output", room.ErrTranslationFailed)
	}
	return out, nil
}
