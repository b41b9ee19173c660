package usecase

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/ai-career-guide/internal/config"
	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

// ChatService continues a free-form career guidance conversation.
type ChatService struct {
	AI      domain.AIClient
	Prompts *config.Prompts
	Model   string
}

// NewChatService constructs a ChatService.
func NewChatService(aic domain.AIClient, prompts *config.Prompts, model string) ChatService {
	return ChatService{AI: aic, Prompts: prompts, Model: model}
}

// FormatConversation renders the history as "role: content" lines.
func FormatConversation(history []domain.ChatMessage) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, m.Role+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

// Reply returns the assistant's next message.
func (s ChatService) Reply(ctx domain.Context, message string, history []domain.ChatMessage) (string, error) {
	prompt, err := s.Prompts.Render(config.PromptChat, map[string]any{
		"Conversation": FormatConversation(history),
		"Message":      message,
	})
	if err != nil {
		return "", fmt.Errorf("op=chat.Reply: %w", err)
	}
	out, err := s.AI.Complete(ctx, domain.CompletionRequest{Model: s.Model, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("op=chat.Reply: %w", err)
	}
	return out, nil
}
