package port

import (
	"cloakbot/internal/core/domain"
	"context"
)

type TextSender interface {
	// SendMessageReply sends a reply to a specified message with the given text and returns the sent message ID and
	// an error if any.
	SendMessageReply(ctx context.Context, message *domain.Message, text string) (int, error)
	// SendChatAction repeats a chat action (e.g., uploading a document) in a given chat until ctx is done.
	SendChatAction(ctx context.Context, chatID int64, action domain.Action)
	// NotifyAndReturnError sends an error notification based on the provided message context and returns the error.
	NotifyAndReturnError(ctx context.Context, err error, message *domain.Message) error
}

type DocumentSender interface {
	// SendDocumentReply uploads a file as a document in response to the provided message.
	SendDocumentReply(ctx context.Context, message *domain.Message, filename string, data []byte, caption string) error
}
