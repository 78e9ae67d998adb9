package service

import (
	"cloakbot/internal/core/domain"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTextSender struct {
	mutex     sync.Mutex
	replies   []string
	chats     []int64
	sendError error
}

func (m *mockTextSender) SendChatAction(_ context.Context, _ int64, _ domain.Action) {}

func (m *mockTextSender) NotifyAndReturnError(_ context.Context, err error, _ *domain.Message) error {
	return err
}

func (m *mockTextSender) SendMessageReply(_ context.Context, message *domain.Message, text string) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.replies = append(m.replies, text)
	m.chats = append(m.chats, message.ChatID)

	return len(m.replies), m.sendError
}

func (m *mockTextSender) sent() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return append([]string(nil), m.replies...)
}

func TestNewAuthorizer(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		wantErr bool
		want    []int64
	}{
		{name: "list from config file", value: []int64{1, 2, 3}, want: []int64{1, 2, 3}},
		{name: "comma separated from environment", value: "10,20", want: []int64{10, 20}},
		{name: "unset admits everyone", value: nil},
		{name: "non numeric is rejected", value: "not a chat", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)
			if tt.value != nil {
				viper.Set("telegram.allowed_chat_ids", tt.value)
			}

			auth, err := NewAuthorizer(&mockTextSender{})
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, auth)
				return
			}

			require.NoError(t, err)
			assert.Len(t, auth.allowlist, len(tt.want))
			for _, id := range tt.want {
				assert.Contains(t, auth.allowlist, id)
			}
		})
	}
}

func TestChatAuthorizer_IsAuthorized(t *testing.T) {
	const admin = "cloakadmin"

	tests := []struct {
		name      string
		allowlist []int64
		chatID    int64
		sendErr   error
		want      bool
		wantReply string
	}{
		{
			name:      "listed chat",
			allowlist: []int64{123, 456},
			chatID:    456,
			want:      true,
		},
		{
			name:   "empty allowlist admits everyone",
			chatID: 789,
			want:   true,
		},
		{
			name:      "unlisted chat is told who to contact",
			allowlist: []int64{111},
			chatID:    333,
			wantReply: "You are not authorized to use this bot. Please contact @cloakadmin with this ID to get access: 333",
		},
		{
			name:      "failed notice still refuses",
			allowlist: []int64{999},
			chatID:    888,
			sendErr:   errors.New("bot was blocked by the user"),
			wantReply: "You are not authorized to use this bot. Please contact @cloakadmin with this ID to get access: 888",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)
			viper.Set("telegram.allowed_chat_ids", tt.allowlist)
			viper.Set("telegram.admin_username", admin)

			sender := &mockTextSender{sendError: tt.sendErr}
			auth, err := NewAuthorizer(sender)
			require.NoError(t, err)

			assert.Equal(t, tt.want, auth.IsAuthorized(t.Context(), tt.chatID))

			if tt.wantReply == "" {
				assert.Empty(t, sender.sent())
				return
			}

			assert.Equal(t, []string{tt.wantReply}, sender.sent())
			assert.Equal(t, []int64{tt.chatID}, sender.chats)
		})
	}
}
