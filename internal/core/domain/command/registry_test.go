package command

import (
	"cloakbot/internal/core/domain"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResponder struct {
	command string
}

func (m *MockResponder) Respond(_ context.Context, _ time.Duration, _ *domain.Message) error {
	return nil
}

func (m *MockResponder) GetCommand() string {
	return m.command
}

func TestRegister(t *testing.T) {
	cr := &Registry{}
	mr := &MockResponder{command: "/start"}

	cr.Register(mr)
	assert.Len(t, cr.commands, 1)
}

func TestGetNotRegistered(t *testing.T) {
	cr := &Registry{}

	_, err := cr.Get("/start")
	require.ErrorIs(t, err, ErrRegistryEmpty)
}

func TestGetCommandNotFound(t *testing.T) {
	cr := &Registry{}
	cr.Register(&MockResponder{command: "/start"})

	_, err := cr.Get("/foo")
	require.ErrorIs(t, err, ErrCommandNotFound)
}

func TestGetCommandFound(t *testing.T) {
	cr := &Registry{}
	cr.Register(&MockResponder{command: "/new_pic"})

	cmd, err := cr.Get("/new_pic")
	require.NoError(t, err)
	require.NotNil(t, cmd)

	assert.Equal(t, "/new_pic", cmd.GetCommand())
}

func TestRegisterReplacesDuplicate(t *testing.T) {
	cr := &Registry{}
	first := &MockResponder{command: "/start"}
	second := &MockResponder{command: "/start"}

	cr.Register(first)
	cr.Register(second)

	cmd, err := cr.Get("/start")
	require.NoError(t, err)
	assert.Same(t, second, cmd)
}

func TestListCommands(t *testing.T) {
	cr := &Registry{}
	cr.Register(&MockResponder{command: "/stats"})
	cr.Register(&MockResponder{command: "/new_pic"})
	cr.Register(&MockResponder{command: "/start"})

	assert.Equal(t, []string{"/new_pic", "/start", "/stats"}, cr.ListCommands())
	assert.Empty(t, (&Registry{}).ListCommands())
}

func TestParseCommand(t *testing.T) {
	type TestCase struct {
		description string
		args        string
		want        string
	}

	testCases := []TestCase{
		{
			description: "should return first word",
			args:        "/start",
			want:        "/start",
		},
		{
			description: "should discard following words",
			args:        "/start now please",
			want:        "/start",
		},
		{
			description: "lowercases",
			args:        "/New_Pic",
			want:        "/new_pic",
		},
		{
			description: "strips bot mention",
			args:        "/start@cloak_bot",
			want:        "/start",
		},
		{
			description: "empty on no input",
			args:        "",
			want:        "",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			assert.Equal(t, testCase.want, ParseCommand(testCase.args))
		})
	}
}
