package bio

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// MockModels simulates the GenAI models service
type MockModels struct {
	mock.Mock
}

func (m *MockModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, model, contents, config)
	resp, _ := args.Get(0).(*genai.GenerateContentResponse)
	return resp, args.Error(1)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(text, genai.RoleModel)},
		},
	}
}

func TestPrompt(t *testing.T) {
	prompt, err := Prompt(Input{
		FullName:    "Ada Lovelace",
		PrimaryRole: "Technical co-founder",
		CoreSkills:  []string{"Go", "Postgres", "ML"},
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "- Full Name: Ada Lovelace")
	assert.Contains(t, prompt, "- Primary Role They're Seeking: Technical co-founder")
	assert.Contains(t, prompt, "- Core Skills: Go, Postgres, ML\n")
	assert.Contains(t, prompt, "first-person")
}

func TestGenerate(t *testing.T) {
	models := &MockModels{}
	models.On("GenerateContent", mock.Anything, "gemini-2.0-flash", mock.Anything, mock.Anything).
		Return(textResponse(`{"bio": "I turn ideas into shipped products."}`), nil)

	g := NewGenerator(models, "", time.Second)
	bio, err := g.Generate(context.Background(), Input{FullName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "I turn ideas into shipped products.", bio)
	models.AssertExpectations(t)
}

func TestGenerateFailure(t *testing.T) {
	models := &MockModels{}
	models.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("quota exceeded"))

	g := NewGenerator(models, "gemini-2.0-flash", time.Second)
	_, err := g.Generate(context.Background(), Input{FullName: "Ada"})
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestGenerateEmptyResponse(t *testing.T) {
	models := &MockModels{}
	models.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&genai.GenerateContentResponse{}, nil)

	g := NewGenerator(models, "gemini-2.0-flash", 0)
	_, err := g.Generate(context.Background(), Input{})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestParseResponse(t *testing.T) {
	long := strings.Repeat("é", MaxLength+20)

	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{name: "json", text: `{"bio":"Hello there."}`, want: "Hello there."},
		{name: "fenced json", text: "```json\n{\"bio\": \" Hi. \"}\n```", want: "Hi."},
		{name: "plain text", text: "  I build things.  ", want: "I build things."},
		{name: "truncated", text: long, want: strings.Repeat("é", MaxLength)},
		{name: "empty bio", text: `{"bio": ""}`, wantErr: true},
		{name: "blank", text: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResponse(tt.text)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEmpty)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Generate(context.Background(), Input{})
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = NewGenAIGenerator(context.Background(), "", "", time.Second)
	assert.ErrorIs(t, err, ErrDisabled)
}
