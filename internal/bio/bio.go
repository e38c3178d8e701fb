package bio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/tidwall/gjson"
	"google.golang.org/genai"
)

// MaxLength is the longest bio, in characters.
const MaxLength = 500

var (
	ErrDisabled = errors.New("bio generation is not configured")
	ErrEmpty    = errors.New("no bio generated")
)

// Input describes the user the bio is written for.
type Input struct {
	FullName    string
	PrimaryRole string
	CoreSkills  []string
}

// Generator drafts a first-person profile bio.
type Generator interface {
	Generate(ctx context.Context, in Input) (string, error)
}

// ContentGenerator is the subset of the GenAI models service used here.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var promptTemplate = template.Must(template.New("bio").Parse(`You are a professional career coach and copywriter who helps startup founders craft compelling profiles.

Based on the information provided, write an engaging, first-person bio for a user. The bio must be under 500 characters. It should sound confident, professional, and approachable, making them an attractive potential co-founder.

User Details:
- Full Name: {{.FullName}}
- Primary Role They're Seeking: {{.PrimaryRole}}
- Core Skills: {{range $i, $s := .CoreSkills}}{{if $i}}, {{end}}{{$s}}{{end}}

Respond with a JSON object of the form {"bio": "..."}.
`))

// GenAIGenerator writes bios with a Gemini model.
type GenAIGenerator struct {
	models  ContentGenerator
	model   string
	timeout time.Duration
}

// NewGenAIGenerator connects to the Gemini API.
func NewGenAIGenerator(ctx context.Context, apiKey, model string, timeout time.Duration) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, ErrDisabled
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return NewGenerator(client.Models, model, timeout), nil
}

func NewGenerator(models ContentGenerator, model string, timeout time.Duration) *GenAIGenerator {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GenAIGenerator{models: models, model: model, timeout: timeout}
}

// Generate makes a single attempt, bounded by the generator's timeout.
func (g *GenAIGenerator) Generate(ctx context.Context, in Input) (string, error) {
	prompt, err := Prompt(in)
	if err != nil {
		return "", err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"bio": {Type: genai.TypeString},
			},
			Required: []string{"bio"},
		},
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	return ParseResponse(responseText(resp))
}

// Prompt renders the instruction sent to the model.
func Prompt(in Input) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, in); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// ParseResponse extracts the bio from a model reply. Plain text replies are
// accepted as the bio itself.
func ParseResponse(text string) (string, error) {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	if gjson.Valid(clean) {
		clean = strings.TrimSpace(gjson.Get(clean, "bio").String())
	}
	if clean == "" {
		return "", ErrEmpty
	}
	return Truncate(clean, MaxLength), nil
}

// Truncate cuts s to at most n characters.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}

// Disabled is used when no model is configured.
type Disabled struct{}

func (Disabled) Generate(context.Context, Input) (string, error) {
	return "", ErrDisabled
}
