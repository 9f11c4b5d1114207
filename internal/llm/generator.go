// Package llm - generator.go adapts the raw client into the match and letter
// generation surface the CLI wires into checkpoint assembly.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/jobscout/internal/types"
)

// Generator produces a match summary and letter artifacts for one posting.
type Generator struct {
	client Client
}

// NewGenerator creates a generator over an LLM client.
func NewGenerator(client Client) *Generator {
	return &Generator{client: client}
}

// matchResponse mirrors the MatchAssessmentSchema output.
type matchResponse struct {
	Score               float64  `json:"score"`
	Rationale           string   `json:"rationale"`
	MissingRequirements []string `json:"missing_requirements,omitempty"`
}

// EvaluateMatch judges the candidate profile against the scraped posting
// detail and returns a structured match summary.
func (g *Generator) EvaluateMatch(ctx context.Context, detail types.SourceDetail, candidateProfile string) (types.MatchSummary, error) {
	text, _ := detail["text"].(string)
	if strings.TrimSpace(text) == "" {
		return types.MatchSummary{}, fmt.Errorf("posting detail has no text to evaluate")
	}

	input := fmt.Sprintf("Candidate profile:\n%s\n\nJob posting:\n%s", candidateProfile, text)
	prompt := BuildExtractionPrompt(MatchAssessmentSchema(), input)

	raw, err := g.client.GenerateJSON(ctx, prompt, TierStandard)
	if err != nil {
		return types.MatchSummary{}, fmt.Errorf("match evaluation failed: %w", err)
	}

	var parsed matchResponse
	if err := json.Unmarshal([]byte(CleanJSONBlock(raw)), &parsed); err != nil {
		return types.MatchSummary{}, fmt.Errorf("failed to parse match response: %w", err)
	}
	if parsed.Score < 0 || parsed.Score > 1 {
		return types.MatchSummary{}, fmt.Errorf("match score %v out of range", parsed.Score)
	}

	summary := types.MatchSummary{
		Score:     parsed.Score,
		Rationale: parsed.Rationale,
		Model:     g.client.GetModel(TierStandard),
	}
	if len(parsed.MissingRequirements) > 0 {
		summary.Extra = map[string]any{"missing_requirements": parsed.MissingRequirements}
	}
	return summary, nil
}

// DraftLetters generates the primary cover letter and a short email body for
// one posting.
func (g *Generator) DraftLetters(ctx context.Context, detail types.SourceDetail, candidateProfile string) (types.LetterArtifacts, error) {
	text, _ := detail["text"].(string)
	title, _ := detail["title"].(string)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("posting detail has no text to draft from")
	}

	letter, err := g.client.GenerateContent(ctx, letterPrompt(title, text, candidateProfile), TierAdvanced)
	if err != nil {
		return nil, fmt.Errorf("cover letter generation failed: %w", err)
	}

	email, err := g.client.GenerateContent(ctx, emailPrompt(title, candidateProfile), TierLite)
	if err != nil {
		return nil, fmt.Errorf("email body generation failed: %w", err)
	}

	return types.LetterArtifacts{
		{Name: types.PrimaryLetterName, Content: strings.TrimSpace(letter)},
		{Name: "email_body", Content: strings.TrimSpace(email)},
	}, nil
}

func letterPrompt(title, postingText, candidateProfile string) string {
	var sb strings.Builder
	sb.WriteString("Write a concise, specific cover letter for the job posting below.\n")
	sb.WriteString("Ground every claim in the candidate profile. No filler, no flattery.\n")
	sb.WriteString("Return only the letter body, no subject line, no placeholders.\n\n")
	if title != "" {
		sb.WriteString("Position: " + title + "\n\n")
	}
	sb.WriteString("Candidate profile:\n" + candidateProfile + "\n\n")
	sb.WriteString("Job posting:\n" + postingText + "\n")
	return sb.String()
}

func emailPrompt(title, candidateProfile string) string {
	var sb strings.Builder
	sb.WriteString("Write a 2-3 sentence application email body referencing the attached cover letter and resume.\n")
	sb.WriteString("Plain text, no subject line, no signature block.\n\n")
	if title != "" {
		sb.WriteString("Position: " + title + "\n\n")
	}
	sb.WriteString("Candidate profile:\n" + candidateProfile + "\n")
	return sb.String()
}
