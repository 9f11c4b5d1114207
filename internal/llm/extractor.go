// Package llm - extractor.go provides generic LLM-based structured extraction.
package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
// It provides a reusable way to define what information to extract from text.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "MatchAssessment")
	Description string        // System prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint: "string", "[]string", "number"
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	// System description
	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	// Output schema
	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	// Instructions
	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Base your answer only on the provided text, do not invent facts.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	// Input text
	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// MatchAssessmentSchema returns the extraction schema for judging how well a
// candidate profile fits a scraped job posting.
func MatchAssessmentSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "MatchAssessment",
		Description: `You are an expert technical recruiter. Your task is to judge how well the
candidate profile fits the job posting below.
Weigh hard requirements over nice-to-haves. Penalize missing must-have skills,
clearance, or location constraints the candidate cannot meet.`,
		Fields: []SchemaField{
			{
				Name:        "score",
				Type:        "number",
				Description: "Fit score between 0.0 (no fit) and 1.0 (excellent fit)",
				Required:    true,
			},
			{
				Name:        "rationale",
				Type:        "\"string\"",
				Description: "2-4 sentences explaining the score, citing concrete requirements",
				Required:    true,
			},
			{
				Name:        "missing_requirements",
				Type:        "[\"string\"]",
				Description: "Hard requirements from the posting the candidate does not meet",
				Required:    false,
			},
		},
	}
}
