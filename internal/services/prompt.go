package services

import (
	"fmt"
	"strings"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildExtractFieldsPrompt asks for the candidate's personal data from the attached CV
func (pb *PromptBuilder) BuildExtractFieldsPrompt() string {
	return `You are an expert HR assistant reading the attached CV.

Extract the candidate's personal information and return it in the following JSON format:
{
  "full_name": "<full name>",
  "email": "<email address>",
  "birthdate": "<YYYY-MM-DD>",
  "gender": "<gender>",
  "experience": <total years of professional experience as a whole number>,
  "address": "<address>",
  "skills": ["<skill>", "..."]
}

Use null for any field that does not appear in the CV. Do not guess.
Return ONLY the JSON object, with no extra text.`
}

// BuildFitScorePrompt asks for a fit score of the attached CV against the job requirements
func (pb *PromptBuilder) BuildFitScorePrompt(requirements string) string {
	requirements = strings.TrimSpace(requirements)
	if requirements == "" {
		requirements = "No specific requirements were provided. Judge general professional quality."
	}

	return fmt.Sprintf(`You are an expert HR recruiter evaluating the attached CV.

JOB REQUIREMENTS:
%s

Assess how well the candidate fits the job requirements.

Return your response in the following JSON format:
{
  "fit_score": <number between 0 and 100>,
  "strengths": ["<strength>", "..."],
  "weaknesses": ["<weakness>", "..."]
}

Be objective. Return ONLY the JSON object, with no extra text.`, requirements)
}

// BuildProfileSummary renders the indexed header for a candidate's CV text
func (pb *PromptBuilder) BuildProfileSummary(name, email string, skills, strengths []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Candidate: %s\n", strings.TrimSpace(name))
	if email != "" {
		fmt.Fprintf(&b, "Email: %s\n", email)
	}
	if len(skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(skills, ", "))
	}
	if len(strengths) > 0 {
		fmt.Fprintf(&b, "Strengths: %s\n", strings.Join(strengths, "; "))
	}
	return b.String()
}

// Helper to format similarity hits for logs and search snippets
func FormatSearchSnippet(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
