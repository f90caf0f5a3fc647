package summarizer

import (
	"encoding/json"
	"strings"

	"github.com/capitalize-ai/voice-assistant/internal/llm"
	"github.com/capitalize-ai/voice-assistant/internal/model"
)

// FallbackSummary is the summary used when the model reply is unusable.
const FallbackSummary = "Could not generate summary"

const systemPrompt = `You are a meeting assistant. Always respond in English, whatever language the transcript is in. Respond with a single JSON object and nothing else.`

const instructions = `Analyze the meeting transcript below and return a JSON object with these fields:
- "summary": a concise paragraph describing the meeting
- "actionItems": an array of objects with "task", "assignee" (optional), "dueDate" (optional, YYYY-MM-DD) and "priority" ("low", "medium" or "high")
- "participants": an array of participant names
- "keyDecisions": an array of decisions that were made
- "topics": an array of the main topics discussed

Transcript:
`

func buildPrompt(transcript string) []llm.ChatMessage {
	return []llm.ChatMessage{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: instructions + transcript},
	}
}

// Fallback returns the summary used when the model reply cannot be parsed.
func Fallback() model.ProcessedMeeting {
	return model.ProcessedMeeting{
		Summary:      FallbackSummary,
		ActionItems:  []model.ActionItem{},
		Participants: []string{},
		KeyDecisions: []string{},
		Topics:       []string{},
	}
}

// Parse decodes a model reply. The second result is false when content
// held no JSON object, in which case Fallback() is returned.
func Parse(content string) (model.ProcessedMeeting, bool) {
	raw := extractObject(content)
	if raw == "" {
		return Fallback(), false
	}

	var pm model.ProcessedMeeting
	if err := json.Unmarshal([]byte(raw), &pm); err != nil {
		return Fallback(), false
	}
	return normalize(pm), true
}

// extractObject strips Markdown code fences and any prose around the
// outermost JSON object.
func extractObject(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func normalize(pm model.ProcessedMeeting) model.ProcessedMeeting {
	pm.Summary = strings.TrimSpace(pm.Summary)

	items := make([]model.ActionItem, 0, len(pm.ActionItems))
	for _, it := range pm.ActionItems {
		it.Task = strings.TrimSpace(it.Task)
		if it.Task == "" {
			continue
		}
		it.Assignee = strings.TrimSpace(it.Assignee)
		it.DueDate = strings.TrimSpace(it.DueDate)
		it.Priority = model.ParsePriority(strings.ToLower(strings.TrimSpace(string(it.Priority))))
		items = append(items, it)
	}
	pm.ActionItems = items

	pm.Participants = nonEmpty(pm.Participants)
	pm.KeyDecisions = nonEmpty(pm.KeyDecisions)
	pm.Topics = nonEmpty(pm.Topics)
	return pm
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
