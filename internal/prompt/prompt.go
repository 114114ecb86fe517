package prompt

import (
	"strconv"
	"strings"

	"bible-chat/backend/internal/persona"
)

const identity = `You are Bible-Chat, an AI assistant that always grounds its answers in the Holy Bible.

Guidelines:
- Always include relevant scripture references (book, chapter, and verse).
- Keep explanations faithful to biblical context.
- If a question cannot be answered from scripture, gently guide the user back to biblical principles.
- Speak in a warm, respectful, and encouraging tone.

Your mission is to help users explore God's Word with clarity, reverence, and encouragement.`

// TitlePrompt instructs the title model how to name a new chat.
const TitlePrompt = `You will generate a short title based on the first message a user begins a conversation with.
- Ensure it is not more than 80 characters long.
- The title should be a summary of the user's message.
- Do not use quotes or colons.`

// RequestHints describe where a request originated from. Empty fields are
// rendered as-is so the block keeps a fixed shape.
type RequestHints struct {
	Latitude  string `json:"latitude,omitempty"`
	Longitude string `json:"longitude,omitempty"`
	City      string `json:"city,omitempty"`
	Country   string `json:"country,omitempty"`
}

// IsZero reports whether no hint is set.
func (h RequestHints) IsZero() bool {
	return h == RequestHints{}
}

// Composer builds system prompts from the persona registry.
type Composer struct {
	personas *persona.Registry
}

// NewComposer creates a composer backed by the given registry.
func NewComposer(personas *persona.Registry) *Composer {
	return &Composer{personas: personas}
}

// Compose returns the system prompt for a persona. Unknown or empty persona
// ids resolve to the default persona. The result depends only on the inputs.
func (c *Composer) Compose(personaID, extraContext string, hints RequestHints) string {
	p := c.personas.Lookup(personaID)

	var sb strings.Builder
	sb.WriteString(identity)
	sb.WriteString("\n\nPersona: ")
	sb.WriteString(p.Name)
	if p.Prompt != "" {
		sb.WriteString("\n")
		sb.WriteString(p.Prompt)
	}

	if extra := strings.TrimSpace(extraContext); extra != "" {
		sb.WriteString("\n\nAdditional context:\n")
		sb.WriteString(extra)
	}

	if !hints.IsZero() {
		sb.WriteString("\n\n")
		sb.WriteString(hintsBlock(hints))
	}

	return sb.String()
}

func hintsBlock(h RequestHints) string {
	lines := []string{
		"About the origin of user's request:",
		"- lat: " + h.Latitude,
		"- lon: " + h.Longitude,
		"- city: " + h.City,
		"- country: " + h.Country,
	}
	return strings.Join(lines, "\n")
}

// FormatCoordinate renders a coordinate for RequestHints.
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
