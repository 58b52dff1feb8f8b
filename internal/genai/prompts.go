package genai

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-docgen-backend/internal/structure"
)

// Prompt templates. The %s slots are, in order: main topic, item title,
// context block, main topic again.
const (
	wordContentTmpl = `Write comprehensive content for a section in a document about: %s

Section Title: %s
%s

Requirements:
- Write detailed, informative content for this section
- The content should be well-structured and professional
- Include relevant information, analysis, or discussion
- Write 3-5 paragraphs (approximately 300-500 words)
- Make it contextually relevant to the main topic: %s
- Ensure the content flows naturally and is engaging

Write only the content for this section, without the section title or any headers.`

	slideContentTmpl = `Write content for a slide in a presentation about: %s

Slide Title: %s
%s

Requirements:
- Write concise, bullet-point style content suitable for a presentation slide
- Include 3-6 key points or bullet points
- Keep it brief and impactful (suitable for a slide)
- Make it contextually relevant to the main topic: %s
- Use clear, professional language
- Format as bullet points (use • or - for each point)

Write only the content for this slide, without the slide title.`

	wordRefineTmpl = `Refine the following content based on the user's request.

Original Section Title: %s
Original Content:
%s

User's Refinement Request: %s

Main Document Topic: %s

Please refine the content according to the user's request while maintaining relevance to the main topic and section title. Return only the refined content, without any additional explanation or formatting.`

	slideRefineTmpl = `Refine the following slide content based on the user's request.

Original Slide Title: %s
Original Content:
%s

User's Refinement Request: %s

Main Presentation Topic: %s

Please refine the content according to the user's request while maintaining relevance to the main topic and slide title. Keep it concise and suitable for a presentation slide. Return only the refined content, without any additional explanation or formatting.`

	wordOutlineTmpl = `Generate a comprehensive outline for a Word document about: %s

Please provide a structured outline with 5-8 sections. Each section should have a clear, descriptive title.

Return the response as a JSON array of sections, where each section has:
- id: a unique identifier (e.g., "section-1", "section-2")
- title: the section title/header
- order: the order number (starting from 0)

Example format:
[
  {"id": "section-1", "title": "Introduction", "order": 0},
  {"id": "section-2", "title": "Background", "order": 1},
  ...
]

Return ONLY the JSON array, no additional text or explanation.`

	slideOutlineTmpl = `Generate a slide structure for a PowerPoint presentation about: %s

Please provide 6-10 slides with clear, concise titles. The first slide should be a title slide.

Return the response as a JSON array of slides, where each slide has:
- id: a unique identifier (e.g., "slide-1", "slide-2")
- title: the slide title
- order: the order number (starting from 0)

Example format:
[
  {"id": "slide-1", "title": "Title Slide", "order": 0},
  {"id": "slide-2", "title": "Overview", "order": 1},
  ...
]

Return ONLY the JSON array, no additional text or explanation.`
)

var titleCaser = cases.Title(language.English)

// contextBlock renders the "previous items" context appended to content
// prompts. Empty input yields an empty block.
func contextBlock(kind structure.Kind, previousTitles []string) string {
	if len(previousTitles) == 0 {
		return ""
	}
	var b strings.Builder
	if kind == structure.PowerPoint {
		b.WriteString("\n\nPrevious slides in this presentation:\n")
	} else {
		b.WriteString("\n\nPrevious sections in this document:\n")
	}
	for _, t := range previousTitles {
		b.WriteString("- ")
		b.WriteString(t)
		b.WriteString("\n")
	}
	return b.String()
}

// ContentPrompt builds the generation prompt for one item, given the titles
// of the items that precede it in canonical order.
func ContentPrompt(kind structure.Kind, mainTopic, title string, previousTitles []string) string {
	ctx := contextBlock(kind, previousTitles)
	if kind == structure.PowerPoint {
		return fmt.Sprintf(slideContentTmpl, mainTopic, title, ctx, mainTopic)
	}
	return fmt.Sprintf(wordContentTmpl, mainTopic, title, ctx, mainTopic)
}

// RefinePrompt builds the refinement prompt for one item from its title, its
// current content, the user's instruction and the project topic.
func RefinePrompt(kind structure.Kind, title, previousContent, request, mainTopic string) string {
	if kind == structure.PowerPoint {
		return fmt.Sprintf(slideRefineTmpl, title, previousContent, request, mainTopic)
	}
	return fmt.Sprintf(wordRefineTmpl, title, previousContent, request, mainTopic)
}

// OutlinePrompt builds the structure suggestion prompt for a topic.
func OutlinePrompt(kind structure.Kind, mainTopic string) string {
	if kind == structure.PowerPoint {
		return fmt.Sprintf(slideOutlineTmpl, mainTopic)
	}
	return fmt.Sprintf(wordOutlineTmpl, mainTopic)
}

// Placeholder is the sentinel stored for an item whose batch generation
// failed after all retries.
func Placeholder(kind structure.Kind, title string) string {
	return fmt.Sprintf("[Content generation failed for %s '%s'. Please try again or refine manually.]", kind.ItemNoun(), title)
}

// ParseOutline decodes a model's outline suggestion into structure items.
// The response may be wrapped in a markdown code fence. Rows that are not
// JSON objects are skipped; missing fields fall back to positional defaults
// (id "<noun>-N", title "<Noun> N", order N-1).
func ParseOutline(kind structure.Kind, text string) ([]structure.Item, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal([]byte(StripCodeFence(text)), &rows); err != nil {
		return nil, fmt.Errorf("outline is not a JSON array: %w", err)
	}

	label := titleCaser.String(kind.ItemNoun())
	items := make([]structure.Item, 0, len(rows))
	for i, row := range rows {
		var fields map[string]any
		if err := json.Unmarshal(row, &fields); err != nil {
			continue
		}
		it := structure.Item{
			ID:    fmt.Sprintf("%s%d", kind.IDPrefix(), i+1),
			Title: fmt.Sprintf("%s %d", label, i+1),
			Order: i,
		}
		if id, ok := fields["id"].(string); ok {
			it.ID = id
		}
		if title, ok := fields["title"].(string); ok {
			it.Title = title
		}
		if order, ok := fields["order"].(float64); ok {
			it.Order = int(order)
		}
		items = append(items, it)
	}
	return items, nil
}

// FallbackOutline is the static outline served when the provider cannot
// produce a usable suggestion.
func FallbackOutline(kind structure.Kind) []structure.Item {
	if kind == structure.PowerPoint {
		return []structure.Item{
			{ID: "slide-1", Title: "Title Slide", Order: 0},
			{ID: "slide-2", Title: "Overview", Order: 1},
			{ID: "slide-3", Title: "Key Points", Order: 2},
			{ID: "slide-4", Title: "Details", Order: 3},
			{ID: "slide-5", Title: "Conclusion", Order: 4},
		}
	}
	return []structure.Item{
		{ID: "section-1", Title: "Introduction", Order: 0},
		{ID: "section-2", Title: "Background", Order: 1},
		{ID: "section-3", Title: "Analysis", Order: 2},
		{ID: "section-4", Title: "Findings", Order: 3},
		{ID: "section-5", Title: "Conclusion", Order: 4},
	}
}
