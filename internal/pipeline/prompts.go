package pipeline

import (
	"fmt"
	"strings"
)

const (
	promptsAttribute = "prompts"
	summaryAttribute = "summary"
	promptCharBudget = 1000

	literalPreamble = "I NEED to test how the tool works with extremely simple prompts. DO NOT add any detail, just use it AS-IS:"
	literalSuffix   = "This image is for someone who CANNOT read."
)

func contextHint(context string) string {
	if strings.TrimSpace(context) == "" {
		return ""
	}
	return fmt.Sprintf("Keep in mind %s. ", strings.TrimSpace(context))
}

// deriveInstruction asks for count short prompts tuned to the image model.
func deriveInstruction(transcription string, count int, model, context string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please consider this full text following the colon and concisely summarize %d 'prompts' optimized for %s image generation. ", count, model)
	b.WriteString("They should be one or two sentences each. ")
	b.WriteString(contextHint(context))
	fmt.Fprintf(&b, "Produce a JSON array of strings under the attribute name '%s'. ", promptsAttribute)
	fmt.Fprintf(&b, "The total character count of the prompts should be less than or equal to %d:\n\n", promptCharBudget)
	b.WriteString(transcription)
	return b.String()
}

// summaryInstruction asks for a one-paragraph summary of the prompts.
func summaryInstruction(prompts []string, context string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please summarize this text into one paragraph: %s. ", strings.Join(prompts, " "))
	b.WriteString(contextHint(context))
	fmt.Fprintf(&b, "Please produce the response as JSON under the attribute name '%s'.", summaryAttribute)
	return b.String()
}

// SketchPrompt decorates a raw prompt for image generation. Context and
// summary are never included; they produce lettering in the output.
func SketchPrompt(prompt, style string) string {
	var subject string
	if s := strings.TrimSpace(style); s != "" {
		subject = fmt.Sprintf(`In the style of "%s", depict "%s".`, s, prompt)
	} else {
		subject = fmt.Sprintf(`"%s".`, prompt)
	}
	return strings.Join([]string{literalPreamble, subject, literalSuffix}, " ")
}
