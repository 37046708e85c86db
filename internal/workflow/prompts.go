// Package workflow assembles the prompt strings driving the storyboard
// pipeline: concept image, storyboard plan, grid generation, video prompt.
package workflow

import (
	"fmt"
	"strings"
)

// AnchorItem pins a recurring element of the story (a character, an
// environment, or a prop) with an optional description and reference image.
type AnchorItem struct {
	Text        string `json:"text"`
	ImageBase64 string `json:"image_base64"`
}

type Anchors struct {
	Character   *AnchorItem `json:"character"`
	Environment *AnchorItem `json:"environment"`
	Prop        *AnchorItem `json:"prop"`
}

// SelectReferenceImage picks the first anchor image in precedence order
// character, environment, prop.
func SelectReferenceImage(anchors *Anchors) string {
	if anchors == nil {
		return ""
	}
	for _, item := range []*AnchorItem{anchors.Character, anchors.Environment, anchors.Prop} {
		if item == nil {
			continue
		}
		if value := strings.TrimSpace(item.ImageBase64); value != "" {
			return value
		}
	}
	return ""
}

// OutputLanguageRule renders the language instruction appended to system
// prompts. Unrecognized languages are passed through verbatim.
func OutputLanguageRule(outputLanguage string) string {
	normalized := strings.TrimSpace(outputLanguage)
	if normalized == "" {
		return "Please respond in Simplified Chinese."
	}
	switch strings.ToLower(normalized) {
	case "zh", "zh-cn", "zh-hans", "zh-hans-cn":
		return "Please respond in Simplified Chinese."
	case "en", "en-us", "en-gb", "english":
		return "Please respond in English."
	}
	return fmt.Sprintf("Please respond in %s.", normalized)
}

// BuildAnchorContext flattens anchor descriptions into one context line.
func BuildAnchorContext(anchors *Anchors) string {
	if anchors == nil {
		return ""
	}
	var parts []string
	add := func(label string, item *AnchorItem) {
		if item != nil && strings.TrimSpace(item.Text) != "" {
			parts = append(parts, label+": "+strings.TrimSpace(item.Text))
		}
	}
	add("Character", anchors.Character)
	add("Environment", anchors.Environment)
	add("Prop", anchors.Prop)
	return strings.Join(parts, "; ")
}

// BuildConceptPrompt composes the prompt for the single concept image.
func BuildConceptPrompt(style, plot string, anchors *Anchors, aspectRatio string) string {
	parts := []string{strings.TrimSpace(style), "Plot: " + strings.TrimSpace(plot)}
	if anchorText := BuildAnchorContext(anchors); anchorText != "" {
		parts = append(parts, "Anchors: "+anchorText)
	}
	parts = append(parts, "Aspect ratio "+aspectRatio)
	return strings.Join(parts, " ")
}

// BuildStoryboardPlanSystem is the system instruction for the storyboard
// planning step.
func BuildStoryboardPlanSystem(outputLanguage string) string {
	return strings.Join([]string{
		"Role: Storyboard Artist & Director.",
		"Task: Convert the following plot into a 3x3 grid image prompt.",
		"Requirements:",
		"- Output a single prompt text for a 3x3 storyboard grid image.",
		"- Include shot labels: ELS, LS, MLS, MS, MCU, CU, ECU, Low Angle, High Angle.",
		"- Do not output JSON or Markdown.",
		OutputLanguageRule(outputLanguage),
	}, "\n")
}

// BuildStoryboardPlanPrompt composes the user prompt for storyboard
// planning from the inputs gathered so far.
func BuildStoryboardPlanPrompt(style, plot, anchorContext, conceptPrompt, conceptImageURL string) string {
	lines := []string{"Style: " + strings.TrimSpace(style), "Plot: " + strings.TrimSpace(plot)}
	if anchorContext != "" {
		lines = append(lines, "Character/Scene Context: "+anchorContext)
	}
	if conceptPrompt != "" {
		lines = append(lines, "Concept Prompt: "+strings.TrimSpace(conceptPrompt))
	}
	if conceptImageURL != "" {
		lines = append(lines, "Concept Image URL: "+strings.TrimSpace(conceptImageURL))
	}
	return strings.Join(lines, "\n")
}

// BuildVideoPromptSystem is the system instruction for deriving the final
// video prompt from the storyboard.
func BuildVideoPromptSystem(duration, fps int, outputLanguage string) string {
	return strings.Join([]string{
		"Task: Generate a video prompt based on the storyboard logic.",
		"Constraints:",
		fmt.Sprintf("- Duration: %d seconds; FPS: %d.", duration, fps),
		"- Keep the original plot intact.",
		"- Describe camera movement and pacing.",
		"- No emoji.",
		OutputLanguageRule(outputLanguage),
	}, "\n")
}

// BuildVideoPromptPrompt composes the user prompt for the video prompt step.
func BuildVideoPromptPrompt(storyboardPrompt, originalPlot string) string {
	return strings.Join([]string{
		"Storyboard Prompt: " + strings.TrimSpace(storyboardPrompt),
		"Original Plot: " + strings.TrimSpace(originalPlot),
	}, "\n")
}
