package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

// Result is the verdict for one validation call. It is transient and
// consumed immediately to gate submission.
type Result struct {
	IsValid         bool   `json:"isValid"`
	Feedback        string `json:"feedback"`
	SuggestedAction string `json:"suggestedAction"`
}

const (
	unavailableFeedback   = "Image validation service is temporarily unavailable, so the photo could not be verified."
	unavailableSuggestion = "Please try submitting again in a few minutes."
	acceptSuggestion      = "Proceed with the submission."
	rejectSuggestion      = "Upload a clear photo that shows the reported issue."
)

// Validator asks the generation API whether a photo plausibly shows the
// reported issue, then extracts a verdict from whatever text comes back.
type Validator struct {
	gen Generator
}

func NewValidator(gen Generator) *Validator {
	return &Validator{gen: gen}
}

func buildPrompt(complaintType, description string) string {
	return fmt.Sprintf(`You are validating a photo attached to a civic complaint.
Complaint type: %q
Complaint description: %q

Apply strict criteria: the image must visibly depict the named issue type and
be consistent with the description. A generic street photo, an unrelated
object, or an unreadable image is NOT valid.

Respond with only a JSON object of this exact shape:
{"isValid": true or false, "feedback": "one or two sentences for the citizen", "suggestedAction": "what the citizen should do next"}`,
		complaintType, description)
}

// Validate runs one generation call and always returns a well-formed
// verdict. Transport or API failure degrades to a negative result instead
// of an error so that a flaky provider cannot crash submission.
func (v *Validator) Validate(ctx context.Context, image []byte, mimeType, complaintType, description string) Result {
	raw, err := v.gen.Generate(ctx, buildPrompt(complaintType, description), image, mimeType)
	if err != nil {
		log.Printf("Image validation call failed: %v", err)
		return Result{
			IsValid:         false,
			Feedback:        unavailableFeedback,
			SuggestedAction: unavailableSuggestion,
		}
	}

	return parseVerdict(raw)
}

// parseVerdict extracts a Result from the model's reply, trying three
// tiers in order: a strict JSON parse, a parse of the first embedded
// {...} object, and finally a keyword heuristic over the raw text.
func parseVerdict(raw string) Result {
	trimmed := strings.TrimSpace(raw)

	// Tier 1: the whole reply is the JSON object we asked for
	var direct rawVerdict
	if err := json.Unmarshal([]byte(trimmed), &direct); err == nil && direct.IsValid != nil {
		return direct.toResult()
	}

	// Tier 2: JSON embedded in surrounding prose
	if candidate, ok := extractJSONObject(trimmed); ok {
		var embedded rawVerdict
		if err := json.Unmarshal([]byte(candidate), &embedded); err == nil {
			return embedded.toResult()
		}
	}

	// Tier 3: keyword heuristic over free text
	lower := strings.ToLower(trimmed)
	isValid := strings.Contains(lower, "valid") &&
		!strings.Contains(lower, "not valid") &&
		!strings.Contains(lower, "invalid")

	suggestion := rejectSuggestion
	if isValid {
		suggestion = acceptSuggestion
	}

	return Result{
		IsValid:         isValid,
		Feedback:        "Automated review of the photo: " + trimmed,
		SuggestedAction: suggestion,
	}
}

// rawVerdict tolerates partial objects; missing fields get derived text
type rawVerdict struct {
	IsValid         *bool  `json:"isValid"`
	Feedback        string `json:"feedback"`
	SuggestedAction string `json:"suggestedAction"`
}

func (r rawVerdict) toResult() Result {
	isValid := r.IsValid != nil && *r.IsValid

	feedback := r.Feedback
	if feedback == "" {
		if isValid {
			feedback = "The photo matches the reported issue."
		} else {
			feedback = "The photo does not appear to match the reported issue."
		}
	}

	suggestion := r.SuggestedAction
	if suggestion == "" {
		if isValid {
			suggestion = acceptSuggestion
		} else {
			suggestion = rejectSuggestion
		}
	}

	return Result{IsValid: isValid, Feedback: feedback, SuggestedAction: suggestion}
}

// extractJSONObject returns the first balanced {...} span in s
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
