// Package summarizer defines the Provider interface for place-narration
// backends.
//
// A summarizer wraps an LLM API and produces a short spoken-style summary of
// one place within a sentence budget. A successful call whose text merely
// says "I have no information about this place" is a valid result — the
// narration layer screens such texts afterwards; providers must not try to
// detect or suppress them.
//
// Implementors must be safe for concurrent use and must propagate context
// cancellation promptly.
package summarizer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/danif1973/tour-guide-mobile/pkg/types"
)

// Request carries everything a summarizer needs for one place.
type Request struct {
	// Place is the structured place description to narrate.
	Place types.PlaceInfo

	// MaxSentences caps the summary length. Must be positive.
	MaxSentences int

	// RelativeDirection is an optional hint like "to your right" woven into
	// the narration. Empty means the observer's heading is unknown.
	RelativeDirection string
}

// Provider is the abstraction over any narration backend.
//
// Summarize returns the generated text, or an error for hard failures
// (auth, transport, malformed response). Low-information text is NOT an
// error; it is returned as-is for the caller to screen.
type Provider interface {
	Summarize(ctx context.Context, req Request) (string, error)
}

// SystemPrompt is the guide persona shared by all narration backends.
const SystemPrompt = `You are a knowledgeable local tour guide speaking to a traveler through their car speakers. Describe the place you are given in flowing spoken prose suitable for text-to-speech: no lists, no headings, no URLs. Only state facts you are confident about. If you know nothing specific about this particular place, say that specific details are unavailable.`

// BuildUserPrompt renders the structured place plus the sentence budget and
// optional direction hint into the user message sent to the model. Shared
// by all backends so switching providers never changes narration inputs.
func BuildUserPrompt(req Request) string {
	var b strings.Builder

	name := req.Place.Name
	if name == "" {
		name = "an unnamed place"
	}
	fmt.Fprintf(&b, "Describe %s", name)
	if req.Place.Type != "" {
		fmt.Fprintf(&b, " (%s)", req.Place.Type)
	}
	if req.Place.DistanceMeters > 0 {
		fmt.Fprintf(&b, ", about %.0f meters away", req.Place.DistanceMeters)
	}
	if req.RelativeDirection != "" {
		fmt.Fprintf(&b, " %s", req.RelativeDirection)
	}
	fmt.Fprintf(&b, ", in at most %d sentences.\n", req.MaxSentences)

	if tags := narratableTags(req.Place.Tags); len(tags) > 0 {
		b.WriteString("Known attributes:\n")
		for _, t := range tags {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}
	return b.String()
}

// promptTagKeys are the tag keys worth showing to the model. Everything
// else (refs, import metadata, address minutiae) only wastes tokens.
var promptTagKeys = []string{
	"name", "tourism", "historic", "heritage", "amenity", "place", "building",
	"wikipedia", "wikidata", "website", "description", "start_date",
	"architect", "opening_hours", "cuisine", "religion", "denomination",
}

func narratableTags(tags map[string]string) []string {
	var out []string
	for _, k := range promptTagKeys {
		if v, ok := tags[k]; ok && v != "" {
			out = append(out, k+"="+v)
		}
	}
	sort.Strings(out)
	return out
}
