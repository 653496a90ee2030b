package rank

import (
	"sort"
	"strings"

	"github.com/danif1973/tour-guide-mobile/pkg/types"
)

// Promise-score contributions. Scores are additive across qualifying tag
// patterns and clamped to 1.0, so adding a qualifying tag never lowers a
// candidate's score.
const (
	// scoreCategory applies once when the place carries a tourism, historic,
	// or heritage designation.
	scoreCategory = 0.25

	// scoreReferenceLink applies per external reference tag (website,
	// wikipedia, wikidata, url).
	scoreReferenceLink = 0.03

	// scorePlaceSignificant applies when the place tag names an
	// administratively significant settlement or square.
	scorePlaceSignificant = 0.20

	// scoreNameVariant applies per localized name variant beyond
	// nameVariantFreebie, capped at scoreNameVariantCap.
	scoreNameVariant    = 0.02
	scoreNameVariantCap = 0.10
	nameVariantFreebie  = 3

	// scoreImage applies once when the place has an image reference.
	scoreImage = 0.05

	// scoreBuildingSignificant applies when the building tag names a
	// landmark-grade structure.
	scoreBuildingSignificant = 0.15
)

var categoryKeys = []string{"tourism", "historic", "heritage"}

var referenceLinkKeys = []string{"website", "wikipedia", "wikidata", "url"}

var significantPlaceTypes = map[string]bool{
	"city":    true,
	"town":    true,
	"square":  true,
	"suburb":  true,
	"village": true,
	"borough": true,
}

var significantBuildingTypes = map[string]bool{
	"cathedral": true,
	"church":    true,
	"chapel":    true,
	"castle":    true,
	"palace":    true,
	"museum":    true,
	"temple":    true,
	"mosque":    true,
	"synagogue": true,
	"monastery": true,
	"ruins":     true,
}

var imageKeys = []string{"image", "wikimedia_commons"}

// promiseScore computes the heuristic [0, 1] relevance estimate for a
// candidate from its tags.
func promiseScore(p types.Place) float32 {
	score := 0.0

	for _, k := range categoryKeys {
		if p.Tags[k] != "" {
			score += scoreCategory
			break
		}
	}

	for _, k := range referenceLinkKeys {
		if p.Tags[k] != "" {
			score += scoreReferenceLink
		}
	}

	if significantPlaceTypes[p.Tags["place"]] {
		score += scorePlaceSignificant
	}

	if variants := countNameVariants(p.Tags); variants > nameVariantFreebie {
		bonus := float64(variants-nameVariantFreebie) * scoreNameVariant
		if bonus > scoreNameVariantCap {
			bonus = scoreNameVariantCap
		}
		score += bonus
	}

	for _, k := range imageKeys {
		if p.Tags[k] != "" {
			score += scoreImage
			break
		}
	}

	if significantBuildingTypes[p.Tags["building"]] {
		score += scoreBuildingSignificant
	}

	if score > 1.0 {
		score = 1.0
	}
	return float32(score)
}

// countNameVariants counts localized name tags (name:xx).
func countNameVariants(tags map[string]string) int {
	n := 0
	for k, v := range tags {
		if strings.HasPrefix(k, "name:") && v != "" {
			n++
		}
	}
	return n
}

// classifyKeys is the tag precedence used to derive the public
// category/type pair.
var classifyKeys = []string{"tourism", "historic", "amenity", "place", "building"}

// classify returns the winning tag key and value for a place, or empty
// strings when no classifying tag is present.
func classify(tags map[string]string) (category, placeType string) {
	for _, k := range classifyKeys {
		if v := tags[k]; v != "" {
			return k, v
		}
	}
	return "", ""
}

// median returns the median of values. The slice is sorted in place.
// Returns 0 for an empty slice.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}
