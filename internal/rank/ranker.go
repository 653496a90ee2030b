// Package rank filters and orders raw place candidates into the small,
// relevant subset worth narrating.
//
// The pipeline runs a fixed stage order: name normalization, history
// filter, tag-exclusion rules, promise scoring with distance, sorting, MAD
// outlier removal, adaptive threshold with truncation, name deduplication,
// and finally history recording. Every stage may empty the working set;
// that is a valid result and short-circuits the remaining stages.
package rank

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/danif1973/tour-guide-mobile/internal/geo"
	"github.com/danif1973/tour-guide-mobile/internal/history"
	"github.com/danif1973/tour-guide-mobile/pkg/types"
)

// madFactor is the outlier cutoff multiplier: candidates scoring below
// median − madFactor·MAD are removed.
const madFactor = 2.0

// Condition is a single key/value match within an exclusion rule. An empty
// Value matches any candidate where Key is present and non-empty.
type Condition struct {
	Key   string
	Value string
}

// Rule is a conjunction of conditions: a candidate is dropped when every
// condition of the rule matches it.
type Rule []Condition

// ParseRules converts the configured "key:value" string form into [Rule]
// values. Each inner slice is one rule; each string is one condition, split
// at the first colon ("highway:" means "highway present and non-empty").
func ParseRules(raw [][]string) ([]Rule, error) {
	rules := make([]Rule, 0, len(raw))
	for i, conds := range raw {
		if len(conds) == 0 {
			return nil, fmt.Errorf("rank: exclusion rule %d is empty", i)
		}
		rule := make(Rule, 0, len(conds))
		for _, c := range conds {
			key, value, found := strings.Cut(c, ":")
			if !found || key == "" {
				return nil, fmt.Errorf("rank: exclusion rule %d: condition %q is not key:value", i, c)
			}
			rule = append(rule, Condition{Key: key, Value: value})
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Config holds the ranking knobs.
type Config struct {
	// ImportanceThreshold is the configured floor of the adaptive score
	// cutoff, in [0, 1].
	ImportanceThreshold float64

	// MaxResults caps the result count after threshold filtering.
	// Zero means unlimited.
	MaxResults int

	// ExcludeRules drops candidates matching any rule conjunction.
	ExcludeRules []Rule
}

// Ranker runs the filtering pipeline against a history store.
type Ranker struct {
	cfg  Config
	hist history.Store
	now  func() time.Time
}

// New creates a [Ranker]. hist must be non-nil.
func New(cfg Config, hist history.Store) *Ranker {
	return &Ranker{cfg: cfg, hist: hist, now: time.Now}
}

// Process runs the full pipeline over raw candidates queried around the
// given center. It never fails: filtering down to an empty result is a
// normal outcome, and history-store errors degrade to "not seen" so a
// flaky store can only cause repeats, never drop content.
func (r *Ranker) Process(ctx context.Context, raw []types.Place, centerLat, centerLon float64) []types.PlaceInfo {
	if len(raw) == 0 {
		return nil
	}
	now := r.now()

	candidates := normalizeNames(raw)

	candidates = r.filterSeen(ctx, candidates, now)
	if len(candidates) == 0 {
		return nil
	}

	candidates = filterTags(candidates, r.cfg.ExcludeRules)
	if len(candidates) == 0 {
		return nil
	}

	ranked := scoreAll(candidates, centerLat, centerLon)

	sortRanked(ranked)

	ranked = removeOutliers(ranked)
	if len(ranked) == 0 {
		return nil
	}

	ranked = r.applyAdaptiveThreshold(ranked)
	if len(ranked) == 0 {
		return nil
	}

	ranked = dedupeByName(ranked)

	r.record(ctx, ranked, now)

	return toPlaceInfos(ranked)
}

// normalizeNames promotes localized name and description tags to the
// canonical keys so every later stage reads a single field. Candidates are
// copied; the raw input is never mutated.
func normalizeNames(raw []types.Place) []types.Place {
	out := make([]types.Place, 0, len(raw))
	for _, p := range raw {
		c := p.CloneTags()
		promoteLocalized(c.Tags, "name")
		promoteLocalized(c.Tags, "description")
		out = append(out, c)
	}
	return out
}

// promoteLocalized copies a localized variant of key (key:en preferred,
// else the lexicographically first key:xx) into key when the canonical tag
// is missing.
func promoteLocalized(tags map[string]string, key string) {
	if tags[key] != "" {
		return
	}
	if v := tags[key+":en"]; v != "" {
		tags[key] = v
		return
	}
	prefix := key + ":"
	best := ""
	for k, v := range tags {
		if !strings.HasPrefix(k, prefix) || v == "" {
			continue
		}
		if best == "" || k < best {
			best = k
		}
	}
	if best != "" {
		tags[key] = tags[best]
	}
}

// filterSeen purges expired history entries and drops candidates already
// surfaced within the TTL. Candidates without a derivable identifier are
// always novel.
func (r *Ranker) filterSeen(ctx context.Context, candidates []types.Place, now time.Time) []types.Place {
	if err := r.hist.PurgeExpired(ctx, now); err != nil {
		slog.Warn("history purge failed", "err", err)
	}

	out := candidates[:0]
	for _, p := range candidates {
		id, ok := history.DeriveID(p)
		if !ok {
			out = append(out, p)
			continue
		}
		seen, err := r.hist.Seen(ctx, id, now)
		if err != nil {
			slog.Warn("history lookup failed, treating as unseen", "id", id, "err", err)
			seen = false
		}
		if !seen {
			out = append(out, p)
		}
	}
	return out
}

// filterTags drops every candidate fully matched by at least one exclusion
// rule. With no configured rules this is a no-op.
func filterTags(candidates []types.Place, rules []Rule) []types.Place {
	if len(rules) == 0 {
		return candidates
	}
	out := candidates[:0]
	for _, p := range candidates {
		if !matchesAnyRule(p, rules) {
			out = append(out, p)
		}
	}
	return out
}

func matchesAnyRule(p types.Place, rules []Rule) bool {
	for _, rule := range rules {
		if matchesRule(p, rule) {
			return true
		}
	}
	return false
}

func matchesRule(p types.Place, rule Rule) bool {
	for _, cond := range rule {
		v, present := p.Tags[cond.Key]
		if cond.Value == "" {
			if !present || v == "" {
				return false
			}
			continue
		}
		if v != cond.Value {
			return false
		}
	}
	return true
}

// scoreAll computes the promise score and query distance for every
// candidate in one pass.
func scoreAll(candidates []types.Place, centerLat, centerLon float64) []types.RankedPlace {
	ranked := make([]types.RankedPlace, 0, len(candidates))
	for _, p := range candidates {
		ranked = append(ranked, types.RankedPlace{
			Place:          p,
			DistanceMeters: geo.Haversine(centerLat, centerLon, p.Lat, p.Lon),
			PromiseScore:   promiseScore(p),
		})
	}
	return ranked
}

// sortRanked orders descending by promise score, ties broken ascending by
// distance.
func sortRanked(ranked []types.RankedPlace) {
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].PromiseScore != ranked[j].PromiseScore {
			return ranked[i].PromiseScore > ranked[j].PromiseScore
		}
		return ranked[i].DistanceMeters < ranked[j].DistanceMeters
	})
}

// removeOutliers drops candidates scoring below median − 2·MAD. This guards
// against a long tail of near-zero scores dragging down the adaptive mean
// in the next stage. The point closest to the median is never removed.
func removeOutliers(ranked []types.RankedPlace) []types.RankedPlace {
	if len(ranked) < 3 {
		return ranked
	}

	scores := make([]float64, len(ranked))
	for i, rp := range ranked {
		scores[i] = float64(rp.PromiseScore)
	}
	med := median(append([]float64(nil), scores...))

	devs := make([]float64, len(scores))
	for i, s := range scores {
		d := s - med
		if d < 0 {
			d = -d
		}
		devs[i] = d
	}
	mad := median(devs)

	cutoff := med - madFactor*mad
	out := ranked[:0]
	for _, rp := range ranked {
		if float64(rp.PromiseScore) >= cutoff {
			out = append(out, rp)
		}
	}
	return out
}

// applyAdaptiveThreshold keeps candidates at or above
// max(configured threshold, mean score of the surviving set), then
// truncates to MaxResults.
func (r *Ranker) applyAdaptiveThreshold(ranked []types.RankedPlace) []types.RankedPlace {
	sum := 0.0
	for _, rp := range ranked {
		sum += float64(rp.PromiseScore)
	}
	mean := sum / float64(len(ranked))

	cutoff := r.cfg.ImportanceThreshold
	if mean > cutoff {
		cutoff = mean
	}

	out := ranked[:0]
	for _, rp := range ranked {
		if float64(rp.PromiseScore) >= cutoff {
			out = append(out, rp)
		}
	}
	if r.cfg.MaxResults > 0 && len(out) > r.cfg.MaxResults {
		out = out[:r.cfg.MaxResults]
	}
	return out
}

// dedupeByName keeps one candidate per case-insensitive trimmed name.
// The slice is already sorted best-first, so the first occurrence is the
// higher-scoring one. Unnamed candidates deduplicate by derived identifier;
// candidates with neither are kept unconditionally.
func dedupeByName(ranked []types.RankedPlace) []types.RankedPlace {
	seen := make(map[string]bool, len(ranked))
	out := ranked[:0]
	for _, rp := range ranked {
		key := strings.ToLower(strings.TrimSpace(rp.Name()))
		if key == "" {
			id, ok := history.DeriveID(rp.Place)
			if !ok {
				out = append(out, rp)
				continue
			}
			key = "\x00id:" + id
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rp)
	}
	return out
}

// record marks every survivor in history so it is not surfaced again within
// the TTL. Store errors are logged, not propagated: a failed write can only
// cause a repeat later.
func (r *Ranker) record(ctx context.Context, ranked []types.RankedPlace, now time.Time) {
	for _, rp := range ranked {
		id, ok := history.DeriveID(rp.Place)
		if !ok {
			continue
		}
		if err := r.hist.Record(ctx, id, now); err != nil {
			slog.Warn("history record failed", "id", id, "err", err)
		}
	}
}

// toPlaceInfos converts the final ranked set to the public shape, assigning
// the output rank.
func toPlaceInfos(ranked []types.RankedPlace) []types.PlaceInfo {
	out := make([]types.PlaceInfo, 0, len(ranked))
	for i, rp := range ranked {
		category, placeType := classify(rp.Tags)
		out = append(out, types.PlaceInfo{
			Name:           rp.Name(),
			Lat:            rp.Lat,
			Lon:            rp.Lon,
			Category:       category,
			Type:           placeType,
			PromiseScore:   float64(rp.PromiseScore),
			Importance:     rp.Importance,
			Rank:           i,
			DistanceMeters: rp.DistanceMeters,
			Tags:           rp.Tags,
			OSMType:        rp.OSMType,
			OSMID:          rp.OSMID,
		})
	}
	return out
}
