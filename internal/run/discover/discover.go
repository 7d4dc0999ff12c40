// Package discover finds existing runs whose theme matches a new task
// description, so related work lands in the same run instead of a
// fresh directory.
package discover

import (
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/rs/zerolog"

	"github.com/frago-dev/frago/internal/run"
)

const (
	// DefaultThreshold admits a run into suggestion lists.
	DefaultThreshold = 60
	// BestMatchThreshold is the stricter bar for auto-selection.
	BestMatchThreshold = 80
	// MaxSuggestions caps the suggestion list.
	MaxSuggestions = 5
)

// Match pairs a run with its similarity score against the query.
type Match struct {
	Info  run.Info
	Score int
}

// Discoverer scores stored runs against task descriptions.
type Discoverer struct {
	Store *run.Store
	Log   zerolog.Logger
}

// score takes the best of three fuzzy ratios so that word order, extra
// words, and partial overlap each get a chance to match.
func score(query, theme string) int {
	q := strings.ToLower(strings.TrimSpace(query))
	th := strings.ToLower(strings.TrimSpace(theme))
	if q == "" || th == "" {
		return 0
	}
	s := fuzzy.TokenSortRatio(q, th)
	if p := fuzzy.PartialRatio(q, th); p > s {
		s = p
	}
	if ts := fuzzy.TokenSetRatio(q, th); ts > s {
		s = ts
	}
	return s
}

// DiscoverSimilarRuns matches query against every existing run, archived
// included, and returns up to MaxSuggestions scoring at least threshold
// (DefaultThreshold when <= 0), ordered by score then recency, both
// descending.
func (d *Discoverer) DiscoverSimilarRuns(query string, threshold int) ([]Match, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	infos, err := d.Store.ListRuns("")
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, info := range infos {
		s := score(query, info.ThemeDescription)
		if s >= threshold {
			matches = append(matches, Match{Info: info, Score: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Info.LastAccessed.After(matches[j].Info.LastAccessed)
	})
	if len(matches) > MaxSuggestions {
		matches = matches[:MaxSuggestions]
	}
	d.Log.Debug().Str("query", query).Int("candidates", len(infos)).Int("matches", len(matches)).Msg("run discovery")
	return matches, nil
}

// FindBestMatch returns the single strongest match at or above
// BestMatchThreshold, or nil when nothing clears the bar.
func (d *Discoverer) FindBestMatch(query string) (*Match, error) {
	matches, err := d.DiscoverSimilarRuns(query, BestMatchThreshold)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}
