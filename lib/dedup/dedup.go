package dedup

import (
	"diningsync/lib/food"
	"diningsync/lib/history"
	"diningsync/lib/textutil"
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"
)

// FilterNew returns the records of batch whose identity key is neither in
// hist nor repeated earlier in the batch, in their original order.
//
// hist is only read, keys seen here are tracked in a working copy so that
// nothing lands in the durable history before it is actually uploaded.
func FilterNew(batch []food.Record, hist *history.Set) ([]food.Record, error) {
	res, err := Filter{Policy: PolicyFail}.Run(batch, hist)
	if err != nil {
		return nil, err
	}
	return res.New, nil
}

// Policy decides what happens to a record that has no identity key.
type Policy string

const (
	// PolicyFail rejects the whole batch.
	PolicyFail Policy = "fail"
	// PolicySkip drops the record and lists it in Result.Malformed.
	PolicySkip Policy = "skip"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(s)) {
	case "", PolicyFail:
		return PolicyFail, nil
	case PolicySkip:
		return PolicySkip, nil
	}
	return "", fmt.Errorf("unknown malformed record policy '%s'", s)
}

const DefaultSimilarityThreshold = 0.94

type Filter struct {
	Policy Policy
	// SimilarityThreshold is the Jaro-Winkler score above which a new
	// record is reported as a near match of something already in history,
	// 0 disables the check.
	SimilarityThreshold float64
}

type Malformed struct {
	// Index is the position of the record in the batch.
	Index  int
	Record food.Record
	Err    error
}

// NearMatch is a new key whose food name looks a lot like one already
// uploaded, most likely the same food with a different calorie count.
type NearMatch struct {
	Key     string
	Similar string
	Score   float64
}

type Result struct {
	New []food.Record
	// SkippedHistory counts records already confirmed in a previous run.
	SkippedHistory int
	// SkippedBatch counts repeats of a key earlier in the same batch.
	SkippedBatch int
	Malformed    []Malformed
	NearMatches  []NearMatch
}

func (f Filter) Run(batch []food.Record, hist *history.Set) (Result, error) {
	res := Result{New: []food.Record{}}
	seen := hist.Clone()

	for i, rec := range batch {
		key, err := rec.IdentityKey()
		if err != nil {
			if f.Policy == PolicySkip {
				res.Malformed = append(res.Malformed, Malformed{Index: i, Record: rec, Err: err})
				continue
			}
			return Result{}, fmt.Errorf("record %d: %w", i, err)
		}

		if seen.Has(key) {
			if hist.Has(key) {
				res.SkippedHistory++
			} else {
				res.SkippedBatch++
			}
			continue
		}
		seen.Add(key)
		res.New = append(res.New, rec)
	}

	if f.SimilarityThreshold > 0 {
		res.NearMatches = nearMatches(res.New, hist, f.SimilarityThreshold)
	}
	return res, nil
}

func nearMatches(records []food.Record, hist *history.Set, threshold float64) []NearMatch {
	type known struct {
		key        string
		normalized string
	}
	var names []known
	for _, key := range hist.Keys() {
		name, _ := food.SplitKey(key)
		names = append(names, known{key: key, normalized: textutil.NormalizeName(name)})
	}

	var out []NearMatch
	for _, rec := range records {
		key, _ := rec.IdentityKey()
		normalized := textutil.NormalizeName(rec.Name)

		best := NearMatch{}
		for _, k := range names {
			score := matchr.JaroWinkler(normalized, k.normalized, false)
			if score > best.Score {
				best = NearMatch{Key: key, Similar: k.key, Score: score}
			}
		}
		if best.Score >= threshold {
			out = append(out, best)
		}
	}
	return out
}
