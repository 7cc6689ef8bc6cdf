// Package ranker scores fetched items by recency, source diversity and an optional momentum signal,
// and extracts keyword trends of a run.
package ranker

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/newsdraft/pkg/domain"
	"github.com/umputun/newsdraft/pkg/source"
)

// clusterWords is the number of leading title words forming the cluster key
const clusterWords = 5

// Momentum provides an external popularity signal per keyword, values are in [0,1]
type Momentum interface {
	Signals(ctx context.Context, keywords []string) (map[string]float64, error)
}

// Config defines scoring weights
type Config struct {
	HalfLife         time.Duration
	DiversityPenalty float64
	MomentumWeight   float64
	MaxCandidates    int
	MaxTrends        int
}

// Options of a single ranking call
type Options struct {
	Max      int            // result bound, Config.MaxCandidates if zero
	Now      time.Time      // run time, time.Now if zero
	Priority map[int64]int  // source id to user priority, lower wins ties
	Trends   []domain.Trend // trends with momentum already resolved, fetched by Rank if nil
}

// Ranker picks the best candidates of a run
type Ranker struct {
	cfg      Config
	momentum Momentum
}

// New makes a ranker, momentum is optional
func New(cfg Config, momentum Momentum) *Ranker {
	if cfg.HalfLife <= 0 {
		cfg.HalfLife = 24 * time.Hour
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 6
	}
	if cfg.MaxTrends <= 0 {
		cfg.MaxTrends = 5
	}
	return &Ranker{cfg: cfg, momentum: momentum}
}

// Rank scores items and returns at most opts.Max candidates with distinct cluster keys.
// Momentum failures degrade to recency and diversity only.
func (r *Ranker) Rank(ctx context.Context, items []domain.Item, opts Options) []domain.RankedCandidate {
	if len(items) == 0 {
		return []domain.RankedCandidate{}
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	limit := opts.Max
	if limit <= 0 {
		limit = r.cfg.MaxCandidates
	}

	scores := make([]float64, len(items))
	for i, it := range items {
		scores[i] = r.recency(it.Published, now)
	}
	r.applyDiversity(items, scores)

	trends := opts.Trends
	if trends == nil {
		trends = r.Trends(ctx, items)
	}
	r.applyMomentum(items, scores, trends)

	// keep the best item of every cluster
	best := map[string]domain.RankedCandidate{}
	for i, it := range items {
		c := domain.RankedCandidate{Item: it, Score: scores[i], ClusterKey: ClusterKey(it.Title)}
		if prev, ok := best[c.ClusterKey]; !ok || less(c, prev, opts.Priority) {
			best[c.ClusterKey] = c
		}
	}

	res := make([]domain.RankedCandidate, 0, len(best))
	for _, c := range best {
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool { return less(res[i], res[j], opts.Priority) })
	if len(res) > limit {
		res = res[:limit]
	}
	return res
}

// Trends extracts keyword trends of the items and resolves their momentum if a momentum source is set
func (r *Ranker) Trends(ctx context.Context, items []domain.Item) []domain.Trend {
	trends := ExtractTrends(items, r.cfg.MaxTrends)
	if r.momentum == nil || len(trends) == 0 {
		return trends
	}

	keywords := make([]string, len(trends))
	for i, t := range trends {
		keywords[i] = t.Keyword
	}
	signals, err := r.momentum.Signals(ctx, keywords)
	if err != nil {
		lgr.Printf("[WARN] momentum signal unavailable, ranking without it: %v", err)
		return trends
	}
	for i := range trends {
		trends[i].Momentum = clamp01(signals[trends[i].Keyword])
	}
	return trends
}

// recency decays exponentially with age, undated items count as half a day old
func (r *Ranker) recency(published, now time.Time) float64 {
	if published.IsZero() {
		published = now.Add(-12 * time.Hour)
	}
	age := now.Sub(published)
	if age < 0 {
		age = 0
	}
	return math.Exp(-math.Ln2 * float64(age) / float64(r.cfg.HalfLife))
}

// applyDiversity multiplies the k-th item of a source, newest first, by 1/(1+penalty*k)
func (r *Ranker) applyDiversity(items []domain.Item, scores []float64) {
	bySource := map[string][]int{}
	for i, it := range items {
		key := sourceKey(it)
		bySource[key] = append(bySource[key], i)
	}
	for _, idx := range bySource {
		sort.SliceStable(idx, func(a, b int) bool { return items[idx[a]].Published.After(items[idx[b]].Published) })
		for k, i := range idx {
			scores[i] /= 1 + r.cfg.DiversityPenalty*float64(k)
		}
	}
}

// applyMomentum adds weight*signal of the strongest trend mentioned by an item as a whole word
func (r *Ranker) applyMomentum(items []domain.Item, scores []float64, trends []domain.Trend) {
	if r.cfg.MomentumWeight == 0 {
		return
	}
	for i, it := range items {
		words := map[string]bool{}
		for _, w := range wordRe.FindAllString(strings.ToLower(it.Title+" "+it.Summary), -1) {
			words[w] = true
		}
		signal := 0.0
		for _, t := range trends {
			if t.Momentum > signal && words[t.Keyword] {
				signal = t.Momentum
			}
		}
		scores[i] += r.cfg.MomentumWeight * signal
	}
}

// ClusterKey is the normalized first five words of a title
func ClusterKey(title string) string {
	words := strings.Fields(source.NormalizeTitle(title))
	if len(words) > clusterWords {
		words = words[:clusterWords]
	}
	return strings.Join(words, " ")
}

// less orders by score desc, published desc, source priority asc and link as the final tie breaker
func less(a, b domain.RankedCandidate, priority map[int64]int) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.Item.Published.Equal(b.Item.Published) {
		return a.Item.Published.After(b.Item.Published)
	}
	pa, pb := priorityOf(priority, a.Item.SourceID), priorityOf(priority, b.Item.SourceID)
	if pa != pb {
		return pa < pb
	}
	return a.Item.Link < b.Item.Link
}

func priorityOf(priority map[int64]int, id int64) int {
	if p, ok := priority[id]; ok {
		return p
	}
	return math.MaxInt32
}

func sourceKey(it domain.Item) string {
	if it.SourceID != 0 {
		return "id:" + strconv.FormatInt(it.SourceID, 10)
	}
	return "name:" + it.SourceName
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
