package shotbench

import "sort"

// Bucket counts review progress for one slice of the benchmark.
type Bucket struct {
	Total      int `json:"total"`
	Reviewed   int `json:"reviewed"`
	SBMistakes int `json:"sb_mistakes"`
	RSMistakes int `json:"rs_mistakes"`
}

type Overall struct {
	TotalSamples  int `json:"total_samples"`
	TotalReviewed int `json:"total_reviewed"`
	Pending       int `json:"pending"`
	SBMistakes    int `json:"sb_mistakes"`
	RSMistakes    int `json:"rs_mistakes"`
}

// Stats is the /api/stats payload: progress overall, broken down by
// category, modality, and their cross product, plus mistake type tallies.
type Stats struct {
	Overall            Overall            `json:"overall"`
	ByCategory         map[string]*Bucket `json:"by_category"`
	ByModality         map[string]*Bucket `json:"by_modality"`
	ByCategoryModality map[string]*Bucket `json:"by_category_modality"`
	SBMistakeTypes     map[string]int     `json:"sb_mistake_types"`
	RSMistakeTypes     map[string]int     `json:"rs_mistake_types"`
}

func bucket(m map[string]*Bucket, key string) *Bucket {
	b, ok := m[key]
	if !ok {
		b = &Bucket{}
		m[key] = b
	}
	return b
}

// ComputeStats aggregates reviews against the ShotBench sample set.
func ComputeStats(samples []Sample, reviews map[int]*Review) *Stats {
	stats := &Stats{
		ByCategory:         map[string]*Bucket{},
		ByModality:         map[string]*Bucket{},
		ByCategoryModality: map[string]*Bucket{},
		SBMistakeTypes:     map[string]int{},
		RSMistakeTypes:     map[string]int{},
	}

	for _, sample := range samples {
		category := sample.Category()
		modality := sample.Type()
		buckets := []*Bucket{
			bucket(stats.ByCategory, category),
			bucket(stats.ByModality, modality),
			bucket(stats.ByCategoryModality, modality+"_"+category),
		}
		for _, b := range buckets {
			b.Total++
		}

		review, ok := reviews[sample.Index()]
		if !ok {
			continue
		}
		for _, b := range buckets {
			b.Reviewed++
		}
		if review.ShotBenchMistake {
			for _, b := range buckets {
				b.SBMistakes++
			}
			if review.ShotBenchMistakeType != "" {
				stats.SBMistakeTypes[review.ShotBenchMistakeType]++
			}
		}
		if review.RefineShotMistake {
			for _, b := range buckets {
				b.RSMistakes++
			}
			if review.RefineShotMistakeType != "" {
				stats.RSMistakeTypes[review.RefineShotMistakeType]++
			}
		}
	}

	stats.Overall = Overall{
		TotalSamples:  len(samples),
		TotalReviewed: len(reviews),
		Pending:       len(samples) - len(reviews),
	}
	for _, review := range reviews {
		if review.ShotBenchMistake {
			stats.Overall.SBMistakes++
		}
		if review.RefineShotMistake {
			stats.Overall.RSMistakes++
		}
	}
	return stats
}

// Info describes both datasets plus review progress for /api/info.
type Info struct {
	ShotBench struct {
		Total      int            `json:"total"`
		ByModality map[string]int `json:"by_modality"`
		ByCategory map[string]int `json:"by_category"`
	} `json:"shotbench"`
	RefineShot struct {
		Total     int  `json:"total"`
		Available bool `json:"available"`
	} `json:"refineshot"`
	Annotations struct {
		Total        int `json:"total"`
		WithMistakes int `json:"with_mistakes"`
	} `json:"annotations"`
	Categories           []string          `json:"categories"`
	CategoryAbbrevs      map[string]string `json:"category_abbrevs"`
	CategoryDisplayNames map[string]string `json:"category_display_names"`
}

// BuildInfo summarizes the loaded datasets. Categories preserve the
// canonical order, with any unexpected values from the data appended.
func BuildInfo(shotbench, refineshot []Sample, reviews map[int]*Review) *Info {
	info := &Info{
		CategoryAbbrevs:      CategoryAbbrevs,
		CategoryDisplayNames: CategoryDisplayNames,
	}
	info.ShotBench.Total = len(shotbench)
	info.ShotBench.ByModality = map[string]int{}
	info.ShotBench.ByCategory = map[string]int{}
	for _, sample := range shotbench {
		info.ShotBench.ByModality[sample.Type()]++
		info.ShotBench.ByCategory[sample.Category()]++
	}

	info.RefineShot.Total = len(refineshot)
	info.RefineShot.Available = len(refineshot) > 0

	info.Annotations.Total = len(reviews)
	for _, review := range reviews {
		if review.HasMistake() {
			info.Annotations.WithMistakes++
		}
	}

	seen := map[string]bool{}
	for _, category := range Categories {
		if info.ShotBench.ByCategory[category] > 0 {
			info.Categories = append(info.Categories, category)
			seen[category] = true
		}
	}
	var extra []string
	for category := range info.ShotBench.ByCategory {
		if !seen[category] {
			extra = append(extra, category)
		}
	}
	sort.Strings(extra)
	info.Categories = append(info.Categories, extra...)
	return info
}
