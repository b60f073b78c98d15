package job

import (
	"sort"
	"strings"

	"github.com/hitoshi/jobtrack/internal/model"
)

// Apply はQueryをインメモリの応募記録列に対して評価し、
// 要求されたページと、ページネーション前のフィルタ一致総数を返す。
// Mongoの集約パイプライン（$match → $sort → $facet）と同一の結果を
// 返すことが求められる。範囲外ページの切り詰めは行わない（空ページ + 総数）。
func Apply(jobs []model.Job, q *Query) ([]model.Job, int) {
	filtered := make([]model.Job, 0, len(jobs))
	for _, j := range jobs {
		if matches(&j, q) {
			filtered = append(filtered, j)
		}
	}

	// 応募日でソート。同日はもとの並び順を維持する。
	sort.SliceStable(filtered, func(i, k int) bool {
		if q.Sort == SortOldest {
			return filtered[i].Date.Before(filtered[k].Date)
		}
		return filtered[i].Date.After(filtered[k].Date)
	})

	total := len(filtered)

	start := q.Offset()
	if start >= total {
		return []model.Job{}, total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}

	page := make([]model.Job, end-start)
	copy(page, filtered[start:end])
	return page, total
}

// matches は1件の応募記録がフィルタ条件の論理積を満たすかを判定する。
func matches(j *model.Job, q *Query) bool {
	if len(q.Companies) > 0 && !contains(q.Companies, j.Company) {
		return false
	}
	if len(q.Positions) > 0 && !contains(q.Positions, j.Position) {
		return false
	}
	if len(q.Stages) > 0 && !contains(q.Stages, j.Stage) {
		return false
	}
	if q.DateFrom != nil && j.Date.Before(*q.DateFrom) {
		return false
	}
	if q.DateTo != nil && j.Date.After(*q.DateTo) {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(j.Company), needle) &&
			!strings.Contains(strings.ToLower(j.Position), needle) &&
			!strings.Contains(strings.ToLower(j.Stage), needle) {
			return false
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
