// Package job は応募記録のクエリ構築と操作のビジネスロジックを提供する。
package job

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/jobtrack/internal/model"
)

// SortOrder は応募日によるソート方向を表す。
type SortOrder string

const (
	// SortNewest は応募日の降順（デフォルト）。
	SortNewest SortOrder = "newest"
	// SortOldest は応募日の昇順。
	SortOldest SortOrder = "oldest"
)

const (
	// DefaultPage はページ番号のデフォルト値。
	DefaultPage = 1
	// DefaultPageSize は1ページあたりの件数のデフォルト値。
	DefaultPageSize = 10
)

// dateOnlyLayout はdateFrom/dateToおよび応募日の入力形式。
const dateOnlyLayout = "2006-01-02"

// Query は応募記録一覧のフィルタ・ソート・ページネーション仕様を表す。
// Mongoの集約パイプラインとインメモリ評価（Apply）の両方がこの仕様を解釈し、
// 同一の入力と状態に対して同一の結果を返さなければならない。
type Query struct {
	Companies []string   // 完全一致のいずれか（ORセット）
	Positions []string   // 同上
	Stages    []string   // 同上
	DateFrom  *time.Time // 応募日の下限（その日の始まり、両端含む）
	DateTo    *time.Time // 応募日の上限（その日の終わりまで延長済み、両端含む）
	Search    string     // company/position/stageに対する大文字小文字無視の部分一致
	Sort      SortOrder
	Page      int // 1始まり
	PageSize  int
}

// ParseQuery はHTTPクエリパラメータからQueryを構築する。
// company/position/stageはカンマ区切りリスト、dateFrom/dateToは
// YYYY-MM-DDまたはRFC3339。解釈できない日付は黙殺せず検証エラーとして返す。
func ParseQuery(values url.Values) (*Query, error) {
	q := &Query{
		Companies: parseList(values.Get("company")),
		Positions: parseList(values.Get("position")),
		Stages:    parseList(values.Get("stage")),
		Search:    values.Get("q"),
		Sort:      SortNewest,
		Page:      parsePositive(values.Get("page"), DefaultPage),
		PageSize:  parsePositive(values.Get("pageSize"), DefaultPageSize),
	}

	if values.Get("sort") == string(SortOldest) {
		q.Sort = SortOldest
	}

	if v := values.Get("dateFrom"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return nil, model.NewValidationError(fmt.Sprintf("invalid dateFrom: %s", v))
		}
		q.DateFrom = &t
	}

	if v := values.Get("dateTo"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return nil, model.NewValidationError(fmt.Sprintf("invalid dateTo: %s", v))
		}
		// 上限はその日の終わりまで含める
		end := endOfDay(t)
		q.DateTo = &end
	}

	return q, nil
}

// Offset はページネーションのスキップ件数を返す。
func (q *Query) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// parseList はカンマ区切りの値をトリム済みリストに分解する。
// 空要素は除去し、結果が空の場合はnilを返す。
func parseList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parsePositive は1以上の整数として値を解釈する。
// 空または数値として解釈できない場合はデフォルト値、0はデフォルト値、負数は1を返す。
func parsePositive(v string, defaultVal int) int {
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n == 0 {
		return defaultVal
	}
	if n < 0 {
		return 1
	}
	return n
}

// parseDate はYYYY-MM-DDまたはRFC3339形式の日付を解釈する。
func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(dateOnlyLayout, v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}

// endOfDay は同日の23:59:59.999を返す。
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999_000_000, t.Location())
}
