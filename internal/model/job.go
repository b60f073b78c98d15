// Package model はドメインモデルを定義する。
package model

import "time"

// Job は1件の応募記録を表す。
// IDは所有ユーザーのjobs配列内で一意（ObjectIDの16進表現）。
type Job struct {
	ID       string
	Company  string
	Position string
	Date     time.Time
	Stage    string // 選考ステージ（自由記述、空文字も有効な値）
}

// JobPatch は応募記録の部分更新を表す。
// nilフィールドは変更しない。空文字列のStageは「値を空にする」更新として扱う。
type JobPatch struct {
	Company  *string
	Position *string
	Date     *time.Time
	Stage    *string
}

// IsEmpty は更新対象フィールドが1つも指定されていない場合にtrueを返す。
func (p *JobPatch) IsEmpty() bool {
	return p.Company == nil && p.Position == nil && p.Date == nil && p.Stage == nil
}
