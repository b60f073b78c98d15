// Package model はドメインモデルを定義する。
package model

// User はサービス利用ユーザーを表す。
// 応募記録（Job）はユーザードキュメント内の配列として埋め込まれる。
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Jobs         []Job
}

// Identity は認証済みリクエストの主体を表す。
// トークンのクレームから復元され、リクエストコンテキストに注入される。
type Identity struct {
	UserID   string
	Username string
}
