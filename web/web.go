// Package web は画面HTMLと静的アセットをバイナリに埋め込んで提供する。
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticFiles embed.FS

// Assets は埋め込んだ静的アセットのルートをstatic/配下として返す。
func Assets() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// embedされたディレクトリ名が一致しない場合のみ起こるため到達しない
		panic(err)
	}
	return sub
}
