package api

import (
	"embed"
	"io/fs"
)

//go:embed web
var webFS embed.FS

// staticFS is rooted so that /static/js/... resolves to web/static/js/...
var staticFS = mustSub(webFS, "web")

var indexHTML = mustRead(staticFS, "index.html")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

func mustRead(fsys fs.FS, name string) []byte {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		panic(err)
	}
	return data
}
