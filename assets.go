package portfolio

import (
	"embed"
	"io/fs"
)

//go:embed assets/*.css assets/*.js
var embeddedAssets embed.FS

// AssetsFS exposes the stylesheet and script referenced by the default theme
// manifest so the page can be served without a separate static host.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(portfolio.AssetsFS()),
//	  ),
//	)
//
// The records component mounts it automatically under its base path.
func AssetsFS() fs.FS {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		return embeddedAssets
	}
	return sub
}
