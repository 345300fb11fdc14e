package reportgen

import (
	"io/fs"

	"github.com/goliatone/go-reportgen/pkg/renderers/preview"
)

// EmbeddedTemplates exposes the built-in preview templates so callers can
// reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return preview.TemplatesFS()
}

// PreviewAssetsFS exposes the preview stylesheet so hosts can serve it
// instead of inlining it:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(reportgen.PreviewAssetsFS()),
//	  ),
//	)
func PreviewAssetsFS() fs.FS {
	return preview.AssetsFS()
}
