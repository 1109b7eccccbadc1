// Package errdef defines the error classes of a fetch run. Manifest and
// filesystem errors abort the run before or at setup; download and
// extraction errors belong to a single item and the run continues past them.
package errdef

import "github.com/m-mizutani/goerr/v2"

var (
	TagManifest   = goerr.NewTag("manifest")
	TagFilesystem = goerr.NewTag("filesystem")
	TagDownload   = goerr.NewTag("download")
	TagExtraction = goerr.NewTag("extraction")
)

// IsFatal reports whether err should abort the whole run rather than be
// recorded against one manifest item.
func IsFatal(err error) bool {
	return goerr.HasTag(err, TagManifest) || goerr.HasTag(err, TagFilesystem)
}

func IsDownload(err error) bool {
	return goerr.HasTag(err, TagDownload)
}

func IsExtraction(err error) bool {
	return goerr.HasTag(err, TagExtraction)
}
