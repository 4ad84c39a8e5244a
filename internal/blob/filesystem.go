package blob

import (
	"lifeexp/internal/infra/blob/fs"
)

// NewFilesystem returns a Store rooted at a local directory, creating it if
// needed.
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}
