package port

type FileWalker interface {
	Walk(root string) ([]FileInfo, error)

	// Match reports whether a slash-separated relative path passes the
	// walker's filters.
	Match(relPath string, size int64) bool
}

type FileInfo struct {
	Path    string
	RelPath string
	ModTime int64
	Size    int64
}
