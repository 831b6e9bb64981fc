package domain

// MediaAsset is the staged identity of one upload.
type MediaAsset struct {
	// Ext is the lower-cased extension of the original filename, including the dot.
	Ext string
	// Name is the generated unique filename (token + Ext).
	Name string
	// Path is the absolute path the upload was written to.
	Path string
	// OriginalName is the client-supplied filename, kept for logging only.
	OriginalName string
}
