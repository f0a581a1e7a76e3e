package domain

// ScratchStorage is a process-scoped directory for working copies of images: best-effort copies
// of generated results and local downloads of remote images picked for recognition. Nothing in it
// is expected to survive a reset or a normal process exit.
type ScratchStorage interface {
	// WriteFile stores the data under the given file name and returns the full path.
	WriteFile(fileName string, data []byte) (string, error)
	// Purge removes all stored files.
	Purge() error
}
