package filesystem

import (
	"os"
	"path/filepath"
	"sync"

	"pictorlab.dev/pictor/pkg/common"
	"pictorlab.dev/pictor/pkg/pictor/domain"
)

// ScratchDirectory stores process-scoped working copies of images under a single directory.
// The directory is created lazily on the first write and removed entirely on Purge.
type ScratchDirectory struct {
	mutex sync.Mutex
	path  string
}

func NewScratchDirectory(config *common.Config) *ScratchDirectory {
	return &ScratchDirectory{
		path: config.GetStringOrDefault(domain.ConfigKeyScratchPath, filepath.Join(os.TempDir(), "pictor")),
	}
}

func (s *ScratchDirectory) FilePath(fileName string) string {
	return filepath.Join(s.path, fileName)
}

func (s *ScratchDirectory) WriteFile(fileName string, data []byte) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	err := os.MkdirAll(s.path, 0700)
	if err != nil {
		return "", err
	}
	filePath := s.FilePath(fileName)
	err = os.WriteFile(filePath, data, 0600)
	if err != nil {
		return "", err
	}
	return filePath, nil
}

func (s *ScratchDirectory) Purge() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return os.RemoveAll(s.path)
}
