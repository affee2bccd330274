package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// UploadURLPrefix is the public path the API serves stored files under.
const UploadURLPrefix = "/uploads/"

var (
	ErrFileTooLarge         = errors.New("file exceeds maximum size")
	ErrUnsupportedExtension = errors.New("unsupported file extension")
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type StoredFile struct {
	Filename string
	Path     string
	URL      string
	MIMEType string
	Size     int64
}

type StorageService interface {
	SaveFile(content []byte, originalName string) (*StoredFile, error)
	GetFilePath(filename string) string
	DeleteFile(filename string) error
	ListFiles() ([]StoredFileInfo, error)
	EnsureUploadDir() error
}

type StoredFileInfo struct {
	Filename string
	ModTime  time.Time
}

type storageService struct {
	uploadPath        string
	allowedExtensions map[string]struct{}
	maxFileSize       int64
}

// NewStorageService stores files under uploadPath. An empty extension list
// accepts any file; maxFileSize <= 0 disables the size check.
func NewStorageService(uploadPath string, allowedExtensions []string, maxFileSize int64) StorageService {
	allowed := make(map[string]struct{}, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}

	return &storageService{
		uploadPath:        uploadPath,
		allowedExtensions: allowed,
		maxFileSize:       maxFileSize,
	}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	return nil
}

func (s *storageService) SaveFile(content []byte, originalName string) (*StoredFile, error) {
	// Validate file extensions
	ext := strings.ToLower(filepath.Ext(originalName))
	if len(s.allowedExtensions) > 0 {
		if _, ok := s.allowedExtensions[ext]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
		}
	}

	if s.maxFileSize > 0 && int64(len(content)) > s.maxFileSize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrFileTooLarge, s.maxFileSize)
	}

	if err := s.EnsureUploadDir(); err != nil {
		return nil, err
	}

	// Generate the unique filename
	uniqueFilename := fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), uuid.New().String(), sanitizeFileName(originalName))
	filePath := filepath.Join(s.uploadPath, uniqueFilename)

	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	return &StoredFile{
		Filename: uniqueFilename,
		Path:     filePath,
		URL:      UploadURLPrefix + uniqueFilename,
		MIMEType: baseMIMEType(mimetype.Detect(content).String()),
		Size:     int64(len(content)),
	}, nil
}

func (s *storageService) GetFilePath(filename string) string {
	return filepath.Join(s.uploadPath, filepath.Base(filename))
}

func (s *storageService) DeleteFile(filename string) error {
	filePath := s.GetFilePath(filename)
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// ListFiles returns the regular files directly under the upload directory.
func (s *storageService) ListFiles() ([]StoredFileInfo, error) {
	entries, err := os.ReadDir(s.uploadPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload directory: %w", err)
	}

	files := make([]StoredFileInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, StoredFileInfo{Filename: entry.Name(), ModTime: info.ModTime()})
	}
	return files, nil
}

func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "upload"
	}
	return name
}

// baseMIMEType drops parameters such as "; charset=utf-8".
func baseMIMEType(mime string) string {
	if idx := strings.Index(mime, ";"); idx != -1 {
		mime = mime[:idx]
	}
	return strings.TrimSpace(mime)
}
