package dialog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domain "github.com/infobot/infobot/internal/domain/dialog"
)

var (
	// ErrBadExtension reports an uploaded tree file that is not .txt.
	ErrBadExtension = errors.New("tree source must be a .txt file")
	// ErrUnsafeFilename reports path traversal in an uploaded filename.
	ErrUnsafeFilename = errors.New("tree source filename is not safe")
)

// Service loads and hot-reloads the dialog tree. A reload parses the
// candidate source in full before anything is published: on success the new
// generation is swapped in and the file replaces the persisted source
// atomically; on failure the previous tree and file stay active.
type Service struct {
	registry *domain.Registry
	parser   *domain.Parser
	treePath string
	logger   zerolog.Logger
}

// NewService creates a reload service over the given registry.
func NewService(registry *domain.Registry, parser *domain.Parser, treePath string, logger zerolog.Logger) *Service {
	return &Service{
		registry: registry,
		parser:   parser,
		treePath: treePath,
		logger:   logger.With().Str("service", "dialog").Logger(),
	}
}

// Load parses the persisted tree source and publishes it. Called at startup.
func (s *Service) Load() error {
	tree, err := s.parser.ParseFile(s.treePath)
	if err != nil {
		return err
	}
	s.registry.Swap(tree)
	s.logger.Info().Str("path", s.treePath).Int("choices", len(tree.RootChoices())).Msg("dialog tree loaded")
	return nil
}

// ValidateFilename rejects uploads whose names could escape the tree
// directory or are not tree sources.
func (s *Service) ValidateFilename(name string) error {
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return ErrUnsafeFilename
	}
	if !strings.HasSuffix(strings.ToLower(name), ".txt") {
		return ErrBadExtension
	}
	return nil
}

// Reload replaces the live tree with the uploaded source. The upload is
// staged to a temp file, parsed in full, then renamed over the persisted
// source and swapped into the registry. Any failure leaves the previous
// generation and file untouched and returns the reason for the uploader.
func (s *Service) Reload(src io.Reader) error {
	tmp := filepath.Join(filepath.Dir(s.treePath), uuid.NewString()+".txt")
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("stage tree source: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("stage tree source: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("stage tree source: %w", err)
	}

	tree, err := s.parser.ParseFile(tmp)
	if err != nil {
		os.Remove(tmp)
		s.logger.Error().Err(err).Msg("tree reload rejected")
		return err
	}

	if err := os.Rename(tmp, s.treePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace tree source: %w", err)
	}
	s.registry.Swap(tree)
	s.logger.Info().Int("choices", len(tree.RootChoices())).Msg("dialog tree reloaded")
	return nil
}
