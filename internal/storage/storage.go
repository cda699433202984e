// Package storage persists pipeline artifacts as JSON files under the
// procdoc home directory, keyed by document ID and an optional section
// qualifier.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/procdoc/procdoc/internal/detect"
	"github.com/procdoc/procdoc/internal/home"
	"github.com/procdoc/procdoc/internal/validate"
)

// Store reads and writes pipeline artifacts on disk.
type Store struct {
	home   *home.Dir
	logger *slog.Logger
}

// NewStore creates a store rooted at the given home directory, creating
// the directory tree if needed.
func NewStore(dir *home.Dir, logger *slog.Logger) (*Store, error) {
	if err := dir.EnsureExists(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{home: dir, logger: logger.With("component", "storage")}, nil
}

// SaveDetection persists the detected section list for a document.
func (s *Store) SaveDetection(documentID string, sections []detect.Section) error {
	path := filepath.Join(s.home.DetectionDir(), documentID+"_sections.json")
	return s.writeJSON(path, sections)
}

// LoadDetection reads a previously saved section list.
func (s *Store) LoadDetection(documentID string) ([]detect.Section, error) {
	path := filepath.Join(s.home.DetectionDir(), documentID+"_sections.json")
	var sections []detect.Section
	if err := s.readJSON(path, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// SaveSection persists one section's extracted payload.
func (s *Store) SaveSection(documentID, sectionName string, payload any) error {
	path := filepath.Join(s.home.SectionsDir(),
		fmt.Sprintf("%s_%s.json", documentID, sanitizeName(sectionName)))
	return s.writeJSON(path, payload)
}

// SaveFinal persists an approved document result.
func (s *Store) SaveFinal(result *validate.DocumentResult) error {
	path := filepath.Join(s.home.FinalDir(), result.DocumentID+".json")
	return s.writeJSON(path, result)
}

// LoadFinal reads a final document result.
func (s *Store) LoadFinal(documentID string) (*validate.DocumentResult, error) {
	path := filepath.Join(s.home.FinalDir(), documentID+".json")
	var result validate.DocumentResult
	if err := s.readJSON(path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// HasFinal reports whether a final result exists for the document.
func (s *Store) HasFinal(documentID string) bool {
	_, err := os.Stat(filepath.Join(s.home.FinalDir(), documentID+".json"))
	return err == nil
}

// QueueForReview persists a document into the human review queue.
func (s *Store) QueueForReview(result *validate.DocumentResult) error {
	path := filepath.Join(s.home.ReviewDir(), result.DocumentID+"_review.json")
	return s.writeJSON(path, result)
}

// PendingReviews lists all documents currently queued for review,
// oldest first by processing time.
func (s *Store) PendingReviews() ([]*validate.DocumentResult, error) {
	entries, err := os.ReadDir(s.home.ReviewDir())
	if err != nil {
		return nil, fmt.Errorf("failed to read review queue: %w", err)
	}

	var pending []*validate.DocumentResult
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "_review.json") {
			continue
		}
		var result validate.DocumentResult
		if err := s.readJSON(filepath.Join(s.home.ReviewDir(), entry.Name()), &result); err != nil {
			s.logger.Warn("skipping unreadable review entry", "file", entry.Name(), "error", err)
			continue
		}
		pending = append(pending, &result)
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].Metadata.ProcessedAt.Equal(pending[j].Metadata.ProcessedAt) {
			return pending[i].Metadata.ProcessedAt.Before(pending[j].Metadata.ProcessedAt)
		}
		return pending[i].DocumentID < pending[j].DocumentID
	})
	return pending, nil
}

// Approve moves a reviewed document out of the queue into final
// storage with an approved status.
func (s *Store) Approve(documentID string) error {
	result, err := s.takeReview(documentID)
	if err != nil {
		return err
	}
	result.ValidationStatus = validate.DispositionApproved
	result.ReviewReason = ""
	if err := s.SaveFinal(result); err != nil {
		return err
	}
	s.logger.Info("document approved", "document_id", documentID)
	return nil
}

// Reject removes a reviewed document from the queue and records the
// rejected result in final storage for audit.
func (s *Store) Reject(documentID, reason string) error {
	result, err := s.takeReview(documentID)
	if err != nil {
		return err
	}
	result.ValidationStatus = validate.DispositionRejected
	if reason != "" {
		result.ReviewReason = reason
	}
	if err := s.SaveFinal(result); err != nil {
		return err
	}
	s.logger.Info("document rejected", "document_id", documentID, "reason", reason)
	return nil
}

// takeReview loads and removes a review queue entry.
func (s *Store) takeReview(documentID string) (*validate.DocumentResult, error) {
	path := filepath.Join(s.home.ReviewDir(), documentID+"_review.json")
	var result validate.DocumentResult
	if err := s.readJSON(path, &result); err != nil {
		return nil, fmt.Errorf("document %s is not in the review queue: %w", documentID, err)
	}
	if err := os.Remove(path); err != nil {
		return nil, fmt.Errorf("failed to dequeue %s: %w", documentID, err)
	}
	return &result, nil
}

// Progress tracks batch run state so interrupted runs can resume.
type Progress struct {
	UpdatedAt time.Time         `json:"updated_at"`
	Completed []string          `json:"completed"`
	Failed    map[string]string `json:"failed"`
}

// SaveProgress persists batch progress.
func (s *Store) SaveProgress(p *Progress) error {
	p.UpdatedAt = time.Now().UTC()
	return s.writeJSON(filepath.Join(s.home.LogsDir(), "progress.json"), p)
}

// LoadProgress reads batch progress; a missing file yields empty progress.
func (s *Store) LoadProgress() (*Progress, error) {
	path := filepath.Join(s.home.LogsDir(), "progress.json")
	var p Progress
	if err := s.readJSON(path, &p); err != nil {
		if os.IsNotExist(err) {
			return &Progress{Failed: make(map[string]string)}, nil
		}
		return nil, err
	}
	if p.Failed == nil {
		p.Failed = make(map[string]string)
	}
	return &p, nil
}

// writeJSON atomically writes a JSON artifact: temp file then rename,
// so readers never observe a torn write.
func (s *Store) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *Store) readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// sanitizeName makes a section name safe for use in a file name.
func sanitizeName(name string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", " ", "_", ":", "_",
	)
	return replacer.Replace(strings.ToLower(name))
}
