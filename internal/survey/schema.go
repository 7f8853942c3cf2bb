// Package survey holds the static question schema and the answer
// engine that records, validates and submits survey responses.
package survey

import (
	"encoding/json"
	"fmt"
	"io/fs"

	bertbot "github.com/haneul-dev/bertbot"
	"github.com/haneul-dev/bertbot/internal/config"
	"github.com/haneul-dev/bertbot/internal/domain"
)

const schemaAsset = "assets/survey_schema.json"

// Schema is the ordered, immutable survey question set, loaded once
// at startup.
type Schema struct {
	questions []domain.SurveyQuestion
	byID      map[string]domain.SurveyQuestion
}

// schemaEntry mirrors one schema JSON object. Options is either the
// free-text marker string or an array of choice strings.
type schemaEntry struct {
	ID      string          `json:"id"`
	Label   string          `json:"label"`
	Options json.RawMessage `json:"options"`
}

// Load reads the embedded schema asset. A missing or malformed schema
// is a fatal startup misconfiguration; callers are expected to exit.
func Load() (*Schema, error) {
	return LoadFS(bertbot.AssetsFS, schemaAsset)
}

// LoadFS parses a schema from the given filesystem, mainly for tests.
func LoadFS(fsys fs.FS, path string) (*Schema, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrSchemaMissing, path, err)
	}

	var entries []schemaEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrSchemaMissing, path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s has no questions", domain.ErrSchemaMissing, path)
	}

	s := &Schema{byID: make(map[string]domain.SurveyQuestion, len(entries))}
	for _, e := range entries {
		q, err := entryToQuestion(e)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrSchemaMissing, err)
		}
		if _, dup := s.byID[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question id %q", domain.ErrSchemaMissing, q.ID)
		}
		s.questions = append(s.questions, q)
		s.byID[q.ID] = q
	}
	return s, nil
}

func entryToQuestion(e schemaEntry) (domain.SurveyQuestion, error) {
	q := domain.SurveyQuestion{ID: e.ID, Label: e.Label}
	if e.ID == "" {
		return q, fmt.Errorf("question without id")
	}

	var marker string
	if err := json.Unmarshal(e.Options, &marker); err == nil {
		if marker != config.FreeTextMarker {
			return q, fmt.Errorf("question %q: unknown options marker %q", e.ID, marker)
		}
		return q, nil // free text: Options stays nil
	}

	var options []string
	if err := json.Unmarshal(e.Options, &options); err != nil {
		return q, fmt.Errorf("question %q: options must be %q or a string array", e.ID, config.FreeTextMarker)
	}
	if len(options) == 0 {
		return q, fmt.Errorf("question %q: empty option list", e.ID)
	}
	q.Options = options
	return q, nil
}

// Questions returns the questions in schema order.
func (s *Schema) Questions() []domain.SurveyQuestion {
	return s.questions
}

// Question looks up a question by id.
func (s *Schema) Question(id string) (domain.SurveyQuestion, bool) {
	q, ok := s.byID[id]
	return q, ok
}
