package evaluate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TestSet is an ordered list of questions with reference answers.
type TestSet struct {
	Version int    `yaml:"version" json:"version"`
	Name    string `yaml:"name" json:"name"`
	Mode    string `yaml:"mode" json:"mode"`
	Cases   []Case `yaml:"cases" json:"cases"`
}

// Case is one evaluation question.
type Case struct {
	ID             string              `yaml:"id" json:"id"`
	Question       string              `yaml:"question" json:"question"`
	ExpectedAnswer string              `yaml:"expected_answer" json:"expected_answer"`
	QuestionType   string              `yaml:"question_type" json:"question_type"`
	Filters        map[string][]string `yaml:"filters" json:"filters,omitempty"`
}

// LoadTestSet reads a YAML or JSON test set from disk.
func LoadTestSet(path string) (*TestSet, error) {
	if path == "" {
		return nil, fmt.Errorf("test set path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read test set: %w", err)
	}
	return ParseTestSet(data)
}

// ParseTestSet decodes and validates a test set. JSON input is accepted as YAML.
func ParseTestSet(data []byte) (*TestSet, error) {
	var set TestSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse test set: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// Validate checks that every case is usable and ids are unique.
// Cases without an id are numbered by position.
func (s *TestSet) Validate() error {
	if len(s.Cases) == 0 {
		return fmt.Errorf("test set has no cases")
	}
	seen := make(map[string]bool, len(s.Cases))
	for i := range s.Cases {
		tc := &s.Cases[i]
		if tc.ID == "" {
			tc.ID = fmt.Sprintf("q%03d", i+1)
		}
		if seen[tc.ID] {
			return fmt.Errorf("test case id %q used twice", tc.ID)
		}
		seen[tc.ID] = true
		if tc.Question == "" {
			return fmt.Errorf("test case %q missing question", tc.ID)
		}
		if tc.ExpectedAnswer == "" {
			return fmt.Errorf("test case %q missing expected_answer", tc.ID)
		}
	}
	return nil
}
