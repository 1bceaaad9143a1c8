package ingest

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ProcessedSet tracks report filenames that have already been ingested.
// It only ever grows; marking the same report twice is harmless.
type ProcessedSet struct {
	names map[string]bool
}

func NewProcessedSet() *ProcessedSet {
	return &ProcessedSet{names: make(map[string]bool)}
}

func (s *ProcessedSet) Has(name string) bool { return s.names[name] }

func (s *ProcessedSet) Mark(name string) { s.names[name] = true }

func (s *ProcessedSet) Len() int { return len(s.names) }

// LoadProcessedSet reads a set previously written with Save, one report
// name per line. A missing file yields an empty set.
func LoadProcessedSet(path string) (*ProcessedSet, error) {
	set := NewProcessedSet()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return nil, fmt.Errorf("load processed reports %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			set.Mark(name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("load processed reports %s: %w", path, err)
	}
	return set, nil
}

// Save writes the set sorted, one name per line.
func (s *ProcessedSet) Save(path string) error {
	names := make([]string, 0, len(s.names))
	for name := range s.names {
		names = append(names, name)
	}
	sort.Strings(names)
	data := strings.Join(names, "\n")
	if data != "" {
		data += "\n"
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("save processed reports %s: %w", path, err)
	}
	return nil
}
