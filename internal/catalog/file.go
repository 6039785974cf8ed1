package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of the custom intents file.
//
//	intents:
//	  - id: open_notes
//	    phrases: [open notes, take a note]
//	    response: Opening your notes
//	    entities: {app: notes}
type File struct {
	Intents []FileIntent `yaml:"intents"`
}

// FileIntent is one entry of the custom intents file.
type FileIntent struct {
	ID        string            `yaml:"id"`
	Phrases   []string          `yaml:"phrases"`
	Response  string            `yaml:"response,omitempty"`
	Responses []string          `yaml:"responses,omitempty"`
	Entities  map[string]string `yaml:"entities,omitempty"`
}

func (fi FileIntent) intent() Intent {
	responses := fi.Responses
	if fi.Response != "" {
		responses = append([]string{fi.Response}, responses...)
	}
	if len(responses) == 0 {
		responses = []string{CustomDefaultResponse}
	}
	return Intent{ID: fi.ID, Phrases: fi.Phrases, Entities: fi.Entities, Responses: responses}
}

// LoadFile parses a custom intents file. A missing file yields no intents
// and no error.
func LoadFile(path string) ([]Intent, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	out := make([]Intent, 0, len(f.Intents))
	for _, fi := range f.Intents {
		out = append(out, fi.intent())
	}
	return out, nil
}

// ApplyFile loads path and registers every intent it contains.
// Invalid entries are skipped and reported together; valid ones are
// still registered. It returns the number of intents registered.
func (c *Catalog) ApplyFile(path string) (int, error) {
	intents, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	var errs []error
	n := 0
	for _, in := range intents {
		if err := c.Register(in); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

// AppendFile adds in to the custom intents file at path, replacing any
// entry with the same id. The file is created when missing.
func AppendFile(path string, in Intent) error {
	intents, err := LoadFile(path)
	if err != nil {
		return err
	}
	replaced := false
	for i := range intents {
		if intents[i].ID == in.ID {
			intents[i] = in
			replaced = true
		}
	}
	if !replaced {
		intents = append(intents, in)
	}
	return SaveFile(path, intents)
}

// SaveFile writes intents to path as a custom intents file.
func SaveFile(path string, intents []Intent) error {
	f := File{Intents: make([]FileIntent, 0, len(intents))}
	for _, in := range intents {
		f.Intents = append(f.Intents, FileIntent{
			ID:        in.ID,
			Phrases:   in.Phrases,
			Responses: in.Responses,
			Entities:  in.Entities,
		})
	}
	raw, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("catalog: encode intents: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("catalog: write %s: %w", path, err)
	}
	return nil
}
