// Package seed reads and writes the YAML data set the content store starts from.
package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/starford/folio/internal/models"
)

//go:embed default.yaml
var defaultYAML []byte

// Dataset holds one list per content kind.
type Dataset struct {
	Profiles   []*models.PersonalProfile `yaml:"profiles"`
	About      []*models.AboutSection    `yaml:"about"`
	Education  []*models.EducationEntry  `yaml:"education"`
	Experience []*models.ExperienceEntry `yaml:"experience"`
	Skills     []*models.Skill           `yaml:"skills"`
	Projects   []*models.Project         `yaml:"projects"`
	Contacts   []*models.ContactInfoItem `yaml:"contacts"`
	Socials    []*models.SocialLink      `yaml:"socials"`
}

// Len returns the total number of records.
func (d *Dataset) Len() int {
	return len(d.Profiles) + len(d.About) + len(d.Education) + len(d.Experience) +
		len(d.Skills) + len(d.Projects) + len(d.Contacts) + len(d.Socials)
}

// Default returns a fresh copy of the built-in mock data set.
func Default() *Dataset {
	ds, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("seed: built-in data set is invalid: %v", err))
	}
	return ds
}

// Load reads and parses a data set file.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	ds, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("seed: %s: %w", path, err)
	}
	return ds, nil
}

// Parse decodes a YAML data set. Unknown top-level keys are rejected so a
// typo does not silently drop a section.
func Parse(data []byte) (*Dataset, error) {
	ds := &Dataset{}
	if len(bytes.TrimSpace(data)) == 0 {
		return ds, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(ds); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return ds, nil
}

// Marshal encodes a data set as YAML.
func Marshal(ds *Dataset) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(ds); err != nil {
		return nil, fmt.Errorf("seed: marshal: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("seed: marshal: %w", err)
	}
	return buf.Bytes(), nil
}
