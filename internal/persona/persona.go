// Package persona holds the identity, tone and preference record that
// parameterizes every prompt. A Persona is immutable once built: it has no
// setters and every slice accessor returns a copy.
package persona

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultDocument []byte

// Identity names who the persona is.
type Identity struct {
	Name         string `yaml:"name"`
	Role         string `yaml:"role"`
	Organization string `yaml:"organization"`
	Location     string `yaml:"location"`
}

// Format lists output-format preferences.
type Format struct {
	Bullets   bool `yaml:"bullets"`
	Tables    bool `yaml:"tables"`
	Citations bool `yaml:"citations"`
}

// MusicTaste is an ordered list of bands and genres.
type MusicTaste struct {
	Bands  []string `yaml:"bands"`
	Genres []string `yaml:"genres"`
}

// Document is the serialized form of a persona.
type Document struct {
	Identity    Identity   `yaml:"identity"`
	Tone        string     `yaml:"tone"`
	Format      Format     `yaml:"format"`
	RecencyDays int        `yaml:"recency_days"`
	SafetyFlags []string   `yaml:"safety_flags"`
	Strengths   []string   `yaml:"strengths"`
	Values      []string   `yaml:"values"`
	Music       MusicTaste `yaml:"music"`
}

// Persona is the immutable, validated persona value.
type Persona struct {
	doc Document
}

// New validates doc and returns a Persona holding a private copy of it.
func New(doc Document) (Persona, error) {
	if err := doc.Validate(); err != nil {
		return Persona{}, err
	}
	return Persona{doc: doc.clone()}, nil
}

// Default returns the built-in persona.
func Default() Persona {
	p, err := Parse(defaultDocument)
	if err != nil {
		panic(fmt.Sprintf("persona: embedded default is invalid: %v", err))
	}
	return p
}

// Load reads a persona from a YAML file.
func Load(path string) (Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Persona{}, fmt.Errorf("failed to read persona: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML persona. Unknown keys are rejected.
func Parse(data []byte) (Persona, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return Persona{}, fmt.Errorf("failed to parse persona: %w", err)
	}
	return New(doc)
}

// Validate checks the required fields.
func (d Document) Validate() error {
	var problems []string
	if strings.TrimSpace(d.Identity.Name) == "" {
		problems = append(problems, "identity.name is required")
	}
	if strings.TrimSpace(d.Identity.Role) == "" {
		problems = append(problems, "identity.role is required")
	}
	if strings.TrimSpace(d.Tone) == "" {
		problems = append(problems, "tone is required")
	}
	if d.RecencyDays <= 0 {
		problems = append(problems, "recency_days must be positive")
	}
	if len(problems) > 0 {
		return errors.New("invalid persona: " + strings.Join(problems, "; "))
	}
	return nil
}

func (d Document) clone() Document {
	out := d
	out.SafetyFlags = cloneStrings(d.SafetyFlags)
	out.Strengths = cloneStrings(d.Strengths)
	out.Values = cloneStrings(d.Values)
	out.Music.Bands = cloneStrings(d.Music.Bands)
	out.Music.Genres = cloneStrings(d.Music.Genres)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func (p Persona) Name() string         { return p.doc.Identity.Name }
func (p Persona) Role() string         { return p.doc.Identity.Role }
func (p Persona) Organization() string { return p.doc.Identity.Organization }
func (p Persona) Location() string     { return p.doc.Identity.Location }
func (p Persona) Identity() Identity   { return p.doc.Identity }
func (p Persona) Tone() string         { return p.doc.Tone }
func (p Persona) Format() Format       { return p.doc.Format }
func (p Persona) RecencyDays() int     { return p.doc.RecencyDays }

func (p Persona) SafetyFlags() []string { return cloneStrings(p.doc.SafetyFlags) }
func (p Persona) Strengths() []string   { return cloneStrings(p.doc.Strengths) }
func (p Persona) Values() []string      { return cloneStrings(p.doc.Values) }
func (p Persona) Bands() []string       { return cloneStrings(p.doc.Music.Bands) }
func (p Persona) Genres() []string      { return cloneStrings(p.doc.Music.Genres) }

// Document returns a copy of the serialized form.
func (p Persona) Document() Document { return p.doc.clone() }

// IsZero reports whether p was never built.
func (p Persona) IsZero() bool { return p.doc.Identity.Name == "" }

// Marshal encodes the persona as YAML.
func (p Persona) Marshal() ([]byte, error) {
	return yaml.Marshal(p.doc)
}

// Affiliation renders "role at organization".
func (p Persona) Affiliation() string {
	if p.doc.Identity.Organization == "" {
		return p.doc.Identity.Role
	}
	return p.doc.Identity.Role + " at " + p.doc.Identity.Organization
}

// AvoidTopics renders the disallowed-advice topics as prose, e.g.
// "medical, legal, or financial".
func (p Persona) AvoidTopics() string {
	return JoinOr(p.doc.SafetyFlags)
}

// JoinOr joins items as "a, b, or c".
func JoinOr(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " or " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", or " + items[len(items)-1]
}
