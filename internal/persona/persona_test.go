package persona

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	p := Default()
	assert.Equal(t, "Gabriel Manso", p.Name())
	assert.Equal(t, "PhD student at MIT EECS", p.Affiliation())
	assert.Equal(t, 15, p.RecencyDays())
	assert.True(t, p.Format().Tables)
	assert.True(t, p.Format().Citations)
	assert.False(t, p.Format().Bullets)
	assert.Equal(t, []string{"Pink Floyd", "Bombay Bicycle Club", "Stevie Ray Vaughan"}, p.Bands())
	assert.Equal(t, "medical, legal, or financial", p.AvoidTopics())
	assert.False(t, p.IsZero())
}

func TestAccessorsReturnCopies(t *testing.T) {
	p := Default()

	bands := p.Bands()
	bands[0] = "Nickelback"
	assert.Equal(t, "Pink Floyd", p.Bands()[0])

	doc := p.Document()
	doc.Strengths[0] = "mutated"
	doc.Identity.Name = "someone else"
	assert.Equal(t, "rapid synthesis", p.Strengths()[0])
	assert.Equal(t, "Gabriel Manso", p.Name())
}

func TestNewCopiesInput(t *testing.T) {
	doc := Default().Document()
	p, err := New(doc)
	require.NoError(t, err)

	doc.Music.Genres[0] = "polka"
	assert.Equal(t, "progressive rock", p.Genres()[0])
}

func TestValidate(t *testing.T) {
	doc := Default().Document()
	doc.Identity.Name = " "
	doc.RecencyDays = 0

	_, err := New(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity.name")
	assert.Contains(t, err.Error(), "recency_days")
}

func TestLoadRoundTrip(t *testing.T) {
	data, err := Default().Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "persona.yaml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Document(), p.Document())
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("identity:\n  name: X\n  role: Y\ntone: calm\nrecency_days: 3\nfavourite_food: pizza\n"))
	assert.Error(t, err)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestJoinOr(t *testing.T) {
	assert.Equal(t, "", JoinOr(nil))
	assert.Equal(t, "a", JoinOr([]string{"a"}))
	assert.Equal(t, "a or b", JoinOr([]string{"a", "b"}))
	assert.Equal(t, "a, b, or c", JoinOr([]string{"a", "b", "c"}))
}
