package capability

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personabot/internal/persona"
	"personabot/internal/types"
)

var fixedNow = time.Date(2025, time.October, 7, 14, 30, 0, 0, time.UTC)

func TestBuild_Deterministic(t *testing.T) {
	p := persona.Default()
	a := Build(p, fixedNow)
	b := Build(p, fixedNow)

	for _, id := range a.IDs() {
		pa, err := a.Prompt(id, "quantum computing")
		require.NoError(t, err)
		pb, err := b.Prompt(id, "quantum computing")
		require.NoError(t, err)
		if diff := cmp.Diff(pa, pb); diff != "" {
			t.Errorf("%s prompt differs (-a +b):\n%s", id, diff)
		}

		ca, _ := a.Get(id)
		cb, _ := b.Get(id)
		if diff := cmp.Diff(ca.Agent, cb.Agent); diff != "" {
			t.Errorf("%s agent differs (-a +b):\n%s", id, diff)
		}
	}
}

func TestBuild_IDsAndFlags(t *testing.T) {
	r := Build(persona.Default(), fixedNow)

	if diff := cmp.Diff([]ID{Introduce, Research, Music, Freeform}, r.IDs()); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}

	want := map[ID]struct{ tool, arg bool }{
		Introduce: {false, false},
		Research:  {true, true},
		Music:     {true, false},
		Freeform:  {false, false},
	}
	for id, w := range want {
		c, ok := r.Get(id)
		require.True(t, ok, id)
		assert.Equal(t, w.tool, c.RequiresTool, "%s RequiresTool", id)
		assert.Equal(t, w.arg, c.NeedsArgument, "%s NeedsArgument", id)
		assert.Equal(t, 3, c.Agent.MaxIter)
	}
}

func TestBuild_IDsReturnsCopy(t *testing.T) {
	r := Build(persona.Default(), fixedNow)
	ids := r.IDs()
	ids[0] = "mutated"
	assert.Equal(t, Introduce, r.IDs()[0])
}

func TestPrompts_AnchoredAndSafe(t *testing.T) {
	p := persona.Default()
	r := Build(p, fixedNow)
	assert.Equal(t, "October 07, 2025", r.Date())

	for _, id := range r.IDs() {
		pr, err := r.Prompt(id, "ai safety")
		require.NoError(t, err)
		assert.Contains(t, pr.Description, "October 07, 2025", "%s must carry the date", id)
		assert.Contains(t, pr.Description, "medical, legal, or financial", "%s must name avoided topics", id)
		assert.NotEmpty(t, pr.ExpectedOutput)
	}
}

func TestPrompts_InterpolatePersona(t *testing.T) {
	p := persona.Default()
	r := Build(p, fixedNow)

	intro, err := r.Prompt(Introduce, "")
	require.NoError(t, err)
	for _, s := range []string{p.Name(), p.Location(), p.Organization(), "Pink Floyd", "progressive rock", "intellectual honesty", "rapid synthesis"} {
		assert.Contains(t, intro.Description, s)
	}

	music, err := r.Prompt(Music, "")
	require.NoError(t, err)
	assert.Contains(t, music.Description, "Bombay Bicycle Club")
	assert.Contains(t, music.Description, "blues rock")

	c, _ := r.Get(Freeform)
	assert.Equal(t, p.Name(), c.Agent.Role)
	assert.Contains(t, c.Agent.Backstory, "not faculty")
}

func TestResearchPrompt_EmbedsTopicVerbatim(t *testing.T) {
	r := Build(persona.Default(), fixedNow)

	pr, err := r.Prompt(Research, "  Quantum Computing  ")
	require.NoError(t, err)
	assert.Contains(t, pr.Description, "'Quantum Computing'")
	assert.Contains(t, pr.ExpectedOutput, "'Quantum Computing'")
	assert.Contains(t, pr.Description, "Quantum Computing news October 2025")
	assert.Contains(t, pr.Description, "last 15 days")
}

func TestFreeformPrompt_EmbedsInput(t *testing.T) {
	r := Build(persona.Default(), fixedNow)
	pr, err := r.Prompt(Freeform, "What's your favourite album?")
	require.NoError(t, err)
	assert.Contains(t, pr.Description, `"What's your favourite album?"`)
}

func TestFreeformPrompt_InputNotEscaped(t *testing.T) {
	r := Build(persona.Default(), fixedNow)
	input := "She said \"Olá\" twice\nthen played Shine On, café version"

	pr, err := r.Prompt(Freeform, input)
	require.NoError(t, err)
	assert.Contains(t, pr.Description, `"`+input+`"`)
	assert.NotContains(t, pr.Description, `\"Olá\"`)
	assert.NotContains(t, pr.Description, `\n`)
}

func TestMusicAgent_SearchExamples(t *testing.T) {
	c, _ := Build(persona.Default(), fixedNow).Get(Music)
	assert.Contains(t, c.Agent.Backstory, `"progressive rock new albums October 2025"`)
	assert.Contains(t, c.Agent.Backstory, `"pink floyd releases 2025"`)

	doc := persona.Default().Document()
	doc.Music = persona.MusicTaste{}
	p, err := persona.New(doc)
	require.NoError(t, err)

	c, _ = Build(p, fixedNow).Get(Music)
	assert.Contains(t, c.Agent.Backstory, `"indie new albums October 2025"`)
	assert.Contains(t, c.Agent.Backstory, `"your favorite band releases 2025"`)
}

func TestRegistryPrompt_Errors(t *testing.T) {
	r := Build(persona.Default(), fixedNow)

	_, err := r.Prompt(Research, "   ")
	assert.ErrorIs(t, err, types.ErrCapabilityArgumentMissing)

	_, err = r.Prompt("weather", "boston")
	assert.ErrorIs(t, err, types.ErrUnknownCapability)
}

func TestFormatHint_FollowsPersona(t *testing.T) {
	doc := persona.Default().Document()
	doc.Format.Tables = false
	doc.Format.Citations = false
	p, err := persona.New(doc)
	require.NoError(t, err)

	c, _ := Build(p, fixedNow).Get(Research)
	assert.Contains(t, c.Agent.Backstory, "do not use tables")
	assert.False(t, strings.Contains(c.Agent.Backstory, "cite your sources"))
}
