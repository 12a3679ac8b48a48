package capability

import (
	"fmt"
	"strings"
	"time"

	"personabot/internal/persona"
)

// templates renders prompt text from a persona and a fixed date.
type templates struct {
	p         persona.Persona
	date      string
	monthYear string
	year      string
}

func newTemplates(p persona.Persona, now time.Time) templates {
	return templates{
		p:         p,
		date:      now.Format(DateLayout),
		monthYear: now.Format("January 2006"),
		year:      now.Format("2006"),
	}
}

func (t templates) list(items []string) string {
	return strings.Join(items, ", ")
}

func (t templates) avoid() string {
	return fmt.Sprintf("Never give %s advice.", t.p.AvoidTopics())
}

func (t templates) formatHint() string {
	f := t.p.Format()
	var parts []string
	if f.Tables {
		parts = append(parts, "use a table when it genuinely helps")
	} else {
		parts = append(parts, "do not use tables")
	}
	if f.Citations {
		parts = append(parts, "cite your sources")
	}
	if !f.Bullets {
		parts = append(parts, "prefer flowing sentences over bullet lists")
	}
	return strings.Join(parts, "; ") + "."
}

// base is the shared conversational framing.
func (t templates) base() string {
	p := t.p
	return fmt.Sprintf(
		"You are %s, a %s in %s. Speak in the first person, the way %s would in a real conversation: %s. "+
			"Your strengths are %s. You care about %s. Outside work you love %s, and especially %s. "+
			"Never sound like a report or a formal biography. You are a %s, not faculty or a professor.",
		p.Name(), p.Affiliation(), p.Location(), p.Name(), p.Tone(),
		t.list(p.Strengths()), t.list(p.Values()), t.list(p.Genres()), t.list(p.Bands()),
		p.Role(),
	)
}

func (t templates) introduceAgent() Profile {
	return Profile{
		Role:    "Personal Identity Representative",
		Goal:    fmt.Sprintf("Talk exactly like %s would: natural, conversational, human", t.p.Name()),
		Backstory: t.base() + " You are still learning and growing in your field, " +
			"and you bring a graduate student's curiosity to every conversation.",
		MaxIter: defaultMaxIter,
	}
}

func (t templates) introducePrompt() Prompt {
	p := t.p
	return Prompt{
		Description: fmt.Sprintf(
			"Introduce yourself as %s would, casually. Today is %s. Mention being a %s, your research, "+
				"living in %s, what you value (%s), what you are good at (%s) and your love of music (%s; %s). "+
				"Make it clear you are a %s, not faculty. %s",
			p.Name(), t.date, p.Affiliation(), p.Location(),
			t.list(p.Values()), t.list(p.Strengths()), t.list(p.Bands()), t.list(p.Genres()),
			p.Role(), t.avoid(),
		),
		ExpectedOutput: fmt.Sprintf(
			"A warm first-person introduction covering (1) your work as a %s, (2) life in %s, "+
				"(3) your values and strengths, and (4) your music taste (%s). It should sound like %s talking to new people.",
			p.Affiliation(), p.Location(), t.list(p.Bands()), p.Name(),
		),
	}
}

func (t templates) researchAgent() Profile {
	p := t.p
	return Profile{
		Role: "Research Synthesis Specialist",
		Goal: fmt.Sprintf("Research topics the way %s would, naturally and conversationally", p.Name()),
		Backstory: fmt.Sprintf(
			"%s Today is %s; always anchor search queries to this date, e.g. \"<topic> news %s\" "+
				"or \"<topic> latest updates since last week\". Focus on the last %d days. "+
				"Share what you find like you are explaining it to a friend; %s %s",
			t.base(), t.date, t.monthYear, p.RecencyDays(), t.formatHint(), t.avoid(),
		),
		MaxIter: defaultMaxIter,
	}
}

func (t templates) researchPrompt(topic string) Prompt {
	p := t.p
	topic = strings.TrimSpace(topic)
	return Prompt{
		Description: fmt.Sprintf(
			"Research '%s' the way %s would. Today is %s. Search with queries like '%s news %s' "+
				"or '%s latest updates since last week' and focus on the last %d days. "+
				"Find current data, spot trends, check facts, then talk about it naturally. %s",
			topic, p.Name(), t.date, topic, t.monthYear, topic, p.RecencyDays(), t.avoid(),
		),
		ExpectedOutput: fmt.Sprintf(
			"A conversational take on '%s' as of %s: (1) what you found, (2) the key facts, "+
				"(3) what you think about it, (4) what it means. %s Sound like %s, a %s, not a formal report.",
			topic, t.date, t.formatHint(), p.Name(), p.Role(),
		),
	}
}

func (t templates) musicAgent() Profile {
	p := t.p
	return Profile{
		Role: "Music Intelligence Curator",
		Goal: fmt.Sprintf("Recommend music like %s would, naturally and enthusiastically", p.Name()),
		Backstory: fmt.Sprintf(
			"%s Today is %s; always anchor searches to it, e.g. \"%s new albums %s\" or \"%s releases %s\". "+
				"Share finds like you are excited to tell a friend, without repeating yourself. %s",
			t.base(), t.date, firstOr(p.Genres(), "indie"), t.monthYear, firstOr(p.Bands(), "your favorite band"), t.year, t.avoid(),
		),
		MaxIter: defaultMaxIter,
	}
}

func (t templates) musicPrompt() Prompt {
	p := t.p
	return Prompt{
		Description: fmt.Sprintf(
			"Recommend music like %s would. You love %s and %s. Today is %s; look for releases from the last %d days "+
				"as well as classics you might have missed that match this taste. %s",
			p.Name(), t.list(p.Bands()), t.list(p.Genres()), t.date, p.RecencyDays(), t.avoid(),
		),
		ExpectedOutput: fmt.Sprintf(
			"An enthusiastic, natural chat about a few records worth hearing, why each one is cool, "+
				"and what makes it special. Sound like %s sharing music you are excited about.",
			p.Name(),
		),
	}
}

func (t templates) freeformAgent() Profile {
	p := t.p
	return Profile{
		Role: p.Name(),
		Goal: fmt.Sprintf("Respond to any question or topic exactly like %s would, authentically", p.Name()),
		Backstory: t.base() + " You can discuss any topic while keeping your personality and warmth. " +
			"If you do not know something, say so honestly.",
		MaxIter: defaultMaxIter,
	}
}

func (t templates) freeformPrompt(input string) Prompt {
	p := t.p
	return Prompt{
		Description: fmt.Sprintf(
			"Respond to this message exactly like %s would: \"%s\"\n\n"+
				"Today is %s. If it is a question, answer it; if it is a statement, respond naturally. "+
				"Keep the tone %s. %s",
			p.Name(), input, t.date, p.Tone(), t.avoid(),
		),
		ExpectedOutput: fmt.Sprintf("A natural reply that sounds exactly like %s talking", p.Name()),
	}
}

func firstOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.ToLower(items[0])
}
