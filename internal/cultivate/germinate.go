package cultivate

import (
	"fmt"
	"sort"

	"github.com/epistemicgarden/cultivator/internal/kb"
)

// Question is a reflective question the germinate phase formed over a
// concept and its strongest neighbour.
type Question struct {
	ConceptID string
	Label     string
	Text      string
}

// questionTemplates vary by link kind so the generated question reads
// naturally for the relation it's probing, rather than one generic
// template stamped over every kind.
var questionTemplates = map[kb.Kind]string{
	kb.KindInheritance: "Is every %s a kind of %s, or are there exceptions?",
	kb.KindSimilarity:  "What makes %s and %s alike?",
	kb.KindPartOf:      "Is %s always a part of %s?",
	kb.KindCatalyzes:   "Does %s always catalyze %s, or only under some conditions?",
	kb.KindInhibits:    "What happens when %s does not inhibit %s?",
}

const defaultQuestionTemplate = "How does %s relate to %s?"

// germinate implements spec.md §4.E's Germinate phase: concepts whose
// energy exceeds energyHigh but whose truth confidence is still below
// confidenceLow — salient but not yet well understood — are ranked by
// energy and the strongest topN form one reflective question each, over
// the concept's single strongest neighbour link. Concepts with no
// neighbours are skipped — there is nothing to reflect on yet.
func (o *Orchestrator) germinate(topN int, energyHigh, confidenceLow float64) []Question {
	concepts := o.store.AllConcepts()
	active := make([]*kb.Concept, 0, len(concepts))
	for _, c := range concepts {
		if c.State != kb.StateActive {
			continue
		}
		if c.Energy > energyHigh && c.Truth.Confidence() < confidenceLow {
			active = append(active, c)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].Energy > active[j].Energy
	})
	if len(active) > topN {
		active = active[:topN]
	}

	var questions []Question
	for _, c := range active {
		neighbours, err := o.store.LinkNeighbours(c.ID, 1)
		if err != nil || len(neighbours) == 0 {
			continue
		}
		top := neighbours[0]
		other, ok := otherParticipant(top, c.ID)
		if !ok {
			continue
		}
		otherConcept, err := o.store.Concept(other)
		if err != nil {
			continue
		}

		template := questionTemplates[top.Kind]
		if template == "" {
			template = defaultQuestionTemplate
		}
		questions = append(questions, Question{
			ConceptID: c.ID,
			Label:     c.DisplayLabel,
			Text:      fmt.Sprintf(template, c.DisplayLabel, otherConcept.DisplayLabel),
		})
	}
	return questions
}

func otherParticipant(l *kb.Link, conceptID string) (string, bool) {
	for _, p := range l.Participants {
		if p.ConceptID != conceptID {
			return p.ConceptID, true
		}
	}
	return "", false
}
