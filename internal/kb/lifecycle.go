package kb

// DecayTick applies one prune-phase energy decay step to every non-archived
// concept and recomputes each link's energy from its participants,
// transitioning concepts through the Active -> Dormant
// -> Fading -> Archived lifecycle described in spec.md §3. Archived is
// terminal (I6): once reached, a concept's energy and state are frozen and
// only ReinforceConcept/UpsertConcept can ever touch it again, which they
// deliberately do not resurrect.
//
// Returns the IDs of concepts that transitioned to Archived on this tick,
// for the cultivation orchestrator to emit as events.
func (s *Store) DecayTick() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var archived []string
	for _, c := range s.concepts {
		if c.State == StateArchived {
			continue
		}

		c.Energy -= s.cfg.DecayRate
		if c.Energy < 0 {
			c.Energy = 0
		}

		switch {
		case c.Energy < s.cfg.FadingThreshold:
			if c.State == StateFading {
				c.fadingSince++
			} else {
				c.State = StateFading
				c.fadingSince = 1
			}
			if c.fadingSince >= s.cfg.ArchiveAfterTicks {
				c.State = StateArchived
				archived = append(archived, c.ID)
			}
		case c.Energy < s.cfg.DormantThreshold:
			c.State = StateDormant
			c.fadingSince = 0
		default:
			c.State = StateActive
			c.fadingSince = 0
		}
	}

	// Links never decay on an independent schedule (spec.md §3): a link's
	// energy tracks the weakest of its participants, and it is archived the
	// moment any one participant is — archiving is terminal for the link
	// too, matching I5/I6 for its endpoints.
	for _, l := range s.links {
		minEnergy := 1.0
		anyArchived := false
		for _, cid := range l.ConceptIDs() {
			c, ok := s.concepts[cid]
			if !ok {
				continue
			}
			if c.Energy < minEnergy {
				minEnergy = c.Energy
			}
			if c.State == StateArchived {
				anyArchived = true
			}
		}
		l.Energy = minEnergy
		if anyArchived {
			l.Archived = true
		}
	}

	return archived
}
