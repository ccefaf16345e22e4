package combat

import (
	"github.com/RednibCoding/mudden-sub001/internal/game"
	"github.com/RednibCoding/mudden-sub001/internal/storage"
)

type contribKey struct {
	player string
	enemy  string
}

// Session is one shared encounter: the enemies being fought at a location,
// the players fighting them, and the cumulative damage each player has dealt
// to each enemy. Sessions are created and destroyed by the Registry and only
// ever touched on the tick goroutine.
type Session struct {
	ID         string
	LocationID storage.Identifier

	// Join order is kept so round resolution and aggro ties are
	// deterministic given the same state.
	enemies      []*game.EnemyInstance
	participants []*game.PlayerState

	enemyByID map[string]*game.EnemyInstance
	partByID  map[string]*game.PlayerState

	// targets maps participant id to the enemy they are auto-attacking.
	targets map[string]string

	// contributions only ever increases per key for the session's
	// lifetime. Reward attribution and aggro both read it.
	contributions map[contribKey]int
}

func newSession(id string, locationID storage.Identifier) *Session {
	return &Session{
		ID:            id,
		LocationID:    locationID,
		enemyByID:     make(map[string]*game.EnemyInstance),
		partByID:      make(map[string]*game.PlayerState),
		targets:       make(map[string]string),
		contributions: make(map[contribKey]int),
	}
}

func (s *Session) addEnemy(ei *game.EnemyInstance) {
	if _, ok := s.enemyByID[ei.InstanceID]; ok {
		return
	}
	s.enemies = append(s.enemies, ei)
	s.enemyByID[ei.InstanceID] = ei
}

func (s *Session) removeEnemy(instanceID string) {
	if _, ok := s.enemyByID[instanceID]; !ok {
		return
	}
	delete(s.enemyByID, instanceID)
	for i, e := range s.enemies {
		if e.InstanceID == instanceID {
			s.enemies = append(s.enemies[:i], s.enemies[i+1:]...)
			break
		}
	}
	for pid, target := range s.targets {
		if target == instanceID {
			delete(s.targets, pid)
		}
	}
}

func (s *Session) addParticipant(ps *game.PlayerState) {
	if _, ok := s.partByID[string(ps.ID)]; ok {
		return
	}
	s.participants = append(s.participants, ps)
	s.partByID[string(ps.ID)] = ps
	ps.SessionID = s.ID
}

func (s *Session) removeParticipant(playerID string) {
	ps, ok := s.partByID[playerID]
	if !ok {
		return
	}
	delete(s.partByID, playerID)
	delete(s.targets, playerID)
	for i, p := range s.participants {
		if string(p.ID) == playerID {
			s.participants = append(s.participants[:i], s.participants[i+1:]...)
			break
		}
	}
	if ps.SessionID == s.ID {
		ps.SessionID = ""
	}
}

// Contribution returns the damage playerID has dealt to enemyID this session.
func (s *Session) Contribution(playerID, enemyID string) int {
	return s.contributions[contribKey{player: playerID, enemy: enemyID}]
}

func (s *Session) addContribution(playerID, enemyID string, dmg int) {
	if dmg <= 0 {
		return
	}
	s.contributions[contribKey{player: playerID, enemy: enemyID}] += dmg
}

// contributors returns the participants who dealt any damage to the enemy,
// in join order. Players who already left the session earn nothing.
func (s *Session) contributors(enemyID string) []*game.PlayerState {
	var out []*game.PlayerState
	for _, ps := range s.participants {
		if s.Contribution(string(ps.ID), enemyID) > 0 {
			out = append(out, ps)
		}
	}
	return out
}

// topContributor returns the present participant with the highest cumulative
// damage to the enemy. Ties go to the earlier joiner.
func (s *Session) topContributor(enemyID string) *game.PlayerState {
	var best *game.PlayerState
	bestDmg := 0
	for _, ps := range s.participants {
		if dmg := s.Contribution(string(ps.ID), enemyID); dmg > bestDmg {
			best, bestDmg = ps, dmg
		}
	}
	return best
}

// aggroTarget picks who the enemy retaliates against: its highest living
// contributor, falling back to the first living participant when nobody has
// damaged it yet.
func (s *Session) aggroTarget(enemyID string) *game.PlayerState {
	var best *game.PlayerState
	bestDmg := 0
	for _, ps := range s.participants {
		if !ps.IsAlive() {
			continue
		}
		if dmg := s.Contribution(string(ps.ID), enemyID); dmg > bestDmg {
			best, bestDmg = ps, dmg
		}
	}
	if best != nil {
		return best
	}
	for _, ps := range s.participants {
		if ps.IsAlive() {
			return ps
		}
	}
	return nil
}

// Enemies returns the living and recently-dead enemies still bound to the
// session, in join order.
func (s *Session) Enemies() []*game.EnemyInstance {
	return s.enemies
}

// Participants returns the session's players in join order.
func (s *Session) Participants() []*game.PlayerState {
	return s.participants
}

// Target returns the enemy instance the participant is auto-attacking, or "".
func (s *Session) Target(playerID string) string {
	return s.targets[playerID]
}
