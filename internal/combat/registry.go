package combat

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/RednibCoding/mudden-sub001/internal/events"
	"github.com/RednibCoding/mudden-sub001/internal/game"
	"github.com/RednibCoding/mudden-sub001/internal/storage"
)

// KillNotifier receives one call per contributing participant when an enemy
// dies. Combat does not know what the notifier does with it.
type KillNotifier interface {
	NotifyKill(ps *game.PlayerState, templateID storage.Identifier)
}

// Registry is the single authority over active combat sessions. It owns the
// enemy-to-session mapping, advances every session one round per tick, and
// schedules respawns for the enemies that die.
//
// Like the world, the registry is owned by the tick goroutine; nothing here
// is safe for concurrent use and nothing needs to be.
type Registry struct {
	world *game.World
	rules Rules
	sink  *events.Sink

	rng      *rand.Rand
	quests   KillNotifier
	onDefeat func(*game.PlayerState)

	// One session per location; byEnemy enforces the one-session-per-enemy
	// invariant and answers "is this enemy already in a fight".
	sessions map[storage.Identifier]*Session
	byEnemy  map[string]*Session

	timers []RespawnTimer
}

type RegistryOpt func(*Registry)

// WithRand replaces the randomness source, for deterministic tests.
func WithRand(rng *rand.Rand) RegistryOpt {
	return func(r *Registry) {
		r.rng = rng
	}
}

// WithKillNotifier wires the quest progress hook.
func WithKillNotifier(n KillNotifier) RegistryOpt {
	return func(r *Registry) {
		r.quests = n
	}
}

// WithDefeatHandler sets the callback invoked after a participant's health
// reaches zero and they have been removed from their session. The death and
// respawn flow itself lives outside the combat engine.
func WithDefeatHandler(fn func(*game.PlayerState)) RegistryOpt {
	return func(r *Registry) {
		r.onDefeat = fn
	}
}

func NewRegistry(world *game.World, rules Rules, sink *events.Sink, opts ...RegistryOpt) *Registry {
	r := &Registry{
		world:    world,
		rules:    rules,
		sink:     sink,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		sessions: make(map[storage.Identifier]*Session),
		byEnemy:  make(map[string]*Session),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Attack joins the player into the fight against target, creating the
// location's session if this is the first blow. Joining never touches other
// participants' contributions. The swing itself lands during the next round
// resolution.
func (r *Registry) Attack(ps *game.PlayerState, target *game.EnemyInstance) error {
	if !ps.IsAlive() {
		return ErrDefeated
	}
	if target == nil || !target.IsAlive() {
		return ErrTargetDead
	}

	s, ok := r.sessions[target.LocationID]
	if !ok {
		s = newSession(uuid.New().String(), target.LocationID)
		r.sessions[target.LocationID] = s
	}

	if ps.SessionID != "" && ps.SessionID != s.ID {
		return ErrBusyElsewhere
	}

	s.addEnemy(target)
	r.byEnemy[target.InstanceID] = s
	s.addParticipant(ps)
	s.targets[string(ps.ID)] = target.InstanceID

	return nil
}

// Flee rolls the configured success chance. Success removes the participant
// immediately, before any retaliation; failure wastes the attempt and the
// round proceeds as normal.
func (r *Registry) Flee(ps *game.PlayerState) (bool, error) {
	s := r.sessionOf(ps)
	if s == nil {
		return false, ErrNotInCombat
	}

	success := r.rng.Float64() < r.rules.FleeChance
	if success {
		s.removeParticipant(string(ps.ID))
	}
	r.sink.Push(ps.ConnID, events.FleeResult{Player: ps.Record.Name, Success: success})

	return success, nil
}

// RemoveParticipant drops a player from their session, if any. Used on
// disconnect; the session survives, enemies simply go unattacked until it
// either empties of enemies or someone else fights on.
func (r *Registry) RemoveParticipant(ps *game.PlayerState) {
	if s := r.sessionOf(ps); s != nil {
		s.removeParticipant(string(ps.ID))
	}
	ps.SessionID = ""
}

// InCombat reports whether the enemy instance is bound to a session.
func (r *Registry) InCombat(instanceID string) bool {
	_, ok := r.byEnemy[instanceID]
	return ok
}

// SessionAt returns the active session at a location, or nil.
func (r *Registry) SessionAt(locationID storage.Identifier) *Session {
	return r.sessions[locationID]
}

// PendingRespawns returns the scheduled respawn timers.
func (r *Registry) PendingRespawns() []RespawnTimer {
	return r.timers
}

func (r *Registry) sessionOf(ps *game.PlayerState) *Session {
	if ps.SessionID == "" {
		return nil
	}
	s, ok := r.sessions[ps.LocationID]
	if !ok || s.ID != ps.SessionID {
		// Stale back-reference; the session owns membership, so trust it.
		ps.SessionID = ""
		return nil
	}
	return s
}

// Round advances every active session by one combat round. Sessions are
// independent; they are walked in location order only so a given state
// always resolves the same way.
func (r *Registry) Round(now time.Time) {
	ids := make([]storage.Identifier, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		s, ok := r.sessions[id]
		if !ok {
			continue
		}
		r.runSessionRound(s, now)
	}
}

func (r *Registry) runSessionRound(s *Session, now time.Time) {
	// A fault in one session must not take down the tick loop or the other
	// sessions.
	defer func() {
		if rec := recover(); rec != nil {
			r.fault(s, fmt.Sprint(rec))
		}
	}()

	// Everyone in the fight when the round starts gets its report, even if
	// they die or the session is destroyed mid-round.
	report := make([]string, 0, len(s.participants))
	for _, ps := range s.participants {
		report = append(report, ps.ConnID)
	}

	round := &events.CombatRound{SessionID: s.ID}

	// Attack phase, in join order. Deaths resolve after every participant
	// has swung, so two players finishing the same enemy in one round both
	// land their blows and both get contribution credit.
	for _, ps := range snapshot(s.participants) {
		if !ps.IsAlive() {
			continue
		}
		targetID, ok := s.targets[string(ps.ID)]
		if !ok {
			continue
		}
		target := s.enemyByID[targetID]
		if target == nil {
			// Target left the session in an earlier round; press the
			// attack against the next living enemy in the fight.
			target = s.firstLivingEnemy()
			if target == nil {
				continue
			}
			s.targets[string(ps.ID)] = target.InstanceID
		}

		dmg := r.rules.Damage(r.rng, ps.Record.Damage, target.Template.Defense)
		target.ApplyDamage(dmg)
		r.checkHealth(target)
		s.addContribution(string(ps.ID), target.InstanceID, dmg)

		round.Damage = append(round.Damage, events.Damage{
			Attacker:     ps.Record.Name,
			Target:       target.Name(),
			Amount:       dmg,
			TargetHealth: target.Health,
		})
	}

	// Death resolution pass.
	for _, ei := range snapshot(s.enemies) {
		if !ei.IsAlive() {
			r.resolveEnemyDeath(s, ei, now, round)
		}
	}

	// The last enemy dying destroys the session in the same tick.
	if len(s.enemies) == 0 {
		r.destroySession(s)
		r.pushRound(report, round)
		return
	}

	// Retaliation: each living enemy strikes its highest contributor.
	for _, ei := range snapshot(s.enemies) {
		if !ei.IsAlive() {
			continue
		}
		victim := s.aggroTarget(ei.InstanceID)
		if victim == nil {
			continue
		}

		dmg := r.rules.Damage(r.rng, ei.Template.Damage, victim.Record.Defense)
		victim.ApplyDamage(dmg)

		round.Damage = append(round.Damage, events.Damage{
			Attacker:     ei.Name(),
			Target:       victim.Record.Name,
			Amount:       dmg,
			TargetHealth: victim.Record.Health,
		})

		if !victim.IsAlive() {
			s.removeParticipant(string(victim.ID))
			r.sink.Push(victim.ConnID, events.PlayerDefeated{Player: victim.Record.Name})
			if r.onDefeat != nil {
				r.onDefeat(victim)
			}
		}
	}

	r.pushRound(report, round)
}

func (r *Registry) resolveEnemyDeath(s *Session, ei *game.EnemyInstance, now time.Time, round *events.CombatRound) {
	tmpl := ei.Template
	top := s.topContributor(ei.InstanceID)

	credited := ""
	if top != nil {
		credited = top.Record.Name
	}
	round.Deaths = append(round.Deaths, events.Death{
		InstanceID: ei.InstanceID,
		Template:   string(ei.TemplateID),
		Name:       ei.Name(),
		CreditedTo: credited,
	})

	// Every contributor gets the configured gold and XP; single-recipient
	// extras go to whoever dealt the most.
	for _, ps := range s.contributors(ei.InstanceID) {
		ps.Record.Gold += tmpl.RewardGold
		ps.Record.Experience += tmpl.RewardXP

		rw := events.Reward{Player: ps.Record.Name, Gold: tmpl.RewardGold, XP: tmpl.RewardXP}
		if r.rules.TopContributorBonus && ps == top {
			rw.Item = r.rollDrop(tmpl)
		}
		round.Rewards = append(round.Rewards, rw)

		if r.quests != nil {
			r.quests.NotifyKill(ps, ei.TemplateID)
		}
	}

	r.world.RemoveEnemy(ei)
	s.removeEnemy(ei.InstanceID)
	delete(r.byEnemy, ei.InstanceID)

	r.timers = append(r.timers, RespawnTimer{
		TemplateID: ei.TemplateID,
		LocationID: ei.LocationID,
		ReadyAt:    now.Add(tmpl.RespawnDelay(r.rules.RespawnDelay)),
	})
}

func (r *Registry) rollDrop(tmpl *game.EnemyTemplate) string {
	for _, d := range tmpl.Drops {
		if r.rng.Float64() < d.Chance {
			return d.Item
		}
	}
	return ""
}

func (r *Registry) destroySession(s *Session) {
	for _, ps := range snapshot(s.participants) {
		s.removeParticipant(string(ps.ID))
	}
	for _, ei := range s.enemies {
		delete(r.byEnemy, ei.InstanceID)
	}
	delete(r.sessions, s.LocationID)
}

// fault isolates an invariant violation to the offending session: tear it
// down, release its participants, keep the tick loop alive.
func (r *Registry) fault(s *Session, reason string) {
	slog.Error("combat session fault, tearing down", "session", s.ID, "location", s.LocationID, "reason", reason)

	for _, ps := range snapshot(s.participants) {
		r.sink.Push(ps.ConnID, events.CombatInterrupted{SessionID: s.ID})
		s.removeParticipant(string(ps.ID))
	}
	for _, ei := range s.enemies {
		delete(r.byEnemy, ei.InstanceID)
	}
	delete(r.sessions, s.LocationID)
}

func (r *Registry) checkHealth(ei *game.EnemyInstance) {
	if ei.Health < 0 || ei.Health > ei.MaxHealth {
		panic(fmt.Sprintf("enemy %s health %d outside [0, %d]", ei.InstanceID, ei.Health, ei.MaxHealth))
	}
}

func (r *Registry) pushRound(conns []string, round *events.CombatRound) {
	if len(round.Damage) == 0 && len(round.Deaths) == 0 {
		return
	}
	for _, conn := range conns {
		r.sink.Push(conn, *round)
	}
}

func (s *Session) firstLivingEnemy() *game.EnemyInstance {
	for _, ei := range s.enemies {
		if ei.IsAlive() {
			return ei
		}
	}
	return nil
}

// snapshot copies a slice so removal during iteration is safe.
func snapshot[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
