package game

import (
	"go.uber.org/zap"
)

// applyAll applies updates in order and returns what must be forwarded
// to the surrounding engine.
func (w *World) applyAll(updates []WorldStateUpdate) []EngineStateUpdate {
	var outbound []EngineStateUpdate
	for _, u := range updates {
		outbound = w.apply(u, outbound)
	}
	return outbound
}

// Apply applies updates outside of a tick, for confirmations accepted by
// the player and for replay. The hit-grid is refreshed afterwards.
func (w *World) Apply(updates ...WorldStateUpdate) []EngineStateUpdate {
	outbound := w.applyAll(updates)
	w.compact()
	w.rebuildGrid()
	return outbound
}

func (w *World) apply(u WorldStateUpdate, outbound []EngineStateUpdate) []EngineStateUpdate {
	w.logUpdate(u)

	switch u := u.(type) {
	case AddEntity:
		if u.Entity != nil {
			w.insert(u.Entity.Clone())
		}
	case RemoveEntity:
		w.remove(u.ID)
	case ChangeLock:
		w.changeLock(u.ID, u.Lock)
	case SetPressurePlateState:
		w.plates[u.Lock] = u.Down
		w.persist(pressurePlateKey(u.Lock), boolToInt(u.Down))
	case ChangeTile:
		w.SetBiome(u.Col, u.Row, u.Biome)
	case CacheHeroProps:
		if u.PlayerIndex >= 0 && u.PlayerIndex < len(w.players) && w.players[u.PlayerIndex].active {
			w.players[u.PlayerIndex].props = u.Props
		}
	case HandleHit:
		outbound = w.handleHit(u, outbound)
	case SetStorageValue:
		w.persist(u.Key, u.Value)
	case StopHeroMovement:
		if id, ok := w.PlayerEntityID(u.PlayerIndex); ok {
			if e := w.index[id]; e != nil {
				e.CurrentSpeed = 0
				w.players[u.PlayerIndex].props.Speed = 0
			}
		}
	case Batch:
		if w.Exists(u.Owner) {
			for _, inner := range u.Updates {
				outbound = w.apply(inner, outbound)
			}
		}
	case EngineUpdate:
		if u.Update != nil {
			outbound = append(outbound, u.Update)
		}
	}
	return outbound
}

// remove deletes an entity. Heroes are never removed; unknown ids are
// ignored so repeated removals are harmless.
func (w *World) remove(id EntityID) {
	if _, ok := w.index[id]; !ok || w.isPlayerEntity(id) {
		return
	}
	delete(w.index, id)
}

func (w *World) changeLock(id EntityID, lock LockType) {
	e, ok := w.index[id]
	if !ok {
		return
	}
	e.Lock = lock
	if e.Kind == KindTeleporter {
		e.IsRigid = lock != LockNone && !w.creative
	}
	w.persist(lockOverrideKey(w.id, id), int(lock))
}

// handleHit damages the target and consumes the bullet that caused it.
func (w *World) handleHit(u HandleHit, outbound []EngineStateUpdate) []EngineStateUpdate {
	if u.BulletID != 0 {
		w.remove(u.BulletID)
	}
	target, ok := w.index[u.TargetID]
	if !ok || target.IsDying || target.IsInvulnerable {
		return outbound
	}

	target.HP -= u.Damage
	killed := target.HP <= 0
	if killed && target.Kind == KindMonster {
		target.IsDying = true
		target.IsRigid = false
		target.CurrentSpeed = 0
		target.Expires = true
		target.RemainingLifespan = deathDuration
	}
	if target.Kind == KindHero {
		w.players[target.PlayerIndex].props.HP = target.HP
	}

	cue := SoundHit
	if killed {
		cue = SoundDeath
	}
	return append(outbound,
		CombatResult{
			AttackerID: u.AttackerID,
			TargetID:   u.TargetID,
			Damage:     u.Damage,
			TargetHP:   target.HP,
			Killed:     killed,
		},
		PlaySound{Cue: cue},
	)
}

func (w *World) persist(key string, value int) {
	if err := w.store.Set(key, value); err != nil {
		w.logger.Warn("⚠️ failed to persist value", zap.String("key", key), zap.Error(err))
	}
}

// logUpdate traces applied updates, skipping the per-tick chatter.
func (w *World) logUpdate(u WorldStateUpdate) {
	switch u.Kind() {
	case UpdateCacheHeroProps, UpdateEngine:
		return
	}
	if ce := w.logger.Check(zap.DebugLevel, "world update"); ce != nil {
		ce.Write(zap.Stringer("kind", u.Kind()), zap.Uint32("world", w.id), zap.Uint64("tick", w.tick))
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
