package game

// setup runs once when e enters a world.
func (e *Entity) setup(w *World) {
	switch e.Kind {
	case KindHero:
		e.setupHero(w)
	case KindTeleporter:
		e.applyLockOverride(w)
		e.IsRigid = e.Lock != LockNone
	case KindGate:
		e.applyLockOverride(w)
		e.IsRigid = !w.IsPressurePlateDown(e.Lock)
	case KindPressurePlate:
		e.setupPressurePlate(w)
	case KindCutscene:
		e.setupCutscene(w)
	case KindStaticObject, KindMonster, KindBullet, KindPickableObject,
		KindEquipment, KindBuilding, KindTrail, KindPushable:
	}
}

// Update runs e's behavior for one tick and returns the changes it wants
// applied to the world. e may modify its own fields; everything else goes
// through the returned updates.
func (e *Entity) Update(w *World, dt float32) []WorldStateUpdate {
	if expired, updates := e.tickLifespan(dt); expired {
		return updates
	}

	switch e.Kind {
	case KindHero:
		return e.updateHero(w, dt)
	case KindMonster:
		return e.updateMonster(w, dt)
	case KindBullet:
		return e.updateBullet(w, dt)
	case KindPickableObject:
		return e.updatePickableObject(w, dt)
	case KindPressurePlate:
		return e.updatePressurePlate(w, dt)
	case KindTeleporter:
		return e.updateTeleporter(w)
	case KindEquipment:
		return e.updateEquipment(w, dt)
	case KindCutscene:
		return e.updateCutscene(w, dt)
	case KindBuilding:
		return e.updateBuilding(w)
	case KindGate:
		e.IsRigid = !w.IsPressurePlateDown(e.Lock) && !w.CreativeMode()
		return nil
	case KindTrail:
		e.Sprite.Update(dt)
		return nil
	case KindPushable:
		return e.updatePushable(w, dt)
	case KindStaticObject:
		return nil
	}
	return nil
}

// tickLifespan counts down expiring entities. Bullets use their lifespan
// as flight time and handle it themselves.
func (e *Entity) tickLifespan(dt float32) (bool, []WorldStateUpdate) {
	if !e.Expires || e.Kind == KindBullet {
		return false, nil
	}
	e.RemainingLifespan -= dt
	if e.RemainingLifespan > 0 {
		return false, nil
	}
	return true, []WorldStateUpdate{RemoveEntity{ID: e.ID}}
}

// applyLockOverride restores a lock changed in an earlier session.
func (e *Entity) applyLockOverride(w *World) {
	if v, ok := w.StoredValue(lockOverrideKey(w.ID(), e.ID)); ok {
		e.Lock = LockType(v)
	}
}
