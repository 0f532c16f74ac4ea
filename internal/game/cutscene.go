package game

import "bitscape/internal/geom"

// Cutscene is the state of a one-shot scripted animation.
type Cutscene struct {
	Key        string    `json:"key"`
	TriggerCol int       `json:"trigger_col"`
	TriggerRow int       `json:"trigger_row"`
	PlaySprite Sprite    `json:"play_sprite"`
	OnEnd      []*Entity `json:"on_end,omitempty"`

	IsPlaying         bool `json:"-"`
	DidPassFirstFrame bool `json:"-"`
	Done              bool `json:"-"`
}

func (c *Cutscene) clone() *Cutscene {
	out := *c
	out.OnEnd = make([]*Entity, len(c.OnEnd))
	for i, e := range c.OnEnd {
		out.OnEnd[i] = e.Clone()
	}
	return &out
}

// hide blanks the idle sprite.
func (c *Cutscene) hide(e *Entity) {
	c.IsPlaying = false
	c.Done = true
	e.Sprite.SheetID = 0
	e.Sprite.Frame = geom.Rect{W: 1, H: 1}
}

func (e *Entity) setupCutscene(w *World) {
	if e.Cutscene == nil {
		e.Cutscene = &Cutscene{}
	}
	if e.cutsceneAlreadyPlayed(w) {
		e.Cutscene.hide(e)
	}
}

func (e *Entity) cutsceneAlreadyPlayed(w *World) bool {
	v, _ := w.StoredValue(e.Cutscene.Key)
	return v == 1
}

// updateCutscene waits for the hero on the trigger tile, plays once, then
// records completion and spawns its follow-up entities.
func (e *Entity) updateCutscene(w *World, dt float32) []WorldStateUpdate {
	c := e.Cutscene
	if c == nil || c.Done {
		return nil
	}
	if e.cutsceneAlreadyPlayed(w) {
		c.hide(e)
		return nil
	}

	if !c.IsPlaying {
		e.Sprite.Update(dt)
		if w.IsHeroAt(c.TriggerCol, c.TriggerRow) {
			c.IsPlaying = true
			c.PlaySprite.Reset()
		}
		return nil
	}

	c.PlaySprite.Update(dt)

	// Frame zero shows up both before and after a full loop.
	if c.DidPassFirstFrame && c.PlaySprite.Frame.X == c.PlaySprite.OriginalFrame.X {
		c.hide(e)
		updates := []WorldStateUpdate{SetStorageValue{Key: c.Key, Value: 1}}
		for _, spawn := range c.OnEnd {
			updates = append(updates, AddEntity{Entity: spawn.Clone()})
		}
		return updates
	}
	if !c.DidPassFirstFrame && c.PlaySprite.Frame.X > c.PlaySprite.OriginalFrame.X {
		c.DidPassFirstFrame = true
	}
	return nil
}
