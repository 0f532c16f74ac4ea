package game

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// maxEventLine bounds a single journal line; AddEntity payloads for
// cutscenes with follow-ups can be large.
const maxEventLine = 1 << 20

// ReadEvents parses a JSONL journal. Lines that do not decode are
// skipped and counted.
func ReadEvents(r io.Reader) ([]Event, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventLine)

	var events []Event
	skipped := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			skipped++
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return events, skipped, fmt.Errorf("read journal: %w", err)
	}
	return events, skipped, nil
}

// ReplayStats summarizes a replay.
type ReplayStats struct {
	Ticks   int `json:"ticks"`
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

// Replay re-applies journaled updates to w, one tick at a time, through
// the same reducer that produced them. Events for other worlds or with
// undecodable payloads are skipped. Heroes are moved to their cached
// props since their own movement is not journaled; other autonomous
// movement is not reproduced.
func Replay(w *World, events []Event) ReplayStats {
	var stats ReplayStats
	var pending []WorldStateUpdate
	currentTick := uint64(0)
	started := false

	flush := func() {
		if len(pending) == 0 {
			return
		}
		w.Apply(pending...)
		stats.Applied += len(pending)
		stats.Ticks++
		pending = pending[:0]
	}

	for _, event := range events {
		if event.WorldID != w.ID() {
			stats.Skipped++
			continue
		}
		if started && event.TickNum != currentTick {
			flush()
		}
		started, currentTick = true, event.TickNum

		u, err := DecodeWorldUpdate(event.Type, event.Payload)
		if err != nil {
			stats.Skipped++
			continue
		}
		if c, ok := u.(CacheHeroProps); ok {
			w.restoreHero(c)
		}
		pending = append(pending, u)
	}
	flush()
	w.tick = max(w.tick, currentTick)
	return stats
}

// restoreHero moves a player's hero to a journaled snapshot.
func (w *World) restoreHero(c CacheHeroProps) {
	id, ok := w.PlayerEntityID(c.PlayerIndex)
	if !ok {
		return
	}
	if e := w.index[id]; e != nil {
		e.Frame = c.Props.Frame
		e.Direction = c.Props.Direction
		e.CurrentSpeed = c.Props.Speed
		e.Offset = c.Props.Offset
		e.HP = c.Props.HP
	}
}
