package game

import (
	"bitscape/internal/config"
	"bitscape/internal/geom"
)

// Sprite is an animated region of a sprite sheet. Frames are laid out
// horizontally: frame n sits at OriginalFrame.X + n*OriginalFrame.W.
type Sprite struct {
	SheetID        uint32    `json:"sheet_id"`
	Frame          geom.Rect `json:"frame"`
	OriginalFrame  geom.Rect `json:"original_frame"`
	NumberOfFrames int       `json:"number_of_frames"`
	CurrentFrame   int       `json:"current_frame"`
	Elapsed        float32   `json:"elapsed,omitempty"`
	Completed      int       `json:"completed_loops,omitempty"`
}

// NewSprite builds a sprite whose first frame is at frame.
func NewSprite(sheet uint32, frame geom.Rect, frames int) Sprite {
	if frames < 1 {
		frames = 1
	}
	return Sprite{SheetID: sheet, Frame: frame, OriginalFrame: frame, NumberOfFrames: frames}
}

// Update advances the animation at AnimationsFPS.
func (s *Sprite) Update(dt float32) {
	if s.NumberOfFrames <= 1 {
		return
	}
	s.Elapsed += dt
	step := float32(1) / config.AnimationsFPS
	for s.Elapsed >= step {
		s.Elapsed -= step
		s.CurrentFrame++
		if s.CurrentFrame >= s.NumberOfFrames {
			s.CurrentFrame = 0
			s.Completed++
		}
	}
	s.Frame.X = s.OriginalFrame.X + float32(s.CurrentFrame)*s.OriginalFrame.W
}

// Reset rewinds to the first frame.
func (s *Sprite) Reset() {
	s.CurrentFrame = 0
	s.Elapsed = 0
	s.Frame = s.OriginalFrame
}

// SetRow selects a row of the sheet, used for direction-dependent frames.
func (s *Sprite) SetRow(row int) {
	s.Frame.Y = s.OriginalFrame.Y + float32(row)*s.OriginalFrame.H
}

// SetOriginX moves the animation to another column block of the sheet.
func (s *Sprite) SetOriginX(x float32) {
	s.OriginalFrame.X = x
	s.Frame.X = x + float32(s.CurrentFrame)*s.OriginalFrame.W
}

// directionRow maps a facing direction to its sprite sheet row.
func directionRow(d geom.Direction) int {
	switch d {
	case geom.Up, geom.UpLeft, geom.UpRight:
		return 0
	case geom.Right:
		return 1
	case geom.Down, geom.DownLeft, geom.DownRight:
		return 2
	case geom.Left:
		return 3
	}
	return 2
}
