package effects

import (
	"encoding/binary"
	"image/color"
	"math"
)

// settingsSize is the byte size of the Settings uniform block.
const settingsSize = 32

// Settings is the uniform block every effect can read.
type Settings struct {
	Time       float32
	Scale      float32
	Resolution [2]float32
	Background [4]float32
}

// SetBackground stores c as straight-alpha floats in [0,1].
func (s *Settings) SetBackground(c color.NRGBA) {
	s.Background = [4]float32{
		float32(c.R) / 255,
		float32(c.G) / 255,
		float32(c.B) / 255,
		float32(c.A) / 255,
	}
}

// Bytes encodes s in the uniform buffer layout.
func (s *Settings) Bytes() []byte {
	vals := [8]float32{
		s.Time, s.Scale,
		s.Resolution[0], s.Resolution[1],
		s.Background[0], s.Background[1], s.Background[2], s.Background[3],
	}
	out := make([]byte, settingsSize)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}
