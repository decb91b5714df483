package dsp

// BitCrusher reduces the effective sample rate by holding each captured frame
// for Reduction input frames.
type BitCrusher struct {
	reduction param

	position float64
	heldL    float32
	heldR    float32
}

func NewBitCrusher(reduction float64) *BitCrusher {
	b := &BitCrusher{}
	b.SetReduction(reduction)
	return b
}

// SetReduction sets the hold length in frames. Values below 1 are clamped.
func (b *BitCrusher) SetReduction(frames float64) {
	b.reduction.Store(max(frames, 1))
}

func (b *BitCrusher) Reduction() float64 { return b.reduction.Load() }

func (b *BitCrusher) Process(buf []float32) {
	reduction := b.reduction.Load()
	for i := 0; i < frames(buf); i++ {
		b.position++
		if b.position > reduction {
			b.heldL = buf[i*2]
			b.heldR = buf[i*2+1]
			b.position -= reduction
		}
		buf[i*2] = b.heldL
		buf[i*2+1] = b.heldR
	}
}

func (b *BitCrusher) Reset() {
	b.position = 0
	b.heldL, b.heldR = 0, 0
}
