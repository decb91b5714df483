package dsp

import (
	"math"
	"testing"
)

const testRate = 1000

func impulse(n int) []float32 {
	buf := make([]float32, n*2)
	buf[0], buf[1] = 1, 1
	return buf
}

func ramp(n int) []float32 {
	buf := make([]float32, n*2)
	for i := 0; i < n; i++ {
		buf[i*2] = float32(i + 1)
		buf[i*2+1] = float32(i + 1)
	}
	return buf
}

func constant(n int, v float32) []float32 {
	buf := make([]float32, n*2)
	for i := range buf {
		buf[i] = v
	}
	return buf
}

func impulseAt(n, at int) []float32 {
	buf := make([]float32, n*2)
	buf[at*2], buf[at*2+1] = 1, 1
	return buf
}

func TestEchoImpulseRepeats(t *testing.T) {
	e := NewEcho(testRate, 0.01, 0.5)
	buf := impulseAt(50, 5)
	e.Process(buf)
	// dry on the first pass, then a repeat every buffer length minus one frame
	want := map[int]float32{5: 1, 14: 0.5, 23: 0.25, 32: 0.125, 41: 0.0625}
	for i := 0; i < 50; i++ {
		w := want[i]
		if math.Abs(float64(buf[i*2]-w)) > 1e-6 || math.Abs(float64(buf[i*2+1]-w)) > 1e-6 {
			t.Errorf("frame %d: got %f/%f, want %f", i, buf[i*2], buf[i*2+1], w)
		}
	}
}

func TestEchoReplacesInputAfterFirstPass(t *testing.T) {
	e := NewEcho(testRate, 0.01, 0.5)
	buf := impulseAt(50, 20)
	e.Process(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("sample %d: got %f, want only the (silent) delay line", i, v)
		}
	}
}

func TestEchoAcrossBlocks(t *testing.T) {
	e := NewEcho(testRate, 0.01, 0.5)
	buf := impulseAt(7, 5)
	e.Process(buf)
	rest := make([]float32, 40)
	e.Process(rest)
	// frame 14 overall is frame 7 of the second block
	if math.Abs(float64(rest[14]-0.5)) > 1e-6 {
		t.Errorf("expected echo at frame 14, got %f", rest[14])
	}
}

func TestEchoResizeDiscardsHistory(t *testing.T) {
	e := NewEcho(testRate, 0.01, 0.9)
	e.Process(constant(25, 1))
	e.SetDuration(0.02)
	buf := make([]float32, 100)
	e.Process(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("sample %d: got %f after resize, want silence", i, v)
		}
	}
	if e.Duration() != 0.02 {
		t.Errorf("duration: got %f", e.Duration())
	}
}

func TestBiQuadCoefficients(t *testing.T) {
	q, freq := 0.707, 1000.0
	w0 := 2 * math.Pi * freq / 48000
	alpha := math.Sin(w0) / (2 * q)

	lp := LowPassCoefficients(q, freq, 48000)
	if lp.A0 != 1+alpha {
		t.Errorf("lowpass a0: got %f, want %f", lp.A0, 1+alpha)
	}
	if math.Abs(lp.B0-(1-math.Cos(w0))/2) > 1e-12 {
		t.Errorf("lowpass b0: got %f", lp.B0)
	}
	hp := HighPassCoefficients(q, freq, 48000)
	if hp.A0 != 1+alpha || hp.B1 != -(1+math.Cos(w0)) {
		t.Errorf("highpass: got %+v", hp)
	}
	pk := PeakingCoefficients(q, freq, 20, 48000)
	a := math.Pow(10, 20.0/40)
	if math.Abs(pk.A0-(1+alpha/a)) > 1e-12 || math.Abs(pk.B0-(1+alpha*a)) > 1e-12 {
		t.Errorf("peaking: got %+v", pk)
	}
	if c := LowPassCoefficients(0, freq, 48000); c.A0 != 1+math.Sin(w0)/(2*minQ) {
		t.Errorf("q should clamp to %f", minQ)
	}
}

func TestBiQuadDCResponse(t *testing.T) {
	lp := NewBiQuadFilter(48000)
	lp.SetLowPass(0.707, 1000)
	buf := constant(4000, 0.5)
	lp.Process(buf)
	if got := buf[len(buf)-2]; math.Abs(float64(got)-0.5) > 0.01 {
		t.Errorf("lowpass should pass DC, got %f", got)
	}

	hp := NewBiQuadFilter(48000)
	hp.SetHighPass(0.707, 1000)
	buf = constant(4000, 0.5)
	hp.Process(buf)
	if got := buf[len(buf)-2]; math.Abs(float64(got)) > 0.01 {
		t.Errorf("highpass should block DC, got %f", got)
	}
}

func TestBiQuadDefaultPassesThrough(t *testing.T) {
	f := NewBiQuadFilter(48000)
	buf := ramp(10)
	f.Process(buf)
	for i := 0; i < 10; i++ {
		if buf[i*2] != float32(i+1) {
			t.Fatalf("frame %d: got %f", i, buf[i*2])
		}
	}
}

func TestBitCrusherHoldsFrames(t *testing.T) {
	b := NewBitCrusher(4)
	buf := ramp(12)
	b.Process(buf)
	want := []float32{0, 0, 0, 0, 5, 5, 5, 5, 9, 9, 9, 9}
	for i, w := range want {
		if buf[i*2] != w || buf[i*2+1] != w {
			t.Errorf("frame %d: got %f, want %f", i, buf[i*2], w)
		}
	}
	b.SetReduction(0)
	if b.Reduction() != 1 {
		t.Errorf("reduction should clamp to 1, got %f", b.Reduction())
	}
}

func TestFlangerSettlesOnDC(t *testing.T) {
	f := NewFlanger(testRate, 0.5, 2, 8)
	buf := constant(50, 1)
	f.Process(buf)
	if buf[0] != 0.5 {
		t.Errorf("first frame should mix with empty delay line, got %f", buf[0])
	}
	for i := 10; i < 50; i++ {
		if math.Abs(float64(buf[i*2]-1)) > 1e-6 {
			t.Fatalf("frame %d: got %f, want 1", i, buf[i*2])
		}
	}
	if lo, hi := f.DelayRange(); lo != 2 || hi != 8 {
		t.Errorf("delay range: got %d..%d", lo, hi)
	}
}

func TestFlangerResizeDiscardsHistory(t *testing.T) {
	f := NewFlanger(testRate, 0.5, 2, 8)
	f.Process(constant(20, 1))
	f.SetDelayRange(4, 16)
	buf := make([]float32, 40)
	f.Process(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("sample %d: got %f after resize", i, v)
		}
	}
}

func TestPhaserSilenceAndTail(t *testing.T) {
	p := NewPhaser(48000, 1, 0.2, 15000, 5000)
	buf := make([]float32, 256)
	p.Process(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("sample %d: silence should stay silent, got %f", i, v)
		}
	}
	buf = impulse(256)
	p.Process(buf)
	var tail float64
	for i := 1; i < 256; i++ {
		tail += math.Abs(float64(buf[i*2]))
	}
	if tail < 1e-4 {
		t.Error("expected all pass tail after impulse")
	}
	p.SetFeedback(3)
	if p.Feedback() != 1 {
		t.Errorf("feedback should clamp to 1, got %f", p.Feedback())
	}
}

func TestRetriggerLoops(t *testing.T) {
	r := NewRetrigger(testRate, 0.01, 0, 0)
	buf := ramp(30)
	r.Process(buf)
	for i := 0; i < 30; i++ {
		want := float32(i%10 + 1)
		if buf[i*2] != want {
			t.Errorf("frame %d: got %f, want %f", i, buf[i*2], want)
		}
	}
}

func TestRetriggerLoopCountRecaptures(t *testing.T) {
	r := NewRetrigger(testRate, 0.01, 2, 0)
	buf := ramp(30)
	r.Process(buf)
	if buf[15*2] != 6 {
		t.Errorf("frame 15 should replay frame 5, got %f", buf[15*2])
	}
	if buf[25*2] != 26 {
		t.Errorf("frame 25 should be freshly captured, got %f", buf[25*2])
	}
}

func TestRetriggerGatingAndMix(t *testing.T) {
	r := NewRetrigger(testRate, 0.01, 0, 0.5)
	r.SetMix(0.5)
	buf := constant(10, 1)
	r.Process(buf)
	if buf[2*2] != 1 {
		t.Errorf("captured frame: got %f, want 1", buf[2*2])
	}
	if buf[8*2] != 0.5 {
		t.Errorf("gated frame mixed with dry: got %f, want 0.5", buf[8*2])
	}
}

func TestGateIsBinary(t *testing.T) {
	g := NewGate(testRate, 0.01, 0.5)
	buf := constant(20, 1)
	g.Process(buf)
	for i := 0; i < 20; i++ {
		want := float32(1)
		if i%10 >= 5 {
			want = 0
		}
		if buf[i*2] != want {
			t.Errorf("frame %d: got %f, want %f", i, buf[i*2], want)
		}
	}
}

func TestSideChainEnvelope(t *testing.T) {
	s := NewSideChain(testRate, 1, 1)
	buf := constant(1000, 1)
	s.Process(buf)
	if buf[0] != 1 {
		t.Errorf("cycle start: got %f, want 1", buf[0])
	}
	if buf[80*2] > 0.02 {
		t.Errorf("end of attack: got %f, want ~0", buf[80*2])
	}
	if math.Abs(float64(buf[540*2])-0.5) > 0.02 {
		t.Errorf("mid release: got %f, want ~0.5", buf[540*2])
	}

	half := NewSideChain(testRate, 1, 0.5)
	buf = constant(100, 1)
	half.Process(buf)
	if math.Abs(float64(buf[80*2])-0.5) > 0.02 {
		t.Errorf("amount 0.5 floor: got %f, want ~0.5", buf[80*2])
	}
}

func TestSideChainZeroDurationPassesThrough(t *testing.T) {
	s := NewSideChain(testRate, 0, 1)
	buf := ramp(10)
	s.Process(buf)
	if buf[0] != 1 || buf[18] != 10 {
		t.Error("zero duration should not modify the signal")
	}
}

func TestTapeStopHalts(t *testing.T) {
	ts := NewTapeStop(testRate, 0.1)
	buf := ramp(150)
	ts.Process(buf)
	if buf[0] != 1 {
		t.Errorf("first frame: got %f, want 1", buf[0])
	}
	prev := float32(0)
	for i := 0; i < 100; i++ {
		if buf[i*2] < prev || buf[i*2] > float32(i+1) {
			t.Fatalf("frame %d: got %f, must not run ahead or backwards", i, buf[i*2])
		}
		if buf[i*2] != buf[i*2+1] {
			t.Fatalf("frame %d: channels differ", i)
		}
		prev = buf[i*2]
	}
	for i := 100; i < 150; i++ {
		if buf[i*2] != 0 {
			t.Fatalf("frame %d: got %f after stop, want silence", i, buf[i*2])
		}
	}
}

func TestTapeStopLongHoldTracksReadPosition(t *testing.T) {
	const rate, seconds = 48000, 4.0
	ts := NewTapeStop(rate, seconds)
	length := int(seconds * rate)
	n := 150000
	in := ramp(n)
	for off := 0; off < len(in); off += 1024 * 2 {
		ts.Process(in[off:min(off+1024*2, len(in))])
	}
	var read float64
	for i := 0; i < n; i++ {
		want := float32(int(read) + 1)
		if in[i*2] != want {
			t.Fatalf("frame %d: got %f, want %f", i, in[i*2], want)
		}
		read += 1 - float64(i)/float64(length)
	}
}

func TestChainCopyOnWrite(t *testing.T) {
	a := NewBitCrusher(2)
	b := NewGate(testRate, 1, 0)
	c := NewChain(a)
	d := c.With(b)
	if c.Len() != 1 || d.Len() != 2 {
		t.Fatalf("lengths: got %d and %d", c.Len(), d.Len())
	}
	e, ok := d.Without(a)
	if !ok || e.Len() != 1 || e.Effects()[0] != b {
		t.Error("Without should remove the effect")
	}
	if d.Len() != 2 {
		t.Error("Without must not modify the receiver")
	}
	if _, ok := e.Without(a); ok {
		t.Error("removing a missing effect should report false")
	}
	var empty *Chain
	empty.Process(make([]float32, 4))
}

func TestEQ5BandUnityGain(t *testing.T) {
	eq := NewEQ5Band(44100)
	buf := constant(1000, 0.5)
	eq.Process(buf)
	if got := buf[len(buf)-2]; math.Abs(float64(got)-0.5) > 1e-3 {
		t.Errorf("expected ~0.5 with unity gains, got %f", got)
	}
	eq.SetGains([5]float32{0, 0, 0, 0, 0})
	buf = constant(10, 0.5)
	eq.Process(buf)
	if buf[18] != 0 {
		t.Errorf("zero gains should silence, got %f", buf[18])
	}
}

func TestLimiterReducesLoud(t *testing.T) {
	l := NewLimiter(44100, -1, 20, 1, 50)
	buf := constant(2000, 2)
	l.Process(buf)
	if out := buf[len(buf)-2]; out >= 1.1 {
		t.Errorf("limiter should hold near threshold, got %f", out)
	}
	quiet := constant(100, 0.1)
	NewLimiter(44100, -1, 20, 1, 50).Process(quiet)
	if quiet[198] != 0.1 {
		t.Errorf("quiet signal should pass, got %f", quiet[198])
	}
}

func TestOneShotMixesOnTrigger(t *testing.T) {
	o := NewOneShot([]float32{1, 1, 2, 2, 3, 3}, 1)
	buf := make([]float32, 4)
	o.Process(buf)
	if buf[0] != 0 {
		t.Error("idle one-shot should be silent")
	}
	o.Trigger()
	o.Process(buf)
	if buf[0] != 1 || buf[2] != 2 || !o.Playing() {
		t.Errorf("first block: got %v", buf)
	}
	buf = []float32{0.5, 0.5, 0.5, 0.5}
	o.Process(buf)
	if buf[0] != 3.5 || buf[2] != 0.5 || o.Playing() {
		t.Errorf("second block: got %v playing=%v", buf, o.Playing())
	}
}

func BenchmarkEchoProcess(b *testing.B) {
	e := NewEcho(48000, 0.25, 0.5)
	buf := make([]float32, 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Process(buf)
	}
}

func BenchmarkPhaserProcess(b *testing.B) {
	p := NewPhaser(48000, 2, 0.2, 15000, 5000)
	buf := make([]float32, 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Process(buf)
	}
}
