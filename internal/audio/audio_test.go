package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/faiface/beep"

	"github.com/cbegin/fxtrack-go/internal/dsp"
)

type constSource struct {
	v        float32
	finished bool
}

func (s *constSource) Process(dst []float32) {
	for i := range dst {
		dst[i] = s.v
	}
}

func (s *constSource) Finished() bool { return s.finished }

// scale multiplies by k and records the call order.
type scale struct {
	k     float32
	name  string
	order *[]string
}

func (s *scale) Process(buf []float32) {
	*s.order = append(*s.order, s.name)
	for i := range buf {
		buf[i] *= s.k
	}
}

func (s *scale) Reset() {}

func TestStreamReaderEncodesFloat32LE(t *testing.T) {
	r := NewStreamReader(&constSource{v: 0.25})
	p := make([]byte, 4*8+3)
	n, err := r.Read(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 32 {
		t.Fatalf("n = %d, want 32", n)
	}
	for i := 0; i < 8; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		if got != 0.25 {
			t.Fatalf("sample %d = %f, want 0.25", i, got)
		}
	}
	if r.Frames() != 4 {
		t.Errorf("frames = %d, want 4", r.Frames())
	}
}

func TestStreamReaderEOFWhenFinished(t *testing.T) {
	r := NewStreamReader(&constSource{finished: true})
	n, err := r.Read(make([]byte, 16))
	if n != 16 || !errors.Is(err, io.EOF) {
		t.Fatalf("got (%d, %v), want (16, EOF)", n, err)
	}
	if n, err := r.Read(make([]byte, 7)); n != 0 || err != nil {
		t.Fatalf("short read got (%d, %v)", n, err)
	}
}

func TestTrackChainOrder(t *testing.T) {
	var order []string
	tr := NewTrack(1000, &constSource{v: 0.5}, WithLimiter(nil))
	a := &scale{k: 0.5, name: "a", order: &order}
	b := &scale{k: 0.5, name: "b", order: &order}
	tr.AddDsp(a)
	tr.AddDsp(b)
	buf := make([]float32, 8)
	tr.Process(buf)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order = %v, want [a b]", order)
	}
	if math.Abs(float64(buf[0]-0.125)) > 1e-6 {
		t.Errorf("got %f, want 0.125", buf[0])
	}

	tr.RemoveDsp(a)
	tr.RemoveDsp(a)
	if got := tr.Effects(); len(got) != 1 || got[0] != dsp.Dsp(b) {
		t.Fatalf("effects after remove = %v", got)
	}
	order = order[:0]
	tr.Process(buf)
	if len(order) != 1 || order[0] != "b" {
		t.Fatalf("order = %v, want [b]", order)
	}
	if tr.Frames() != 8 {
		t.Errorf("frames = %d, want 8", tr.Frames())
	}
}

func TestTrackOverlayBypassesEffects(t *testing.T) {
	var order []string
	tr := NewTrack(1000, nil, WithLimiter(nil))
	tr.AddDsp(&scale{k: 0, name: "mute", order: &order})
	shot := dsp.NewOneShot([]float32{0.5, 0.5, 0.25, 0.25}, 1)
	tr.AddOverlay(shot)
	shot.Trigger()
	buf := make([]float32, 6)
	tr.Process(buf)
	want := []float32{0.5, 0.5, 0.25, 0.25, 0, 0}
	for i := range want {
		if math.Abs(float64(buf[i]-want[i])) > 1e-6 {
			t.Fatalf("buf[%d] = %f, want %f", i, buf[i], want[i])
		}
	}
	tr.RemoveOverlay(shot)
	shot.Trigger()
	tr.Process(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("buf[%d] = %f after overlay removal", i, v)
		}
	}
}

func TestTrackMasterEQ(t *testing.T) {
	tr := NewTrack(48000, &constSource{v: 0.5}, WithLimiter(nil))
	tr.MasterEQ().SetGains([5]float32{0, 0, 0, 0, 0})
	buf := make([]float32, 256)
	tr.Process(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("buf[%d] = %f with all bands muted", i, v)
		}
	}
}

func TestTrackPosition(t *testing.T) {
	tr := NewTrack(1000, nil)
	tr.Process(make([]float32, 500))
	if got := tr.Position(); got != 250*time.Millisecond {
		t.Errorf("position = %v, want 250ms", got)
	}
	if tr.Finished() {
		t.Error("nil source should never finish")
	}
}

func TestManualClock(t *testing.T) {
	var c ManualClock
	c.Set(time.Second)
	c.Advance(500 * time.Millisecond)
	if got := c.Position(); got != 1500*time.Millisecond {
		t.Errorf("got %v, want 1.5s", got)
	}
	if got := DurationToFrames(c.Position(), 48000); got != 72000 {
		t.Errorf("frames = %d, want 72000", got)
	}
	if got := FramesToDuration(24000, 48000); got != 500*time.Millisecond {
		t.Errorf("duration = %v, want 500ms", got)
	}
}

func rampStreamer(frames int) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= frames {
			return 0, false
		}
		n := 0
		for n < len(samples) && pos < frames {
			samples[n][0] = float64(pos) / float64(frames)
			samples[n][1] = -float64(pos) / float64(frames)
			n++
			pos++
		}
		return n, true
	})
}

func TestStreamSourceConvertsAndFinishes(t *testing.T) {
	src := NewStreamSource(rampStreamer(10), beep.Format{SampleRate: 1000, NumChannels: 2, Precision: 2}, 1000)
	buf := make([]float32, 32)
	src.Process(buf)
	if !src.Finished() {
		t.Fatal("source should be finished after draining 10 frames")
	}
	for i := 0; i < 10; i++ {
		want := float32(i) / 10
		if math.Abs(float64(buf[i*2]-want)) > 1e-6 || math.Abs(float64(buf[i*2+1]+want)) > 1e-6 {
			t.Fatalf("frame %d = (%f, %f), want (%f, %f)", i, buf[i*2], buf[i*2+1], want, -want)
		}
	}
	for i := 20; i < 32; i++ {
		if buf[i] != 0 {
			t.Fatalf("tail sample %d = %f, want 0", i, buf[i])
		}
	}
	if err := src.Err(); err != nil {
		t.Errorf("err = %v", err)
	}
}

func TestStreamSourceResamples(t *testing.T) {
	src := NewStreamSource(rampStreamer(1000), beep.Format{SampleRate: 1000, NumChannels: 2, Precision: 2}, 2000)
	total := 0
	buf := make([]float32, 256)
	for !src.Finished() && total < 10000 {
		src.Process(buf)
		total += len(buf) / 2
	}
	if total < 1900 || total > 2200 {
		t.Errorf("rendered %d frames, want about 2000", total)
	}
}

func TestDecodeUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.xm")
	if _, _, err := Decode(path); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := LoadSample(path, 48000); err == nil {
		t.Fatal("expected error from LoadSample")
	}
	if err := os.WriteFile(path, []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Decode(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestTrimTail(t *testing.T) {
	got := trimTail([]float32{1, 1, 0, 0.5, 0, 0, 0, 0})
	if len(got) != 4 {
		t.Errorf("len = %d, want 4", len(got))
	}
}

func TestToneSourceLength(t *testing.T) {
	src := NewToneSource(1000, 120, 110, 0.1)
	buf := make([]float32, 2*64)
	src.Process(buf)
	if src.Finished() {
		t.Fatal("finished too early")
	}
	src.Process(buf)
	if !src.Finished() {
		t.Fatal("expected finish after 100 frames")
	}
	for i := 2 * 36; i < len(buf); i++ {
		if buf[i] != 0 {
			t.Fatalf("sample %d = %f past the end", i, buf[i])
		}
	}
}

func BenchmarkTrackProcess(b *testing.B) {
	tr := NewTrack(48000, NewToneSource(48000, 120, 110, 0))
	tr.AddDsp(dsp.NewEcho(48000, 0.25, 0.5))
	tr.AddDsp(dsp.NewBitCrusher(8))
	buf := make([]float32, 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.Process(buf)
	}
}
