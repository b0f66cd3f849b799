package audio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/youpy/go-wav"
)

type wavChunk struct {
	id   string
	data []byte
}

func buildRIFF(chunks ...wavChunk) []byte {
	var body bytes.Buffer
	body.WriteString("WAVE")
	for _, c := range chunks {
		body.WriteString(c.id)
		binary.Write(&body, binary.LittleEndian, uint32(len(c.data)))
		body.Write(c.data)
		if len(c.data)%2 == 1 {
			body.WriteByte(0)
		}
	}
	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func fmtChunk(format, channels uint16, sampleRate uint32, bits uint16) wavChunk {
	var b bytes.Buffer
	blockAlign := channels * bits / 8
	binary.Write(&b, binary.LittleEndian, format)
	binary.Write(&b, binary.LittleEndian, channels)
	binary.Write(&b, binary.LittleEndian, sampleRate)
	binary.Write(&b, binary.LittleEndian, sampleRate*uint32(blockAlign))
	binary.Write(&b, binary.LittleEndian, blockAlign)
	binary.Write(&b, binary.LittleEndian, bits)
	return wavChunk{"fmt ", b.Bytes()}
}

func smplChunk(start, end uint32) wavChunk {
	header := make([]byte, 36)
	binary.LittleEndian.PutUint32(header[28:], 1)
	loop := make([]byte, 24)
	binary.LittleEndian.PutUint32(loop[8:], start)
	binary.LittleEndian.PutUint32(loop[12:], end)
	return wavChunk{"smpl", append(header, loop...)}
}

func TestDecodeWAV(t *testing.T) {
	var buf bytes.Buffer
	w := wav.NewWriter(&buf, 4, 2, 22050, 16)
	samples := []wav.Sample{
		{Values: [2]int{16384, -16384}},
		{Values: [2]int{0, 0}},
		{Values: [2]int{-32768, 8192}},
		{Values: [2]int{32767, 0}},
	}
	if err := w.WriteSamples(samples); err != nil {
		t.Fatal(err)
	}

	pcm, err := DecodeWAV(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if want, got := 2, pcm.NumChannels(); want != got {
		t.Errorf("want %v channels, got %v", want, got)
	}
	if want, got := 22050, pcm.SampleRate(); want != got {
		t.Errorf("want sample rate %v, got %v", want, got)
	}
	if want, got := 4, pcm.NumSamples(); want != got {
		t.Errorf("want %v samples, got %v", want, got)
	}
	if want, got := 0.5, pcm.FloatValue(0, 0); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := 0.25, pcm.FloatValue(1, 2); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if pcm.LoopEnabled() {
		t.Errorf("expected no loop without smpl chunk")
	}
	if want, got := 4, pcm.LoopEnd(); want != got {
		t.Errorf("loop should cover the sample: want end %v, got %v", want, got)
	}
}

func TestDecodeWAVSampleLoop(t *testing.T) {
	data := make([]byte, 200) // 100 mono 16 bit frames
	file := buildRIFF(
		fmtChunk(1, 1, 44100, 16),
		wavChunk{"data", data},
		smplChunk(10, 49),
	)
	pcm, err := DecodeWAV(bytes.NewReader(file))
	if err != nil {
		t.Fatal(err)
	}
	if want, got := 100, pcm.NumSamples(); want != got {
		t.Errorf("want %v samples, got %v", want, got)
	}
	if !pcm.LoopEnabled() {
		t.Errorf("expected loop to be enabled")
	}
	if want, got := 10, pcm.LoopStart(); want != got {
		t.Errorf("want loop start %v, got %v", want, got)
	}
	if want, got := 50, pcm.LoopEnd(); want != got {
		t.Errorf("want exclusive loop end %v, got %v", want, got)
	}
}

func TestDecodeWAVUnsupportedFormat(t *testing.T) {
	file := buildRIFF(
		fmtChunk(3, 1, 44100, 32), // IEEE float
		wavChunk{"data", make([]byte, 16)},
	)
	if _, err := DecodeWAV(bytes.NewReader(file)); err == nil {
		t.Errorf("expected error for a float wav file")
	}
}

func TestParseSampleLoop(t *testing.T) {
	if _, _, ok := parseSampleLoop(nil); ok {
		t.Errorf("expected no loop for a missing chunk")
	}
	noLoops := make([]byte, 60)
	if _, _, ok := parseSampleLoop(noLoops); ok {
		t.Errorf("expected no loop when the loop count is zero")
	}
}
