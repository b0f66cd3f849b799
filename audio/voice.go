package audio

import (
	"math"
	"math/rand"
)

// modulationInterval is the number of rendered samples between two
// modulation matrix evaluations and envelope/LFO steps.
const modulationInterval = 128

const ccModWheel = 1

// Voice is one sounding note. Its modulators are copies of the sample's
// templates; the sample itself and the owning part are only read.
type Voice struct {
	part     *Part
	sample   *Sample
	note     int
	velocity int

	aeg    Envelope
	eg2    Envelope
	lfos   [NumLFOs]LFO
	filter Filter

	offset float64
	noteOn bool
	random float64 // bipolar, fixed for the voice lifetime

	pitchMod float64
	panMod   float64
	ampMod   float64

	modCounter int
	ampL, ampR float64
	sampleRate float64
	bpm        float64

	left, right []float32
}

func newVoice() *Voice {
	v := &Voice{}
	for i := range v.lfos {
		v.lfos[i].Steps = make([]float64, 0, maxLFOSteps)
	}
	return v
}

// start initializes a pooled voice for a new note.
func (v *Voice) start(p *Part, s *Sample, note, velocity int) {
	v.part = p
	v.sample = s
	v.note = note
	v.velocity = velocity

	v.aeg = s.AEG.Clone()
	v.eg2 = s.EG2.Clone()
	for i := range v.lfos {
		s.LFOs[i].copyTo(&v.lfos[i])
	}
	v.filter = s.Filter.Clone()

	v.aeg.NoteOn()
	v.eg2.NoteOn()
	for i := range v.lfos {
		v.lfos[i].NoteOn()
	}
	v.random = 2*rand.Float64() - 1

	v.offset = 0
	if s.Reverse {
		v.offset = float64(s.Source.NumSamples() - 1)
	}
	v.noteOn = true
	v.pitchMod, v.panMod, v.ampMod = 0, 0, 0
	v.modCounter = 0
}

func (v *Voice) reset() {
	v.part = nil
	v.sample = nil
	v.filter.Reset()
}

func (v *Voice) Sample() *Sample { return v.sample }

func (v *Voice) Note() int { return v.note }

func (v *Voice) NoteOff() {
	v.noteOn = false
	v.aeg.NoteOff()
	v.eg2.NoteOff()
}

// LeftAmp is the left channel pan gain. pan is limited to [-1, 1].
func LeftAmp(pan float64) float64 {
	pan = clamp(pan, -1, 1)
	if pan <= 0 {
		return 1
	}
	return 1 - pan
}

// RightAmp is the right channel pan gain. pan is limited to [-1, 1].
func RightAmp(pan float64) float64 {
	pan = clamp(pan, -1, 1)
	if pan >= 0 {
		return 1
	}
	return 1 + pan
}

func (v *Voice) updateAmp() {
	s := v.sample
	pan := clamp(s.Pan+v.panMod, -1, 1)
	amp := s.Gain * clamp(1+v.ampMod/100, 0, 2)
	if s.PlayMode != PlayShot {
		amp *= v.aeg.Value()
	}
	v.ampL = LeftAmp(pan) * amp
	v.ampR = RightAmp(pan) * amp
}

func (v *Voice) speed() float64 {
	s := v.sample
	semitones := s.Keytrack/100*float64(v.note-s.BaseNote) +
		v.pitchMod +
		v.part.pitchbend*s.PitchbendRange +
		s.Detune/100
	speed := float64(s.Source.SampleRate()) / v.sampleRate * math.Pow(2, semitones/12)
	if s.Reverse {
		return -speed
	}
	return speed
}

// handleLoop applies the play mode to the playback offset before a sample
// is read. It returns false when the voice has to stop.
func (v *Voice) handleLoop() bool {
	s := v.sample
	n := float64(s.Source.NumSamples())
	switch s.PlayMode {
	case PlayLoopUntilRelease:
		if !v.noteOn {
			return false
		}
		fallthrough
	case PlayLoop:
		start, end := float64(s.Source.LoopStart()), float64(s.Source.LoopEnd())
		length := end - start
		if length <= 0 {
			break
		}
		if s.Reverse {
			for v.offset <= start {
				v.offset += length
			}
		} else {
			for v.offset >= end {
				v.offset -= length
			}
		}
		return true
	}
	return v.offset >= 0 && v.offset < n
}

func (v *Voice) inLoop() bool {
	src := v.sample.Source
	return v.offset >= float64(src.LoopStart()) && v.offset < float64(src.LoopEnd())
}

func (v *Voice) modSources() ModSourceValues {
	s := v.sample
	var src ModSourceValues
	src[SourceAEG] = v.aeg.Value()
	src[SourceEG2] = v.eg2.Value()
	src[SourceLFO1] = v.lfos[0].Value()
	src[SourceLFO2] = v.lfos[1].Value()
	src[SourceLFO3] = v.lfos[2].Value()
	src[SourceModWheel] = v.part.Controller(ccModWheel)
	src[SourceVelocity] = float64(v.velocity) / 127
	src[SourceNoteAbsolute] = float64(v.note) / 127
	if span := s.MaxNote - s.MinNote; span > 0 {
		src[SourceNoteRelative] = float64(v.note-s.MinNote) / float64(span)
	}
	src[SourceRandomUnipolar] = (v.random + 1) / 2
	src[SourceRandomBipolar] = v.random
	if v.noteOn {
		src[SourceGate] = 1
	}
	if v.inLoop() {
		src[SourceInLoop] = 1
	}
	return src
}

// handleModulations evaluates the modulation matrix and advances the
// envelopes and LFOs once every modulationInterval samples. It returns true
// when an update happened.
func (v *Voice) handleModulations() bool {
	if v.modCounter > 0 {
		v.modCounter--
		return false
	}
	v.modCounter = modulationInterval - 1

	src := v.modSources()
	res := v.sample.ModMatrix.Evaluate(&src)
	v.filter.SetModulation(res[DestFilterCutoff], res[DestFilterResonance])
	v.pitchMod = res[DestPitch]
	v.panMod = res[DestPan]
	v.ampMod = res[DestAmplitude]

	elapsed := modulationInterval / v.sampleRate
	v.aeg.Step(elapsed, v.bpm)
	v.eg2.Step(elapsed, v.bpm)
	for i := range v.lfos {
		v.lfos[i].Step(elapsed, v.bpm)
	}
	return true
}

// Render mixes one block of the voice into left and right. It returns true
// once the voice has finished and should be removed.
func (v *Voice) Render(left, right []float32, sampleRate, bpm float64) bool {
	if !(sampleRate > 0) {
		return false
	}
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	if cap(v.left) < n {
		v.left = make([]float32, n)
		v.right = make([]float32, n)
	}
	bufL, bufR := v.left[:n], v.right[:n]
	v.sampleRate = sampleRate
	v.bpm = bpm

	s := v.sample
	src := s.Source
	stereo := src.NumChannels() > 1
	vel := float64(v.velocity) / 127
	speed := v.speed()
	v.updateAmp()

	stopped := false
	i := 0
	for ; i < n; i++ {
		if !v.handleLoop() {
			stopped = true
			break
		}
		if v.handleModulations() {
			v.updateAmp()
			if s.PlayMode != PlayShot && v.aeg.HasEnded() {
				stopped = true
				break
			}
		}
		idx := int(math.Floor(v.offset))
		l := src.FloatValue(0, idx)
		r := l
		if stereo {
			r = src.FloatValue(1, idx)
		}
		if math.IsNaN(l) {
			l = 0
		}
		if math.IsNaN(r) {
			r = 0
		}
		bufL[i] = float32(l * vel * v.ampL)
		bufR[i] = float32(r * vel * v.ampR)
		v.offset += speed
	}
	for j := i; j < n; j++ {
		bufL[j] = 0
		bufR[j] = 0
	}

	v.filter.Process(bufL, bufR, sampleRate)
	for j := 0; j < n; j++ {
		left[j] += bufL[j]
		right[j] += bufR[j]
	}
	return stopped
}
