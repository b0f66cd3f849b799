package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrdg/sampler/audio"
	"github.com/mrdg/sampler/dub"
)

var errNoSamples = errors.New("no samples selected")

// partIndex converts a part number as typed, 1 to 16, to an engine index.
func partIndex(n int) (int, error) {
	if n < 1 || n > audio.NumParts {
		return 0, fmt.Errorf("not a valid part: %d", n)
	}
	return n - 1, nil
}

// selectSamples returns the samples of part whose number, counting from 1,
// is matched by expr.
func (e *env) selectSamples(part int, expr dub.MatchExpr) ([]*audio.Sample, error) {
	idx, err := partIndex(part)
	if err != nil {
		return nil, err
	}
	var all []*audio.Sample
	e.host.Do(func(engine *audio.Engine) { all = engine.Samples(idx) })
	var selected []*audio.Sample
	for i, s := range all {
		if expr.Selects(i + 1) {
			selected = append(selected, s)
		}
	}
	if len(selected) == 0 {
		return nil, errNoSamples
	}
	return selected, nil
}

// editSamples applies f to each selected sample on the rendering goroutine
// and stops at the first error.
func (e *env) editSamples(part int, expr dub.MatchExpr, f func(*audio.Sample) error) error {
	samples, err := e.selectSamples(part, expr)
	if err != nil {
		return err
	}
	e.host.Do(func(*audio.Engine) {
		for _, s := range samples {
			if err = f(s); err != nil {
				return
			}
		}
	})
	return err
}

func loadCommand(env *env, args []dub.Node) (dub.Node, error) {
	var part int
	var file, name string
	if len(args) > 3 {
		return nil, errors.New("too many arguments")
	}
	if len(args) == 3 {
		if err := readArgs(args, &part, &file, &name); err != nil {
			return nil, err
		}
	} else {
		if err := readArgs(args, &part, &file); err != nil {
			return nil, err
		}
		name = displayName(file)
	}
	idx, err := partIndex(part)
	if err != nil {
		return nil, err
	}
	pcm, err := audio.LoadWAV(file)
	if err != nil {
		return nil, err
	}
	s := audio.NewSample(name, pcm)
	if pcm.LoopEnabled() {
		s.PlayMode = audio.PlayLoop
	}
	var n int
	env.host.Do(func(e *audio.Engine) {
		e.AddSample(idx, s)
		n = len(e.Samples(idx))
	})
	return dub.Int(n), nil
}

func unloadCommand(env *env, args []dub.Node) (dub.Node, error) {
	var part int
	var expr dub.MatchExpr
	if err := readArgs(args, &part, &expr); err != nil {
		return nil, err
	}
	samples, err := env.selectSamples(part, expr)
	if err != nil {
		return nil, err
	}
	env.host.Do(func(e *audio.Engine) {
		for _, s := range samples {
			e.RemoveSample(part-1, s)
		}
	})
	return nil, nil
}

func setCommand(env *env, args []dub.Node) (dub.Node, error) {
	var part int
	var expr dub.MatchExpr
	var key string
	var v value
	if err := readArgs(args, &part, &expr, &key, &v); err != nil {
		return nil, err
	}
	return nil, env.editSamples(part, expr, func(s *audio.Sample) error {
		return s.Set(key, string(v))
	})
}

func getCommand(env *env, args []dub.Node) (dub.Node, error) {
	var part, index int
	var key string
	if err := readArgs(args, &part, &index, &key); err != nil {
		return nil, err
	}
	idx, err := partIndex(part)
	if err != nil {
		return nil, err
	}
	var result string
	env.host.Do(func(e *audio.Engine) {
		samples := e.Samples(idx)
		if index < 1 || index > len(samples) {
			err = fmt.Errorf("not a valid sample: %d", index)
			return
		}
		result, err = samples[index-1].Get(key)
	})
	if err != nil {
		return nil, err
	}
	return dub.String(result), nil
}

func presetCommand(env *env, args []dub.Node) (dub.Node, error) {
	var part int
	var expr dub.MatchExpr
	var name string
	if err := readArgs(args, &part, &expr, &name); err != nil {
		return nil, err
	}
	return nil, env.editSamples(part, expr, func(s *audio.Sample) error {
		return audio.LoadPreset(name, s)
	})
}

func presetsCommand(env *env, args []dub.Node) (dub.Node, error) {
	return dub.String(strings.Join(audio.PresetNames(), " ")), nil
}

func listCommand(env *env, args []dub.Node) (dub.Node, error) {
	var parts [audio.NumParts][]sampleInfo
	env.host.Do(func(e *audio.Engine) {
		for i := range parts {
			p := e.Part(i)
			for _, s := range p.Samples() {
				parts[i] = append(parts[i], newSampleInfo(s))
			}
		}
	})
	renderParts(env.out, parts[:])
	return nil, nil
}

func selectCommand(env *env, args []dub.Node) (dub.Node, error) {
	var part int
	var expr dub.MatchExpr
	if err := readArgs(args, &part, &expr); err != nil {
		return nil, err
	}
	samples, err := env.selectSamples(part, expr)
	if err != nil {
		return nil, err
	}
	env.host.Select(samples...)
	return dub.Int(len(samples)), nil
}

func noteCommand(env *env, args []dub.Node) (dub.Node, error) {
	var part, note int
	velocity := 100
	var err error
	switch len(args) {
	case 2:
		err = readArgs(args, &part, &note)
	case 3:
		err = readArgs(args, &part, &note, &velocity)
	default:
		err = errors.New("too many arguments")
	}
	if err != nil {
		return nil, err
	}
	idx, err := partIndex(part)
	if err != nil {
		return nil, err
	}
	if note < 0 || note > 127 || velocity < 0 || velocity > 127 {
		return nil, fmt.Errorf("note and velocity must be in 0-127: %d %d", note, velocity)
	}
	env.host.NoteOn(idx, note, velocity)
	return nil, nil
}

func offCommand(env *env, args []dub.Node) (dub.Node, error) {
	var part, note int
	if err := readArgs(args, &part, &note); err != nil {
		return nil, err
	}
	idx, err := partIndex(part)
	if err != nil {
		return nil, err
	}
	env.host.NoteOff(idx, note)
	return nil, nil
}

func bendCommand(env *env, args []dub.Node) (dub.Node, error) {
	var part int
	var v float64
	if err := readArgs(args, &part, &v); err != nil {
		return nil, err
	}
	idx, err := partIndex(part)
	if err != nil {
		return nil, err
	}
	env.host.Pitchbend(idx, v)
	return nil, nil
}

func ccCommand(env *env, args []dub.Node) (dub.Node, error) {
	var part, cc int
	var v float64
	if err := readArgs(args, &part, &cc, &v); err != nil {
		return nil, err
	}
	idx, err := partIndex(part)
	if err != nil {
		return nil, err
	}
	env.host.ControllerChange(idx, cc, v)
	return nil, nil
}

func propCommand(env *env, args []dub.Node) (dub.Node, error) {
	var key string
	switch len(args) {
	case 1:
		if err := readArgs(args, &key); err != nil {
			return nil, err
		}
		v, err := env.props.Get(key)
		if err != nil {
			return nil, err
		}
		return dub.String(fmt.Sprint(v)), nil
	case 2:
		var v interface{}
		switch n := args[1].(type) {
		case dub.Int:
			v = float64(n)
		case dub.Float:
			v = float64(n)
		case dub.Identifier:
			v = string(n)
		case dub.String:
			v = string(n)
		default:
			return nil, fmt.Errorf("unsupported property type: %v", n)
		}
		if err := readArgs(args[:1], &key); err != nil {
			return nil, err
		}
		return nil, env.props.Set(key, v)
	default:
		return nil, errors.New("too many arguments")
	}
}

// stepsPerBeat is the grid loops are written on: 16th notes, or 16th note
// triplets for tloop.
func stepsPerBeat(triplets bool) int {
	if triplets {
		return 6
	}
	return 4
}

// loopCommand builds the loop and tloop commands.
func loopCommand(triplets bool) func(*env, []dub.Node) (dub.Node, error) {
	return func(env *env, args []dub.Node) (dub.Node, error) {
		var name string
		var part, note int
		var beats float64
		var steps dub.MatchExpr
		velocity := 100
		var err error
		switch len(args) {
		case 5:
			err = readArgs(args, &name, &part, &beats, &steps, &note)
		case 6:
			err = readArgs(args, &name, &part, &beats, &steps, &note, &velocity)
		default:
			err = errors.New("too many arguments")
		}
		if err != nil {
			return nil, err
		}
		idx, err := partIndex(part)
		if err != nil {
			return nil, err
		}
		if beats <= 0 || beats != float64(int(beats)) {
			return nil, fmt.Errorf("loop length must be a whole number of beats: %v", beats)
		}

		spb := stepsPerBeat(triplets)
		seq, err := dub.EvalMatchExpr(steps, int(beats), spb, triplets)
		if err != nil {
			return nil, err
		}
		clip := audio.NewClip(beats, idx)
		stepLength := 1 / float64(spb)
		for i, v := range seq {
			if v > 0 {
				clip.AddNote(float64(i)*stepLength, note, velocity, stepLength)
			}
		}
		return nil, env.updateClips(func(clips map[string]*audio.Clip) {
			clips[name] = clip
		})
	}
}

func unloopCommand(env *env, args []dub.Node) (dub.Node, error) {
	var name string
	if err := readArgs(args, &name); err != nil {
		return nil, err
	}
	return nil, env.updateClips(func(clips map[string]*audio.Clip) {
		delete(clips, name)
	})
}

// updateClips replaces the clips property with an edited copy so the
// sequencer never sees a map being modified.
func (e *env) updateClips(f func(map[string]*audio.Clip)) error {
	v, err := e.props.Get(audio.PropClips)
	if err != nil {
		return err
	}
	old := v.(map[string]*audio.Clip)
	clips := make(map[string]*audio.Clip, len(old))
	for k, v := range old {
		clips[k] = v
	}
	f(clips)
	return e.props.Set(audio.PropClips, clips)
}

func saveCommand(env *env, args []dub.Node) (dub.Node, error) {
	var file string
	if err := readArgs(args, &file); err != nil {
		return nil, err
	}
	snapshot, _ := env.host.Snapshot()
	data, err := audio.EncodeEngine(snapshot)
	if err != nil {
		return nil, err
	}
	return nil, os.WriteFile(file, data, 0o644)
}

func openCommand(env *env, args []dub.Node) (dub.Node, error) {
	var file string
	if err := readArgs(args, &file); err != nil {
		return nil, err
	}
	e, err := audio.LoadFile(file)
	if err != nil {
		return nil, err
	}
	env.host.Load(e)
	return nil, nil
}

// bounceCommand renders a snapshot of the current samples and loops
// offline, leaving playback untouched.
func bounceCommand(env *env, args []dub.Node) (dub.Node, error) {
	var file string
	var seconds float64
	if err := readArgs(args, &file, &seconds); err != nil {
		return nil, err
	}
	snapshot, selected := env.host.Snapshot()
	props := audio.NewProps()
	host := audio.NewHost(props, env.host.SampleRate())
	host.Load(snapshot)
	host.Select(selected...)
	seq := audio.NewSequencer(props, env.host.SampleRate(), host)
	for _, key := range []string{audio.PropBPM, audio.PropLevel, audio.PropSolo, audio.PropClips} {
		v, err := env.props.Get(key)
		if err != nil {
			return nil, err
		}
		if err := props.Set(key, v); err != nil {
			return nil, err
		}
	}
	if err := audio.BounceFile(host, seconds, file, seq); err != nil {
		return nil, err
	}
	return dub.String(filepath.Clean(file)), nil
}

func helpCommand(env *env, args []dub.Node) (dub.Node, error) {
	var lines []string
	for _, cmd := range commands {
		lines = append(lines, cmd.help)
	}
	return dub.String(strings.Join(lines, "\n")), nil
}
