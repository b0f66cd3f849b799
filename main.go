package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrdg/sampler/audio"
	"golang.org/x/sync/errgroup"
)

type output interface {
	Start() error
	Stop() error
}

func main() {
	var (
		sampleRate = flag.Float64("rate", 44100, "output sample rate")
		bufferSize = flag.Int("buffer", 256, "frames per audio buffer")
		numBuses   = flag.Int("buses", 1, "number of output buses")
		bpm        = flag.Float64("bpm", 120, "tempo in beats per minute")
		state      = flag.String("state", "", "load samples from a saved state file")
		backend    = flag.String("backend", "portaudio", "audio output: portaudio or oto")
		midi       = flag.Bool("midi", false, "play notes from the first MIDI input")
		run        = flag.String("run", "", "file with commands to run before starting the repl")
	)
	flag.Parse()

	props := audio.NewProps()
	host := audio.NewHost(props, *sampleRate)
	seq := audio.NewSequencer(props, *sampleRate, host)
	if err := props.Set(audio.PropBPM, *bpm); err != nil {
		log.Fatal(err)
	}
	if *state != "" {
		e, err := audio.LoadFile(*state)
		if err != nil {
			log.Fatal(err)
		}
		host.Load(e)
	}

	mixer := audio.NewMixer(host, *numBuses, *bufferSize)
	mixer.AddTicker(seq)
	out, err := openOutput(*backend, mixer, *bufferSize)
	if err != nil {
		log.Fatal(err)
	}

	env := newEnv(host, props, seq, os.Stdout)
	if err := start(env, out, *run, *midi); err != nil {
		log.Fatal(err)
	}
}

func openOutput(backend string, mixer *audio.Mixer, bufferSize int) (output, error) {
	switch backend {
	case "portaudio":
		return audio.NewSink(mixer, bufferSize)
	case "oto":
		return audio.NewOtoSink(mixer, bufferSize)
	default:
		return nil, fmt.Errorf("unknown backend: %s", backend)
	}
}

func start(env *env, out output, script string, midi bool) error {
	if err := out.Start(); err != nil {
		return err
	}
	defer func() {
		if err := out.Stop(); err != nil {
			log.Printf("error while stopping audio output: %v", err)
		}
	}()

	if script != "" {
		if err := env.runFile(script); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)
	go func() {
		select {
		case sig := <-signalCh:
			log.Printf("caught signal %s: shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	if midi {
		g.Go(func() error {
			for data := range audio.ListenToMidiIn(ctx) {
				env.host.HandleMIDI(data)
			}
			return nil
		})
	}
	g.Go(func() error {
		defer cancel()
		return repl(ctx, env)
	})
	return g.Wait()
}
