package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mrdg/sampler/audio"
)

type sampleInfo struct {
	name     string
	mode     string
	minNote  int
	maxNote  int
	baseNote int
	bus      int
	layer    int
	reverse  bool
}

func newSampleInfo(s *audio.Sample) sampleInfo {
	return sampleInfo{
		name:     s.Name,
		mode:     s.PlayMode.String(),
		minNote:  s.MinNote,
		maxNote:  s.MaxNote,
		baseNote: s.BaseNote,
		bus:      s.OutputBus,
		layer:    s.Layer,
		reverse:  s.Reverse,
	}
}

// renderParts prints every part that has samples, one row per sample.
func renderParts(w io.Writer, parts [][]sampleInfo) {
	var maxNameLen int
	for _, samples := range parts {
		for _, s := range samples {
			if len(s.name) > maxNameLen {
				maxNameLen = len(s.name)
			}
		}
	}
	if maxNameLen == 0 {
		fmt.Fprintln(w, "no samples loaded")
		return
	}
	maxNameLen += 1
	if maxNameLen > 24 {
		maxNameLen = 24
	}

	for i, samples := range parts {
		if len(samples) == 0 {
			continue
		}
		fmt.Fprintln(w, colorize(fmt.Sprintf("part %d", i+1), colorMagenta))
		for n, s := range samples {
			direction := "→"
			if s.reverse {
				direction = "←"
			}
			id := colorize(fmt.Sprintf("%2d", n+1), colorGreen)
			fmt.Fprintf(w, "  %s %s %s %-7s %s-%s base %s bus %d layer %d\n",
				id, formatSampleName(s.name, maxNameLen), direction, s.mode,
				noteName(s.minNote), noteName(s.maxNote), noteName(s.baseNote), s.bus, s.layer)
		}
	}
}

var noteNames = [...]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// noteName formats a MIDI note number, 60 being C4.
func noteName(note int) string {
	if note < 0 || note > 127 {
		return "?"
	}
	return fmt.Sprintf("%s%d", noteNames[note%12], note/12-1)
}

func formatSampleName(sample string, max int) string {
	if len(sample) > max {
		sample = sample[:max-1]
		sample += "…"
	}
	if len(sample) < max {
		sample += strings.Repeat(" ", max-len(sample))
	}
	return colorize(sample, colorBlue)
}

func displayName(filename string) string {
	filename = filepath.Base(filename)
	return filename[:len(filename)-len(filepath.Ext(filename))]
}

const (
	colorBlack = iota + 30
	colorRed
	colorGreen
	colorYellow
	colorBlue
	colorMagenta
)

func colorize(text string, color int) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", color, text)
}
