package dub

import "fmt"

type matchItem struct {
	level   int
	matcher matcher
}

type matcher interface {
	match(i int) bool
}

type rangeMatch struct {
	start, end int
}

func (r rangeMatch) match(i int) bool {
	return (i >= r.start || r.start == -1) && (i <= r.end || r.end == -1)
}

var matchAll = rangeMatch{-1, -1}

type listMatch []int

func (l listMatch) match(i int) bool {
	for _, k := range l {
		if k == i {
			return true
		}
	}
	return false
}

// Selects reports whether the top level of the expression matches i. It is
// used to pick items by number, e.g. '1,3 or '2:4.
func (m MatchExpr) Selects(i int) bool {
	for _, item := range m.matchers {
		if item.level == 0 {
			return item.matcher.match(i)
		}
	}
	return false
}

// divisions returns the number of notes per beat at level. Level 0 is the
// beat itself, every level below halves the note length. With triplets the
// first subdivision has three notes per beat.
func divisions(level int, triplets bool) int {
	if level == 0 {
		return 1
	}
	if triplets {
		return 3 << (level - 1)
	}
	return 1 << level
}

// EvalMatchExpr returns a step sequence of beats*stepsPerBeat steps with a 1
// on every step the expression matches. Beats are numbered from 1 over the
// whole sequence, subdivisions from 1 within their parent note.
func EvalMatchExpr(expr MatchExpr, beats, stepsPerBeat int, triplets bool) ([]int, error) {
	seq := make([]int, beats*stepsPerBeat)

	for i := len(expr.matchers) - 1; i >= 0; i-- {
		item := expr.matchers[i]
		notesPerBeat := divisions(item.level, triplets)
		if notesPerBeat > stepsPerBeat || stepsPerBeat%notesPerBeat != 0 {
			return nil, fmt.Errorf("can't match on %d notes per beat with %d steps per beat", notesPerBeat, stepsPerBeat)
		}
		skip := stepsPerBeat / notesPerBeat

		for note, steps := 0, 0; note < len(seq); note += skip {
			// calculate a note number relative to other notes on the same division, e.g.
			// the 16th notes within a beat are numbered 0 to 3
			noteNum := steps % notesPerBeat
			if notesPerBeat == 1 {
				noteNum = steps
			}
			steps++

			// add 1 because match expects note numbers to start at 1
			if item.matcher.match(noteNum + 1) {
				if i == len(expr.matchers)-1 {
					seq[note] = 1
				}
			} else {
				// zero steps that are unmatched by the current level
				for i := note; i < note+skip; i++ {
					seq[i] = 0
				}
			}
		}
	}
	return seq, nil
}
