package payload

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// State accumulates payload weights for one document and one query node.
// A fresh zero State is used for every document.
type State struct {
	Seen  int
	Score float64
}

// Function combines per-occurrence weights into a document contribution.
// Accumulate is called once per occurrence and Finalize once per document.
type Function struct {
	Name       string
	Accumulate func(s State, w float64) (State, error)
	Finalize   func(s State) float64
}

// Names of the built-in functions.
const (
	NameAverageOfLog      = "average_log"
	NameAverageOnePlusLog = "average_one_plus_log"
	NameAverage           = "average"
	NameMax               = "max"
	NameMin               = "min"
)

const neutralScore = 1.0

// AverageOfLog averages log(1+w) over occurrences. The logarithm damps very
// large weights so that one heavy occurrence cannot outweigh many lighter ones.
// Weights <= -1 are rejected.
var AverageOfLog = Function{
	Name: NameAverageOfLog,
	Accumulate: func(s State, w float64) (State, error) {
		if math.IsNaN(w) || w <= -1 {
			return s, &InvalidWeightError{Weight: w, Function: NameAverageOfLog}
		}
		return State{Seen: s.Seen + 1, Score: s.Score + math.Log1p(w)}, nil
	},
	Finalize: average,
}

// AverageOnePlusLog averages 1+log(w). Weights <= 0 are rejected.
var AverageOnePlusLog = Function{
	Name: NameAverageOnePlusLog,
	Accumulate: func(s State, w float64) (State, error) {
		if math.IsNaN(w) || w <= 0 {
			return s, &InvalidWeightError{Weight: w, Function: NameAverageOnePlusLog}
		}
		return State{Seen: s.Seen + 1, Score: s.Score + 1 + math.Log(w)}, nil
	},
	Finalize: average,
}

// Average is the plain mean of the weights.
var Average = Function{
	Name: NameAverage,
	Accumulate: func(s State, w float64) (State, error) {
		if math.IsNaN(w) {
			return s, &InvalidWeightError{Weight: w, Function: NameAverage}
		}
		return State{Seen: s.Seen + 1, Score: s.Score + w}, nil
	},
	Finalize: average,
}

// Max keeps the largest weight seen.
var Max = Function{
	Name:       NameMax,
	Accumulate: extreme(NameMax, math.Max),
	Finalize:   extremeFinalize,
}

// Min keeps the smallest weight seen.
var Min = Function{
	Name:       NameMin,
	Accumulate: extreme(NameMin, math.Min),
	Finalize:   extremeFinalize,
}

var functions = map[string]Function{
	NameAverageOfLog:      AverageOfLog,
	NameAverageOnePlusLog: AverageOnePlusLog,
	NameAverage:           Average,
	NameMax:               Max,
	NameMin:               Min,
}

// FunctionByName returns the built-in function registered under name.
// An empty name selects AverageOfLog.
func FunctionByName(name string) (Function, error) {
	if name == "" {
		return AverageOfLog, nil
	}
	fn, ok := functions[strings.ToLower(name)]
	if !ok {
		return Function{}, fmt.Errorf("unknown payload function %q (available: %s)", name, strings.Join(FunctionNames(), ", "))
	}
	return fn, nil
}

// FunctionNames lists the built-in function names in sorted order.
func FunctionNames() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fold runs fn over weights in order and returns the finalized contribution.
func (fn Function) Fold(weights ...float64) (float64, error) {
	var s State
	for _, w := range weights {
		next, err := fn.Accumulate(s, w)
		if err != nil {
			return 0, err
		}
		s = next
	}
	return fn.Finalize(s), nil
}

// Normalize squashes a non-negative score into [0, 1).
func Normalize(score float64) float64 {
	return score / (1 + score)
}

func average(s State) float64 {
	if s.Seen > 0 {
		return s.Score / float64(s.Seen)
	}
	return neutralScore
}

func extreme(name string, pick func(a, b float64) float64) func(State, float64) (State, error) {
	return func(s State, w float64) (State, error) {
		if math.IsNaN(w) {
			return s, &InvalidWeightError{Weight: w, Function: name}
		}
		if s.Seen == 0 {
			return State{Seen: 1, Score: w}, nil
		}
		return State{Seen: s.Seen + 1, Score: pick(s.Score, w)}, nil
	}
}

func extremeFinalize(s State) float64 {
	if s.Seen > 0 {
		return s.Score
	}
	return neutralScore
}
