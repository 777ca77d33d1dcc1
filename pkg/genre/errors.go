package genre

import (
	"errors"
	"fmt"
)

// Error taxonomy for the pipeline. Every failure wraps exactly one of these.
var (
	ErrDataLoad       = errors.New("data load error")
	ErrConfiguration  = errors.New("configuration error")
	ErrAnchorNotFound = errors.New("anchor not found")
	ErrReduction      = errors.New("reduction error")
	ErrGraph          = errors.New("graph error")
	ErrNotFound       = errors.New("genre not found")
)

// Pipeline stage names used in StageError and in logs/metrics.
const (
	StageLoad     = "load"
	StageEmbed    = "embed"
	StageReduce   = "reduce"
	StageColorize = "colorize"
	StageEdges    = "edges"
	StagePersist  = "persist"
)

// StageError reports which pipeline stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Kind returns the taxonomy sentinel wrapped by err, or nil when err does not
// belong to the taxonomy.
func Kind(err error) error {
	for _, sentinel := range []error{
		ErrDataLoad, ErrConfiguration, ErrAnchorNotFound, ErrReduction, ErrGraph, ErrNotFound,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

// KindName is a short label for err's taxonomy kind, suitable for metrics.
func KindName(err error) string {
	switch Kind(err) {
	case ErrDataLoad:
		return "data_load"
	case ErrConfiguration:
		return "configuration"
	case ErrAnchorNotFound:
		return "anchor_not_found"
	case ErrReduction:
		return "reduction"
	case ErrGraph:
		return "graph"
	case ErrNotFound:
		return "not_found"
	default:
		return "internal"
	}
}
