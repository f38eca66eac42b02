package convert

import (
	"fmt"
	"sync"

	"github.com/golang/glog"
)

// Problem is one localized failure or warning.
type Problem struct {
	// Subject names what the problem is about: a tile identifier, a file
	// name that failed to parse, or a floor.
	Subject string
	Err     error

	// Dropped is set when the subject's output was lost (a tile not
	// written, a floor skipped, markers discarded). Warnings leave it unset.
	Dropped bool
}

func (p Problem) String() string {
	kind := "warning"
	if p.Dropped {
		kind = "dropped"
	}
	return fmt.Sprintf("%s: %s: %v", p.Subject, kind, p.Err)
}

// Report collects what happened during a run. It is safe for concurrent use.
type Report struct {
	mu sync.Mutex

	Problems []Problem

	Tiles   int // tiles read or written
	Floors  int // floors completed
	Markers int // markers read or written
}

func (r *Report) warn(subject string, err error) {
	glog.Warningf("%s: %v", subject, err)
	r.add(Problem{Subject: subject, Err: err})
}

func (r *Report) drop(subject string, err error) {
	glog.Errorf("%s: skipped: %v", subject, err)
	r.add(Problem{Subject: subject, Err: err, Dropped: true})
}

func (r *Report) add(p Problem) {
	r.mu.Lock()
	r.Problems = append(r.Problems, p)
	r.mu.Unlock()
}

func (r *Report) count(tiles, floors, markers int) {
	r.mu.Lock()
	r.Tiles += tiles
	r.Floors += floors
	r.Markers += markers
	r.mu.Unlock()
}

// Dropped returns the problems that lost output.
func (r *Report) Dropped() []Problem {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ps []Problem
	for _, p := range r.Problems {
		if p.Dropped {
			ps = append(ps, p)
		}
	}
	return ps
}

func floorSubject(z int) string {
	return fmt.Sprintf("floor %d", z)
}
