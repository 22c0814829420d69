// Package policy composes operators from the geometric, photometric and
// occlusion pools into one randomized pipeline per call.
//
// # Selection
//
// On every call the policy picks:
//   - at most one geometric operator (none is as likely as one)
//   - a random-size subset of the photometric pool, from empty up to the
//     configured bound, each operator at most once
//   - the occlusion operator, always
//
// and applies the selection in a freshly shuffled order. Only the pool
// contents are fixed at construction.
package policy

import (
	"fmt"
	"image"

	"github.com/ironsheep/boxaug/internal/bbox"
	"github.com/ironsheep/boxaug/internal/ops"
	"github.com/ironsheep/boxaug/internal/sampler"
)

// Policy selects and runs operators from a fixed set of pools.
type Policy struct {
	pools          *Pools
	maxPhotometric int
}

// New returns a policy over pools. maxPhotometric bounds the photometric
// subset size and must lie in [0, len(pools.Photometric)].
func New(pools *Pools, maxPhotometric int) (*Policy, error) {
	if pools == nil {
		return nil, fmt.Errorf("policy: nil pools")
	}
	if pools.Occlusion == nil {
		return nil, fmt.Errorf("policy: occlusion operator is required")
	}
	if maxPhotometric < 0 || maxPhotometric > len(pools.Photometric) {
		return nil, fmt.Errorf("policy: photometric bound %d outside [0, %d]", maxPhotometric, len(pools.Photometric))
	}
	return &Policy{pools: pools, maxPhotometric: maxPhotometric}, nil
}

// MaxPhotometric returns the photometric subset bound.
func (p *Policy) MaxPhotometric() int {
	return p.maxPhotometric
}

// Select draws the operators for one call, in application order.
func (p *Policy) Select(s sampler.Sampler) []ops.Operator {
	selected := make([]ops.Operator, 0, 2+p.maxPhotometric)

	if n := len(p.pools.Geometric); n > 0 && sampler.IntBetween(s, 0, 1) == 1 {
		selected = append(selected, p.pools.Geometric[s.Intn(n)])
	}

	if k := sampler.IntBetween(s, 0, p.maxPhotometric); k > 0 {
		for _, i := range s.Perm(len(p.pools.Photometric))[:k] {
			selected = append(selected, p.pools.Photometric[i])
		}
	}

	selected = append(selected, p.pools.Occlusion)

	s.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	return selected
}

// Run selects operators and applies them in order. It returns the final
// image, the boxes bound to that image, and the names of the operators
// applied.
func (p *Policy) Run(img image.Image, boxes bbox.BoxSet, s sampler.Sampler) (image.Image, bbox.BoxSet, []string, error) {
	selected := p.Select(s)
	names := make([]string, 0, len(selected))

	for _, op := range selected {
		var err error
		img, boxes, err = op.Apply(img, boxes, s)
		if err != nil {
			return nil, bbox.BoxSet{}, names, fmt.Errorf("operator %s: %w", op.Name(), err)
		}
		names = append(names, op.Name())
	}
	return img, boxes, names, nil
}

// Description lists the pool members and the photometric bound.
type Description struct {
	Geometric      []string `json:"geometric"`
	Photometric    []string `json:"photometric"`
	Occlusion      string   `json:"occlusion"`
	MaxPhotometric int      `json:"max_photometric"`
}

// Describe returns the pool layout.
func (p *Policy) Describe() Description {
	return Description{
		Geometric:      operatorNames(p.pools.Geometric),
		Photometric:    operatorNames(p.pools.Photometric),
		Occlusion:      p.pools.Occlusion.Name(),
		MaxPhotometric: p.MaxPhotometric(),
	}
}

func operatorNames(list []ops.Operator) []string {
	names := make([]string, len(list))
	for i, op := range list {
		names[i] = op.Name()
	}
	return names
}
