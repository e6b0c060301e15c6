package engine

import (
	"github.com/weirlabs/weir/internal/steps"
	"github.com/weirlabs/weir/pkg/api"
)

// Node is the live, per-run wrapper around a step implementation: the
// graph links to its neighbours plus the last status it reported. The
// upstream and downstream maps are symmetric, computed once before any
// execution begins, and never change during a run
type Node struct {
	id          api.StepID
	step        steps.Step
	upstreams   map[api.StepID]*Node
	downstreams map[api.StepID]*Node
	last        api.Status
}

func newNode(id api.StepID, step steps.Step) *Node {
	return &Node{
		id:          id,
		step:        step,
		upstreams:   map[api.StepID]*Node{},
		downstreams: map[api.StepID]*Node{},
		last:        api.StatusNew,
	}
}

// ID returns the node's step id, unique within a run
func (n *Node) ID() api.StepID {
	return n.id
}

// Step returns the wrapped step implementation
func (n *Node) Step() steps.Step {
	return n.step
}

// IsFlow returns the step's flow/connector classification
func (n *Node) IsFlow() bool {
	return n.step.IsFlow()
}

// Upstreams returns the node's upstream links keyed by step id
func (n *Node) Upstreams() map[api.StepID]*Node {
	return n.upstreams
}

// Downstreams returns the node's downstream links keyed by step id
func (n *Node) Downstreams() map[api.StepID]*Node {
	return n.downstreams
}

// LastStatus returns the status most recently reported by the step
func (n *Node) LastStatus() api.Status {
	return n.last
}

// link records the dependency edge upstream -> n on both nodes
func link(upstream, n *Node) {
	upstream.downstreams[n.id] = n
	n.upstreams[upstream.id] = upstream
}

// upstreamSteps returns the wrapped implementations of the node's
// upstreams in a stable order
func (n *Node) upstreamSteps(order []*Node) []steps.Step {
	var ups []steps.Step
	for _, candidate := range order {
		if _, ok := n.upstreams[candidate.id]; ok {
			ups = append(ups, candidate.step)
		}
	}
	return ups
}
