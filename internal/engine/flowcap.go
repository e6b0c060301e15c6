package engine

import (
	"context"
	"fmt"

	"github.com/weirlabs/weir/internal/steps"
	"github.com/weirlabs/weir/pkg/api"
)

// flowCap is the synthetic terminator injected as the sole downstream of a
// terminal flow step. It has no business logic: it drains its upstream one
// record per activation and passes the finished signal through. After
// consuming a record it reports waiting, which keeps the backward demand
// loop pulling; flowing from a node with no downstream would stall the run
type flowCap struct {
	def      api.StepDef
	upstream steps.Step
	last     api.Status
}

func newFlowCap(n int) *flowCap {
	return &flowCap{
		def: api.StepDef{
			ID:   api.StepID(fmt.Sprintf("flowcap-%d", n)),
			Type: "flowcap",
		},
		last: api.StatusNew,
	}
}

func (c *flowCap) Def() *api.StepDef {
	return &c.def
}

func (c *flowCap) IsFlow() bool {
	return true
}

func (c *flowCap) Initialise(context.Context, *steps.RunContext) error {
	c.last = api.StatusInitialised
	return nil
}

func (c *flowCap) Link(upstreams []steps.Step) {
	if len(upstreams) > 0 {
		c.upstream = upstreams[0]
	}
}

func (c *flowCap) Execute(context.Context) (api.Status, error) {
	src, ok := c.upstream.(steps.FlowEmitter)
	if !ok {
		c.last = api.StatusFinished
		return c.last, nil
	}

	if _, ok := src.Take(); ok {
		c.last = api.StatusWaiting
		return c.last, nil
	}
	if src.Done() {
		c.last = api.StatusFinished
		return c.last, nil
	}
	c.last = api.StatusWaiting
	return c.last, nil
}

func (c *flowCap) Abort() {}

func (c *flowCap) Finalise() {}

func (c *flowCap) Done() bool {
	return c.last == api.StatusFinished || c.last == api.StatusCancelled
}

// injectFlowCaps closes every flow sub-graph that has no natural consumer:
// each flow step with zero downstreams gains one cap as its sole
// downstream. Caps are numbered from 1 in step construction order
func (e *Engine) injectFlowCaps() {
	n := 0
	for _, node := range e.order {
		if !node.IsFlow() || len(node.downstreams) > 0 {
			continue
		}
		n++
		capStep := newFlowCap(n)
		capNode := newNode(capStep.Def().ID, capStep)
		link(node, capNode)
		e.nodes[capNode.id] = capNode
		e.order = append(e.order, capNode)
		e.caps = append(e.caps, capNode)
	}
}
