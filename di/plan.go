package di

import (
	"context"

	"github.com/kbukum/managed/errors"
)

// PlanNode is one concrete key of a plan.
type PlanNode struct {
	Key   TypeKey
	Scope Scope
	// External marks a pre-built instance.
	External bool
	// Dependencies are the node's dependencies in declaration order.
	Dependencies []TypeKey
}

// PlanEdge is a dependency: To depends on From.
type PlanEdge struct {
	From TypeKey
	To   TypeKey
}

// Plan is the dependency graph of one key, computed without constructing
// anything. Nodes are in construction order: every node follows its
// dependencies. A node reached through several paths appears once.
type Plan struct {
	Root  TypeKey
	Nodes []PlanNode
	Edges []PlanEdge
	index map[string]int
}

// Node returns the node for key.
func (p *Plan) Node(key TypeKey) (PlanNode, bool) {
	i, ok := p.index[key.id()]
	if !ok {
		return PlanNode{}, false
	}
	return p.Nodes[i], true
}

// Len returns the number of nodes.
func (p *Plan) Len() int { return len(p.Nodes) }

// Levels groups the nodes with Kahn's algorithm: level 0 has no
// dependencies and every node sits one level after its deepest dependency.
// Nodes within a level keep plan order.
func (p *Plan) Levels() [][]TypeKey {
	inDegree := make([]int, len(p.Nodes))
	dependents := make([][]int, len(p.Nodes))
	for _, e := range p.Edges {
		from, to := p.index[e.From.id()], p.index[e.To.id()]
		inDegree[to]++
		dependents[from] = append(dependents[from], to)
	}

	var queue []int
	for i, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, i)
		}
	}

	var levels [][]TypeKey
	for len(queue) > 0 {
		level := make([]TypeKey, len(queue))
		var next []int
		for j, i := range queue {
			level[j] = p.Nodes[i].Key
			for _, d := range dependents[i] {
				inDegree[d]--
				if inDegree[d] == 0 {
					next = append(next, d)
				}
			}
		}
		levels = append(levels, level)
		queue = next
	}
	return levels
}

// Plan walks the graph of key with the rules Resolve uses (lookup,
// specialization, constraint checks, cycle detection) but constructs
// nothing and leaves the cache and the registry untouched.
func (c *Container) Plan(key TypeKey) (*Plan, error) {
	return c.PlanContext(context.Background(), key)
}

// PlanContext is Plan with a context checked between nodes.
func (c *Container) PlanContext(ctx context.Context, key TypeKey) (*Plan, error) {
	if c.closed.Load() {
		return nil, ErrContainerClosed
	}
	if key.IsZero() {
		return nil, errors.InvalidInput("key", "must not be empty")
	}
	if !key.IsConcrete() {
		return nil, &UnboundTypeVariableError{Key: key, Variable: key.Variables()[0]}
	}
	p := &Plan{Root: key, index: make(map[string]int)}
	if err := c.plan(ctx, p, nil, key); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Container) plan(ctx context.Context, p *Plan, parent *frame, key TypeKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := key.mustBeConcrete("plan")
	if parent.contains(id) {
		return &CyclicDependencyError{Key: key, Chain: append(parent.chain(), key)}
	}
	if _, done := p.index[id]; done {
		return nil
	}
	f := parent.push(key, id)

	node, err := c.planNode(f, key)
	if err != nil {
		return err
	}
	for _, dep := range node.Dependencies {
		if err := c.plan(ctx, p, f, dep); err != nil {
			return err
		}
		p.Edges = append(p.Edges, PlanEdge{From: dep, To: key})
	}
	p.index[id] = len(p.Nodes)
	p.Nodes = append(p.Nodes, node)
	return nil
}

// planNode computes the node for key, whose frame is f. Built-in slice and
// optional keys are never cached, so they plan as transient.
func (c *Container) planNode(f *frame, key TypeKey) (PlanNode, error) {
	if key.Arity() == 1 {
		switch key.Base() {
		case SliceBase:
			node := PlanNode{Key: key, Scope: Transient, Dependencies: c.satisfying(key.args[0])}
			if len(node.Dependencies) == 0 {
				return PlanNode{}, &UnresolvedDependencyError{Key: key, Chain: f.parent.chain()}
			}
			return node, nil
		case OptionalBase:
			node := PlanNode{Key: key, Scope: Transient}
			elem := key.args[0]
			if c.bound(elem) {
				node.Dependencies = []TypeKey{elem}
			}
			return node, nil
		}
	}

	b, ok := c.registry.Lookup(key.Base())
	if !ok {
		return PlanNode{}, &UnresolvedDependencyError{Key: key, Chain: f.parent.chain()}
	}
	sp, err := c.specializer.Specialize(b.Descriptor, key)
	if err != nil {
		if ce, ok := err.(chained); ok {
			ce.setChain(f.chain())
		}
		return PlanNode{}, err
	}
	return PlanNode{Key: key, Scope: b.Scope, External: b.External, Dependencies: sp.Dependencies}, nil
}

// bound reports whether resolving key would find a provider, without
// looking past the key itself.
func (c *Container) bound(key TypeKey) bool {
	if key.Arity() == 1 {
		switch key.Base() {
		case SliceBase:
			return len(c.satisfying(key.args[0])) > 0
		case OptionalBase:
			return true
		}
	}
	_, ok := c.registry.Lookup(key.Base())
	return ok
}

// satisfying returns the keys of the non-generic bindings that satisfy
// elem, in registration order.
func (c *Container) satisfying(elem TypeKey) []TypeKey {
	var out []TypeKey
	for _, b := range c.registry.Bindings() {
		if b.Descriptor.IsGeneric() {
			continue
		}
		if bk := Key(b.Descriptor.Base); c.satisfier.Satisfies(bk, elem) {
			out = append(out, bk)
		}
	}
	return out
}
