package feather2d

import (
	"slices"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/constraint"
)

// graphNode holds the edges of one body.
type graphNode struct {
	contacts []*constraint.ContactConstraint
	joints   []constraint.Joint
}

// constraintGraph links bodies through their contacts and joints.
// Every edge is stored on both of its bodies.
type constraintGraph struct {
	nodes map[*actor.Body]*graphNode
}

func newConstraintGraph() constraintGraph {
	return constraintGraph{nodes: make(map[*actor.Body]*graphNode)}
}

func (g *constraintGraph) addBody(body *actor.Body) {
	if _, ok := g.nodes[body]; !ok {
		g.nodes[body] = &graphNode{}
	}
}

// removeBody drops the node of body and every edge incident to it, on both
// sides. It returns the removed node.
func (g *constraintGraph) removeBody(body *actor.Body) *graphNode {
	node, ok := g.nodes[body]
	if !ok {
		return nil
	}
	for _, c := range node.contacts {
		if other := g.nodes[c.Other(body)]; other != nil {
			other.contacts = removeEdge(other.contacts, c)
		}
	}
	for _, j := range node.joints {
		if other := g.nodes[j.Other(body)]; other != nil {
			other.joints = removeEdge(other.joints, j)
		}
	}
	delete(g.nodes, body)

	return node
}

func (g *constraintGraph) node(body *actor.Body) *graphNode {
	return g.nodes[body]
}

func (g *constraintGraph) addContact(c *constraint.ContactConstraint) {
	if node := g.nodes[c.BodyA()]; node != nil {
		node.contacts = append(node.contacts, c)
	}
	if node := g.nodes[c.BodyB()]; node != nil {
		node.contacts = append(node.contacts, c)
	}
}

func (g *constraintGraph) removeContact(c *constraint.ContactConstraint) {
	if node := g.nodes[c.BodyA()]; node != nil {
		node.contacts = removeEdge(node.contacts, c)
	}
	if node := g.nodes[c.BodyB()]; node != nil {
		node.contacts = removeEdge(node.contacts, c)
	}
}

// clearContacts drops every contact edge, keeping the joints.
func (g *constraintGraph) clearContacts() {
	for _, node := range g.nodes {
		clear(node.contacts)
		node.contacts = node.contacts[:0]
	}
}

func (g *constraintGraph) addJoint(j constraint.Joint) {
	if node := g.nodes[j.BodyA()]; node != nil {
		node.joints = append(node.joints, j)
	}
	if node := g.nodes[j.BodyB()]; node != nil {
		node.joints = append(node.joints, j)
	}
}

func (g *constraintGraph) removeJoint(j constraint.Joint) {
	if node := g.nodes[j.BodyA()]; node != nil {
		node.joints = removeEdge(node.joints, j)
	}
	if node := g.nodes[j.BodyB()]; node != nil {
		node.joints = removeEdge(node.joints, j)
	}
}

// isCollisionAllowed is false when a joint between a and b forbids it.
func (g *constraintGraph) isCollisionAllowed(a, b *actor.Body) bool {
	node := g.nodes[a]
	if node == nil {
		return true
	}
	for _, j := range node.joints {
		if j.Other(a) == b && !j.IsCollisionAllowed() {
			return false
		}
	}
	return true
}

// isInContact reports an enabled, non sensor contact between a and b.
func (g *constraintGraph) isInContact(a, b *actor.Body) bool {
	node := g.nodes[a]
	if node == nil {
		return false
	}
	for _, c := range node.contacts {
		if c.Other(a) == b && c.IsEnabled() && !c.IsSensor() {
			return true
		}
	}
	return false
}

func removeEdge[E comparable](edges []E, edge E) []E {
	if i := slices.Index(edges, edge); i >= 0 {
		return slices.Delete(edges, i, i+1)
	}
	return edges
}
