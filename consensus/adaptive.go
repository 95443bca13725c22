package consensus

// Adaptive weight classification resists liveness attacks that try to steer
// the subtree-weight race with engineered timestamps. A block whose declared
// timestamp is inconsistent with the blocks it claims to have seen when it
// was mined (its parent and referees) has its weight contribution discounted
// instead of counted at face value, so a minority hash-power attacker
// withholding or backdating blocks cannot outweigh the honest subtree.
//
// The classification reads nothing but the block's own header and the
// headers it points at, so every node derives the identical flag from DAG
// content alone, whatever order the blocks arrived in. It is assigned
// exactly once, when the block activates, and never revisited: weight
// aggregates already propagated to ancestors must stay stable.

// classifyAdaptive returns whether node gets the adaptive discount. The
// node's parent and referees must already be active.
func (g *ConsensusGraph) classifyAdaptive(node *blockNode) bool {
	if node.isGenesis() {
		return false
	}

	// The latest timestamp in the block's declared view. An honest block
	// is mined shortly after the view it declares.
	viewTime := g.arena.node(node.parent).timestamp
	for _, referee := range node.referees {
		if ts := g.arena.node(referee).timestamp; ts > viewTime {
			viewTime = ts
		}
	}

	window := g.Params.AdaptiveTimeWindow.Milliseconds()
	deviation := node.timestamp - viewTime
	if deviation < 0 {
		deviation = -deviation
	}
	return deviation > window
}
