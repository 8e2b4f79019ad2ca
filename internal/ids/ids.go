package ids

import (
	"github.com/bwmarrin/snowflake"
)

// Generator produces time-ordered unique string IDs for sessions,
// theory versions, and decision questions.
type Generator struct {
	node *snowflake.Node
}

// NewGenerator creates a generator for the given node ID (0..1023).
func NewGenerator(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}
	return &Generator{node: node}, nil
}

func (g *Generator) New() string {
	return g.node.Generate().String()
}
