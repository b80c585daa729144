package uid

import (
	"crypto/sha256"
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates sortable 63-bit numeric IDs.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator whose node number comes from the
// SNOWFLAKE_NODE_ID environment variable, falling back to a hash of the
// hostname so multiple instances rarely collide.
func NewSnowflake() (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeNumber())
	if err != nil {
		return nil, err
	}
	return &Snowflake{node: node}, nil
}

func nodeNumber() int64 {
	if raw := os.Getenv("SNOWFLAKE_NODE_ID"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n >= 0 && n < 1024 {
			return n
		}
	}

	host, err := os.Hostname()
	if err != nil {
		return 0
	}
	sum := sha256.Sum256([]byte(host))
	return int64(sum[0])<<2 | int64(sum[1])&0b11
}

// Generate returns a new snowflake ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
