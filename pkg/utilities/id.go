package utilities

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// NewRecordRef generates the internal reference for a new row: a snowflake
// ID string using a node ID from the SNOWFLAKE_NODE environment variable.
// Record refs are opaque and distinct from business identifiers, which are
// minted by the identity package.
func NewRecordRef() string {
	nodeEnv := os.Getenv("SNOWFLAKE_NODE")
	if nodeEnv == "" {
		return newRecordRefWithNode(1)
	}
	nodeID, err := strconv.ParseInt(nodeEnv, 10, 64)
	if err != nil {
		return newRecordRefWithNode(1)
	}
	return newRecordRefWithNode(nodeID)
}

// newRecordRefWithNode generates a snowflake ID string using the provided
// node ID. If the node cannot be initialized, it falls back to a KSUID string.
func newRecordRefWithNode(nodeID int64) string {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return NewKSUID()
	}
	return node.Generate().String()
}
