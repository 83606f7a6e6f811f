package kv

import (
	"github.com/kelindar/binary"
)

func encodeNodeIDs(nodeIDs []int32) ([]byte, error) {
	return binary.Marshal(nodeIDs)
}

func decodeNodeIDs(bb []byte) ([]int32, error) {
	var nodeIDs []int32
	if err := binary.Unmarshal(bb, &nodeIDs); err != nil {
		return nil, err
	}
	return nodeIDs, nil
}
