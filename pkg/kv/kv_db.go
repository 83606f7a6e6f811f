package kv

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
	"github.com/lintang-b-s/carpoolnav/pkg/graphio"
	"github.com/uber/h3-go/v4"
)

var (
	ErrGraphNotFound = errors.New("kv: graph not found")
)

const (
	graphPrefix = "graph:"
	h3Prefix    = "h3:"
	batchSize   = 1000
)

type KVDB struct {
	db *badger.DB
}

func NewKVDB(db *badger.DB) *KVDB {
	return &KVDB{db}
}

// OpenKVDB opens a badger store in dir. An empty dir gives an in-memory store.
func OpenKVDB(dir string) (*KVDB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return NewKVDB(db), nil
}

func graphKey(mapID string) []byte {
	return []byte(graphPrefix + mapID)
}

func cellKey(mapID string, cell h3.Cell) []byte {
	return []byte(h3Prefix + mapID + ":" + cell.String())
}

func (k *KVDB) SaveGraph(ctx context.Context, g *datastructure.Graph) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	val, err := graphio.EncodeGraph(g)
	if err != nil {
		return err
	}
	err = k.db.Update(func(txn *badger.Txn) error {
		return txn.Set(graphKey(g.MapID()), val)
	})
	if err != nil {
		return err
	}
	log.Printf("saving graph %s to key-value db done (%d bytes)", g.MapID(), len(val))
	return nil
}

func (k *KVDB) LoadGraph(mapID string) (*datastructure.Graph, error) {
	val, err := k.get(graphKey(mapID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, mapID)
	}
	if err != nil {
		return nil, err
	}
	return graphio.DecodeGraph(val)
}

// ListMapIDs returns the ids of the stored graphs in key order.
func (k *KVDB) ListMapIDs() ([]string, error) {
	mapIDs := []string{}
	err := k.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(graphPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			mapIDs = append(mapIDs, strings.TrimPrefix(string(it.Item().Key()), graphPrefix))
		}
		return nil
	})
	return mapIDs, err
}

// BuildH3IndexedNodes stores, for every h3 cell at the given resolution, the ids of the graph nodes inside it.
func (k *KVDB) BuildH3IndexedNodes(ctx context.Context, g *datastructure.Graph, resolution int) error {
	log.Printf("creating & saving h3 indexed nodes to key-value db...")
	cells := make(map[h3.Cell][]int32)
	for nodeID := int32(0); int(nodeID) < g.NumberOfNodes(); nodeID++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		p := g.GetNode(nodeID).Point
		cell := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lon), resolution)
		cells[cell] = append(cells[cell], nodeID)
	}

	batches := make([]batchData, 0, batchSize)
	for cell, nodeIDs := range cells {
		batches = append(batches, batchData{
			key:   cellKey(g.MapID(), cell),
			value: nodeIDs,
		})
		if len(batches) == batchSize {
			if err := k.saveBatch(ctx, batches); err != nil {
				return err
			}
			batches = make([]batchData, 0, batchSize)
		}
	}

	if len(batches) > 0 {
		if err := k.saveBatch(ctx, batches); err != nil {
			return err
		}
	}

	log.Printf("creating & saving h3 indexed nodes to key-value db done: %d cells", len(cells))
	return nil
}

type batchData struct {
	key   []byte
	value []int32
}

func (k *KVDB) saveBatch(ctx context.Context, batchData []batchData) error {
	batch := k.db.NewWriteBatch()
	defer batch.Cancel()

	for _, data := range batchData {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		val, err := encodeNodeIDs(data.value)
		if err != nil {
			return err
		}
		if err := batch.Set(data.key, val); err != nil {
			return err
		}
	}

	if err := batch.Flush(); err != nil {
		log.Printf("error saving h3 cells: %v", err)
		return err
	}
	return nil
}

// NodesInCell returns the nodes of map mapID inside cell. A cell without nodes gives an empty result.
func (k *KVDB) NodesInCell(mapID string, cell h3.Cell) ([]int32, error) {
	val, err := k.get(cellKey(mapID, cell))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeNodeIDs(val)
}

func (k *KVDB) get(key []byte) ([]byte, error) {
	var val []byte
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		val, err = item.ValueCopy(nil)
		return err
	})
	return val, err
}

func (k *KVDB) Close() error {
	return k.db.Close()
}

// CellIndex reads the h3 node index of one map.
type CellIndex struct {
	kv    *KVDB
	mapID string
}

func NewCellIndex(kv *KVDB, mapID string) *CellIndex {
	return &CellIndex{kv: kv, mapID: mapID}
}

func (c *CellIndex) NodesInCell(cell h3.Cell) ([]int32, error) {
	return c.kv.NodesInCell(c.mapID, cell)
}
