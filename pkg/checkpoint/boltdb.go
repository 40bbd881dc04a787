package checkpoint

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var bucketPIDs = []byte("pids")

// BoltStore is a Store backed by BoltDB. Each key is serialized as
// "<slave>/<framework>/<executor>/<container>" so a single bucket scan can
// recover every checkpoint for an executor.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if absent) a checkpoint database under
// dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "checkpoint.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPIDs)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("checkpoint: create bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

var _ Store = (*BoltStore)(nil)

// WritePID implements Store.
func (s *BoltStore) WritePID(key Key, pid int) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(pid))

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPIDs)
		return b.Put([]byte(keyString(key)), buf)
	})
}

// ReadPID returns the last checkpointed pid for key, and whether one exists.
// Exposed for operator tooling and tests; the Manager's own recovery path
// reads through the agent-owned snapshot, not through Store.
func (s *BoltStore) ReadPID(key Key) (int, bool, error) {
	var pid int
	var found bool

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPIDs)
		v := b.Get([]byte(keyString(key)))
		if v == nil {
			return nil
		}
		if len(v) != 8 {
			return fmt.Errorf("checkpoint: corrupt pid record for key %q", keyString(key))
		}
		pid = int(binary.BigEndian.Uint64(v))
		found = true
		return nil
	})
	return pid, found, err
}

func keyString(k Key) string {
	return fmt.Sprintf("%s/%s/%s/%s", k.SlaveID, k.FrameworkID, k.ExecutorID, k.ContainerID)
}
