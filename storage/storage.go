// Package storage persists layered sets as bbolt snapshots. Each allocated
// block travels as one record: a checksum of its words followed by their
// minlz-compressed bytes. The duplicate ledger and the construction
// parameters ride along, so a load rebuilds the exact multiset.
package storage

import (
	"bytes"
	"encoding/binary"
	"runtime"
	"slices"
	"sync"

	"github.com/gernest/layered"
	"github.com/gernest/layered/internal/magic"
	"github.com/gernest/layered/storage/compress"
	"github.com/minio/highwayhash"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
	"golang.org/x/sync/errgroup"
)

var (
	sys    = []byte("sys")
	blocks = []byte("blocks")
	dups   = []byte("dups")

	capacityKey  = []byte("capacity")
	blockSizeKey = []byte("block_size")
	offsetKey    = []byte("offset")
)

// hashKey keys the block checksums. Fixed: snapshots are not an integrity
// boundary against an adversary, only against torn writes and bit rot.
var hashKey = []byte("layered.storage.block.checksum.1")

var pool compress.Pool

// Save writes a snapshot of s to the bbolt database at path, replacing any
// snapshot already there.
func Save(path string, s *layered.Set) error {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return errors.Wrap(err, "opening snapshot database")
	}
	defer db.Close()
	return save(db, s)
}

func save(db *bbolt.DB, s *layered.Set) error {
	return db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{sys, blocks, dups} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return errors.Wrapf(err, "resetting bucket %s", name)
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return errors.Wrapf(err, "creating bucket %s", name)
			}
		}

		cfg := s.Config()
		sysB := tx.Bucket(sys)
		for _, kv := range []struct {
			key   []byte
			value uint64
		}{
			{capacityKey, cfg.Capacity},
			{blockSizeKey, cfg.BlockSize},
			{offsetKey, uint64(cfg.Offset)},
		} {
			if err := sysB.Put(kv.key, binary.BigEndian.AppendUint64(nil, kv.value)); err != nil {
				return errors.Wrapf(err, "writing %s", kv.key)
			}
		}

		blocksB := tx.Bucket(blocks)
		var buf bytes.Buffer
		for b, words := range s.Blocks() {
			raw := magic.ReinterpretSlice[byte](words)
			buf.Reset()
			buf.Write(binary.BigEndian.AppendUint64(nil, highwayhash.Sum64(raw, hashKey)))
			if err := pool.Encode(&buf, raw); err != nil {
				return errors.Wrapf(err, "compressing block %d", b)
			}
			key := binary.BigEndian.AppendUint64(nil, b)
			// Put retains the value slice until the transaction commits,
			// so each record needs bytes the next buf.Reset cannot touch.
			if err := blocksB.Put(key, slices.Clone(buf.Bytes())); err != nil {
				return errors.Wrapf(err, "writing block %d", b)
			}
		}

		dupsB := tx.Bucket(dups)
		for k, extra := range s.Duplicates() {
			key := binary.BigEndian.AppendUint64(nil, k)
			if err := dupsB.Put(key, binary.AppendUvarint(nil, extra)); err != nil {
				return errors.Wrapf(err, "writing ledger entry %d", k)
			}
		}
		return nil
	})
}

// Load reads the snapshot at path and rebuilds the set, verifying block
// checksums and every structural invariant. Blocks decompress in parallel.
func Load(path string) (*layered.Set, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{ReadOnly: true})
	if err != nil {
		return nil, errors.Wrap(err, "opening snapshot database")
	}
	defer db.Close()
	return load(db)
}

func load(db *bbolt.DB) (s *layered.Set, err error) {
	err = db.View(func(tx *bbolt.Tx) error {
		sysB, blocksB, dupsB := tx.Bucket(sys), tx.Bucket(blocks), tx.Bucket(dups)
		if sysB == nil || blocksB == nil || dupsB == nil {
			return errors.New("snapshot is missing buckets")
		}

		var cfg layered.Config
		for _, kv := range []struct {
			key []byte
			dst *uint64
		}{
			{capacityKey, &cfg.Capacity},
			{blockSizeKey, &cfg.BlockSize},
			{offsetKey, (*uint64)(nil)},
		} {
			v := sysB.Get(kv.key)
			if len(v) != 8 {
				return errors.Errorf("corrupt sys entry %s", kv.key)
			}
			if kv.dst != nil {
				*kv.dst = binary.BigEndian.Uint64(v)
			} else {
				cfg.Offset = int64(binary.BigEndian.Uint64(v))
			}
		}

		type record struct {
			block uint64
			sum   uint64
			data  []byte
		}
		var records []record
		// The value slices point into the mmap and stay valid for the
		// duration of the transaction, so the workers below can read them
		// without copying.
		err := blocksB.ForEach(func(k, v []byte) error {
			if len(k) != 8 || len(v) < 8 {
				return errors.Errorf("corrupt block record %x", k)
			}
			records = append(records, record{
				block: binary.BigEndian.Uint64(k),
				sum:   binary.BigEndian.Uint64(v),
				data:  v[8:],
			})
			return nil
		})
		if err != nil {
			return err
		}

		var (
			mu  sync.Mutex
			out = make(map[uint64][]uint64, len(records))
			g   errgroup.Group
		)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for _, rec := range records {
			g.Go(func() error {
				raw, err := pool.Decode(rec.data)
				if err != nil {
					return errors.Wrapf(err, "decompressing block %d", rec.block)
				}
				if highwayhash.Sum64(raw, hashKey) != rec.sum {
					return errors.Errorf("checksum mismatch on block %d", rec.block)
				}
				words := slices.Clone(magic.ReinterpretSlice[uint64](raw))
				mu.Lock()
				out[rec.block] = words
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		extras := map[uint64]uint64{}
		err = dupsB.ForEach(func(k, v []byte) error {
			if len(k) != 8 {
				return errors.Errorf("corrupt ledger key %x", k)
			}
			extra, n := binary.Uvarint(v)
			if n <= 0 {
				return errors.Errorf("corrupt ledger entry %x", k)
			}
			extras[binary.BigEndian.Uint64(k)] = extra
			return nil
		})
		if err != nil {
			return err
		}

		s, err = layered.Restore(cfg, out, extras)
		return errors.Wrap(err, "rebuilding set")
	})
	if err != nil {
		return nil, err
	}
	if err := s.Audit(); err != nil {
		return nil, errors.Wrap(err, "auditing loaded set")
	}
	return s, nil
}
