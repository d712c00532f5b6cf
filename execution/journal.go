package execution

import (
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v3"
)

const (
	settledPrefix = "settled/"
	failedPrefix  = "failed/"

	recordTTL = 14 * 24 * time.Hour
)

// Record is one journaled hop outcome. The journal is a local audit trail
// for partial-completion reconciliation; the engine itself never reads it
// back to make decisions.
type Record struct {
	Hop       int    `json:"hop"`
	AssetIn   string `json:"asset_in"`
	AssetOut  string `json:"asset_out"`
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func (r Record) settled() bool {
	return r.Error == ""
}

// Journal persists hop outcomes in badger. Every record expires after 14
// days.
type Journal struct {
	db *badger.DB
}

func OpenJournal(path string) (*Journal, error) {
	options := badger.DefaultOptions(path)
	options.Logger = nil
	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) Append(record Record) error {
	prefix := failedPrefix
	if record.settled() {
		prefix = settledPrefix
	}
	key := fmt.Sprintf("%s%d/%d/%s", prefix, record.Timestamp, record.Hop, record.AssetIn)

	value, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return j.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), value).WithTTL(recordTTL))
	})
}

func (j *Journal) ListSettled() ([]Record, error) {
	return j.list(settledPrefix)
}

func (j *Journal) ListFailed() ([]Record, error) {
	return j.list(failedPrefix)
}

func (j *Journal) list(prefix string) ([]Record, error) {
	result := make([]Record, 0)
	err := j.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var record Record
			if err := json.Unmarshal(value, &record); err != nil {
				return err
			}
			result = append(result, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Stats counts the journaled outcomes still within their retention window.
func (j *Journal) Stats() (settled int, failed int, err error) {
	settledRecords, err := j.ListSettled()
	if err != nil {
		return 0, 0, err
	}
	failedRecords, err := j.ListFailed()
	if err != nil {
		return 0, 0, err
	}
	return len(settledRecords), len(failedRecords), nil
}

// GarbageCollect compacts the journal's value log. Meant to run from a cron
// job.
func (j *Journal) GarbageCollect() error {
	return j.db.RunValueLogGC(0.5)
}
