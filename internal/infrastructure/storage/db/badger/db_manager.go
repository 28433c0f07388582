package dbbadger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"
)

type ctxKey string

// TxKey is the context key repositories look up to join an ongoing
// transaction.
const TxKey ctxKey = "tx"

// DbManager holds all the badgerhold stores in a single data structure.
// Orders, disputes and users live in dedicated databases so compaction and
// garbage collection of the busy order store never stall the others.
type DbManager struct {
	OrderStore   *badgerhold.Store
	DisputeStore *badgerhold.Store
	UserStore    *badgerhold.Store
}

// NewDbManager opens (or creates if not exists) the badger stores on disk.
// It expects a base data dir and an optional logger.
func NewDbManager(baseDbDir string, logger badger.Logger) (*DbManager, error) {
	orderDb, err := createDb(baseDbDir+"/orders", logger)
	if err != nil {
		return nil, fmt.Errorf("opening orders db: %w", err)
	}

	disputeDb, err := createDb(baseDbDir+"/disputes", logger)
	if err != nil {
		return nil, fmt.Errorf("opening disputes db: %w", err)
	}

	userDb, err := createDb(baseDbDir+"/users", logger)
	if err != nil {
		return nil, fmt.Errorf("opening users db: %w", err)
	}

	return &DbManager{
		OrderStore:   orderDb,
		DisputeStore: disputeDb,
		UserStore:    userDb,
	}, nil
}

// NewOrderTransaction returns a read-write transaction on the order store.
func (d DbManager) NewOrderTransaction() *badger.Txn {
	return d.OrderStore.Badger().NewTransaction(true)
}

// Close closes all the underlying stores.
func (d DbManager) Close() error {
	for _, store := range []*badgerhold.Store{
		d.OrderStore, d.DisputeStore, d.UserStore,
	} {
		if err := store.Close(); err != nil {
			return err
		}
	}
	return nil
}

// ContextWithTx returns a child context carrying the given transaction.
func ContextWithTx(ctx context.Context, tx *badger.Txn) context.Context {
	return context.WithValue(ctx, TxKey, tx)
}

func txFromContext(ctx context.Context) *badger.Txn {
	tx, _ := ctx.Value(TxKey).(*badger.Txn)
	return tx
}

// JSONEncode is a custom JSON based encoder for badger
func JSONEncode(value interface{}) ([]byte, error) {
	var buff bytes.Buffer

	en := json.NewEncoder(&buff)

	err := en.Encode(value)
	if err != nil {
		return nil, err
	}

	return buff.Bytes(), nil
}

// JSONDecode is a custom JSON based decoder for badger
func JSONDecode(data []byte, value interface{}) error {
	var buff bytes.Buffer
	de := json.NewDecoder(&buff)

	_, err := buff.Write(data)
	if err != nil {
		return err
	}

	return de.Decode(value)
}

func createDb(dbDir string, logger badger.Logger) (db *badgerhold.Store, err error) {
	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	db, err = badgerhold.Open(badgerhold.Options{
		Encoder:          JSONEncode,
		Decoder:          JSONDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})

	return
}
