package events

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// inserter 批量写入接口（*mongo.Collection）
type inserter interface {
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

// MongoWriter 事件写入MongoDB
// 功能：缓存事件，满batch条后批量写入集合，仿真结束时写入剩余事件
type MongoWriter struct {
	coll  inserter
	batch int

	mtx     sync.Mutex
	buf     []interface{}
	written int
}

// NewMongoWriter 创建事件写入器
// 参数：coll-目标集合，batch-批量写入大小
func NewMongoWriter(coll *mongo.Collection, batch int) *MongoWriter {
	return newMongoWriter(coll, batch)
}

func newMongoWriter(coll inserter, batch int) *MongoWriter {
	if batch <= 0 {
		batch = 1
	}
	return &MongoWriter{
		coll:  coll,
		batch: batch,
		buf:   make([]interface{}, 0, batch),
	}
}

func (w *MongoWriter) HandleEvent(e Event) {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	w.buf = append(w.buf, e)
	if len(w.buf) >= w.batch {
		if err := w.flush(); err != nil {
			log.Errorf("write events err: %v", err)
		}
	}
}

// Flush 写入缓存中的所有事件
func (w *MongoWriter) Flush() error {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	return w.flush()
}

// Written 已写入的事件数
func (w *MongoWriter) Written() int {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	return w.written
}

func (w *MongoWriter) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	docs := w.buf
	w.buf = make([]interface{}, 0, w.batch)
	if _, err := w.coll.InsertMany(context.Background(), docs, options.InsertMany().SetOrdered(false)); err != nil {
		return errors.Wrapf(err, "insert %d events", len(docs))
	}
	w.written += len(docs)
	return nil
}
