package core

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
)

// fakeSink records statements per transaction. Rows of rolled-back
// transactions never reach committed.
type fakeSink struct {
	mu        sync.Mutex
	committed map[string][][]any // table -> bound args
	rollbacks int
	commits   int

	// failOn makes Exec fail for an insert into this table once failAfter
	// rows of it were accepted in the current transaction.
	failOn    string
	failAfter int
	failErr   error

	beginErr error
}

func newFakeSink() *fakeSink {
	return &fakeSink{committed: make(map[string][][]any)}
}

func (s *fakeSink) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (s *fakeSink) Begin(context.Context) (Tx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	return &fakeTx{sink: s, pending: make(map[string][][]any)}, nil
}

func (s *fakeSink) rows(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.committed[table])
}

type fakeTx struct {
	sink    *fakeSink
	pending map[string][][]any
	done    bool
}

func (t *fakeTx) Exec(_ context.Context, sql string, args ...any) error {
	if t.done {
		return errors.New("transaction already closed")
	}
	table := insertTable(sql)
	if table == t.sink.failOn && len(t.pending[table]) >= t.sink.failAfter {
		err := t.sink.failErr
		if err == nil {
			err = errors.New("constraint failed: FOREIGN KEY constraint failed")
		}
		return err
	}
	t.pending[table] = append(t.pending[table], args)
	return nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	t.done = true
	t.sink.commits++
	for table, rows := range t.pending {
		t.sink.committed[table] = append(t.sink.committed[table], rows...)
	}
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	t.sink.rollbacks++
	return nil
}

// insertTable extracts the table from "INSERT INTO t (...".
func insertTable(sql string) string {
	rest := strings.TrimPrefix(sql, "INSERT INTO ")
	if i := strings.IndexByte(rest, ' '); i >= 0 {
		return rest[:i]
	}
	return rest
}
