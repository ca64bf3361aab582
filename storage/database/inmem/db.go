// Package inmemdb provides in-memory repositories for tests. Transactions
// are implemented by snapshotting all tables on Begin and restoring them on
// Rollback; the engine runs one pass at a time so this is safe.
package inmemdb

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/course"
	"github.com/trezcool/maoni/core/form"
	"github.com/trezcool/maoni/core/param"
)

type DB struct {
	mu sync.RWMutex

	courses   map[string]*course.Course
	students  map[string]*course.Student
	forms     map[string]*form.Form
	questions map[string]*form.Question
	answers   map[string]*form.Answer
	params    map[string]*param.Param // keyed by name

	// FailCommits makes every transaction fail on Commit and roll back,
	// to exercise commit-failure handling.
	FailCommits bool
}

var _ core.DB = (*DB)(nil)

func Open() (*DB, error) {
	return &DB{
		courses:   make(map[string]*course.Course),
		students:  make(map[string]*course.Student),
		forms:     make(map[string]*form.Form),
		questions: make(map[string]*form.Question),
		answers:   make(map[string]*form.Answer),
		params:    make(map[string]*param.Param),
	}, nil
}

type snapshot struct {
	courses   map[string]*course.Course
	students  map[string]*course.Student
	forms     map[string]*form.Form
	questions map[string]*form.Question
	answers   map[string]*form.Answer
	params    map[string]*param.Param
}

func copyTable[T any](table map[string]*T) map[string]*T {
	cp := make(map[string]*T, len(table))
	for k, v := range table {
		val := *v
		cp[k] = &val
	}
	return cp
}

func (db *DB) snapshot() snapshot {
	return snapshot{
		courses:   copyTable(db.courses),
		students:  copyTable(db.students),
		forms:     copyTable(db.forms),
		questions: copyTable(db.questions),
		answers:   copyTable(db.answers),
		params:    copyTable(db.params),
	}
}

func (db *DB) restore(snap snapshot) {
	db.courses = snap.courses
	db.students = snap.students
	db.forms = snap.forms
	db.questions = snap.questions
	db.answers = snap.answers
	db.params = snap.params
}

func (db *DB) Begin(ctx context.Context) (core.DBTransactor, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return &tx{db: db, snap: db.snapshot()}, nil
}

type tx struct {
	core.DBExecutor // nil; in-memory repositories never execute SQL

	db   *DB
	snap snapshot
	done bool
}

var _ core.DBTransactor = (*tx)(nil)

func (t *tx) Commit() error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if t.done {
		return errors.New("transaction already closed")
	}
	t.done = true
	if t.db.FailCommits {
		t.db.restore(t.snap)
		return errors.New("commit rejected")
	}
	return nil
}

func (t *tx) Rollback() error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	t.db.restore(t.snap)
	return nil
}
