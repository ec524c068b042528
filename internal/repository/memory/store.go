// Package memory is an in-process Store used for local development and tests.
// A single mutex serialises every call; WithinTx holds it for the whole unit of
// work and restores a snapshot when fn fails.
package memory

import (
	"context"
	"sync"

	"hireflow/internal/repository"
)

type data struct {
	documents     map[string]*documentRow
	verifications map[string]*verificationRow
	pipeline      map[string]*pipelineRow
	quotes        map[string]*quoteRow
	interviews    map[string]*interviewRow
	demands       map[string]*demandRow
	notifications []*notificationRow
	contacts      map[string]*contactRow
}

func newData() *data {
	return &data{
		documents:     map[string]*documentRow{},
		verifications: map[string]*verificationRow{},
		pipeline:      map[string]*pipelineRow{},
		quotes:        map[string]*quoteRow{},
		interviews:    map[string]*interviewRow{},
		demands:       map[string]*demandRow{},
		contacts:      map[string]*contactRow{},
	}
}

// snapshot copies the maps; rows are immutable values replaced on write, so
// sharing row pointers between the snapshot and the live data is safe.
func (d *data) snapshot() *data {
	out := newData()
	for k, v := range d.documents {
		out.documents[k] = v
	}
	for k, v := range d.verifications {
		out.verifications[k] = v
	}
	for k, v := range d.pipeline {
		out.pipeline[k] = v
	}
	for k, v := range d.quotes {
		out.quotes[k] = v
	}
	for k, v := range d.interviews {
		out.interviews[k] = v
	}
	for k, v := range d.demands {
		out.demands[k] = v
	}
	out.notifications = append(out.notifications, d.notifications...)
	for k, v := range d.contacts {
		out.contacts[k] = v
	}
	return out
}

type Store struct {
	mu   sync.Mutex
	data *data
}

func NewStore() *Store {
	return &Store{data: newData()}
}

// session binds repositories to the store; locked sessions run inside WithinTx
// and must not take the mutex again.
type session struct {
	store  *Store
	locked bool
}

func (s *session) guard() func() {
	if s.locked {
		return func() {}
	}
	s.store.mu.Lock()
	return s.store.mu.Unlock
}

func (s *session) repos() repository.Repositories {
	return repository.Repositories{
		Documents:     &documentRepository{s: s},
		Verifications: &verificationRepository{s: s},
		Pipeline:      &pipelineRepository{s: s},
		Quotes:        &quoteRepository{s: s},
		Interviews:    &interviewRepository{s: s},
		Demands:       &demandRepository{s: s},
		Notifications: &notificationRepository{s: s},
		Contacts:      &contactRepository{s: s},
	}
}

func (st *Store) Repos() repository.Repositories {
	return (&session{store: st}).repos()
}

func (st *Store) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	before := st.data.snapshot()
	if err := fn((&session{store: st, locked: true}).repos()); err != nil {
		st.data = before
		return err
	}
	return nil
}

func (st *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
