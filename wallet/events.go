// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// subscriptionQueueSize is the buffer of a subscriber's event queue before
// it overflows into the unbounded backlog.
const subscriptionQueueSize = 20

// Event is a change published by the model to its subscribers.
type Event interface {
	isEvent()
}

// BalanceChanged is published when any balance differs from the cached
// value. It carries every balance, changed or not.
type BalanceChanged struct {
	Balances Balances
}

// NumTransactionsChanged is published when the number of wallet
// transactions changes.
type NumTransactionsChanged struct {
	Count int
}

// EncryptionStatusChanged is published when the wallet is encrypted,
// locked or unlocked.
type EncryptionStatusChanged struct {
	Status EncryptionStatus
}

// AddressBookChanged is published when an address book entry is created,
// relabelled or removed.
type AddressBookChanged struct {
	Entry  AddressBookEntry
	Change ChangeType
}

// WatchOnlyChanged is published when the first watch-only address is
// imported or the last one removed.
type WatchOnlyChanged struct {
	HaveWatchOnly bool
}

// TransactionChanged is published for every wallet transaction added or
// updated by the ledger.
type TransactionChanged struct {
	Hash   chainhash.Hash
	Change ChangeType
}

// UnlockRequired is published when an operation needs the wallet unlocked
// and the user is about to be prompted.
type UnlockRequired struct{}

func (BalanceChanged) isEvent()          {}
func (NumTransactionsChanged) isEvent()  {}
func (EncryptionStatusChanged) isEvent() {}
func (AddressBookChanged) isEvent()      {}
func (WatchOnlyChanged) isEvent()        {}
func (TransactionChanged) isEvent()      {}
func (UnlockRequired) isEvent()          {}

// Subscription delivers model events to one observer. Events are queued
// without bound so publishing never waits on a slow observer.
type Subscription struct {
	id     uint64
	events *fn.ConcurrentQueue[Event]

	cancelOnce sync.Once
	cancel     func()

	doneOnce sync.Once
	done     chan struct{}
}

// Updates returns the channel events are delivered on, in publication
// order. The channel is never closed; observers select on Done as well.
func (s *Subscription) Updates() <-chan Event {
	return s.events.ChanOut()
}

// Done is closed once the subscription is cancelled or the model stops.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Cancel stops the delivery of events. Events still queued are dropped.
func (s *Subscription) Cancel() {
	s.cancelOnce.Do(s.cancel)
}

// shutdown stops the event queue and closes Done.
func (s *Subscription) shutdown() {
	s.doneOnce.Do(func() {
		s.events.Stop()
		close(s.done)
	})
}

// notifier fans events out to subscribers.
type notifier struct {
	mu          sync.Mutex
	nextID      uint64
	subscribers map[uint64]*Subscription
	quit        chan struct{}
}

func newNotifier(quit chan struct{}) *notifier {
	return &notifier{
		subscribers: make(map[uint64]*Subscription),
		quit:        quit,
	}
}

func (n *notifier) subscribe() *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++

	events := fn.NewConcurrentQueue[Event](subscriptionQueueSize)
	events.Start()

	sub := &Subscription{
		id:     id,
		events: events,
		done:   make(chan struct{}),
	}
	sub.cancel = func() {
		n.mu.Lock()
		delete(n.subscribers, id)
		n.mu.Unlock()

		sub.shutdown()
	}
	n.subscribers[id] = sub

	return sub
}

func (n *notifier) publish(e Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	log.Tracef("Publishing %T to %d %s", e, len(n.subscribers),
		pickNoun(len(n.subscribers), "subscriber", "subscribers"))

	for _, sub := range n.subscribers {
		select {
		case sub.events.ChanIn() <- e:
		case <-n.quit:
			return
		}
	}
}

func (n *notifier) stop() {
	n.mu.Lock()
	subs := n.subscribers
	n.subscribers = make(map[uint64]*Subscription)
	n.mu.Unlock()

	for _, sub := range subs {
		sub.shutdown()
	}
}
