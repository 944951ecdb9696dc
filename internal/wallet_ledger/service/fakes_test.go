package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/wallet-ledger-engine/internal/domain/bankaccount"
	"github.com/wallet-ledger-engine/internal/domain/notification"
	"github.com/wallet-ledger-engine/internal/domain/receipt"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
	"github.com/wallet-ledger-engine/internal/domain/wallet"
)

// memStore is a transactional in-memory ledger store. Writes made through a
// memTx become visible only when ExecuteTx commits, and wallet locks are held
// until then.
type memStore struct {
	mu      sync.Mutex
	wallets map[shared.EntityRef]wallet.Wallet
	records map[uuid.UUID]transaction.Record
	events  []*notification.Event
	locks   map[shared.EntityRef]*sync.Mutex

	failRecordWrite error
}

func newMemStore() *memStore {
	return &memStore{
		wallets: make(map[shared.EntityRef]wallet.Wallet),
		records: make(map[uuid.UUID]transaction.Record),
		locks:   make(map[shared.EntityRef]*sync.Mutex),
	}
}

type memTx struct {
	pgx.Tx
	store   *memStore
	wallets map[shared.EntityRef]wallet.Wallet
	records map[uuid.UUID]transaction.Record
	events  []*notification.Event
	held    map[shared.EntityRef]*sync.Mutex
}

func (s *memStore) ExecuteTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	tx := &memTx{
		store:   s,
		wallets: make(map[shared.EntityRef]wallet.Wallet),
		records: make(map[uuid.UUID]transaction.Record),
		held:    make(map[shared.EntityRef]*sync.Mutex),
	}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for owner, w := range tx.wallets {
		s.wallets[owner] = w
	}
	for id, r := range tx.records {
		s.records[id] = r
	}
	s.events = append(s.events, tx.events...)
	return nil
}

func (tx *memTx) lock(owner shared.EntityRef) {
	if _, ok := tx.held[owner]; ok {
		return
	}
	tx.store.mu.Lock()
	l, ok := tx.store.locks[owner]
	if !ok {
		l = &sync.Mutex{}
		tx.store.locks[owner] = l
	}
	tx.store.mu.Unlock()

	l.Lock()
	tx.held[owner] = l
}

func (tx *memTx) release() {
	for _, l := range tx.held {
		l.Unlock()
	}
}

func asMemTx(tx pgx.Tx) *memTx {
	mt, _ := tx.(*memTx)
	return mt
}

func (s *memStore) setBalance(owner shared.EntityRef, balance string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.wallets[owner]
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
		w.Owner = owner
	}
	w.Balance = decimal.RequireFromString(balance)
	s.wallets[owner] = w
}

func (s *memStore) balance(owner shared.EntityRef) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallets[owner].Balance
}

func (s *memStore) record(id uuid.UUID) (transaction.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	return r, ok
}

func (s *memStore) recordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *memStore) committedEvents() []*notification.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*notification.Event(nil), s.events...)
}

// memWallets implements WalletManager over memStore
type memWallets struct {
	store *memStore
}

func (m *memWallets) Open(_ context.Context, owner shared.EntityRef) (*wallet.Wallet, error) {
	w, err := wallet.NewWallet(owner)
	if err != nil {
		return nil, err
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.wallets[owner]; ok {
		return nil, wallet.ErrWalletExists{Owner: owner}
	}
	m.store.wallets[owner] = *w
	return w, nil
}

func (m *memWallets) Lock(_ context.Context, tx pgx.Tx, owner shared.EntityRef) (*wallet.Wallet, error) {
	mt := asMemTx(tx)
	mt.lock(owner)

	if w, ok := mt.wallets[owner]; ok {
		return &w, nil
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	w, ok := m.store.wallets[owner]
	if !ok {
		return nil, wallet.ErrWalletNotFound{Owner: owner}
	}
	return &w, nil
}

func (m *memWallets) Apply(_ context.Context, tx pgx.Tx, locked *wallet.Wallet, direction shared.Direction, amount decimal.Decimal) error {
	var err error
	if direction == shared.DirectionCredit {
		err = locked.Credit(amount)
	} else {
		err = locked.Debit(amount)
	}
	if err != nil {
		return err
	}
	asMemTx(tx).wallets[locked.Owner] = *locked
	return nil
}

// memRecords implements transaction.Repository over memStore
type memRecords struct {
	store *memStore
	tx    *memTx
}

func (r *memRecords) WithTx(tx pgx.Tx) transaction.Repository {
	return &memRecords{store: r.store, tx: asMemTx(tx)}
}

func (r *memRecords) write(record *transaction.Record) error {
	r.store.mu.Lock()
	failure := r.store.failRecordWrite
	r.store.mu.Unlock()
	if failure != nil {
		return failure
	}

	if r.tx != nil {
		r.tx.records[record.ID] = *record
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.records[record.ID] = *record
	return nil
}

func (r *memRecords) Create(_ context.Context, record *transaction.Record) error {
	return r.write(record)
}

func (r *memRecords) Update(_ context.Context, record *transaction.Record) error {
	return r.write(record)
}

func (r *memRecords) GetByID(_ context.Context, id uuid.UUID) (*transaction.Record, error) {
	if r.tx != nil {
		if rec, ok := r.tx.records[id]; ok {
			return &rec, nil
		}
	}
	rec, ok := r.store.record(id)
	if !ok {
		return nil, transaction.ErrRecordNotFound{ID: id}
	}
	return &rec, nil
}

func (r *memRecords) ListByAccount(_ context.Context, account shared.EntityRef, filter transaction.ListFilter) ([]*transaction.Record, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*transaction.Record
	for _, rec := range r.store.records {
		if rec.Account.Equal(account) && (filter.Status == "" || rec.Status == filter.Status) {
			rec := rec
			out = append(out, &rec)
		}
	}
	return out, nil
}

func (r *memRecords) CountByAccount(ctx context.Context, account shared.EntityRef, status shared.TransactionStatus) (int64, error) {
	list, err := r.ListByAccount(ctx, account, transaction.ListFilter{Status: status})
	return int64(len(list)), err
}

// memNotifier queues events on the open memTx
type memNotifier struct {
	failNotify error
}

func (n *memNotifier) Notify(ctx context.Context, tx pgx.Tx, record *transaction.Record, note notification.Notification, actor shared.EntityRef) error {
	if n.failNotify != nil {
		return n.failNotify
	}
	snapshot := *record
	mt := asMemTx(tx)
	mt.events = append(mt.events, notification.NewOwnerEvent(note, &snapshot, actor, shared.CorrelationIDFromContext(ctx)))
	return nil
}

func (n *memNotifier) EmitFundsRequested(ctx context.Context, tx pgx.Tx, record *transaction.Record) error {
	snapshot := *record
	mt := asMemTx(tx)
	mt.events = append(mt.events, notification.NewFundsRequestedEvent(&snapshot, shared.CorrelationIDFromContext(ctx)))
	return nil
}

// memReceipts implements receipt.Storage
type memReceipts struct {
	mu      sync.Mutex
	stored  map[string][]byte
	deleted []string
	seq     int
}

func newMemReceipts() *memReceipts {
	return &memReceipts{stored: make(map[string][]byte)}
}

func (m *memReceipts) Store(_ context.Context, upload *receipt.Upload) (string, error) {
	if upload.Content == nil {
		return "", receipt.ErrEmptyUpload
	}
	content, err := io.ReadAll(upload.Content)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	url := fmt.Sprintf("mem://receipts/%d", m.seq)
	m.stored[url] = content
	return url, nil
}

func (m *memReceipts) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stored, url)
	m.deleted = append(m.deleted, url)
	return nil
}

func (m *memReceipts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stored)
}

// memBanks implements bankaccount.Repository
type memBanks struct {
	accounts map[uuid.UUID]*bankaccount.BankAccount
}

func (b *memBanks) GetForOwner(_ context.Context, owner shared.EntityRef, id uuid.UUID) (*bankaccount.BankAccount, error) {
	acc, ok := b.accounts[id]
	if !ok || !acc.Owner.Equal(owner) {
		return nil, bankaccount.ErrBankAccountNotFound{ID: id}
	}
	return acc, nil
}

type harness struct {
	store    *memStore
	receipts *memReceipts
	banks    *memBanks
	notifier *memNotifier
	engine   *Engine
}

func newHarness(atomicTransfer bool) *harness {
	store := newMemStore()
	h := &harness{
		store:    store,
		receipts: newMemReceipts(),
		banks:    &memBanks{accounts: make(map[uuid.UUID]*bankaccount.BankAccount)},
		notifier: &memNotifier{},
	}
	h.engine = NewEngine(
		store,
		&memWallets{store: store},
		&memRecords{store: store},
		h.banks,
		h.receipts,
		h.notifier,
		h.notifier,
		EngineConfig{Currency: "NGN", AtomicTransfer: atomicTransfer},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return h
}

func (h *harness) addBank(owner shared.EntityRef) uuid.UUID {
	id := uuid.New()
	h.banks.accounts[id] = &bankaccount.BankAccount{
		ID:            id,
		Owner:         owner,
		BankID:        "058",
		AccountName:   "Ada Obi",
		AccountNumber: "0123456789",
	}
	return id
}
