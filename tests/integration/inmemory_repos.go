package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"zk-lending-engine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Offer Repo ---

type inMemoryOfferRepo struct {
	mu     sync.RWMutex
	offers map[int64]*domain.LoanOffer
	nextID int64
}

func newInMemoryOfferRepo() *inMemoryOfferRepo {
	return &inMemoryOfferRepo{offers: make(map[int64]*domain.LoanOffer), nextID: 1}
}

func (r *inMemoryOfferRepo) Create(ctx context.Context, tx pgx.Tx, offer *domain.LoanOffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	offer.ID = r.nextID
	r.nextID++
	r.offers[offer.ID] = offer
	return nil
}

func (r *inMemoryOfferRepo) GetByID(ctx context.Context, id int64) (*domain.LoanOffer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.offers[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *inMemoryOfferRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.LoanOffer, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryOfferRepo) Deactivate(ctx context.Context, tx pgx.Tx, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.offers[id]
	if !ok {
		return fmt.Errorf("offer not found")
	}
	o.Active = false
	return nil
}

func (r *inMemoryOfferRepo) ListByLender(ctx context.Context, lender uuid.UUID) ([]domain.LoanOffer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.LoanOffer
	for _, o := range r.offers {
		if o.Lender == lender {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- In-Memory Loan Repo ---

type inMemoryLoanRepo struct {
	mu     sync.RWMutex
	loans  map[int64]*domain.Loan
	nextID int64
}

func newInMemoryLoanRepo() *inMemoryLoanRepo {
	return &inMemoryLoanRepo{loans: make(map[int64]*domain.Loan), nextID: 1}
}

func (r *inMemoryLoanRepo) Create(ctx context.Context, tx pgx.Tx, loan *domain.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	loan.ID = r.nextID
	r.nextID++
	stored := *loan
	r.loans[loan.ID] = &stored
	return nil
}

func (r *inMemoryLoanRepo) GetByID(ctx context.Context, id int64) (*domain.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loans[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *inMemoryLoanRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Loan, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryLoanRepo) Update(ctx context.Context, tx pgx.Tx, loan *domain.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loans[loan.ID]; !ok {
		return fmt.Errorf("loan not found")
	}
	stored := *loan
	r.loans[loan.ID] = &stored
	return nil
}

func (r *inMemoryLoanRepo) ListByBorrower(ctx context.Context, borrower uuid.UUID) ([]domain.Loan, error) {
	return r.list(func(l *domain.Loan) bool { return l.Borrower == borrower }), nil
}

func (r *inMemoryLoanRepo) ListByLender(ctx context.Context, lender uuid.UUID) ([]domain.Loan, error) {
	return r.list(func(l *domain.Loan) bool { return l.Lender == lender }), nil
}

func (r *inMemoryLoanRepo) list(match func(*domain.Loan) bool) []domain.Loan {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Loan
	for _, l := range r.loans {
		if match(l) {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- In-Memory Verification Repo ---

type inMemoryVerificationRepo struct {
	mu      sync.RWMutex
	results map[domain.ProofHash]*domain.VerificationResult
}

func newInMemoryVerificationRepo() *inMemoryVerificationRepo {
	return &inMemoryVerificationRepo{results: make(map[domain.ProofHash]*domain.VerificationResult)}
}

func (r *inMemoryVerificationRepo) Upsert(ctx context.Context, tx pgx.Tx, result *domain.VerificationResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *result
	r.results[result.ProofHash] = &stored
	return nil
}

func (r *inMemoryVerificationRepo) Get(ctx context.Context, hash domain.ProofHash) (*domain.VerificationResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.results[hash]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (r *inMemoryVerificationRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, hash domain.ProofHash) (*domain.VerificationResult, error) {
	return r.Get(ctx, hash)
}

func (r *inMemoryVerificationRepo) MarkProcessed(ctx context.Context, tx pgx.Tx, hash domain.ProofHash) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.results[hash]
	if !ok {
		return fmt.Errorf("verification result not found")
	}
	v.Processed = true
	return nil
}

// --- In-Memory Account Repo ---

type inMemoryAccountRepo struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*domain.Account
}

func newInMemoryAccountRepo() *inMemoryAccountRepo {
	return &inMemoryAccountRepo{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (r *inMemoryAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *account
	r.accounts[account.Owner] = &stored
	return nil
}

func (r *inMemoryAccountRepo) GetByOwner(ctx context.Context, owner uuid.UUID) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[owner]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryAccountRepo) GetByOwnerForUpdate(ctx context.Context, tx pgx.Tx, owner uuid.UUID) (*domain.Account, error) {
	return r.GetByOwner(ctx, owner)
}

func (r *inMemoryAccountRepo) Credit(ctx context.Context, tx pgx.Tx, owner uuid.UUID, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[owner]
	if !ok {
		return fmt.Errorf("account not found")
	}
	a.Balance += amount
	return nil
}

func (r *inMemoryAccountRepo) Debit(ctx context.Context, tx pgx.Tx, owner uuid.UUID, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[owner]
	if !ok {
		return fmt.Errorf("account not found")
	}
	if a.Balance < amount {
		return fmt.Errorf("insufficient balance")
	}
	a.Balance -= amount
	return nil
}

// --- In-Memory Reputation Repo ---

type inMemoryReputationRepo struct {
	mu      sync.RWMutex
	scores  map[uuid.UUID]int64
	writers map[uuid.UUID]bool
}

func newInMemoryReputationRepo() *inMemoryReputationRepo {
	return &inMemoryReputationRepo{
		scores:  make(map[uuid.UUID]int64),
		writers: make(map[uuid.UUID]bool),
	}
}

func (r *inMemoryReputationRepo) GetScore(ctx context.Context, participant uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scores[participant], nil
}

func (r *inMemoryReputationRepo) GetScoreForUpdate(ctx context.Context, tx pgx.Tx, participant uuid.UUID) (int64, error) {
	return r.GetScore(ctx, participant)
}

func (r *inMemoryReputationRepo) SetScore(ctx context.Context, tx pgx.Tx, participant uuid.UUID, score int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores[participant] = score
	return nil
}

func (r *inMemoryReputationRepo) IsAuthorized(ctx context.Context, caller uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.writers[caller], nil
}

func (r *inMemoryReputationRepo) Authorize(ctx context.Context, caller uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writers[caller] = true
	return nil
}

func (r *inMemoryReputationRepo) Deauthorize(ctx context.Context, caller uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.writers, caller)
	return nil
}

// --- In-Memory Event Repo ---

type inMemoryEventRepo struct {
	mu     sync.RWMutex
	events []domain.Event
}

func newInMemoryEventRepo() *inMemoryEventRepo {
	return &inMemoryEventRepo{}
}

func (r *inMemoryEventRepo) Append(ctx context.Context, tx pgx.Tx, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.Sequence = int64(len(r.events) + 1)
	r.events = append(r.events, *event)
	return nil
}

func (r *inMemoryEventRepo) ListByLoan(ctx context.Context, loanID int64) ([]domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.LoanID != nil && *e.LoanID == loanID {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- In-Memory Participant Repo ---

type inMemoryParticipantRepo struct {
	mu           sync.RWMutex
	participants map[uuid.UUID]*domain.Participant
}

func newInMemoryParticipantRepo() *inMemoryParticipantRepo {
	return &inMemoryParticipantRepo{participants: make(map[uuid.UUID]*domain.Participant)}
}

func (r *inMemoryParticipantRepo) Create(ctx context.Context, p *domain.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.participants {
		if existing.Username == p.Username {
			return fmt.Errorf("username already exists")
		}
	}
	stored := *p
	r.participants[p.ID] = &stored
	return nil
}

func (r *inMemoryParticipantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *inMemoryParticipantRepo) GetByUsername(ctx context.Context, username string) (*domain.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.participants {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
