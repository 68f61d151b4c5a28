// Package testutil provides an in-memory implementation of every repository
// plus a transactor that restores the store when a transaction fails.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	. "martinspocos/internal/models"
	"martinspocos/internal/repositories"
	"martinspocos/internal/services"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type state struct {
	users      map[uuid.UUID]User
	managers   map[uuid.UUID]Manager
	requests   map[uuid.UUID]ServiceRequest
	contracts  map[uuid.UUID]Contract
	signatures []ContractSignature
}

func (s state) clone() state {
	out := state{
		users:      make(map[uuid.UUID]User, len(s.users)),
		managers:   make(map[uuid.UUID]Manager, len(s.managers)),
		requests:   make(map[uuid.UUID]ServiceRequest, len(s.requests)),
		contracts:  make(map[uuid.UUID]Contract, len(s.contracts)),
		signatures: append([]ContractSignature(nil), s.signatures...),
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.managers {
		out.managers[k] = v
	}
	for k, v := range s.requests {
		out.requests[k] = v
	}
	for k, v := range s.contracts {
		out.contracts[k] = v
	}
	return out
}

// Store is safe for concurrent use. Transactions run one at a time, which
// stands in for the row lock the real contract flow takes.
type Store struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	data     state
	sequence int64

	// FailContractStatusUpdate makes the next contract status write fail.
	FailContractStatusUpdate error
}

func NewStore() *Store {
	return &Store{data: state{}.clone()}
}

func (s *Store) Repository() repositories.Repository {
	return repositories.Repository{
		User:              &userRepo{s},
		Manager:           &managerRepo{s},
		ServiceRequest:    &requestRepo{s},
		Contract:          &contractRepo{s},
		ContractSignature: &signatureRepo{s},
	}
}

func (s *Store) Transactor() services.Transactor {
	return &transactor{s}
}

// Seed helpers bypass every rule and return the stored copy.

func (s *Store) AddUser(user User) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&user.BaseUUIDModel)
	s.data.users[user.ID] = user
	return user
}

func (s *Store) AddManager(manager Manager) Manager {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&manager.BaseUUIDModel)
	s.data.managers[manager.ID] = manager
	return manager
}

func (s *Store) AddRequest(request ServiceRequest) ServiceRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&request.BaseUUIDModel)
	if request.Status == "" {
		request.Status = RequestStatusPending
	}
	s.data.requests[request.ID] = request
	return request
}

func (s *Store) AddContract(contract Contract) Contract {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&contract.BaseUUIDModel)
	s.data.contracts[contract.ID] = contract
	return contract
}

func (s *Store) Contract(id uuid.UUID) (Contract, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contract, ok := s.data.contracts[id]
	return contract, ok
}

func (s *Store) Signatures(contractID uuid.UUID) []ContractSignature {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signaturesFor(contractID)
}

func (s *Store) Request(id uuid.UUID) (ServiceRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.data.requests[id]
	return request, ok
}

func (s *Store) Manager(id uuid.UUID) (Manager, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	manager, ok := s.data.managers[id]
	return manager, ok
}

func (s *Store) signaturesFor(contractID uuid.UUID) []ContractSignature {
	var out []ContractSignature
	for _, sig := range s.data.signatures {
		if sig.ContractID == contractID {
			out = append(out, sig)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SignedAt.After(out[j].SignedAt) })
	return out
}

func stamp(base *BaseUUIDModel) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	now := time.Now().UTC()
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	if base.UpdatedAt.IsZero() {
		base.UpdatedAt = now
	}
}

type transactor struct{ s *Store }

func (t *transactor) Execute(ctx context.Context, fn services.TxFunc) error {
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	t.s.mu.Lock()
	snapshot := t.s.data.clone()
	t.s.mu.Unlock()

	if err := fn(ctx, nil); err != nil {
		t.s.mu.Lock()
		t.s.data = snapshot
		t.s.mu.Unlock()
		return err
	}
	return nil
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, user *User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.data.users {
		if existing.Whatsapp == user.Whatsapp {
			return gorm.ErrDuplicatedKey
		}
	}
	stamp(&user.BaseUUIDModel)
	r.s.data.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.data.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (r *userRepo) GetByWhatsapp(ctx context.Context, tx *gorm.DB, whatsapp string) (*User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.data.users {
		if user.Whatsapp == whatsapp {
			return &user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *userRepo) ExistsByWhatsapp(ctx context.Context, tx *gorm.DB, whatsapp string) (bool, error) {
	_, err := r.GetByWhatsapp(ctx, tx, whatsapp)
	return err == nil, nil
}

type managerRepo struct{ s *Store }

func (r *managerRepo) List(ctx context.Context, tx *gorm.DB) ([]*Manager, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*Manager, 0, len(r.s.data.managers))
	for _, manager := range r.s.data.managers {
		m := manager
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *managerRepo) unique(manager *Manager) error {
	for id, existing := range r.s.data.managers {
		if id == manager.ID {
			continue
		}
		if existing.Whatsapp == manager.Whatsapp {
			return gorm.ErrDuplicatedKey
		}
		if existing.Email != nil && manager.Email != nil && *existing.Email == *manager.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	return nil
}

func (r *managerRepo) Create(ctx context.Context, tx *gorm.DB, manager *Manager) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.unique(manager); err != nil {
		return err
	}
	stamp(&manager.BaseUUIDModel)
	r.s.data.managers[manager.ID] = *manager
	return nil
}

func (r *managerRepo) Update(ctx context.Context, tx *gorm.DB, manager *Manager) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.managers[manager.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	if err := r.unique(manager); err != nil {
		return err
	}
	manager.UpdatedAt = time.Now().UTC()
	r.s.data.managers[manager.ID] = *manager
	return nil
}

func (r *managerRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.managers[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.data.managers, id)
	return nil
}

func (r *managerRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Manager, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	manager, ok := r.s.data.managers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &manager, nil
}

func (r *managerRepo) GetByWhatsapp(
	ctx context.Context,
	tx *gorm.DB,
	whatsapp string,
) (*Manager, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, manager := range r.s.data.managers {
		if manager.Whatsapp == whatsapp {
			return &manager, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type requestRepo struct{ s *Store }

func (r *requestRepo) Create(ctx context.Context, tx *gorm.DB, request *ServiceRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stamp(&request.BaseUUIDModel)
	if request.Status == "" {
		request.Status = RequestStatusPending
	}
	request.SubmittedAt = request.CreatedAt
	r.s.data.requests[request.ID] = *request
	return nil
}

func (r *requestRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*ServiceRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	request, ok := r.s.data.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &request, nil
}

func (r *requestRepo) matching(filter repositories.ServiceRequestFilter) []*ServiceRequest {
	var out []*ServiceRequest
	for _, request := range r.s.data.requests {
		if filter.Status != nil && request.Status != *filter.Status {
			continue
		}
		day := time.Time(request.PreferredDate)
		if filter.From != nil && day.Before(*filter.From) {
			continue
		}
		if filter.To != nil && day.After(*filter.To) {
			continue
		}
		req := request
		out = append(out, &req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out
}

func (r *requestRepo) List(
	ctx context.Context,
	tx *gorm.DB,
	filter repositories.ServiceRequestFilter,
) ([]*ServiceRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.matching(filter), nil
}

func (r *requestRepo) ListForUser(
	ctx context.Context,
	tx *gorm.DB,
	principal *Principal,
) ([]*ServiceRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*ServiceRequest
	for _, request := range r.matching(repositories.ServiceRequestFilter{}) {
		if request.IsOwnedBy(principal) {
			out = append(out, request)
		}
	}
	return out, nil
}

func (r *requestRepo) UpdateStatus(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	status ServiceRequestStatus,
) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	request, ok := r.s.data.requests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	request.Status = status
	r.s.data.requests[id] = request
	return nil
}

func (r *requestRepo) Reschedule(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	date datatypes.Date,
	timeOfDay datatypes.Time,
) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	request, ok := r.s.data.requests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	request.PreferredDate = date
	request.PreferredTime = timeOfDay
	request.Status = RequestStatusRescheduled
	r.s.data.requests[id] = request
	return nil
}

func (r *requestRepo) ListCompletedWithContracts(
	ctx context.Context,
	tx *gorm.DB,
	filter repositories.ServiceRequestFilter,
) ([]*ServiceRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	completed := RequestStatusCompleted
	filter.Status = &completed
	out := r.matching(filter)
	for _, request := range out {
		for _, contract := range r.s.data.contracts {
			if contract.ServiceRequestID == request.ID {
				c := contract
				request.Contract = &c
			}
		}
	}
	return out, nil
}

type contractRepo struct{ s *Store }

func (r *contractRepo) Create(ctx context.Context, tx *gorm.DB, contract *Contract) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.data.contracts {
		if existing.ServiceRequestID == contract.ServiceRequestID ||
			existing.ContractNumber == contract.ContractNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	stamp(&contract.BaseUUIDModel)
	r.s.data.contracts[contract.ID] = *contract
	return nil
}

func (r *contractRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	contract, ok := r.s.data.contracts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &contract, nil
}

func (r *contractRepo) GetByIDForUpdate(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Contract, error) {
	return r.GetByID(ctx, tx, id)
}

func (r *contractRepo) GetDetail(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	contract, ok := r.s.data.contracts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if request, ok := r.s.data.requests[contract.ServiceRequestID]; ok {
		contract.ServiceRequest = &request
	}
	contract.Signatures = r.s.signaturesFor(id)
	return &contract, nil
}

func (r *contractRepo) ExistsForRequest(
	ctx context.Context,
	tx *gorm.DB,
	requestID uuid.UUID,
) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, contract := range r.s.data.contracts {
		if contract.ServiceRequestID == requestID {
			return true, nil
		}
	}
	return false, nil
}

// NextContractNumber is never rolled back, like a database sequence.
func (r *contractRepo) NextContractNumber(ctx context.Context, tx *gorm.DB) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sequence++
	return r.s.sequence, nil
}

func (r *contractRepo) UpdateTerms(ctx context.Context, tx *gorm.DB, contract *Contract) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.contracts[contract.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	contract.UpdatedAt = time.Now().UTC()
	r.s.data.contracts[contract.ID] = *contract
	return nil
}

func (r *contractRepo) UpdateStatus(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	status ContractStatus,
	signedAt *time.Time,
) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.FailContractStatusUpdate; err != nil {
		r.s.FailContractStatusUpdate = nil
		return err
	}
	contract, ok := r.s.data.contracts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	contract.Status = status
	if signedAt != nil {
		contract.SignedAt = signedAt
	}
	contract.UpdatedAt = time.Now().UTC()
	r.s.data.contracts[id] = contract
	return nil
}

func (r *contractRepo) list(keep func(Contract, ServiceRequest) bool) []*Contract {
	var out []*Contract
	for _, contract := range r.s.data.contracts {
		request := r.s.data.requests[contract.ServiceRequestID]
		if !keep(contract, request) {
			continue
		}
		c := contract
		req := request
		c.ServiceRequest = &req
		c.Signatures = r.s.signaturesFor(c.ID)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContractNumber < out[j].ContractNumber })
	return out
}

func (r *contractRepo) ListWithRequest(ctx context.Context, tx *gorm.DB) ([]*Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(Contract, ServiceRequest) bool { return true }), nil
}

func (r *contractRepo) ListForPrincipal(
	ctx context.Context,
	tx *gorm.DB,
	principal *Principal,
) ([]*Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(_ Contract, request ServiceRequest) bool {
		return request.IsOwnedBy(principal)
	}), nil
}

func (r *contractRepo) ListAwaitingSignature(
	ctx context.Context,
	tx *gorm.DB,
	updatedBefore time.Time,
) ([]*Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(contract Contract, _ ServiceRequest) bool {
		return contract.Status.IsAwaitingSignature() && contract.UpdatedAt.Before(updatedBefore)
	}), nil
}

func (r *contractRepo) ClearCache(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (r *contractRepo) ClearCacheForRequest(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) error {
	return nil
}

type signatureRepo struct{ s *Store }

func (r *signatureRepo) Create(ctx context.Context, tx *gorm.DB, signature *ContractSignature) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.contracts[signature.ContractID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	for _, existing := range r.s.data.signatures {
		if existing.ContractID == signature.ContractID && existing.SignedBy == signature.SignedBy {
			return gorm.ErrDuplicatedKey
		}
	}
	stamp(&signature.BaseUUIDModel)
	r.s.data.signatures = append(r.s.data.signatures, *signature)
	return nil
}

func (r *signatureRepo) ListByContract(
	ctx context.Context,
	tx *gorm.DB,
	contractID uuid.UUID,
) ([]ContractSignature, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.signaturesFor(contractID), nil
}
