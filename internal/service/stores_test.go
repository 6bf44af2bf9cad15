package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/damage-service/internal/domain"
	"github.com/spec-kit/damage-service/internal/repository"
)

// memDB is an in-memory repository backend for service tests. It mirrors the
// pgx repositories' observable behavior, including the optimistic lock and
// the duplicate-defect constraint.
type memDB struct {
	mu           sync.Mutex
	seq          int
	tickets      map[string]domain.Ticket
	requests     map[string]domain.DamageRequest
	offers       map[string]domain.Offer
	appointments map[string]domain.Appointment
	defects      map[string]domain.Defect
	logs         []domain.LogEntry
	messages     map[string]domain.TicketMessage
	receipts     map[string]domain.ReadReceipt
	contracts    map[string]domain.Contract
	users        map[string]domain.User
	companies    map[string]domain.Company
	apartments   map[string]domain.Apartment
}

func newMemDB() *memDB {
	return &memDB{
		tickets:      make(map[string]domain.Ticket),
		requests:     make(map[string]domain.DamageRequest),
		offers:       make(map[string]domain.Offer),
		appointments: make(map[string]domain.Appointment),
		defects:      make(map[string]domain.Defect),
		messages:     make(map[string]domain.TicketMessage),
		receipts:     make(map[string]domain.ReadReceipt),
		contracts:    make(map[string]domain.Contract),
		users:        make(map[string]domain.User),
		companies:    make(map[string]domain.Company),
		apartments:   make(map[string]domain.Apartment),
	}
}

func (d *memDB) nextID(prefix string) string {
	d.seq++
	return fmt.Sprintf("%s-%d", prefix, d.seq)
}

func (d *memDB) stores() repository.Stores {
	return repository.Stores{
		Tickets:      &memTicketRepo{d},
		Offers:       &memOfferRepo{d},
		Requests:     &memRequestRepo{d},
		Appointments: &memAppointmentRepo{d},
		Defects:      &memDefectRepo{d},
		Log:          &memLogRepo{d},
		Messages:     &memMessageRepo{d},
		Contracts:    &memContractRepo{d},
		Users:        &memUserRepo{d},
		Companies:    &memCompanyRepo{d},
		Apartments:   &memApartmentRepo{d},
	}
}

func (d *memDB) uow() repository.UnitOfWork {
	return memUOW{db: d}
}

// memUOW applies the function directly; tests do not exercise rollback.
type memUOW struct {
	db *memDB
}

func (u memUOW) Do(ctx context.Context, fn func(ctx context.Context, s repository.Stores) error) error {
	return fn(ctx, u.db.stores())
}

type memTicketRepo struct{ db *memDB }

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	ticket.ID = r.db.nextID("ticket")
	ticket.Version = 1
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	r.db.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.tickets[ticket.ID]
	if !ok || stored.Version != ticket.Version {
		return domain.ErrConcurrentModification
	}
	ticket.Version++
	ticket.UpdatedAt = time.Now()
	r.db.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	ticket, ok := r.db.tickets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &ticket, nil
}

func (r *memTicketRepo) ListByStatuses(_ context.Context, statuses []domain.StatusKey) ([]domain.Ticket, error) {
	set := make(map[domain.StatusKey]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.db.tickets {
		if !ticket.Deleted && set[ticket.Status] {
			out = append(out, ticket)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memTicketRepo) ListClosedBefore(_ context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.db.tickets {
		if ticket.Deleted {
			continue
		}
		if strings.HasSuffix(string(ticket.Status), "_CLOSE_THE_DAMAGE") && ticket.UpdatedAt.Before(cutoff) {
			out = append(out, ticket)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memTicketRepo) SoftDelete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	ticket, ok := r.db.tickets[id]
	if !ok {
		return domain.ErrNotFound
	}
	ticket.Deleted = true
	r.db.tickets[id] = ticket
	return nil
}

func (r *memTicketRepo) ParentOf(_ context.Context, id string) (*string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	ticket, ok := r.db.tickets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ticket.ParentTicketID, nil
}

type memRequestRepo struct{ db *memDB }

func (r *memRequestRepo) Create(_ context.Context, request *domain.DamageRequest) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	request.ID = r.db.nextID("request")
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	r.db.requests[request.ID] = *request
	return nil
}

func (r *memRequestRepo) Update(_ context.Context, request *domain.DamageRequest) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.requests[request.ID]; !ok {
		return domain.ErrNotFound
	}
	request.UpdatedAt = time.Now()
	r.db.requests[request.ID] = *request
	return nil
}

func (r *memRequestRepo) GetByID(_ context.Context, id string) (*domain.DamageRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	request, ok := r.db.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &request, nil
}

func (r *memRequestRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.DamageRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.DamageRequest
	for _, request := range r.db.requests {
		if request.TicketID == ticketID {
			out = append(out, request)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRequestRepo) ActiveForTicket(_ context.Context, ticketID string) (*domain.DamageRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, request := range r.db.requests {
		if request.TicketID == ticketID && request.Active {
			out := request
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memOfferRepo struct{ db *memDB }

func (r *memOfferRepo) Create(_ context.Context, offer *domain.Offer) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	offer.ID = r.db.nextID("offer")
	offer.CreatedAt = time.Now()
	offer.UpdatedAt = offer.CreatedAt
	r.db.offers[offer.ID] = *offer
	return nil
}

func (r *memOfferRepo) Update(_ context.Context, offer *domain.Offer) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.offers[offer.ID]; !ok {
		return domain.ErrNotFound
	}
	offer.UpdatedAt = time.Now()
	r.db.offers[offer.ID] = *offer
	return nil
}

func (r *memOfferRepo) GetByID(_ context.Context, id string) (*domain.Offer, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	offer, ok := r.db.offers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &offer, nil
}

func (r *memOfferRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Offer, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Offer
	for _, offer := range r.db.offers {
		if offer.TicketID == ticketID {
			out = append(out, offer)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memOfferRepo) ActiveAccepted(_ context.Context, ticketID string) (*domain.Offer, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, offer := range r.db.offers {
		if offer.TicketID == ticketID && offer.Accepted && offer.Active {
			out := offer
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memOfferRepo) DeactivateRejected(_ context.Context, ticketID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, offer := range r.db.offers {
		if offer.TicketID == ticketID && !offer.Accepted && offer.Active {
			offer.Active = false
			r.db.offers[id] = offer
		}
	}
	return nil
}

type memAppointmentRepo struct{ db *memDB }

func (r *memAppointmentRepo) Create(_ context.Context, appointment *domain.Appointment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	appointment.ID = r.db.nextID("appointment")
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = appointment.CreatedAt
	r.db.appointments[appointment.ID] = *appointment
	return nil
}

func (r *memAppointmentRepo) Update(_ context.Context, appointment *domain.Appointment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.appointments[appointment.ID]; !ok {
		return domain.ErrNotFound
	}
	appointment.UpdatedAt = time.Now()
	r.db.appointments[appointment.ID] = *appointment
	return nil
}

func (r *memAppointmentRepo) GetByID(_ context.Context, id string) (*domain.Appointment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	appointment, ok := r.db.appointments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &appointment, nil
}

func (r *memAppointmentRepo) CurrentForRequest(_ context.Context, requestID string) (*domain.Appointment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var latest *domain.Appointment
	for _, appointment := range r.db.appointments {
		if appointment.RequestID != requestID {
			continue
		}
		a := appointment
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			latest = &a
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

type memDefectRepo struct{ db *memDB }

func (r *memDefectRepo) Create(_ context.Context, defect *domain.Defect) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, exists := r.db.defects[defect.TicketID]; exists {
		return domain.ErrDuplicateDefect
	}
	defect.ID = r.db.nextID("defect")
	defect.CreatedAt = time.Now()
	r.db.defects[defect.TicketID] = *defect
	return nil
}

func (r *memDefectRepo) GetByTicket(_ context.Context, ticketID string) (*domain.Defect, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	defect, ok := r.db.defects[ticketID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &defect, nil
}

type memLogRepo struct{ db *memDB }

func (r *memLogRepo) Append(_ context.Context, entry *domain.LogEntry) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	entry.ID = r.db.nextID("log")
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	r.db.logs = append(r.db.logs, *entry)
	return nil
}

func (r *memLogRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.LogEntry, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.LogEntry
	for _, entry := range r.db.logs {
		if entry.TicketID == ticketID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *memLogRepo) LastStatusEntry(_ context.Context, ticketID string) (*domain.LogEntry, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := len(r.db.logs) - 1; i >= 0; i-- {
		entry := r.db.logs[i]
		if entry.TicketID == ticketID && entry.Kind == domain.LogKindTransition {
			return &entry, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memLogRepo) HasReminder(_ context.Context, ticketID string, alertDay int, since time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, entry := range r.db.logs {
		if entry.TicketID != ticketID || entry.Kind != domain.LogKindReminder {
			continue
		}
		if entry.AlertDay != nil && *entry.AlertDay == alertDay && !entry.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

type memMessageRepo struct{ db *memDB }

func (r *memMessageRepo) Create(_ context.Context, message *domain.TicketMessage) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	message.ID = r.db.nextID("message")
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	r.db.messages[message.ID] = *message
	return nil
}

func (r *memMessageRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketMessage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.TicketMessage
	for _, message := range r.db.messages {
		if message.TicketID == ticketID {
			out = append(out, message)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memMessageRepo) ArchiveByTicket(_ context.Context, ticketID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var count int64
	for id, message := range r.db.messages {
		if message.TicketID == ticketID && !message.Archived {
			message.Archived = true
			r.db.messages[id] = message
			count++
		}
	}
	return count, nil
}

func (r *memMessageRepo) MarkRead(_ context.Context, receipt *domain.ReadReceipt) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := receipt.MessageID + "|" + receipt.UserID
	if _, ok := r.db.receipts[key]; ok {
		return nil
	}
	if receipt.ReadAt.IsZero() {
		receipt.ReadAt = time.Now()
	}
	r.db.receipts[key] = *receipt
	return nil
}

type memContractRepo struct{ db *memDB }

func (r *memContractRepo) Create(_ context.Context, contract *domain.Contract) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	contract.ID = r.db.nextID("contract")
	contract.CreatedAt = time.Now()
	contract.UpdatedAt = contract.CreatedAt
	r.db.contracts[contract.ID] = *contract
	return nil
}

func (r *memContractRepo) Update(_ context.Context, contract *domain.Contract) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.contracts[contract.ID]; !ok {
		return domain.ErrNotFound
	}
	contract.UpdatedAt = time.Now()
	r.db.contracts[contract.ID] = *contract
	return nil
}

func (r *memContractRepo) ActiveForObject(_ context.Context, objectID string) (*domain.Contract, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, contract := range r.db.contracts {
		if contract.ObjectID == objectID && contract.Status == domain.ContractActive {
			out := contract
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memContractRepo) NextFutureForObject(_ context.Context, objectID string) (*domain.Contract, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var next *domain.Contract
	for _, contract := range r.db.contracts {
		if contract.ObjectID != objectID || contract.Status != domain.ContractFuture {
			continue
		}
		c := contract
		if next == nil || c.StartDate.Before(next.StartDate) {
			next = &c
		}
	}
	if next == nil {
		return nil, domain.ErrNotFound
	}
	return next, nil
}

func (r *memContractRepo) ObjectsWithDueFuture(_ context.Context, now time.Time) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, contract := range r.db.contracts {
		if contract.Status == domain.ContractFuture && !contract.StartDate.After(now) && !seen[contract.ObjectID] {
			seen[contract.ObjectID] = true
			out = append(out, contract.ObjectID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *memContractRepo) ObjectsWithExpiredActive(_ context.Context, now time.Time) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, contract := range r.db.contracts {
		if contract.Status == domain.ContractActive && contract.EndDate != nil && contract.EndDate.Before(now) && !seen[contract.ObjectID] {
			seen[contract.ObjectID] = true
			out = append(out, contract.ObjectID)
		}
	}
	sort.Strings(out)
	return out, nil
}

type memUserRepo struct{ db *memDB }

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if user.ID == "" {
		user.ID = r.db.nextID("user")
	}
	r.db.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	user, ok := r.db.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, user := range r.db.users {
		if user.Email == email {
			out := user
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memCompanyRepo struct{ db *memDB }

func (r *memCompanyRepo) Create(_ context.Context, company *domain.Company) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if company.ID == "" {
		company.ID = r.db.nextID("company")
	}
	r.db.companies[company.ID] = *company
	return nil
}

func (r *memCompanyRepo) GetByID(_ context.Context, id string) (*domain.Company, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	company, ok := r.db.companies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &company, nil
}

type memApartmentRepo struct{ db *memDB }

func (r *memApartmentRepo) GetByID(_ context.Context, id string) (*domain.Apartment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	apartment, ok := r.db.apartments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &apartment, nil
}

// capturedQueue records enqueued notifications for assertions.
type capturedQueue struct {
	mu    sync.Mutex
	items []domain.Notification
}

func (q *capturedQueue) Enqueue(_ context.Context, notification domain.Notification) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, notification)
	return nil
}

func (q *capturedQueue) all() []domain.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]domain.Notification{}, q.items...)
}

// seedFixture populates the users, company and apartment every scenario needs.
func seedFixture(db *memDB) {
	adminID := "user-admin"
	db.users["user-delegate"] = domain.User{ID: "user-delegate", Name: "Delegate", Email: "delegate@example.com", Role: domain.RolePropertyAdmin, Active: true}
	db.users["user-tenant"] = domain.User{ID: "user-tenant", Name: "Tenant", Email: "tenant@example.com", Role: domain.RoleTenant, Active: true}
	db.users["user-owner"] = domain.User{ID: "user-owner", Name: "Owner", Email: "owner@example.com", Role: domain.RoleOwner, Active: true}
	db.users[adminID] = domain.User{ID: adminID, Name: "Admin", Email: "admin@example.com", Role: domain.RoleAdmin, Active: true}
	db.users["user-company"] = domain.User{ID: "user-company", Name: "Contact", Email: "contact@example.com", Role: domain.RoleCompany, Active: true}

	contact := "user-company"
	db.companies["company-1"] = domain.Company{ID: "company-1", Name: "Repairs Inc", Email: "office@example.com", ContactUserID: &contact, Active: true}

	tenant := "user-tenant"
	owner := "user-owner"
	db.apartments["apartment-1"] = domain.Apartment{
		ID:           "apartment-1",
		ObjectID:     "object-1",
		Label:        "2nd floor left",
		TenantUserID: &tenant,
		OwnerUserID:  &owner,
	}
}
