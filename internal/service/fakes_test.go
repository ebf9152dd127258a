package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"group-order-bot/internal/domain"
	"group-order-bot/internal/repository"
)

type sentMessage struct {
	chatID int64
	text   string
	kb     *Keyboard
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[int64]error
}

func (f *fakeSender) Send(ctx context.Context, chatID int64, text string, kb *Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[chatID]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, kb: kb})
	return nil
}

func (f *fakeSender) lastTo(chatID int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].chatID == chatID {
			return f.sent[i].text
		}
	}
	return ""
}

func (f *fakeSender) sentTo(chatID int64) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.sent {
		if m.chatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

type fakeParticipants struct {
	byID      map[int64]domain.Participant
	companies []domain.Company
	workerIDs []int64
	failWith  error

	createdWorkers []domain.Participant
	createdAdmins  []domain.Participant
}

func (f *fakeParticipants) GetByTelegramID(ctx context.Context, id int64) (*domain.Participant, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeParticipants) CreateWorker(ctx context.Context, p domain.Participant) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.createdWorkers = append(f.createdWorkers, p)
	return nil
}

func (f *fakeParticipants) CreateAdminWithCompany(ctx context.Context, p domain.Participant, companyName string) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.createdAdmins = append(f.createdAdmins, p)
	f.companies = append(f.companies, domain.Company{ID: int64(len(f.companies) + 1), Name: companyName, AdminID: p.TelegramID})
	return int64(len(f.companies)), nil
}

func (f *fakeParticipants) ListWorkerIDs(ctx context.Context) ([]int64, error) {
	return f.workerIDs, nil
}

func (f *fakeParticipants) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	return f.companies, nil
}

func (f *fakeParticipants) GetCompany(ctx context.Context, id int64) (*domain.Company, error) {
	for _, c := range f.companies {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeCatalog struct {
	restaurants map[int64]domain.Restaurant
	items       map[int64][]domain.MenuItem
	failWith    error
	nextID      int64
}

func (f *fakeCatalog) AddRestaurant(ctx context.Context, adminID int64, name string) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	if f.restaurants == nil {
		f.restaurants = map[int64]domain.Restaurant{}
	}
	f.nextID++
	f.restaurants[f.nextID] = domain.Restaurant{ID: f.nextID, Name: name, AdminID: adminID}
	return f.nextID, nil
}

func (f *fakeCatalog) GetRestaurant(ctx context.Context, id int64) (*domain.Restaurant, error) {
	r, ok := f.restaurants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (f *fakeCatalog) ListRestaurants(ctx context.Context, adminID int64) ([]domain.Restaurant, error) {
	var out []domain.Restaurant
	for _, r := range f.restaurants {
		if r.AdminID == adminID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeCatalog) AddMenuItem(ctx context.Context, item domain.MenuItem) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	if f.items == nil {
		f.items = map[int64][]domain.MenuItem{}
	}
	f.nextID++
	item.ID = f.nextID
	f.items[item.RestaurantID] = append(f.items[item.RestaurantID], item)
	return item.ID, nil
}

func (f *fakeCatalog) ListMenuItems(ctx context.Context, restaurantID int64) ([]domain.MenuItem, error) {
	return f.items[restaurantID], nil
}

type fakeOrders struct {
	orders   map[string]domain.GroupOrder
	lines    []domain.OrderLine
	items    map[int64]domain.MenuItem // menu item id -> item, for totals
	admins   map[string]domain.Participant
	names    map[int64]string // worker id -> name, for ledger lines
	failWith error
	nextID   int64
	now      func() time.Time
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{
		orders: map[string]domain.GroupOrder{},
		items:  map[int64]domain.MenuItem{},
		admins: map[string]domain.Participant{},
		names:  map[int64]string{},
		now:    time.Now,
	}
}

func (f *fakeOrders) CreateGroupOrder(ctx context.Context, o domain.GroupOrder) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.nextID++
	o.ID = f.nextID
	f.orders[o.GroupID] = o
	return o.ID, nil
}

func (f *fakeOrders) GetByGroupID(ctx context.Context, groupID string) (*domain.GroupOrder, error) {
	o, ok := f.orders[groupID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (f *fakeOrders) GetOpenByGroupID(ctx context.Context, groupID string) (*domain.GroupOrder, error) {
	o, ok := f.orders[groupID]
	if !ok || o.Status != domain.StatusOpen {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (f *fakeOrders) ListByAdmin(ctx context.Context, adminID int64) ([]repository.GroupOrderSummary, error) {
	var out []repository.GroupOrderSummary
	for _, o := range f.orders {
		out = append(out, repository.GroupOrderSummary{GroupID: o.GroupID, Status: o.Status})
	}
	return out, nil
}

func (f *fakeOrders) ListOpen(ctx context.Context) ([]repository.GroupOrderSummary, error) {
	var out []repository.GroupOrderSummary
	for _, o := range f.orders {
		if o.Status == domain.StatusOpen {
			out = append(out, repository.GroupOrderSummary{GroupID: o.GroupID, Status: o.Status})
		}
	}
	return out, nil
}

func (f *fakeOrders) ListJoinedByWorker(ctx context.Context, workerID int64) ([]repository.GroupOrderSummary, error) {
	seen := map[string]bool{}
	var out []repository.GroupOrderSummary
	for _, l := range f.lines {
		if l.WorkerID == workerID && !seen[l.GroupID] {
			seen[l.GroupID] = true
			out = append(out, repository.GroupOrderSummary{GroupID: l.GroupID})
		}
	}
	return out, nil
}

func (f *fakeOrders) InsertLines(ctx context.Context, lines []domain.OrderLine) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, l := range lines {
		f.nextID++
		l.ID = f.nextID
		f.lines = append(f.lines, l)
	}
	return nil
}

func (f *fakeOrders) UpdateStatus(ctx context.Context, groupID string, adminID int64, status domain.Status) error {
	o, ok := f.orders[groupID]
	if !ok {
		return repository.ErrNotFound
	}
	if admin, ok := f.admins[groupID]; ok && admin.TelegramID != adminID {
		return repository.ErrNotOwner
	}
	o.Status = status
	f.orders[groupID] = o
	return nil
}

func (f *fakeOrders) TogglePaid(ctx context.Context, groupID string, workerID int64) (bool, error) {
	var found bool
	var newPaid bool
	for _, l := range f.lines {
		if l.GroupID == groupID && l.WorkerID == workerID {
			newPaid = !l.Paid
			found = true
			break
		}
	}
	if !found {
		return false, repository.ErrNotFound
	}
	ts := f.now()
	for i := range f.lines {
		if f.lines[i].GroupID == groupID && f.lines[i].WorkerID == workerID {
			f.lines[i].Paid = newPaid
			if newPaid {
				t := ts
				f.lines[i].PaidAt = &t
			} else {
				f.lines[i].PaidAt = nil
			}
		}
	}
	return newPaid, nil
}

func (f *fakeOrders) LedgerLines(ctx context.Context, groupID string) ([]repository.LedgerLine, error) {
	var out []repository.LedgerLine
	for _, l := range f.lines {
		if l.GroupID != groupID {
			continue
		}
		item := f.items[l.MenuItemID]
		name := f.names[l.WorkerID]
		if name == "" {
			name = fmt.Sprintf("worker-%d", l.WorkerID)
		}
		out = append(out, repository.LedgerLine{
			WorkerID:   l.WorkerID,
			WorkerName: name,
			WorkerUUID: strings.ToLower(name) + "-uuid",
			ItemName:   item.Name,
			PriceCents: item.PriceCents,
			Quantity:   l.Quantity,
			Paid:       l.Paid,
			PaidAt:     l.PaidAt,
		})
	}
	return out, nil
}

func (f *fakeOrders) WorkerTotals(ctx context.Context, groupID string) ([]repository.WorkerTotal, error) {
	totals := map[int64]int64{}
	var order []int64
	for _, l := range f.lines {
		if l.GroupID != groupID {
			continue
		}
		if _, ok := totals[l.WorkerID]; !ok {
			order = append(order, l.WorkerID)
		}
		totals[l.WorkerID] += f.items[l.MenuItemID].PriceCents * int64(l.Quantity)
	}
	var out []repository.WorkerTotal
	for _, id := range order {
		out = append(out, repository.WorkerTotal{WorkerID: id, TotalCents: totals[id]})
	}
	return out, nil
}

func (f *fakeOrders) AdminFor(ctx context.Context, groupID string) (*domain.Participant, error) {
	p, ok := f.admins[groupID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}
