package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"group-order-bot/internal/callback"
	"group-order-bot/internal/domain"
	"group-order-bot/internal/logger"
	"group-order-bot/internal/repository"
	"group-order-bot/internal/session"
)

const lineSyntaxHelp = "Invalid order format. Use: ItemNumber:Quantity, ItemNumber:Quantity\n" +
	"Example: 1:2, 3:1 (2 of item 1, 1 of item 3)"

// Orders coordinates group orders: creation with worker fan-out, joining,
// line submission and status changes.
type Orders struct {
	orders       repository.OrdersInterface
	catalog      repository.CatalogInterface
	participants repository.ParticipantsInterface
	sessions     session.Store
	out          *Dispatcher
	events       EventPublisher // nil disables event publishing
	lg           *logger.Logger
	now          func() time.Time
}

func NewOrders(orders repository.OrdersInterface, catalog repository.CatalogInterface,
	participants repository.ParticipantsInterface, sessions session.Store,
	out *Dispatcher, events EventPublisher, lg *logger.Logger) *Orders {
	return &Orders{
		orders:       orders,
		catalog:      catalog,
		participants: participants,
		sessions:     sessions,
		out:          out,
		events:       events,
		lg:           lg,
		now:          time.Now,
	}
}

func (s *Orders) StartCreate(ctx context.Context, chatID, adminID int64) error {
	restaurants, err := s.catalog.ListRestaurants(ctx, adminID)
	if err != nil {
		s.lg.Error("list_restaurants", err, map[string]any{"admin_id": adminID})
		return s.out.Send(ctx, chatID, "Error creating group order.", nil)
	}
	if len(restaurants) == 0 {
		return s.out.Send(ctx, chatID, "You have no restaurants. Add a restaurant first.", nil)
	}
	kb := &Keyboard{}
	for _, r := range restaurants {
		kb.Inline = append(kb.Inline, []Button{{
			Text: r.Name,
			Data: callback.Encode(callback.CreateOrderFor, strconv.FormatInt(r.ID, 10)),
		}})
	}
	return s.out.Send(ctx, chatID, "Select a restaurant for the group order:", kb)
}

// Create inserts an open group order and fans the join invitation out to
// every worker. Fan-out is best-effort: delivery failures are logged per
// recipient and never abort the batch or the order itself.
func (s *Orders) Create(ctx context.Context, chatID, adminID int64, restaurantToken string) error {
	restaurantID, err := strconv.ParseInt(restaurantToken, 10, 64)
	if err != nil {
		return s.out.Send(ctx, chatID, "Unknown restaurant.", nil)
	}
	restaurant, err := s.catalog.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return s.out.Send(ctx, chatID, "Unknown restaurant.", nil)
	}
	if restaurant.AdminID != adminID {
		return s.out.Send(ctx, chatID, "You do not own this restaurant.", nil)
	}

	groupID := fmt.Sprintf("GO-%d", s.now().UnixMilli())
	order := domain.GroupOrder{GroupID: groupID, RestaurantID: restaurantID, Status: domain.StatusOpen}
	if _, err := s.orders.CreateGroupOrder(ctx, order); err != nil {
		s.lg.Error("create_group_order", err, map[string]any{"admin_id": adminID, "restaurant_id": restaurantID})
		return s.out.Send(ctx, chatID, "Failed to create group order.", nil)
	}
	s.lg.Info("group_order_created", map[string]any{"group_id": groupID, "restaurant_id": restaurantID})

	workerIDs, err := s.participants.ListWorkerIDs(ctx)
	if err != nil {
		// invitation fan-out is lost but the order exists; admin can still share the id
		s.lg.Error("list_workers", err, map[string]any{"group_id": groupID})
	} else {
		kb := &Keyboard{Inline: [][]Button{{{
			Text: "Join Group Order",
			Data: callback.Encode(callback.JoinOrder, groupID),
		}}}}
		s.out.Broadcast(ctx, workerIDs,
			fmt.Sprintf("New Group Order Available!\nOrder Group ID: %s\nRestaurant: %s", groupID, restaurant.Name), kb)
	}

	s.publish(ctx, "order.created", domain.OrderCreatedEvent{
		GroupID: groupID, RestaurantID: restaurantID, AdminID: adminID, CreatedAt: s.now().UTC(),
	})
	return s.out.Send(ctx, chatID, fmt.Sprintf("Group Order created! Order Group ID: %s", groupID), nil)
}

func (s *Orders) ListForAdmin(ctx context.Context, chatID, adminID int64) error {
	summaries, err := s.orders.ListByAdmin(ctx, adminID)
	if err != nil {
		s.lg.Error("list_group_orders", err, map[string]any{"admin_id": adminID})
		return s.out.Send(ctx, chatID, "Error fetching group orders.", nil)
	}
	return s.sendSummaries(ctx, chatID, summaries, callback.ViewDetails, "Select a group order to view:")
}

func (s *Orders) ListOpenForWorker(ctx context.Context, chatID int64) error {
	summaries, err := s.orders.ListOpen(ctx)
	if err != nil {
		s.lg.Error("list_open_orders", err, map[string]any{"chat_id": chatID})
		return s.out.Send(ctx, chatID, "Failed to retrieve group orders.", nil)
	}
	if len(summaries) == 0 {
		return s.out.Send(ctx, chatID, "No open group orders available.", nil)
	}
	return s.sendSummaries(ctx, chatID, summaries, callback.JoinOrder, "Select a group order to join:")
}

func (s *Orders) ListJoinedForWorker(ctx context.Context, chatID, workerID int64) error {
	summaries, err := s.orders.ListJoinedByWorker(ctx, workerID)
	if err != nil {
		s.lg.Error("list_joined_orders", err, map[string]any{"worker_id": workerID})
		return s.out.Send(ctx, chatID, "Failed to retrieve group orders.", nil)
	}
	return s.sendSummaries(ctx, chatID, summaries, callback.ViewDetails, "Select a group order to view:")
}

func (s *Orders) sendSummaries(ctx context.Context, chatID int64,
	summaries []repository.GroupOrderSummary, verb callback.Verb, prompt string) error {
	if len(summaries) == 0 {
		return s.out.Send(ctx, chatID, "No group orders found.", nil)
	}
	kb := &Keyboard{}
	for _, sum := range summaries {
		kb.Inline = append(kb.Inline, []Button{{
			Text: fmt.Sprintf("%s - %s (%s)", sum.RestaurantName, sum.GroupID, sum.Status),
			Data: callback.Encode(verb, sum.GroupID),
		}})
	}
	return s.out.Send(ctx, chatID, prompt, kb)
}

// Join loads the restaurant menu snapshot into the worker's session and
// prompts for line submission. Orders that are missing or no longer open are
// denied without creating a session.
func (s *Orders) Join(ctx context.Context, chatID, workerID int64, groupID string) error {
	order, err := s.orders.GetOpenByGroupID(ctx, groupID)
	if err != nil {
		return s.out.Send(ctx, chatID, "Group order is no longer available.", nil)
	}
	menu, err := s.catalog.ListMenuItems(ctx, order.RestaurantID)
	if err != nil {
		s.lg.Error("load_menu", err, map[string]any{"group_id": groupID})
		return s.out.Send(ctx, chatID, "Error joining group order.", nil)
	}
	if len(menu) == 0 {
		return s.out.Send(ctx, chatID, "This restaurant has no menu items yet.", nil)
	}

	s.sessions.Set(chatID, session.State{
		Step:    session.StepOrderLines,
		GroupID: groupID,
		OrderID: order.ID,
		Menu:    menu,
	})
	s.lg.Info("group_order_joined", map[string]any{"group_id": groupID, "worker_id": workerID})

	var b strings.Builder
	b.WriteString("Group Order Menu:\n")
	for i, item := range menu {
		fmt.Fprintf(&b, "%d. %s - $%s\n", i+1, item.Name, domain.FormatCents(item.PriceCents))
	}
	b.WriteString("\nEnter your order in the format:\n")
	b.WriteString("ItemNumber1:Quantity1, ItemNumber2:Quantity2\n")
	b.WriteString("Example: 1:2, 3:1 (2 of item 1, 1 of item 3)")
	return s.out.Send(ctx, chatID, b.String(), nil)
}

type linePair struct {
	index    int // 1-based into the menu snapshot
	quantity int
}

// parseLines applies the submission grammar strictly: every pair must parse,
// indices must fall inside the snapshot and quantities must be positive.
// One bad pair fails the whole submission.
func parseLines(text string, menuSize int) ([]linePair, error) {
	parts := strings.Split(text, ",")
	pairs := make([]linePair, 0, len(parts))
	for _, part := range parts {
		idxText, qtyText, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("malformed pair %q", strings.TrimSpace(part))
		}
		idx, err := strconv.Atoi(strings.TrimSpace(idxText))
		if err != nil {
			return nil, fmt.Errorf("malformed item number %q", idxText)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(qtyText))
		if err != nil {
			return nil, fmt.Errorf("malformed quantity %q", qtyText)
		}
		if idx < 1 || idx > menuSize {
			return nil, fmt.Errorf("item number %d out of range", idx)
		}
		if qty < 1 {
			return nil, fmt.Errorf("quantity %d must be positive", qty)
		}
		pairs = append(pairs, linePair{index: idx, quantity: qty})
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("empty submission")
	}
	return pairs, nil
}

// SubmitLines records the worker's batch against the joined order. The
// session is consumed atomically up front, so a double-submitted text inserts
// exactly one batch; retryable failures put it back. The total is computed
// from the session's menu snapshot, the batch is inserted in one transaction,
// and the owning admin gets a summary.
func (s *Orders) SubmitLines(ctx context.Context, chatID int64, worker *domain.Participant, text string) error {
	st, ok := s.sessions.TakeIf(chatID, session.StepOrderLines)
	if !ok {
		return s.out.Send(ctx, chatID, "No group order in progress. Use \"Join Existing Orders\" first.", nil)
	}

	pairs, err := parseLines(text, len(st.Menu))
	if err != nil {
		// session restored: the worker fixes the text and retries
		s.sessions.Set(chatID, st)
		return s.out.Send(ctx, chatID, lineSyntaxHelp, nil)
	}

	var totalCents int64
	lines := make([]domain.OrderLine, 0, len(pairs))
	for _, p := range pairs {
		item := st.Menu[p.index-1]
		totalCents += item.PriceCents * int64(p.quantity)
		lines = append(lines, domain.OrderLine{
			OrderID:    st.OrderID,
			GroupID:    st.GroupID,
			MenuItemID: item.ID,
			WorkerID:   worker.TelegramID,
			Quantity:   p.quantity,
		})
	}

	if err := s.orders.InsertLines(ctx, lines); err != nil {
		s.lg.Error("insert_order_lines", err, map[string]any{"group_id": st.GroupID, "worker_id": worker.TelegramID})
		s.sessions.Set(chatID, st)
		return s.out.Send(ctx, chatID, "Failed to add order. Please try again.", nil)
	}
	s.lg.Info("order_lines_submitted", map[string]any{
		"group_id": st.GroupID, "worker_id": worker.TelegramID,
		"lines": len(lines), "total_cents": totalCents,
	})

	if admin, err := s.orders.AdminFor(ctx, st.GroupID); err != nil {
		s.lg.Error("admin_lookup", err, map[string]any{"group_id": st.GroupID})
	} else {
		_ = s.out.Send(ctx, admin.TelegramID, fmt.Sprintf(
			"New Order for Group Order %s:\nWorker: %s (UUID: %s)\nTotal: $%s\nOrder total so far: $%s",
			st.GroupID, worker.Name, worker.UUID,
			domain.FormatCents(totalCents), domain.FormatCents(s.runningTotal(ctx, st.GroupID))), nil)
	}

	s.publish(ctx, "order.lines", domain.LinesSubmittedEvent{
		GroupID: st.GroupID, WorkerUUID: worker.UUID, Lines: len(lines), TotalCents: totalCents,
	})

	return s.out.Send(ctx, chatID, fmt.Sprintf(
		"Order added to group order!\nGroup Order ID: %s\nTotal: $%s",
		st.GroupID, domain.FormatCents(totalCents)), nil)
}

// UpdateStatus applies an admin-triggered status change. Any enumerated
// status is reachable from any other; the only checks are enum membership
// and ownership. The bool reports whether the status was actually applied,
// so the caller knows whether to re-render the detail view.
func (s *Orders) UpdateStatus(ctx context.Context, chatID, adminID int64, groupID, statusName string) (bool, error) {
	status, err := domain.ParseStatus(statusName)
	if err != nil {
		return false, s.out.Send(ctx, chatID, "Invalid status.", nil)
	}
	switch err := s.orders.UpdateStatus(ctx, groupID, adminID, status); {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return false, s.out.Send(ctx, chatID, "Group order not found.", nil)
	case errors.Is(err, repository.ErrNotOwner):
		return false, s.out.Send(ctx, chatID, "You do not own this group order.", nil)
	default:
		s.lg.Error("update_status", err, map[string]any{"group_id": groupID, "status": status})
		return false, s.out.Send(ctx, chatID, "Failed to update group order status.", nil)
	}
	s.lg.Info("status_updated", map[string]any{"group_id": groupID, "status": status})
	s.publish(ctx, "order.status", domain.StatusChangedEvent{GroupID: groupID, Status: status, AdminID: adminID})
	return true, s.out.Send(ctx, chatID, fmt.Sprintf("Group order status updated to %s", status), nil)
}

// runningTotal sums every worker's submitted lines at current prices. It is
// informational only, so lookup failures degrade to zero rather than failing
// the submission.
func (s *Orders) runningTotal(ctx context.Context, groupID string) int64 {
	totals, err := s.orders.WorkerTotals(ctx, groupID)
	if err != nil {
		s.lg.Error("worker_totals", err, map[string]any{"group_id": groupID})
		return 0
	}
	var sum int64
	for _, t := range totals {
		sum += t.TotalCents
	}
	return sum
}

func (s *Orders) publish(ctx context.Context, key string, event any) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishJSON(ctx, key, event); err != nil {
		s.lg.Error("publish_event", err, map[string]any{"routing_key": key})
	}
}
