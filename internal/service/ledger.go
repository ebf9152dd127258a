package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"group-order-bot/internal/callback"
	"group-order-bot/internal/domain"
	"group-order-bot/internal/logger"
	"group-order-bot/internal/repository"
)

// Ledger renders the aggregate view of a group order and applies payment
// toggles. Totals are always derived from the stored lines, never cached.
type Ledger struct {
	orders  repository.OrdersInterface
	catalog repository.CatalogInterface
	out     *Dispatcher
	lg      *logger.Logger
}

func NewLedger(orders repository.OrdersInterface, catalog repository.CatalogInterface,
	out *Dispatcher, lg *logger.Logger) *Ledger {
	return &Ledger{orders: orders, catalog: catalog, out: out, lg: lg}
}

// SendDetails renders the per-worker breakdown plus the valid next actions
// (one paid toggle per worker present, one button per settable status).
func (s *Ledger) SendDetails(ctx context.Context, chatID int64, groupID string) error {
	order, err := s.orders.GetByGroupID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.out.Send(ctx, chatID, "Group order not found.", nil)
		}
		s.lg.Error("load_group_order", err, map[string]any{"group_id": groupID})
		return s.out.Send(ctx, chatID, "Failed to retrieve group order details.", nil)
	}
	restaurant, err := s.catalog.GetRestaurant(ctx, order.RestaurantID)
	if err != nil {
		s.lg.Error("load_restaurant", err, map[string]any{"group_id": groupID})
		return s.out.Send(ctx, chatID, "Failed to retrieve group order details.", nil)
	}
	lines, err := s.orders.LedgerLines(ctx, groupID)
	if err != nil {
		s.lg.Error("load_ledger", err, map[string]any{"group_id": groupID})
		return s.out.Send(ctx, chatID, "Failed to retrieve group order details.", nil)
	}

	text, kb := renderDetails(order, restaurant.Name, lines)
	return s.out.Send(ctx, chatID, text, kb)
}

// workerGroup keeps one worker's lines in first-appearance order.
type workerGroup struct {
	workerID int64
	name     string
	uuid     string
	lines    []repository.LedgerLine
	subtotal int64
}

func groupByWorker(lines []repository.LedgerLine) []workerGroup {
	var groups []workerGroup
	byID := map[int64]int{}
	for _, l := range lines {
		i, ok := byID[l.WorkerID]
		if !ok {
			i = len(groups)
			byID[l.WorkerID] = i
			groups = append(groups, workerGroup{workerID: l.WorkerID, name: l.WorkerName, uuid: l.WorkerUUID})
		}
		groups[i].lines = append(groups[i].lines, l)
		groups[i].subtotal += l.PriceCents * int64(l.Quantity)
	}
	return groups
}

func renderDetails(order *domain.GroupOrder, restaurantName string, lines []repository.LedgerLine) (string, *Keyboard) {
	var b strings.Builder
	fmt.Fprintf(&b, "Group Order Details\nGroup ID: %s\nStatus: %s\nRestaurant: %s\n\n",
		order.GroupID, order.Status, restaurantName)

	groups := groupByWorker(lines)
	if len(groups) == 0 {
		b.WriteString("No orders submitted yet.\n")
	}
	for _, g := range groups {
		fmt.Fprintf(&b, "Worker: %s (UUID: %s)\n", g.name, g.uuid)
		for _, l := range g.lines {
			paid := "Unpaid"
			if l.Paid {
				paid = "Paid"
			}
			fmt.Fprintf(&b, "  • %s x%d - $%s [%s]\n",
				l.ItemName, l.Quantity, domain.FormatCents(l.PriceCents*int64(l.Quantity)), paid)
		}
		fmt.Fprintf(&b, "Subtotal: $%s\n\n", domain.FormatCents(g.subtotal))
	}

	kb := &Keyboard{}
	for _, g := range groups {
		kb.Inline = append(kb.Inline, []Button{{
			Text: fmt.Sprintf("Toggle Paid for %s", g.name),
			Data: callback.Encode(callback.TogglePaid, order.GroupID, strconv.FormatInt(g.workerID, 10)),
		}})
	}
	for _, status := range domain.AssignableStatuses {
		kb.Inline = append(kb.Inline, []Button{{
			Text: string(status),
			Data: callback.Encode(callback.SetStatus, order.GroupID, string(status)),
		}})
	}
	return b.String(), kb
}

// TogglePaid flips the payment flag for every line of one worker in one
// order, then re-renders the detail view. Only the admin owning the order's
// restaurant may toggle; the payload carries the group id, so a forged
// callback against someone else's order is denied here.
func (s *Ledger) TogglePaid(ctx context.Context, chatID, adminID int64, groupID, workerToken string) error {
	workerID, err := strconv.ParseInt(workerToken, 10, 64)
	if err != nil {
		return s.out.Send(ctx, chatID, "Unknown worker.", nil)
	}
	owner, err := s.orders.AdminFor(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.out.Send(ctx, chatID, "Group order not found.", nil)
		}
		s.lg.Error("admin_lookup", err, map[string]any{"group_id": groupID})
		return s.out.Send(ctx, chatID, "Failed to update paid status.", nil)
	}
	if owner.TelegramID != adminID {
		return s.out.Send(ctx, chatID, "You do not own this group order.", nil)
	}
	paid, err := s.orders.TogglePaid(ctx, groupID, workerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.out.Send(ctx, chatID, "No order lines found for this worker.", nil)
		}
		s.lg.Error("toggle_paid", err, map[string]any{"group_id": groupID, "worker_id": workerID})
		return s.out.Send(ctx, chatID, "Failed to update paid status.", nil)
	}
	s.lg.Info("paid_toggled", map[string]any{"group_id": groupID, "worker_id": workerID, "paid": paid})

	label := "Unpaid"
	if paid {
		label = "Paid"
	}
	if err := s.out.Send(ctx, chatID, fmt.Sprintf("Paid status for worker %d updated to %s", workerID, label), nil); err != nil {
		return err
	}
	return s.SendDetails(ctx, chatID, groupID)
}
