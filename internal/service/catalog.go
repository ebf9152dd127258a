package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"group-order-bot/internal/callback"
	"group-order-bot/internal/domain"
	"group-order-bot/internal/logger"
	"group-order-bot/internal/repository"
	"group-order-bot/internal/session"
)

// Catalog owns restaurants and menu items, all scoped to the owning admin.
type Catalog struct {
	catalog  repository.CatalogInterface
	sessions session.Store
	out      *Dispatcher
	lg       *logger.Logger
}

func NewCatalog(catalog repository.CatalogInterface, sessions session.Store,
	out *Dispatcher, lg *logger.Logger) *Catalog {
	return &Catalog{catalog: catalog, sessions: sessions, out: out, lg: lg}
}

func (s *Catalog) StartAddRestaurant(ctx context.Context, chatID int64) error {
	s.sessions.Set(chatID, session.State{Step: session.StepRestaurantName})
	return s.out.Send(ctx, chatID, "Enter the name of the restaurant:", nil)
}

func (s *Catalog) AddRestaurantName(ctx context.Context, chatID, adminID int64, text string) error {
	name := strings.TrimSpace(text)
	if name == "" {
		return s.out.Send(ctx, chatID, "Restaurant name cannot be empty. Please try again:", nil)
	}
	id, err := s.catalog.AddRestaurant(ctx, adminID, name)
	if err != nil {
		s.lg.Error("add_restaurant", err, map[string]any{"admin_id": adminID})
		return s.out.Send(ctx, chatID, "Failed to add restaurant. Please try again.", nil)
	}
	s.sessions.Clear(chatID)
	s.lg.Info("restaurant_added", map[string]any{"admin_id": adminID, "restaurant_id": id})
	return s.out.Send(ctx, chatID, fmt.Sprintf("Restaurant %q added successfully!", name), nil)
}

func (s *Catalog) StartAddMenuItem(ctx context.Context, chatID, adminID int64) error {
	restaurants, err := s.catalog.ListRestaurants(ctx, adminID)
	if err != nil {
		s.lg.Error("list_restaurants", err, map[string]any{"admin_id": adminID})
		return s.out.Send(ctx, chatID, "Error fetching restaurants.", nil)
	}
	if len(restaurants) == 0 {
		return s.out.Send(ctx, chatID, "No restaurants found. Please add a restaurant first.", nil)
	}
	kb := &Keyboard{}
	for _, r := range restaurants {
		kb.Inline = append(kb.Inline, []Button{{
			Text: r.Name,
			Data: callback.Encode(callback.AddMenuItemFor, strconv.FormatInt(r.ID, 10)),
		}})
	}
	return s.out.Send(ctx, chatID, "Select a restaurant to add a menu item:", kb)
}

func (s *Catalog) ChooseRestaurant(ctx context.Context, chatID, adminID int64, idToken string) error {
	id, err := strconv.ParseInt(idToken, 10, 64)
	if err != nil {
		return s.out.Send(ctx, chatID, "Unknown restaurant.", nil)
	}
	r, err := s.catalog.GetRestaurant(ctx, id)
	if err != nil {
		return s.out.Send(ctx, chatID, "Unknown restaurant.", nil)
	}
	if r.AdminID != adminID {
		return s.out.Send(ctx, chatID, "You do not own this restaurant.", nil)
	}
	s.sessions.Set(chatID, session.State{Step: session.StepItemName, RestaurantID: id})
	return s.out.Send(ctx, chatID, "Please enter the menu item name:", nil)
}

func (s *Catalog) SetItemName(ctx context.Context, chatID int64, text string) error {
	st, ok := s.sessions.Get(chatID)
	if !ok || st.Step != session.StepItemName {
		return nil
	}
	name := strings.TrimSpace(text)
	if name == "" {
		return s.out.Send(ctx, chatID, "Item name cannot be empty. Please try again:", nil)
	}
	st.ItemName = name
	st.Step = session.StepItemPrice
	s.sessions.Set(chatID, st)
	return s.out.Send(ctx, chatID, "Please enter the item price (e.g., 12.50):", nil)
}

func (s *Catalog) SetItemPrice(ctx context.Context, chatID int64, text string) error {
	st, ok := s.sessions.Get(chatID)
	if !ok || st.Step != session.StepItemPrice {
		return nil
	}
	cents, err := domain.ParsePrice(text)
	if err != nil {
		return s.out.Send(ctx, chatID, "Invalid price. Must be a non-negative number (e.g., 12.50). Please try again:", nil)
	}
	item := domain.MenuItem{RestaurantID: st.RestaurantID, Name: st.ItemName, PriceCents: cents}
	id, err := s.catalog.AddMenuItem(ctx, item)
	if err != nil {
		s.lg.Error("add_menu_item", err, map[string]any{"restaurant_id": st.RestaurantID})
		return s.out.Send(ctx, chatID, "Failed to add menu item. Please try again.", nil)
	}
	s.sessions.Clear(chatID)
	s.lg.Info("menu_item_added", map[string]any{"restaurant_id": st.RestaurantID, "menu_item_id": id})
	return s.out.Send(ctx, chatID,
		fmt.Sprintf("Menu item %q added successfully at $%s!", item.Name, domain.FormatCents(cents)), nil)
}
