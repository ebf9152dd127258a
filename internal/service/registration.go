package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"group-order-bot/internal/callback"
	"group-order-bot/internal/domain"
	"group-order-bot/internal/logger"
	"group-order-bot/internal/repository"
	"group-order-bot/internal/session"
)

// phoneRe is the canonical phone rule: international format, leading +,
// one to fifteen digits.
var phoneRe = regexp.MustCompile(`^\+\d{1,15}$`)

// Registration drives the multi-step dialogue that creates a Participant:
// ROLE_CHOICE -> [COMPANY_CHOICE worker] -> NAME -> PHONE -> [COMPANY admin] -> DONE.
type Registration struct {
	participants repository.ParticipantsInterface
	sessions     session.Store
	out          *Dispatcher
	lg           *logger.Logger
	newUUID      func() string
}

func NewRegistration(participants repository.ParticipantsInterface, sessions session.Store,
	out *Dispatcher, lg *logger.Logger) *Registration {
	return &Registration{
		participants: participants,
		sessions:     sessions,
		out:          out,
		lg:           lg,
		newUUID:      uuid.NewString,
	}
}

// Start shows the role choice. Called on any first contact from an unknown
// transport id; it also supersedes whatever half-finished session existed.
func (s *Registration) Start(ctx context.Context, chatID int64) error {
	s.sessions.Set(chatID, session.State{Step: session.StepRoleChoice})
	kb := &Keyboard{Inline: [][]Button{
		{{Text: "Admin", Data: callback.Encode(callback.RegisterRole, string(domain.RoleAdmin))}},
		{{Text: "Worker", Data: callback.Encode(callback.RegisterRole, string(domain.RoleWorker))}},
	}}
	return s.out.Send(ctx, chatID, "Welcome! Please choose your role:", kb)
}

func (s *Registration) ChooseRole(ctx context.Context, chatID int64, roleName string) error {
	role, err := domain.ParseRole(roleName)
	if err != nil {
		return s.out.Send(ctx, chatID, "Unknown role. Please use the buttons.", nil)
	}

	if role == domain.RoleWorker {
		companies, err := s.participants.ListCompanies(ctx)
		if err != nil {
			s.lg.Error("list_companies", err, map[string]any{"chat_id": chatID})
			return s.out.Send(ctx, chatID, "Registration failed. Please try again.", nil)
		}
		if len(companies) > 0 {
			s.sessions.Set(chatID, session.State{Step: session.StepCompanyChoice, Role: role})
			kb := &Keyboard{}
			for _, c := range companies {
				kb.Inline = append(kb.Inline, []Button{{
					Text: c.Name,
					Data: callback.Encode(callback.SelectCompany, strconv.FormatInt(c.ID, 10)),
				}})
			}
			return s.out.Send(ctx, chatID, "Select your company:", kb)
		}
	}

	s.sessions.Set(chatID, session.State{Step: session.StepName, Role: role})
	return s.out.Send(ctx, chatID, fmt.Sprintf("You are registering as a %s. Please enter your full name:", role), nil)
}

func (s *Registration) ChooseCompany(ctx context.Context, chatID int64, idToken string) error {
	st, ok := s.sessions.Get(chatID)
	if !ok || st.Step != session.StepCompanyChoice {
		return s.Start(ctx, chatID)
	}
	id, err := strconv.ParseInt(idToken, 10, 64)
	if err != nil {
		return s.out.Send(ctx, chatID, "Unknown company. Please use the buttons.", nil)
	}
	if _, err := s.participants.GetCompany(ctx, id); err != nil {
		return s.out.Send(ctx, chatID, "Unknown company. Please use the buttons.", nil)
	}
	st.CompanyID = &id
	st.Step = session.StepName
	s.sessions.Set(chatID, st)
	return s.out.Send(ctx, chatID, "Please enter your full name:", nil)
}

// HandleText advances the registration flow one step. Invalid input
// re-prompts without touching accumulated state; a durable-store failure
// keeps the session so the same step can be retried.
func (s *Registration) HandleText(ctx context.Context, chatID, telegramID int64, text string) error {
	st, ok := s.sessions.Get(chatID)
	if !ok {
		return s.Start(ctx, chatID)
	}

	switch st.Step {
	case session.StepName:
		name := strings.TrimSpace(text)
		if name == "" {
			return s.out.Send(ctx, chatID, "Name cannot be empty. Please enter your full name:", nil)
		}
		st.Name = name
		st.Step = session.StepPhone
		s.sessions.Set(chatID, st)
		return s.out.Send(ctx, chatID, "Please enter your phone number in international format (e.g., +1234567890):", nil)

	case session.StepPhone:
		phone := strings.TrimSpace(text)
		if !phoneRe.MatchString(phone) {
			return s.out.Send(ctx, chatID, "Invalid phone number format. Please use international format (e.g., +1234567890):", nil)
		}
		st.Phone = phone
		if st.Role == domain.RoleAdmin {
			st.Step = session.StepCompanyName
			s.sessions.Set(chatID, st)
			return s.out.Send(ctx, chatID, "Please enter your company name:", nil)
		}
		return s.finishWorker(ctx, chatID, telegramID, st)

	case session.StepCompanyName:
		companyName := strings.TrimSpace(text)
		if companyName == "" {
			return s.out.Send(ctx, chatID, "Company name cannot be empty. Please try again:", nil)
		}
		return s.finishAdmin(ctx, chatID, telegramID, st, companyName)

	default:
		// role not chosen yet, or a stray message mid-choice
		return s.Start(ctx, chatID)
	}
}

func (s *Registration) finishWorker(ctx context.Context, chatID, telegramID int64, st session.State) error {
	p := domain.Participant{
		TelegramID: telegramID,
		Role:       domain.RoleWorker,
		Name:       st.Name,
		Phone:      st.Phone,
		UUID:       s.newUUID(),
		CompanyID:  st.CompanyID,
	}
	if err := s.participants.CreateWorker(ctx, p); err != nil {
		s.lg.Error("worker_registration", err, map[string]any{"telegram_id": telegramID})
		// session intact: the step can be retried
		return s.out.Send(ctx, chatID, "Registration failed. Please try again.", nil)
	}
	s.sessions.Clear(chatID)
	s.lg.Info("worker_registered", map[string]any{"telegram_id": telegramID, "uuid": p.UUID})
	return s.out.Send(ctx, chatID,
		fmt.Sprintf("Registration successful! Your UUID is: %s", p.UUID), WorkerMenu())
}

func (s *Registration) finishAdmin(ctx context.Context, chatID, telegramID int64, st session.State, companyName string) error {
	p := domain.Participant{
		TelegramID: telegramID,
		Role:       domain.RoleAdmin,
		Name:       st.Name,
		Phone:      st.Phone,
		UUID:       s.newUUID(),
	}
	companyID, err := s.participants.CreateAdminWithCompany(ctx, p, companyName)
	if err != nil {
		s.lg.Error("admin_registration", err, map[string]any{"telegram_id": telegramID})
		return s.out.Send(ctx, chatID, "Registration failed. Please try again.", nil)
	}
	s.sessions.Clear(chatID)
	s.lg.Info("admin_registered", map[string]any{
		"telegram_id": telegramID, "uuid": p.UUID, "company_id": companyID,
	})
	return s.out.Send(ctx, chatID,
		fmt.Sprintf("Registration successful! Company %q created.\nYour UUID: %s", companyName, p.UUID),
		AdminMenu())
}
