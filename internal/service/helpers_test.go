package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/legal-intake/internal/config"
	"github.com/spec-kit/legal-intake/internal/domain"
	"github.com/spec-kit/legal-intake/internal/events"
	"github.com/spec-kit/legal-intake/internal/repository/memory"
	"github.com/spec-kit/legal-intake/internal/verification"
)

type fixture struct {
	users         *memory.Users
	tickets       *memory.Tickets
	messages      *memory.Messages
	dispatcher    events.Dispatcher
	recorder      *eventRecorder
	auth          *AuthService
	ticketSvc     *TicketService
	messageSvc    *MessageService
	conversations *ConversationService
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newFixture(t *testing.T, verifier verification.Verifier) *fixture {
	t.Helper()
	f := &fixture{
		users:      memory.NewUsers(),
		tickets:    memory.NewTickets(),
		messages:   memory.NewMessages(),
		dispatcher: events.NewInMemoryDispatcher(nil),
		recorder:   &eventRecorder{},
	}
	for _, et := range []events.EventType{
		events.EventTicketSubmitted,
		events.EventTicketStatusChanged,
		events.EventTicketUrgencyChanged,
		events.EventMessageAppended,
		events.EventUserRegistered,
	} {
		f.dispatcher.Subscribe(et, f.recorder.handle)
	}

	f.auth = NewAuthService(config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4}, f.users, f.dispatcher)
	f.ticketSvc = NewTicketService(TicketDependencies{
		TicketRepo:  f.tickets,
		HistoryRepo: memory.NewHistory(),
		Verifier:    verifier,
		Dispatcher:  f.dispatcher,
	})
	f.conversations = NewConversationService(f.messages, f.users, nil, nil)
	f.messageSvc = NewMessageService(MessageDependencies{
		MessageRepo: f.messages,
		UserRepo:    f.users,
		Invalidator: f.conversations,
		Dispatcher:  f.dispatcher,
	})
	return f
}

const strongPassword = "Str0ng!pass"

func (f *fixture) client(t *testing.T, email, name string) *domain.Session {
	t.Helper()
	ctx := context.Background()
	_, err := f.auth.Register(ctx, RegisterInput{Email: email, Password: strongPassword, FullName: name})
	require.NoError(t, err)
	session, _, err := f.auth.Authenticate(ctx, email, strongPassword)
	require.NoError(t, err)
	return session
}

func (f *fixture) admin(t *testing.T) *domain.Session {
	t.Helper()
	ctx := context.Background()
	_, err := f.auth.CreateAdmin(ctx, RegisterInput{Email: "lawyer@example.com", Password: strongPassword, FullName: "Staff"})
	require.NoError(t, err)
	session, _, err := f.auth.Authenticate(ctx, "lawyer@example.com", strongPassword)
	require.NoError(t, err)
	return session
}

func expiredSession(role domain.Role) *domain.Session {
	return &domain.Session{Identity: "x", Role: role, ExpiresAt: time.Now().Add(-time.Minute)}
}
