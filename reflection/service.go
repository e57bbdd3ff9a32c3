package reflection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/evangelho"
)

var (
	ErrEmptyAnswer     = errors.New("please enter an answer before submitting")
	ErrUnknownQuestion = errors.New("unknown question")
	ErrUserRequired    = errors.New("a signed-in user is required")
)

// DefaultQuestion is the question shown on the questions screen.
var DefaultQuestion = Question{ID: "como-viver", Prompt: "Como viver o Evangelho?"}

// Question is one prompt on the questions screen.
type Question struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}

// Answer is a user's reply to a Question.
type Answer struct {
	UserID      string    `json:"user_id"`
	QuestionID  string    `json:"question_id"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Store persists answers. List returns them oldest first.
type Store interface {
	Append(ctx context.Context, a Answer) error
	List(ctx context.Context, userID string) ([]Answer, error)
}

// Auditor is satisfied by *evangelho.Controller.
type Auditor interface {
	EmitAudit(ctx context.Context, event evangelho.AuditEvent)
}

// Option configures a Service.
type Option func(*Service)

// WithQuestions replaces the question catalogue.
func WithQuestions(qs ...Question) Option {
	return func(s *Service) {
		s.order = s.order[:0]
		s.questions = make(map[string]Question, len(qs))
		for _, q := range qs {
			if _, dup := s.questions[q.ID]; !dup {
				s.order = append(s.order, q.ID)
			}
			s.questions[q.ID] = q
		}
	}
}

// WithClock sets the clock used for Answer.SubmittedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAuditor emits an audit event for every stored answer.
func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.audit = a }
}

// Service records answers to reflection questions. It is safe for
// concurrent use if its Store is.
type Service struct {
	store     Store
	questions map[string]Question
	order     []string
	now       func() time.Time
	audit     Auditor
}

// NewService returns a Service over store with [DefaultQuestion] as its
// only question unless WithQuestions says otherwise.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		questions: map[string]Question{DefaultQuestion.ID: DefaultQuestion},
		order:     []string{DefaultQuestion.ID},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Questions lists the catalogue in registration order.
func (s *Service) Questions() []Question {
	out := make([]Question, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.questions[id])
	}
	return out
}

// Submit stores text as userID's answer to questionID. Whitespace-only text
// counts as empty. The text is stored as given.
func (s *Service) Submit(ctx context.Context, userID, questionID, text string) (Answer, error) {
	if userID == "" {
		return Answer{}, ErrUserRequired
	}
	if _, ok := s.questions[questionID]; !ok {
		return Answer{}, fmt.Errorf("%w: %q", ErrUnknownQuestion, questionID)
	}
	if strings.TrimSpace(text) == "" {
		return Answer{}, ErrEmptyAnswer
	}

	a := Answer{
		UserID:      userID,
		QuestionID:  questionID,
		Text:        text,
		SubmittedAt: s.now().UTC(),
	}
	if err := s.store.Append(ctx, a); err != nil {
		return Answer{}, fmt.Errorf("store answer: %w", err)
	}

	if s.audit != nil {
		s.audit.EmitAudit(ctx, evangelho.AuditEvent{
			Timestamp: a.SubmittedAt,
			EventType: evangelho.AuditAnswerSubmitted,
			UserID:    userID,
			Success:   true,
			Metadata:  map[string]string{"question_id": questionID},
		})
	}
	return a, nil
}

// History lists userID's answers oldest first.
func (s *Service) History(ctx context.Context, userID string) ([]Answer, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	return s.store.List(ctx, userID)
}

// Latest returns the most recent answer to questionID, if any.
func (s *Service) Latest(ctx context.Context, userID, questionID string) (Answer, bool, error) {
	all, err := s.History(ctx, userID)
	if err != nil {
		return Answer{}, false, err
	}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].QuestionID == questionID {
			return all[i], true, nil
		}
	}
	return Answer{}, false, nil
}
