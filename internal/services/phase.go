package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hackomatic/internal/domain"
)

type phaseService struct {
	tx             domain.Transactor
	emailService   domain.EmailService
	logger         *slog.Logger
	publicURL      string
	emailSuffix    string
	contextTimeout time.Duration
	now            func() time.Time
}

// NewPhaseService returns the PhaseService. emailService may be nil to disable
// announcements.
func NewPhaseService(tx domain.Transactor,
	emailService domain.EmailService,
	logger *slog.Logger,
	publicURL, emailSuffix string,
	timeout time.Duration,
) domain.PhaseService {
	return &phaseService{
		tx:             tx,
		emailService:   emailService,
		logger:         logger,
		publicURL:      publicURL,
		emailSuffix:    emailSuffix,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *phaseService) Status(ctx context.Context, user *domain.User) (*domain.PhaseStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var phase domain.Phase
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store domain.Store) error {
		var err error
		phase, err = store.Phases().Current(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read current phase: %w", err)
	}
	return &domain.PhaseStatus{
		Phase:       phase,
		Permissions: domain.Permissions(phase, user.IsAdmin),
	}, nil
}

func (s *phaseService) History(ctx context.Context, user *domain.User) ([]*domain.PhaseTransition, error) {
	if !user.IsAdmin {
		return nil, domain.ErrForbidden
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var log []*domain.PhaseTransition
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store domain.Store) error {
		var err error
		log, err = store.Phases().History(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read phase history: %w", err)
	}
	return log, nil
}

func (s *phaseService) SetPhase(ctx context.Context, user *domain.User, target domain.Phase) (*domain.PhaseTransition, error) {
	if !target.Valid() {
		return nil, &domain.InvalidInputError{Message: fmt.Sprintf("unknown phase %q", target)}
	}
	return s.transition(ctx, user, func(domain.Phase) domain.Phase { return target })
}

func (s *phaseService) Next(ctx context.Context, user *domain.User) (*domain.PhaseTransition, error) {
	return s.transition(ctx, user, domain.Phase.Next)
}

func (s *phaseService) Prev(ctx context.Context, user *domain.User) (*domain.PhaseTransition, error) {
	return s.transition(ctx, user, domain.Phase.Prev)
}

// transition appends the phase chosen by step and announces it once committed.
func (s *phaseService) transition(ctx context.Context, user *domain.User, step func(domain.Phase) domain.Phase) (*domain.PhaseTransition, error) {
	txCtx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var (
		previous   domain.Phase
		t          *domain.PhaseTransition
		recipients []string
	)
	err := s.tx.WithinTx(txCtx, func(ctx context.Context, store domain.Store) error {
		current, err := store.Phases().Current(ctx)
		if err != nil {
			return err
		}
		if err := domain.CanPerform(current, domain.OpAdvancePhase, user.IsAdmin); err != nil {
			return err
		}
		previous = current
		t = domain.NewPhaseTransition(step(current), user.Email, s.now().UTC())
		if err := store.Phases().Append(ctx, t); err != nil {
			return err
		}
		recipients, err = store.Members().ListEmails(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("change phase: %w", err)
	}

	s.logger.InfoContext(ctx, "phase changed", "from", previous, "to", t.Phase, "actor", user.Email)
	s.announce(ctx, previous, t.Phase, recipients)
	return t, nil
}

// announce never fails the transition; delivery errors are logged.
func (s *phaseService) announce(ctx context.Context, previous, phase domain.Phase, recipients []string) {
	if s.emailService == nil {
		return
	}
	for _, email := range recipients {
		data := &domain.PhaseAnnouncementEmailData{
			Email:         email,
			DisplayName:   domain.DisplayName(email, s.emailSuffix),
			Phase:         phase,
			PreviousPhase: previous,
			URL:           s.publicURL,
		}
		if err := s.emailService.SendPhaseAnnouncement(ctx, data); err != nil {
			s.logger.ErrorContext(ctx, "phase announcement failed", "email", email, "phase", phase, "err", err)
		}
	}
}
