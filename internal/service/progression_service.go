package service

import (
	"context"
	"errors"

	"mythic_prison/internal/domain"
	"mythic_prison/internal/player"
)

// maxRepeat bounds one *Max call.
const maxRepeat = 10_000

// ProgressionService runs the rank, prestige, rebirth and ascension ladder.
type ProgressionService struct {
	common
	registry *player.Registry
	changes  DirtyMarker
	audit    *AuditService
}

func NewProgressionService(registry *player.Registry, changes DirtyMarker, audit *AuditService, opts ...Option) *ProgressionService {
	return &ProgressionService{
		common:   newCommon("ladder", opts),
		registry: registry,
		changes:  changes,
		audit:    audit,
	}
}

// State returns the ladder tuple.
func (s *ProgressionService) State(ctx context.Context, id domain.Identity) (domain.Progression, error) {
	var out domain.Progression
	err := s.registry.With(ctx, id, func(p *domain.Profile, _ player.Session) error {
		out = p.Progression()
		return nil
	})
	return out, err
}

// Quote previews tr without changing anything.
func (s *ProgressionService) Quote(ctx context.Context, id domain.Identity, tr domain.Transition) (Quote, error) {
	var q Quote
	err := s.registry.With(ctx, id, func(p *domain.Profile, _ player.Session) error {
		q = quote(p, tr)
		return nil
	})
	return q, err
}

// Advance applies tr atomically. A refusal is a *domain.IneligibleError and
// leaves the profile untouched.
func (s *ProgressionService) Advance(ctx context.Context, id domain.Identity, tr domain.Transition) (*AdvanceResult, error) {
	var res *AdvanceResult
	err := s.registry.With(ctx, id, func(p *domain.Profile, _ player.Session) error {
		var err error
		res, err = advance(p, tr, millis(s.now()))
		return err
	})
	LadderTransitions.WithLabelValues(string(tr), transitionResult(err)).Inc()
	if err != nil {
		return nil, err
	}
	s.changes.MarkDirty(id)
	s.audit.LogTransition(ctx, res)
	s.log.Info("ladder advanced", "player", id, "transition", tr, "rank", res.To.RankSymbol(), "prestige", res.To.Prestige, "rebirth", res.To.Rebirth, "ascension", res.To.Ascension)
	return res, nil
}

func (s *ProgressionService) Rankup(ctx context.Context, id domain.Identity) (*AdvanceResult, error) {
	return s.Advance(ctx, id, domain.TransitionRankup)
}

func (s *ProgressionService) Prestige(ctx context.Context, id domain.Identity) (*AdvanceResult, error) {
	return s.Advance(ctx, id, domain.TransitionPrestige)
}

func (s *ProgressionService) Rebirth(ctx context.Context, id domain.Identity) (*AdvanceResult, error) {
	return s.Advance(ctx, id, domain.TransitionRebirth)
}

func (s *ProgressionService) Ascend(ctx context.Context, id domain.Identity) (*AdvanceResult, error) {
	return s.Advance(ctx, id, domain.TransitionAscension)
}

func transitionResult(err error) string {
	var inel *domain.IneligibleError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &inel):
		return string(inel.Reason)
	}
	return "error"
}

// MaxResult summarises a repeated transition.
type MaxResult struct {
	Transition domain.Transition           `json:"transition"`
	Count      int                         `json:"count"`
	Spent      float64                     `json:"spent"`
	Rewards    map[domain.Currency]float64 `json:"rewards,omitempty"`
	From       domain.Progression          `json:"from"`
	To         domain.Progression          `json:"to"`
	// Stopped is why the loop ended; nil only when the repeat cap was hit.
	Stopped error `json:"-"`
}

// AdvanceMax repeats tr while it stays eligible. Each step is its own atomic
// transition, so other operations may interleave between steps.
func (s *ProgressionService) AdvanceMax(ctx context.Context, id domain.Identity, tr domain.Transition) (*MaxResult, error) {
	start, err := s.State(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &MaxResult{Transition: tr, From: start, To: start}
	for out.Count < maxRepeat {
		res, err := s.Advance(ctx, id, tr)
		if err != nil {
			if !errors.Is(err, domain.ErrIneligible) {
				return out, err
			}
			out.Stopped = err
			break
		}
		out.Count++
		out.Spent += res.Cost
		out.To = res.To
		for c, amt := range res.Rewards {
			if out.Rewards == nil {
				out.Rewards = make(map[domain.Currency]float64)
			}
			out.Rewards[c] += amt
		}
	}
	return out, nil
}

func (s *ProgressionService) RankupMax(ctx context.Context, id domain.Identity) (*MaxResult, error) {
	return s.AdvanceMax(ctx, id, domain.TransitionRankup)
}

func (s *ProgressionService) PrestigeMax(ctx context.Context, id domain.Identity) (*MaxResult, error) {
	return s.AdvanceMax(ctx, id, domain.TransitionPrestige)
}

func (s *ProgressionService) RebirthMax(ctx context.Context, id domain.Identity) (*MaxResult, error) {
	return s.AdvanceMax(ctx, id, domain.TransitionRebirth)
}

// SetRank is the administrative override; it skips cost and eligibility.
func (s *ProgressionService) SetRank(ctx context.Context, id domain.Identity, rank, actor string) error {
	idx, err := domain.ParseRank(rank)
	if err != nil {
		return err
	}
	var before string
	err = s.registry.With(ctx, id, func(p *domain.Profile, _ player.Session) error {
		before = p.CurrentRank
		p.CurrentRank = domain.RankSymbol(idx)
		return nil
	})
	if err != nil {
		return err
	}
	s.changes.MarkDirty(id)
	s.audit.LogAdmin(ctx, id, domain.AuditActionAdminSetRank, actor, map[string]interface{}{
		"from": before,
		"to":   domain.RankSymbol(idx),
	})
	return nil
}

// SetAutoAdvance toggles automatic advancement for one transition. Ascension
// is never automatic.
func (s *ProgressionService) SetAutoAdvance(ctx context.Context, id domain.Identity, tr domain.Transition, on bool) (domain.Settings, error) {
	var out domain.Settings
	err := s.registry.With(ctx, id, func(p *domain.Profile, _ player.Session) error {
		switch tr {
		case domain.TransitionRankup:
			p.Settings.AutoRankup = on
		case domain.TransitionPrestige:
			p.Settings.AutoPrestige = on
		case domain.TransitionRebirth:
			p.Settings.AutoRebirth = on
		default:
			return domain.ErrNotAutomatable
		}
		out = p.Settings
		return nil
	})
	if err != nil {
		return out, err
	}
	s.changes.MarkDirty(id)
	return out, nil
}

// AutoAdvance applies every enabled automatic transition, lowest tier first.
func (s *ProgressionService) AutoAdvance(ctx context.Context, id domain.Identity) ([]*MaxResult, error) {
	var settings domain.Settings
	err := s.registry.With(ctx, id, func(p *domain.Profile, _ player.Session) error {
		settings = p.Settings
		return nil
	})
	if err != nil {
		return nil, err
	}

	plan := []struct {
		on bool
		tr domain.Transition
	}{
		{settings.AutoRankup, domain.TransitionRankup},
		{settings.AutoPrestige, domain.TransitionPrestige},
		{settings.AutoRebirth, domain.TransitionRebirth},
	}
	var out []*MaxResult
	for _, step := range plan {
		if !step.on {
			continue
		}
		res, err := s.AdvanceMax(ctx, id, step.tr)
		if err != nil {
			return out, err
		}
		if res.Count > 0 {
			out = append(out, res)
		}
	}
	return out, nil
}
