package service

import (
	"context"
	"strings"

	"mythic_prison/internal/domain"
	"mythic_prison/internal/player"
)

// blockValues is the base money value of one mined block.
var blockValues = map[string]float64{
	"stone":           1,
	"cobblestone":     1.5,
	"coal_ore":        5,
	"iron_ore":        10,
	"gold_ore":        25,
	"diamond_ore":     100,
	"emerald_ore":     250,
	"netherite_scrap": 500,
}

// BlockValue returns the base value of a block type; unknown types are worth 1.
func BlockValue(block string) float64 {
	if v, ok := blockValues[strings.ToLower(strings.TrimSpace(block))]; ok {
		return v
	}
	return 1
}

// MiningReward reports what one batch of mined blocks paid.
type MiningReward struct {
	Block       string       `json:"block"`
	Count       int          `json:"count"`
	Base        float64      `json:"base"`
	Multiplier  float64      `json:"multiplier"`
	Earned      float64      `json:"earned"`
	BlocksMined int64        `json:"blocks_mined"`
	Advanced    []*MaxResult `json:"advanced,omitempty"`
	Milestones  []Milestone  `json:"milestones,omitempty"`
}

// MiningService turns block breaks into money.
type MiningService struct {
	common
	registry   *player.Registry
	changes    DirtyMarker
	ladder     *ProgressionService
	milestones *MilestoneService
}

func NewMiningService(registry *player.Registry, changes DirtyMarker, ladder *ProgressionService, milestones *MilestoneService, opts ...Option) *MiningService {
	return &MiningService{
		common:     newCommon("mining", opts),
		registry:   registry,
		changes:    changes,
		ladder:     ladder,
		milestones: milestones,
	}
}

// Reward credits count blocks of one type at the current effective money
// multiplier, then runs auto-advance and milestone checks.
func (s *MiningService) Reward(ctx context.Context, id domain.Identity, block string, count int) (*MiningReward, error) {
	if count <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	out := &MiningReward{Block: block, Count: count, Base: BlockValue(block) * float64(count)}
	err := s.registry.With(ctx, id, func(p *domain.Profile, _ player.Session) error {
		mult, _ := effective(p, domain.BonusType(domain.Money), millis(s.now()))
		out.Multiplier = mult
		out.Earned = out.Base * mult
		credit(p, domain.Money, out.Earned)
		p.Stats.BlocksMined += int64(count)
		out.BlocksMined = p.Stats.BlocksMined
		return nil
	})
	LedgerOps.WithLabelValues("mine", string(domain.Money), result(err)).Inc()
	if err != nil {
		return nil, err
	}
	s.changes.MarkDirty(id)

	if s.ladder != nil {
		adv, err := s.ladder.AutoAdvance(ctx, id)
		if err != nil {
			s.log.Warn("auto advance failed", "player", id, "error", err)
		}
		out.Advanced = adv
	}
	if s.milestones != nil {
		ms, err := s.milestones.Check(ctx, id)
		if err != nil {
			s.log.Warn("milestone check failed", "player", id, "error", err)
		}
		out.Milestones = ms
	}
	return out, nil
}
