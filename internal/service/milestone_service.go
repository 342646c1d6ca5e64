package service

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"mythic_prison/internal/domain"
	"mythic_prison/internal/player"
)

//go:embed milestones.yaml
var defaultMilestones []byte

type MilestoneType string

const (
	MilestoneBlocksMined MilestoneType = "blocks_mined"
	MilestoneMoneyEarned MilestoneType = "money_earned"
	MilestoneRank        MilestoneType = "rank"
	MilestonePrestige    MilestoneType = "prestige"
)

type Milestone struct {
	ID          string                      `yaml:"id" json:"id"`
	Name        string                      `yaml:"name" json:"name"`
	Description string                      `yaml:"description" json:"description"`
	Type        MilestoneType               `yaml:"type" json:"type"`
	Target      float64                     `yaml:"target" json:"target"`
	Rewards     map[domain.Currency]float64 `yaml:"rewards" json:"rewards"`
	Order       int                         `yaml:"order" json:"order"`
}

type milestoneFile struct {
	Milestones []Milestone `yaml:"milestones"`
}

// ParseMilestones decodes and validates a YAML catalog.
func ParseMilestones(b []byte) ([]Milestone, error) {
	var f milestoneFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse milestones: %w", err)
	}
	seen := make(map[string]bool, len(f.Milestones))
	for _, m := range f.Milestones {
		if m.ID == "" {
			return nil, fmt.Errorf("milestone without id")
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("duplicate milestone %q", m.ID)
		}
		seen[m.ID] = true
		switch m.Type {
		case MilestoneBlocksMined, MilestoneMoneyEarned, MilestoneRank, MilestonePrestige:
		default:
			return nil, fmt.Errorf("milestone %q: unknown type %q", m.ID, m.Type)
		}
		if m.Target <= 0 {
			return nil, fmt.Errorf("milestone %q: target must be positive", m.ID)
		}
		for c, amt := range m.Rewards {
			if !c.Valid() {
				return nil, fmt.Errorf("milestone %q: %w %q", m.ID, domain.ErrInvalidCurrency, c)
			}
			if amt < 0 {
				return nil, fmt.Errorf("milestone %q: negative reward", m.ID)
			}
		}
	}
	sort.SliceStable(f.Milestones, func(i, j int) bool { return f.Milestones[i].Order < f.Milestones[j].Order })
	return f.Milestones, nil
}

// LoadMilestones reads path, or the built-in catalog when path is empty.
func LoadMilestones(path string) ([]Milestone, error) {
	if path == "" {
		return ParseMilestones(defaultMilestones)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read milestones: %w", err)
	}
	return ParseMilestones(b)
}

// StatsReader is the read-only counter view a milestone check needs.
type StatsReader interface {
	Stats(ctx context.Context, id domain.Identity) (PlayerStats, error)
}

func (m Milestone) value(st PlayerStats) float64 {
	switch m.Type {
	case MilestoneBlocksMined:
		return float64(st.BlocksMined)
	case MilestoneMoneyEarned:
		return st.MoneyEarned
	case MilestoneRank:
		return float64(st.RankNumeric)
	case MilestonePrestige:
		return float64(st.Prestige)
	}
	return 0
}

// MilestoneService grants one-off rewards when a counter crosses a target.
type MilestoneService struct {
	common
	registry *player.Registry
	changes  DirtyMarker
	stats    StatsReader
	catalog  []Milestone
}

func NewMilestoneService(registry *player.Registry, changes DirtyMarker, stats StatsReader, catalog []Milestone, opts ...Option) *MilestoneService {
	return &MilestoneService{
		common:   newCommon("milestones", opts),
		registry: registry,
		changes:  changes,
		stats:    stats,
		catalog:  catalog,
	}
}

// Catalog returns the configured milestones in display order.
func (s *MilestoneService) Catalog() []Milestone {
	out := make([]Milestone, len(s.catalog))
	copy(out, s.catalog)
	return out
}

// Check completes every reached milestone and credits its rewards. Each
// milestone is granted at most once per player.
func (s *MilestoneService) Check(ctx context.Context, id domain.Identity) ([]Milestone, error) {
	st, err := s.stats.Stats(ctx, id)
	if err != nil {
		return nil, err
	}
	var reached []Milestone
	for _, m := range s.catalog {
		if m.value(st) >= m.Target {
			reached = append(reached, m)
		}
	}
	if len(reached) == 0 {
		return nil, nil
	}

	var granted []Milestone
	err = s.registry.With(ctx, id, func(p *domain.Profile, _ player.Session) error {
		done := completedSet(p)
		for _, m := range reached {
			if done[m.ID] {
				continue
			}
			for c, amt := range m.Rewards {
				credit(p, c, amt)
			}
			p.CompletedMilestones = append(p.CompletedMilestones, m.ID)
			done[m.ID] = true
			granted = append(granted, m)
		}
		sort.Strings(p.CompletedMilestones)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(granted) > 0 {
		s.changes.MarkDirty(id)
		for _, m := range granted {
			s.log.Info("milestone completed", "player", id, "milestone", m.ID)
		}
	}
	return granted, nil
}

func completedSet(p *domain.Profile) map[string]bool {
	done := make(map[string]bool, len(p.CompletedMilestones))
	for _, id := range p.CompletedMilestones {
		done[id] = true
	}
	return done
}

// MilestoneProgress is one row of the progress listing.
type MilestoneProgress struct {
	Milestone
	Current   float64 `json:"current"`
	Completed bool    `json:"completed"`
}

// Progress lists every milestone with the player's current value.
func (s *MilestoneService) Progress(ctx context.Context, id domain.Identity) ([]MilestoneProgress, error) {
	st, err := s.stats.Stats(ctx, id)
	if err != nil {
		return nil, err
	}
	var done map[string]bool
	err = s.registry.With(ctx, id, func(p *domain.Profile, _ player.Session) error {
		done = completedSet(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]MilestoneProgress, 0, len(s.catalog))
	for _, m := range s.catalog {
		out = append(out, MilestoneProgress{Milestone: m, Current: m.value(st), Completed: done[m.ID]})
	}
	return out, nil
}
