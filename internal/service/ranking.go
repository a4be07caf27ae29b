package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/ligtascab/ligtascab/internal/model"
	"github.com/ligtascab/ligtascab/pkg/geo"
)

// TerminalSource supplies the fixed terminal list with availability counts.
type TerminalSource interface {
	ListTerminals(ctx context.Context) ([]model.Terminal, error)
}

// ─── RankingService ─────────────────────────────────────────

// RankingService orders terminals by great-circle distance from a reference
// point. The full list is always returned — no distance cutoff — with the
// Haversine distance in kilometers attached to each entry.
type RankingService struct {
	terminals TerminalSource
}

// NewRankingService creates a ranking service over the given registry.
func NewRankingService(terminals TerminalSource) *RankingService {
	return &RankingService{terminals: terminals}
}

// NearestTerminals returns every terminal ordered by ascending distance
// from ref. The sort is stable, so equidistant terminals keep their
// registry order.
func (s *RankingService) NearestTerminals(ctx context.Context, ref model.Location) ([]model.RankedTerminal, error) {
	terminals, err := s.terminals.ListTerminals(ctx)
	if err != nil {
		return nil, fmt.Errorf("rank terminals: %w", err)
	}

	ranked := make([]model.RankedTerminal, 0, len(terminals))
	for _, t := range terminals {
		ranked = append(ranked, model.RankedTerminal{
			Terminal:   t,
			DistanceKm: geo.HaversineKm(ref, t.Position()),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	return ranked, nil
}
