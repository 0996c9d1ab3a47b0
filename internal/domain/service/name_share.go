package service

import (
	"math"
	"sort"

	"NeighborhoodMap-App/internal/domain/model"
)

// ComputeShares 名前リスト内の各名前の割合（%）を求め、降順に並べる
// 同率の場合は最初に現れた順。Color は呼び出し側で設定する
func ComputeShares(names []string) []model.NameShare {
	if len(names) == 0 {
		return []model.NameShare{}
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, name := range names {
		if _, ok := counts[name]; !ok {
			order = append(order, name)
		}
		counts[name]++
	}

	total := float64(len(names))
	shares := make([]model.NameShare, 0, len(order))
	for _, name := range order {
		shares = append(shares, model.NameShare{
			Name:       name,
			Percentage: int(math.Round(float64(counts[name]) / total * 100)),
		})
	}

	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Percentage > shares[j].Percentage
	})
	return shares
}
