package quota

import (
	"math"

	"lingoclass/internal/config"
	"lingoclass/internal/domain/models"
)

// Status classifies usage against a balance:
//
//	active     used < 80% of total
//	warning    80% <= used <= 100%
//	buffer     total < used < effective limit
//	exhausted  used >= effective limit, or no points at all
func Status(total, used int64) string {
	switch {
	case total <= 0 || used >= EffectiveLimit(total):
		return models.PointsStatusExhausted
	case used > total:
		return models.PointsStatusBuffer
	case used*100 >= total*config.WarningThresholdPercentage:
		return models.PointsStatusWarning
	default:
		return models.PointsStatusActive
	}
}

// PointsInfo builds the reporting view of a balance.
func PointsInfo(balance *models.PointsBalance) *models.PointsInfo {
	total, used := balance.TotalPoints, balance.UsedPoints
	limit := EffectiveLimit(total)
	buffer := limit - total

	info := &models.PointsInfo{
		TotalPoints:     total,
		UsedPoints:      used,
		RemainingPoints: max(total-used, 0),
		EffectiveLimit:  limit,
		BufferPoints:    buffer,
		BufferRemaining: min(max(limit-max(used, total), 0), buffer),
		Status:          Status(total, used),
		LastUpdated:     balance.LastUpdated,
	}
	if total > 0 {
		info.UsagePercentage = math.Round(float64(used)/float64(total)*10000) / 100
	}
	return info
}
