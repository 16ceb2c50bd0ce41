package sync

import "github.com/iudanet/postboy/internal/models"

// AutoResolve derives resolutions from the configured strategy.
// It returns false for StrategyManual: such conflicts wait for a decision
// supplied through Service.ResolveConflicts.
func AutoResolve(strategy models.ConflictStrategy, conflicts []models.ConflictInfo) ([]models.ConflictResolution, bool) {
	if strategy == models.StrategyManual {
		return nil, false
	}

	resolutions := make([]models.ConflictResolution, 0, len(conflicts))
	for i := range conflicts {
		resolutions = append(resolutions, resolveOne(strategy, &conflicts[i]))
	}
	return resolutions, true
}

func resolveOne(strategy models.ConflictStrategy, c *models.ConflictInfo) models.ConflictResolution {
	switch strategy {
	case models.StrategyRemoteWins:
		return models.KeepRemote(c.ConflictID)
	case models.StrategyLastWriteWins:
		// Сравниваем время, а не версии; при равенстве остается локальная
		if c.RemoteTimestamp.After(c.LocalTimestamp) {
			return models.KeepRemote(c.ConflictID)
		}
		return models.KeepLocal(c.ConflictID)
	default:
		return models.KeepLocal(c.ConflictID)
	}
}
