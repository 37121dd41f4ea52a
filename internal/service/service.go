package service

import (
	"github.com/Aadya-Jha/AgriCare-sub001/internal/domain"
)

// JobStore is re-exported from domain for convenience
type JobStore = domain.JobStore

// PredictionLogRepository is re-exported from domain for convenience
type PredictionLogRepository = domain.PredictionLogRepository
