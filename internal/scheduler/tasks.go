package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskQualityRecalculate = "catalog.quality.recalculate"

type QualityRecalculatePayload struct {
	PropertyID string `json:"propertyId"`
	TenantID   string `json:"tenantId"`
}

func NewQualityRecalculateTask(payload QualityRecalculatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQualityRecalculate, data), nil
}

func ParseQualityRecalculatePayload(task *asynq.Task) (QualityRecalculatePayload, error) {
	var payload QualityRecalculatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return QualityRecalculatePayload{}, err
	}
	return payload, nil
}
