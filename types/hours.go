package types

import (
	"strings"

	"github.com/tastemichigan/api-go/models"
	"gorm.io/datatypes"
)

func datatypesHours(h models.WeeklyHours) datatypes.JSONType[models.WeeklyHours] {
	normalized := make(models.WeeklyHours, len(h))
	for day, hours := range h {
		normalized[strings.ToLower(strings.TrimSpace(day))] = hours
	}
	return datatypes.NewJSONType(normalized)
}
