package endpoints

import (
	"github.com/jackzampolin/pagefit/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&StatusEndpoint{},

		// Document endpoints
		&SubmitDocumentEndpoint{},
		&GetDocumentEndpoint{},

		// Measurement and pagination endpoints
		&MeasurementsEndpoint{},
		&RefreshEndpoint{},
		&PaginationEndpoint{},
		&PaginateEndpoint{},

		// Settings endpoints
		&ListSettingsEndpoint{},
		&GetSettingEndpoint{},
		&ListPapersEndpoint{},
	}
}
