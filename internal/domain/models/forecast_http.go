package models

// ForecastRequest is the query of GET /api/forecast.
type ForecastRequest struct {
	Instrument string `query:"instrument" json:"instrument" validate:"required,max=64"`
	Months     int    `query:"months" json:"months" default:"1" validate:"gte=1,lte=120"`
	Method     string `query:"method" json:"method" default:"linregression" validate:"oneof=linregression expsmoothing"`
}
