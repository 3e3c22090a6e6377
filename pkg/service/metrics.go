package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agribotics/agribot/pkg/completion"
)

var (
	chatExchangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agribot_chat_exchanges_total",
			Help: "Total number of completed chat exchanges by result",
		},
		[]string{"result"},
	)

	chatValidationRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agribot_chat_validation_rejections_total",
			Help: "Total number of chat requests rejected before processing",
		},
		[]string{"reason"},
	)

	detectedLanguagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agribot_detected_languages_total",
			Help: "Total number of chat messages by detected language",
		},
		[]string{"language"},
	)
)

func recordExchange(o completion.Outcome) {
	result := "success"
	if o.IsError {
		result = string(o.Kind)
	}
	chatExchangesTotal.WithLabelValues(result).Inc()
}

func recordValidationRejection(reason string) {
	chatValidationRejectionsTotal.WithLabelValues(reason).Inc()
}

func recordDetectedLanguage(language string) {
	detectedLanguagesTotal.WithLabelValues(language).Inc()
}
