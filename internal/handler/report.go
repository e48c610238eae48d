package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ternakhub/livestock-api/internal/service/report"
)

type reportService interface {
	Summary(ctx context.Context, from, to *time.Time) (*report.Summary, error)
}

type ReportHandler struct {
	reports reportService
}

func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

type herdCountDTO struct {
	Species string `json:"species"`
	Status  string `json:"status"`
	Count   int    `json:"count"`
}

type summaryDTO struct {
	IncomeTotal  decimal.Decimal `json:"income_total"`
	OutcomeTotal decimal.Decimal `json:"outcome_total"`
	Net          decimal.Decimal `json:"net"`
	Herd         []herdCountDTO  `json:"herd"`
}

func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var fields []FieldError
	from := parseTimeParam(q.Get("from"), "from", &fields)
	to := parseTimeParam(q.Get("to"), "to", &fields)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	s, err := h.reports.Summary(r.Context(), from, to)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	herd := make([]herdCountDTO, 0, len(s.Herd))
	for _, c := range s.Herd {
		herd = append(herd, herdCountDTO{
			Species: string(c.Species),
			Status:  string(c.Status),
			Count:   c.Count,
		})
	}

	RespondSuccess(w, http.StatusOK, summaryDTO{
		IncomeTotal:  s.IncomeTotal,
		OutcomeTotal: s.OutcomeTotal,
		Net:          s.Net,
		Herd:         herd,
	})
}
