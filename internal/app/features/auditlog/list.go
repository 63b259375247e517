// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/consultancy/internal/app/store/audit"
	"github.com/dalemusser/consultancy/internal/app/system/paging"
	"github.com/dalemusser/consultancy/internal/app/system/respond"
	"github.com/dalemusser/consultancy/internal/app/system/timeouts"
	"github.com/dalemusser/consultancy/internal/app/system/validate"
)

type listResponse struct {
	Events []audit.Event `json:"events"`
	Total  int64         `json:"total"`
	Range  paging.Range  `json:"range"`
}

// ServeList handles GET /admin/audit?category=&event_type=&entity=&start_date=&end_date=&start=.
// Dates are YYYY-MM-DD; end_date includes the whole day.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start := paging.ParseStart(r)
	filter := audit.QueryFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("event_type")),
		Entity:    strings.TrimSpace(q.Get("entity")),
		Limit:     paging.PageSize,
		Offset:    int64(start - 1),
	}

	errs := validate.Errors{}
	if s := strings.TrimSpace(q.Get("start_date")); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			filter.StartTime = &t
		} else {
			errs["start_date"] = "must be YYYY-MM-DD"
		}
	}
	if s := strings.TrimSpace(q.Get("end_date")); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			endOfDay := t.Add(24*time.Hour - time.Nanosecond)
			filter.EndTime = &endOfDay
		} else {
			errs["end_date"] = "must be YYYY-MM-DD"
		}
	}
	if len(errs) > 0 {
		respond.BadRequest(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	events, err := h.Store.Query(ctx, filter)
	if err != nil {
		respond.Internal(w, r, h.Log, "audit log query failed", err)
		return
	}
	total, err := h.Store.Count(ctx, filter)
	if err != nil {
		respond.Internal(w, r, h.Log, "audit log count failed", err)
		return
	}
	respond.OK(w, listResponse{
		Events: events,
		Total:  total,
		Range:  paging.ComputeRange(start, len(events)),
	})
}
