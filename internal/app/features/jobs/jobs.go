// internal/app/features/jobs/jobs.go
package jobs

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/consultancy/internal/app/features/shared"
	"github.com/dalemusser/consultancy/internal/app/system/respond"
	"github.com/dalemusser/consultancy/internal/app/system/timeouts"
	"github.com/dalemusser/consultancy/internal/app/system/validate"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"go.uber.org/zap"
)

type jobRequest struct {
	Title          string     `json:"title" validate:"required,max=200"`
	Department     string     `json:"department" validate:"max=120"`
	Location       string     `json:"location" validate:"max=120"`
	EmploymentType string     `json:"employment_type" validate:"omitempty,oneof=full-time part-time contract internship"`
	Description    string     `json:"description" validate:"required"`
	Requirements   []string   `json:"requirements"`
	SalaryRange    string     `json:"salary_range" validate:"max=120"`
	Deadline       *time.Time `json:"deadline"`
	IsActive       *bool      `json:"is_active"`
}

func (req jobRequest) model() models.Job {
	j := models.Job{
		Title:          req.Title,
		Department:     req.Department,
		Location:       req.Location,
		EmploymentType: req.EmploymentType,
		Description:    req.Description,
		Requirements:   req.Requirements,
		SalaryRange:    req.SalaryRange,
		Deadline:       req.Deadline,
		IsActive:       true,
	}
	if req.IsActive != nil {
		j.IsActive = *req.IsActive
	}
	return j
}

// jobRow is a job in the admin list with its application count.
type jobRow struct {
	models.Job
	Applications int64 `json:"applications"`
}

func (h *Handler) ListOpen(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	items, err := h.Jobs.ListOpen(ctx, time.Now())
	if err != nil {
		respond.Internal(w, r, h.Log, "list open jobs failed", err)
		return
	}
	respond.OK(w, items)
}

// ShowOpen returns a job only while it accepts applications.
func (h *Handler) ShowOpen(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	j, err := h.Jobs.GetByID(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, jobEntity, err, zap.String("id", id.Hex()))
		return
	}
	if !j.IsOpen(time.Now()) {
		respond.NotFound(w, jobEntity)
		return
	}
	respond.OK(w, j)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	items, err := h.Jobs.List(ctx)
	if err != nil {
		respond.Internal(w, r, h.Log, "list jobs failed", err)
		return
	}
	counts, err := h.Apps.CountByJob(ctx)
	if err != nil {
		respond.Internal(w, r, h.Log, "count applications failed", err)
		return
	}
	rows := make([]jobRow, 0, len(items))
	for _, j := range items {
		rows = append(rows, jobRow{Job: j, Applications: counts[j.ID]})
	}
	respond.OK(w, rows)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	j, err := h.Jobs.GetByID(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, jobEntity, err, zap.String("id", id.Hex()))
		return
	}
	respond.OK(w, j)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	j, err := h.Jobs.Create(ctx, req.model())
	if err != nil {
		respond.Internal(w, r, h.Log, "create job failed", err)
		return
	}
	h.Audit.ContentCreated(ctx, r, jobEntity, j.ID.Hex())
	respond.Created(w, j)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	var req jobRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	j, err := h.Jobs.Update(ctx, id, req.model())
	if err != nil {
		shared.StoreError(w, r, h.Log, jobEntity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentUpdated(ctx, r, jobEntity, id.Hex())
	respond.OK(w, j)
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	j, err := h.Jobs.Toggle(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, jobEntity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentUpdated(ctx, r, jobEntity, id.Hex())
	respond.OK(w, j)
}

// Delete removes the job posting. Its applications stay, carrying the job
// title they were submitted under.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.Jobs.Delete(ctx, id); err != nil {
		shared.StoreError(w, r, h.Log, jobEntity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentDeleted(ctx, r, jobEntity, id.Hex())
	respond.NoContent(w)
}
