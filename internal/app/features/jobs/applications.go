// internal/app/features/jobs/applications.go
package jobs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/consultancy/internal/app/features/shared"
	applicationstore "github.com/dalemusser/consultancy/internal/app/store/applications"
	"github.com/dalemusser/consultancy/internal/app/system/respond"
	"github.com/dalemusser/consultancy/internal/app/system/saga"
	"github.com/dalemusser/consultancy/internal/app/system/timeouts"
	"github.com/dalemusser/consultancy/internal/app/system/upload"
	"github.com/dalemusser/consultancy/internal/app/system/validate"
	"github.com/dalemusser/consultancy/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type applyForm struct {
	Name        string `json:"name" validate:"required,max=120"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"max=40"`
	CoverLetter string `json:"cover_letter" validate:"max=5000"`
}

type applicationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=received reviewing shortlisted rejected hired"`
}

// Apply accepts a multipart application with a "cv" file (PDF or Word).
// The CV is stored first; if the record cannot be written it is removed.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IDParam(w, r)
	if !ok {
		return
	}
	if err := upload.ParseForm(w, r, h.MaxBytes); err != nil {
		shared.UploadError(w, r, h.Log, err)
		return
	}
	form := applyForm{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Email:       strings.TrimSpace(r.FormValue("email")),
		Phone:       strings.TrimSpace(r.FormValue("phone")),
		CoverLetter: strings.TrimSpace(r.FormValue("cover_letter")),
	}
	if err := validate.Struct(form); err != nil {
		respond.BadRequest(w, err)
		return
	}
	cv, err := upload.Read(r, "cv", upload.Document)
	if err != nil {
		shared.UploadError(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	job, err := h.Jobs.GetByID(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, jobEntity, err, zap.String("id", id.Hex()))
		return
	}
	if !job.IsOpen(time.Now()) {
		respond.BadRequest(w, errors.New("this position is no longer accepting applications"))
		return
	}

	sg := saga.New("jobs.apply", h.Log)
	key, url, err := upload.Put(ctx, h.Files, sg, cvPrefix, cv)
	if err != nil {
		respond.Internal(w, r, h.Log, "store cv failed", err, zap.String("job_id", id.Hex()))
		return
	}
	app, err := h.Apps.Create(ctx, models.JobApplication{
		JobID:       job.ID,
		JobTitle:    job.Title,
		Name:        form.Name,
		Email:       form.Email,
		Phone:       form.Phone,
		CoverLetter: form.CoverLetter,
		CVKey:       key,
		CVName:      cv.Name,
		CVURL:       url,
	})
	if err != nil {
		respond.Internal(w, r, h.Log, "create application failed", sg.Fail(ctx, err), zap.String("job_id", id.Hex()))
		return
	}
	h.Log.Info("job application received", zap.String("job_id", id.Hex()), zap.String("application_id", app.ID.Hex()))
	respond.Created(w, app)
}

// ListApplications serves GET /admin/jobs/applications?job_id=...&status=...
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var jobID primitive.ObjectID
	if s := q.Get("job_id"); s != "" {
		oid, err := validate.ObjectID("job_id", s)
		if err != nil {
			respond.BadRequest(w, err)
			return
		}
		jobID = oid
	}
	status := q.Get("status")
	if status != "" && !models.IsValidApplicationStatus(status) {
		respond.BadRequest(w, validate.Errors{"status": "is invalid"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	items, err := h.Apps.List(ctx, jobID, status)
	if err != nil {
		respond.Internal(w, r, h.Log, "list applications failed", err)
		return
	}
	respond.OK(w, items)
}

func (h *Handler) ShowApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.Param(w, r, "appID")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	app, err := h.Apps.GetByID(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, appEntity, err, zap.String("id", id.Hex()))
		return
	}
	respond.OK(w, app)
}

func (h *Handler) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.Param(w, r, "appID")
	if !ok {
		return
	}
	var req applicationStatusRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	app, err := h.Apps.UpdateStatus(ctx, id, req.Status)
	if errors.Is(err, applicationstore.ErrInvalidStatus) {
		respond.BadRequest(w, err)
		return
	}
	if err != nil {
		shared.StoreError(w, r, h.Log, appEntity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.StatusChanged(ctx, r, appEntity, id.Hex(), app.Status)
	respond.OK(w, app)
}

// DeleteApplication removes the stored CV and then the record. When the
// CV cannot be removed the record is kept and the error returned, so the
// admin can retry without losing track of the file.
func (h *Handler) DeleteApplication(ctx context.Context, appID primitive.ObjectID, cvKey string) error {
	if err := shared.RemoveFiles(ctx, h.Files, cvKey); err != nil {
		return fmt.Errorf("delete cv: %w", err)
	}
	return h.Apps.Delete(ctx, appID)
}

func (h *Handler) RemoveApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.Param(w, r, "appID")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	app, err := h.Apps.GetByID(ctx, id)
	if err != nil {
		shared.StoreError(w, r, h.Log, appEntity, err, zap.String("id", id.Hex()))
		return
	}
	if err := h.DeleteApplication(ctx, id, app.CVKey); err != nil {
		shared.StoreError(w, r, h.Log, appEntity, err, zap.String("id", id.Hex()))
		return
	}
	h.Audit.ContentDeleted(ctx, r, appEntity, id.Hex())
	respond.NoContent(w)
}
