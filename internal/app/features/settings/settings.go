// internal/app/features/settings/settings.go
package settings

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/consultancy/internal/app/features/shared"
	settingsstore "github.com/dalemusser/consultancy/internal/app/store/settings"
	"github.com/dalemusser/consultancy/internal/app/system/filestore"
	"github.com/dalemusser/consultancy/internal/app/system/respond"
	"github.com/dalemusser/consultancy/internal/app/system/timeouts"
	"github.com/dalemusser/consultancy/internal/app/system/upload"
	"github.com/dalemusser/consultancy/internal/app/system/validate"
)

const prefix = filestore.PrefixSettings

// patchRequest mirrors settingsstore.Patch. Omitted fields are unchanged.
type patchRequest struct {
	SiteName     *string           `json:"site_name" validate:"omitempty,min=1,max=120"`
	Tagline      *string           `json:"tagline" validate:"omitempty,max=200"`
	HeroTitle    *string           `json:"hero_title" validate:"omitempty,max=200"`
	HeroSubtitle *string           `json:"hero_subtitle" validate:"omitempty,max=400"`
	ContactEmail *string           `json:"contact_email" validate:"omitempty,email"`
	ContactPhone *string           `json:"contact_phone" validate:"omitempty,max=40"`
	WhatsApp     *string           `json:"whatsapp" validate:"omitempty,max=40"`
	Address      *string           `json:"address" validate:"omitempty,max=400"`
	SocialLinks  map[string]string `json:"social_links" validate:"omitempty,dive,keys,oneof=facebook instagram tiktok youtube linkedin twitter,endkeys,url"`
	Destinations []string          `json:"destinations" validate:"omitempty,dive,required,max=80"`
	FooterHTML   *string           `json:"footer_html"`
	ChatEnabled  *bool             `json:"chat_enabled"`
	ChatGreeting *string           `json:"chat_greeting" validate:"omitempty,max=300"`
}

func (req patchRequest) patch() settingsstore.Patch {
	p := settingsstore.Patch{
		SiteName:     req.SiteName,
		Tagline:      req.Tagline,
		HeroTitle:    req.HeroTitle,
		HeroSubtitle: req.HeroSubtitle,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		WhatsApp:     req.WhatsApp,
		Address:      req.Address,
		SocialLinks:  req.SocialLinks,
		FooterHTML:   req.FooterHTML,
		ChatEnabled:  req.ChatEnabled,
		ChatGreeting: req.ChatGreeting,
	}
	if req.Destinations != nil {
		p.Destinations = make([]string, 0, len(req.Destinations))
		for _, d := range req.Destinations {
			p.Destinations = append(p.Destinations, strings.TrimSpace(d))
		}
	}
	return p
}

// Show returns the settings, creating the defaults on first use.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	s, err := h.Store.Get(ctx)
	if err != nil {
		respond.Internal(w, r, h.Log, "load settings failed", err)
		return
	}
	respond.OK(w, s)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	s, err := h.Store.Update(ctx, req.patch(), shared.ActorName(r))
	if err != nil {
		respond.Internal(w, r, h.Log, "save settings failed", err)
		return
	}
	h.Audit.SettingsSaved(ctx, r)
	respond.OK(w, s)
}

// UploadLogo replaces the site logo with the multipart "logo" field.
func (h *Handler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	if err := upload.ParseForm(w, r, h.MaxBytes); err != nil {
		shared.UploadError(w, r, h.Log, err)
		return
	}
	f, err := upload.Read(r, "logo", upload.Image)
	if err != nil {
		shared.UploadError(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	actor := shared.ActorName(r)
	_, _, err = shared.ReplaceFile(ctx, h.Files, h.Log, "settings.logo", prefix, f,
		func(ctx context.Context, key, url string) (string, error) {
			prev, err := h.Store.SetLogo(ctx, key, url, actor)
			return prev.LogoKey, err
		})
	if err != nil {
		respond.Internal(w, r, h.Log, "save logo failed", err)
		return
	}
	s, err := h.Store.Get(ctx)
	if err != nil {
		respond.Internal(w, r, h.Log, "load settings failed", err)
		return
	}
	h.Audit.SettingsSaved(ctx, r)
	respond.OK(w, s)
}
