package web

import (
	"context"

	"github.com/artpar/newsdemo/domain/auth"
)

// PageData holds common data for all pages.
type PageData struct {
	Title       string
	AppName     string
	User        *UserInfo
	CurrentPath string
	Flash       *FlashMessage
}

// UserInfo represents the signed-in user.
type UserInfo struct {
	Email string
	Name  string
}

// FlashMessage is the acknowledgment shown after an action.
type FlashMessage struct {
	Type    string // "success", "error"
	Message string
}

// newPageData creates base page data. The session is read through the
// session hook, so a fresh value is used right after a mutation invalidates it.
func (h *Handler) newPageData(ctx context.Context, title, path string) PageData {
	data := PageData{
		Title:       title,
		AppName:     h.appName,
		CurrentPath: path,
	}

	res := use(ctx, h.auth.CurrentUser(), h.wait)
	if u, ok := auth.CurrentUser(res.Data); ok && res.Err == nil {
		data.User = &UserInfo{Email: u.Email, Name: u.Name}
	}
	return data
}

func success(msg string) *FlashMessage {
	return &FlashMessage{Type: "success", Message: msg}
}

func failure(msg string) *FlashMessage {
	return &FlashMessage{Type: "error", Message: msg}
}
