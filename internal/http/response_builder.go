// Package http serves the ledger as an HTMX web page.
//
// This file implements the builder used for every htmx response: status,
// body and the HX-Trigger events the page listens for.

package http

import (
	"encoding/json"
	"html/template"
	"net/http"

	"bilancio/internal/core"
)

// Event names dispatched to the page through HX-Trigger.
const (
	EventTransactionCreated = "transaction:created"
	EventTransactionDeleted = "transaction:deleted"
	EventIncomeRequired     = "income:required"
	EventFormReset          = "form:reset"
	EventNotification       = "show-notification"
)

// HTMXResponseBuilder provides a fluent API for building HTMX responses.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named event with optional data to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerTransactionCreated tells the balance, list and chart panels to reload.
func (b *HTMXResponseBuilder) TriggerTransactionCreated(kind core.Kind) *HTMXResponseBuilder {
	return b.Trigger(EventTransactionCreated, map[string]string{"kind": kind.String()})
}

func (b *HTMXResponseBuilder) TriggerTransactionDeleted(index int) *HTMXResponseBuilder {
	return b.Trigger(EventTransactionDeleted, map[string]any{"index": index})
}

// TriggerIncomeRequired makes the form switch back to Income and disable the
// Expense option.
func (b *HTMXResponseBuilder) TriggerIncomeRequired() *HTMXResponseBuilder {
	return b.Trigger(EventIncomeRequired, map[string]string{"kind": core.Income.String()})
}

// TriggerFormReset clears the amount field and keeps date, kind and category.
func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger(EventFormReset, struct{}{})
}

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

func (b *HTMXResponseBuilder) TriggerNotification(notifType NotificationType, title, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger(EventNotification, map[string]any{
		"type":     string(notifType),
		"title":    title,
		"message":  message,
		"duration": durationMs,
	})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(title, message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, title, message, 3000)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(title, message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, title, message, 5000)
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *HTMXResponseBuilder) Body(content []byte) *HTMXResponseBuilder {
	b.body = content
	return b
}

// BodyHTML sets the response body as HTML content.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = []byte(html)
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		if triggerJSON, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse creates an HTML error fragment. The message is escaped.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`)
}

// AppErrorResponse renders an AppError as an error fragment plus a
// notification carrying the same text.
func AppErrorResponse(appErr *AppError) *HTMXResponseBuilder {
	resp := ErrorResponse(appErr.Status, appErr.Message).Header("X-Error-Code", appErr.Code)
	if appErr.Status == http.StatusConflict || appErr.Status == http.StatusBadRequest {
		return resp.TriggerNotification(NotificationWarning, appErr.Title, appErr.Message, 5000)
	}
	return resp.TriggerErrorNotification(appErr.Title, appErr.Message)
}
