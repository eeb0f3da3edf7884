package domain

import (
	"fmt"
	"time"
)

// AuditStatus is the outcome recorded for one provider interaction.
type AuditStatus string

const (
	AuditStatusSuccess   AuditStatus = "success"
	AuditStatusError     AuditStatus = "error"
	AuditStatusProcessed AuditStatus = "processed"
	AuditStatusUnhandled AuditStatus = "unhandled"
)

// UnknownOrderID is recorded when a webhook could not be decoded far enough
// to learn which order it belongs to.
const UnknownOrderID = "unknown"

// isoMillis matches JavaScript's Date.toISOString output.
const isoMillis = "2006-01-02T15:04:05.000Z"

// AuditRecord describes one provider interaction: its inputs, outputs and outcome.
type AuditRecord struct {
	TransactionID string      `json:"transactionId"`
	OrderID       string      `json:"orderId"`
	Provider      string      `json:"provider"`
	Endpoint      string      `json:"endpoint"`
	Method        string      `json:"method"`
	StatusCode    int         `json:"statusCode"`
	Status        AuditStatus `json:"status"`
	DurationMs    int64       `json:"durationMs"`
	IPAddress     string      `json:"ipAddress,omitempty"`
	RequestBody   any         `json:"requestBody,omitempty"`
	ResponseBody  any         `json:"responseBody,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// IndexedAuditEntry is the compact form kept in the indexed store, keyed by
// TransactionID. Bodies live only in the archive, referenced by LogURL.
type IndexedAuditEntry struct {
	TransactionID string      `json:"transactionId"`
	Timestamp     string      `json:"timestamp"`
	OrderID       string      `json:"orderId"`
	Provider      string      `json:"provider"`
	Endpoint      string      `json:"endpoint"`
	Method        string      `json:"method"`
	StatusCode    int         `json:"statusCode"`
	Status        AuditStatus `json:"status"`
	DurationMs    int64       `json:"durationMs"`
	IPAddress     string      `json:"ipAddress,omitempty"`
	LogURL        string      `json:"logUrl"`
	CreatedAt     string      `json:"createdAt"`
	UpdatedAt     string      `json:"updatedAt"`
}

// ArchivedAuditEntry is the full-fidelity form written to the archive.
type ArchivedAuditEntry struct {
	TransactionID string      `json:"transactionId"`
	Timestamp     string      `json:"timestamp"`
	OrderID       string      `json:"orderId"`
	Provider      string      `json:"provider"`
	Endpoint      string      `json:"endpoint"`
	Method        string      `json:"method"`
	StatusCode    int         `json:"statusCode"`
	Status        AuditStatus `json:"status"`
	DurationMs    int64       `json:"durationMs"`
	IPAddress     string      `json:"ipAddress,omitempty"`
	RequestBody   any         `json:"requestBody"`
	ResponseBody  any         `json:"responseBody"`
	CreatedAt     string      `json:"createdAt"`
	UpdatedAt     string      `json:"updatedAt"`
}

// Indexed derives the compact form. logURL points at the archived copy.
func (r *AuditRecord) Indexed(now time.Time, logURL string) IndexedAuditEntry {
	created, updated := r.stamps(now)
	return IndexedAuditEntry{
		TransactionID: r.TransactionID,
		Timestamp:     now.UTC().Format(isoMillis),
		OrderID:       r.OrderID,
		Provider:      r.Provider,
		Endpoint:      r.Endpoint,
		Method:        r.Method,
		StatusCode:    r.StatusCode,
		Status:        r.Status,
		DurationMs:    r.DurationMs,
		IPAddress:     r.IPAddress,
		LogURL:        logURL,
		CreatedAt:     created,
		UpdatedAt:     updated,
	}
}

// Archived derives the full form.
func (r *AuditRecord) Archived(now time.Time) ArchivedAuditEntry {
	created, updated := r.stamps(now)
	return ArchivedAuditEntry{
		TransactionID: r.TransactionID,
		Timestamp:     now.UTC().Format(isoMillis),
		OrderID:       r.OrderID,
		Provider:      r.Provider,
		Endpoint:      r.Endpoint,
		Method:        r.Method,
		StatusCode:    r.StatusCode,
		Status:        r.Status,
		DurationMs:    r.DurationMs,
		IPAddress:     r.IPAddress,
		RequestBody:   r.RequestBody,
		ResponseBody:  r.ResponseBody,
		CreatedAt:     created,
		UpdatedAt:     updated,
	}
}

func (r *AuditRecord) stamps(now time.Time) (string, string) {
	created, updated := r.CreatedAt, r.UpdatedAt
	if created.IsZero() {
		created = now
	}
	if updated.IsZero() {
		updated = created
	}
	return created.UTC().Format(isoMillis), updated.UTC().Format(isoMillis)
}

// ArchivePath is the archive location for a transaction: yyyy/mm/dd/<tx>.json
// on the UTC calendar.
func ArchivePath(now time.Time, transactionID string) string {
	return fmt.Sprintf("%s/%s.json", now.UTC().Format("2006/01/02"), transactionID)
}

// SynthesizedTransactionID names an attempt that has no provider-issued id.
func SynthesizedTransactionID(orderID string, now time.Time) string {
	return fmt.Sprintf("ERROR#%s-%s", orderID, now.UTC().Format(isoMillis))
}
