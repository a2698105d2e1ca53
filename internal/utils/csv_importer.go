package utils

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/models"
	"github.com/ArowuTest/subscriber-draw-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// ImportResult summarises a subscriber CSV import
type ImportResult struct {
	TotalRows int      `json:"totalRows"`
	Created   int      `json:"created"`
	Updated   int      `json:"updated"`
	Errors    []string `json:"errors"`
}

// SubscriberImporter loads subscribers from a CSV export of the billing system
type SubscriberImporter struct {
	subscriberRepo repositories.SubscriberRepository
	now            func() time.Time
}

// NewSubscriberImporter creates a new SubscriberImporter
func NewSubscriberImporter(subscriberRepo repositories.SubscriberRepository) *SubscriberImporter {
	return &SubscriberImporter{subscriberRepo: subscriberRepo, now: time.Now}
}

// Import reads CSV rows and creates or updates subscribers keyed by email.
// Row-level problems are collected in the result; only an unreadable header fails the import.
func (i *SubscriberImporter) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	emailIdx := findColumnIndex(header, []string{"Email", "E-mail", "Contact"})
	nameIdx := findColumnIndex(header, []string{"Name", "Full Name", "Subscriber"})
	statusIdx := findColumnIndex(header, []string{"Subscribed", "Status", "Active"})
	dateIdx := findColumnIndex(header, []string{"Subscribed Date", "Start Date", "Date"})
	wonIdx := findColumnIndex(header, []string{"Last Won", "Last Won Date"})

	if emailIdx == -1 {
		return nil, errors.New("email column not found in CSV")
	}

	result := &ImportResult{Errors: []string{}}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		result.TotalRows++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", result.TotalRows, err))
			continue
		}

		email := strings.ToLower(cell(row, emailIdx))
		if email == "" || !strings.Contains(email, "@") {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: invalid email %q", result.TotalRows, email))
			continue
		}

		subscribed := true
		if statusIdx != -1 && cell(row, statusIdx) != "" {
			subscribed = parseBool(cell(row, statusIdx))
		}

		subscribedAt := i.now()
		if dateIdx != -1 && cell(row, dateIdx) != "" {
			if subscribedAt, err = parseDate(cell(row, dateIdx)); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", result.TotalRows, err))
				continue
			}
		}

		var lastWonAt *time.Time
		if wonIdx != -1 && cell(row, wonIdx) != "" {
			won, err := parseDate(cell(row, wonIdx))
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", result.TotalRows, err))
				continue
			}
			lastWonAt = &won
		}

		existing, err := i.subscriberRepo.FindByEmail(ctx, email)
		switch {
		case err == nil:
			existing.IsSubscribed = subscribed
			if nameIdx != -1 && cell(row, nameIdx) != "" {
				existing.Name = cell(row, nameIdx)
			}
			if lastWonAt != nil {
				existing.LastWonAt = lastWonAt
			}
			if err := i.subscriberRepo.Update(ctx, existing); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: failed to update subscriber: %v", result.TotalRows, err))
				continue
			}
			result.Updated++
		case errors.Is(err, mongo.ErrNoDocuments):
			subscriber := &models.Subscriber{
				Name:         cell(row, nameIdx),
				Email:        email,
				IsSubscribed: subscribed,
				SubscribedAt: subscribedAt,
				LastWonAt:    lastWonAt,
			}
			if err := i.subscriberRepo.Create(ctx, subscriber); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: failed to create subscriber: %v", result.TotalRows, err))
				continue
			}
			result.Created++
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: lookup failed: %v", result.TotalRows, err))
		}
	}

	slog.Info("Subscriber import finished", "rows", result.TotalRows, "created", result.Created, "updated", result.Updated, "errors", len(result.Errors))
	return result, nil
}

// findColumnIndex finds the index of the first header matching one of names, ignoring case
func findColumnIndex(header []string, names []string) int {
	for i, column := range header {
		for _, name := range names {
			if strings.EqualFold(strings.TrimSpace(column), name) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "yes", "y", "true", "1", "active":
		return true
	}
	return false
}

// parseDate parses a date string in various formats
func parseDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	formats := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02 15:04:05",
		"02/01/2006",
		"Jan 2, 2006",
		"2 Jan 2006",
	}

	for _, format := range formats {
		date, err := time.Parse(format, dateStr)
		if err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}
