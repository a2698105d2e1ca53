package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/subscriber-draw-backend/internal/engine"
	"github.com/ArowuTest/subscriber-draw-backend/internal/metrics"
	"github.com/ArowuTest/subscriber-draw-backend/internal/models"
	"github.com/ArowuTest/subscriber-draw-backend/internal/repositories"
	"github.com/ArowuTest/subscriber-draw-backend/internal/utils"
	"github.com/ArowuTest/subscriber-draw-backend/pkg/notifier"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure NotificationServiceImpl implements NotificationService
var _ NotificationService = (*NotificationServiceImpl)(nil)

// NotificationServiceImpl delivers messages through a gateway and records each attempt
type NotificationServiceImpl struct {
	notificationRepo repositories.NotificationRepository
	winnerRepo       repositories.WinnerRepository
	gateway          notifier.Gateway
	adminContacts    []string
}

// NewNotificationService creates a new NotificationServiceImpl
func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	winnerRepo repositories.WinnerRepository,
	gateway notifier.Gateway,
	adminContacts []string,
) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		notificationRepo: notificationRepo,
		winnerRepo:       winnerRepo,
		gateway:          gateway,
		adminContacts:    adminContacts,
	}
}

// FormatAmount renders minor units as a two-decimal amount with thousands separators
func FormatAmount(amount engine.Money) string {
	d := decimal.New(int64(amount), -2)
	sign := ""
	if d.IsNegative() {
		sign, d = "-", d.Neg()
	}
	whole := d.Truncate(0).String()
	frac := d.Sub(d.Truncate(0)).Shift(2).IntPart()
	for i := len(whole) - 3; i > 0; i -= 3 {
		whole = whole[:i] + "," + whole[i:]
	}
	return fmt.Sprintf("%s%s.%02d", sign, whole, frac)
}

// WinnerMessage builds the subject and body sent to a winner
func WinnerMessage(cycleID string, amount engine.Money) (string, string) {
	subject := fmt.Sprintf("You won the %s draw", cycleID)
	body := fmt.Sprintf("Congratulations! You have won %s in the weekly subscriber draw %s. "+
		"Your prize will be credited to your account.", FormatAmount(amount), cycleID)
	return subject, body
}

// AdminMessage builds the subject and body sent to administrators
func AdminMessage(notificationType, cycleID, reason string) (string, string) {
	switch notificationType {
	case models.NotificationTypePreflight:
		return fmt.Sprintf("Draw %s at risk", cycleID),
			fmt.Sprintf("Preflight check for draw %s failed: %s. The draw will fail unless more subscribers become eligible.", cycleID, reason)
	default:
		return fmt.Sprintf("Draw %s failed", cycleID),
			fmt.Sprintf("The draw for cycle %s did not complete: %s. No prizes were allocated.", cycleID, reason)
	}
}

// NotifyWinner tells a winner about the prize and stamps the winner record
func (s *NotificationServiceImpl) NotifyWinner(ctx context.Context, cmd engine.NotifyWinner) error {
	subject, body := WinnerMessage(cmd.CycleID, cmd.Amount)
	if err := s.send(ctx, models.NotificationTypeWinner, cmd.CycleID, cmd.Contact, subject, body); err != nil {
		return err
	}
	if err := s.winnerRepo.MarkNotified(ctx, cmd.CycleID, cmd.SubscriberID, time.Now().UTC()); err != nil {
		slog.Warn("Failed to mark winner notified", "error", err, "cycleID", cmd.CycleID, "subscriberID", cmd.SubscriberID)
	}
	return nil
}

// NotifyAdmins sends the alert to every configured admin contact
func (s *NotificationServiceImpl) NotifyAdmins(ctx context.Context, notificationType, cycleID, reason string) error {
	if len(s.adminContacts) == 0 {
		slog.Warn("No admin contacts configured, alert not sent", "type", notificationType, "cycleID", cycleID, "reason", reason)
		return nil
	}
	subject, body := AdminMessage(notificationType, cycleID, reason)

	var errs []error
	for _, contact := range s.adminContacts {
		if err := s.send(ctx, notificationType, cycleID, contact, subject, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetByCycle lists the notifications sent for a cycle
func (s *NotificationServiceImpl) GetByCycle(ctx context.Context, cycleID string) ([]*models.Notification, error) {
	return s.notificationRepo.FindByCycleID(ctx, cycleID)
}

func (s *NotificationServiceImpl) send(ctx context.Context, notificationType, cycleID, recipient, subject, body string) error {
	notification := &models.Notification{
		Recipient: recipient,
		Subject:   subject,
		Content:   body,
		Type:      notificationType,
		Status:    models.NotificationStatusPending,
		CycleID:   cycleID,
		Gateway:   s.gateway.Name(),
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}

	messageID, sendErr := s.gateway.Send(ctx, notifier.Message{Recipient: recipient, Subject: subject, Body: body})
	status, statusMessage := models.NotificationStatusSent, messageID
	if sendErr != nil {
		status, statusMessage = models.NotificationStatusFailed, sendErr.Error()
	}
	if err := s.notificationRepo.UpdateStatus(ctx, notification.ID, status, statusMessage); err != nil {
		slog.Warn("Failed to update notification status", "error", err, "notificationID", notification.ID.Hex())
	}
	metrics.RecordNotification(notificationType, status)

	if sendErr != nil {
		slog.Error("Notification delivery failed", "error", sendErr, "type", notificationType, "cycleID", cycleID, "recipient", utils.MaskContact(recipient))
		return fmt.Errorf("failed to send %s notification to %s: %w", notificationType, utils.MaskContact(recipient), sendErr)
	}
	slog.Info("Notification sent", "type", notificationType, "cycleID", cycleID, "recipient", utils.MaskContact(recipient), "messageID", messageID)
	return nil
}
