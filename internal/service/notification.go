package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"prebook/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationRideBooked    NotificationType = "RIDE_BOOKED"
	NotificationRideAccepted  NotificationType = "RIDE_ACCEPTED"
	NotificationRideStarted   NotificationType = "RIDE_STARTED"
	NotificationRideCompleted NotificationType = "RIDE_COMPLETED"
	NotificationRideCancelled NotificationType = "RIDE_CANCELLED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery.
type NotificationService struct {
	// In a real system, this would have:
	// - Push notification client (FCM, APNS)
	// - SMS client (Twilio)
	// - WebSocket connections for real-time
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyRideBooked confirms the booking and the escrowed commitment fee to
// the passenger.
func (s *NotificationService) NotifyRideBooked(ctx context.Context, ride *domain.Ride) error {
	notification := Notification{
		Type:        NotificationRideBooked,
		RecipientID: ride.PassengerID,
		Title:       "Ride Booked",
		Message:     fmt.Sprintf("Your ride %s is booked. A commitment fee of %s has been held from your wallet.", ride.Route(), ride.CommitmentFee.StringFixed(2)),
		Data: map[string]interface{}{
			"ride_id":        ride.ID,
			"fare":           ride.Fare,
			"commitment_fee": ride.CommitmentFee,
			"scheduled_time": ride.ScheduledTime,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyRideAccepted tells the passenger a driver has committed.
func (s *NotificationService) NotifyRideAccepted(ctx context.Context, ride *domain.Ride) error {
	notification := Notification{
		Type:        NotificationRideAccepted,
		RecipientID: ride.PassengerID,
		Title:       "Driver Committed",
		Message:     "A driver has accepted your ride and matched your commitment fee.",
		Data: map[string]interface{}{
			"ride_id":   ride.ID,
			"driver_id": ride.DriverID,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyRideStarted tells the passenger the ride is underway.
func (s *NotificationService) NotifyRideStarted(ctx context.Context, ride *domain.Ride) error {
	notification := Notification{
		Type:        NotificationRideStarted,
		RecipientID: ride.PassengerID,
		Title:       "Ride Started",
		Message:     "Your ride has started. Enjoy!",
		Data: map[string]interface{}{
			"ride_id":    ride.ID,
			"started_at": ride.StartedAt,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyRideCompleted notifies both parties about settlement.
func (s *NotificationService) NotifyRideCompleted(ctx context.Context, ride *domain.Ride) error {
	passenger := Notification{
		Type:        NotificationRideCompleted,
		RecipientID: ride.PassengerID,
		Title:       "Ride Completed",
		Message:     fmt.Sprintf("Your ride is complete. Fare of %s has been charged.", ride.Fare.StringFixed(2)),
		Data: map[string]interface{}{
			"ride_id": ride.ID,
			"fare":    ride.Fare,
		},
		CreatedAt: time.Now(),
	}
	if err := s.send(ctx, passenger); err != nil {
		return err
	}

	driver := Notification{
		Type:        NotificationRideCompleted,
		RecipientID: ride.DriverID,
		Title:       "Ride Completed",
		Message:     fmt.Sprintf("Ride complete. You received the fare, your commitment fee back, and a bonus of %s.", ride.DriverBonus.StringFixed(2)),
		Data: map[string]interface{}{
			"ride_id": ride.ID,
			"fare":    ride.Fare,
			"bonus":   ride.DriverBonus,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, driver)
}

// NotifyRideCancelled notifies the other party about the cancellation and any
// convenience fee they received.
func (s *NotificationService) NotifyRideCancelled(ctx context.Context, ride *domain.Ride) error {
	details := ride.Cancellation
	if details == nil {
		return nil
	}

	var recipientID string
	var message string
	if details.CancelledBy == domain.CancelledByPassenger {
		recipientID = ride.DriverID
		message = "The passenger has cancelled the ride."
		if details.DriverConvenienceFee.IsPositive() {
			message += fmt.Sprintf(" A convenience fee of %s has been credited to your wallet.", details.DriverConvenienceFee.StringFixed(2))
		}
	} else {
		recipientID = ride.PassengerID
		message = "The driver has cancelled the ride."
		if details.PassengerConvenienceFee.IsPositive() {
			message += fmt.Sprintf(" A convenience fee of %s has been credited to your wallet.", details.PassengerConvenienceFee.StringFixed(2))
		}
	}

	if recipientID == "" {
		return nil // No one to notify
	}

	notification := Notification{
		Type:        NotificationRideCancelled,
		RecipientID: recipientID,
		Title:       "Ride Cancelled",
		Message:     message,
		Data: map[string]interface{}{
			"ride_id":      ride.ID,
			"cancelled_by": details.CancelledBy,
			"reason":       details.Reason,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	// In a real implementation, this would:
	// 1. Store notification in database
	// 2. Send push notification via FCM/APNS
	// 3. Send SMS if enabled
	// 4. Broadcast via WebSocket for real-time updates

	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)

	return nil
}
