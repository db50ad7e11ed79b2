package service

import "errors"

var (
	// ErrInvalidPassengerID is returned when the passenger ID is empty.
	ErrInvalidPassengerID = errors.New("invalid passenger id")

	// ErrInvalidDriverID is returned when the driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidUserID is returned when a user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidRideID is returned when the ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidBookingType is returned when the booking type is unknown.
	ErrInvalidBookingType = errors.New("invalid booking type")

	// ErrMissingPickup is returned when the pickup location is empty.
	ErrMissingPickup = errors.New("pickup location is required")

	// ErrMissingScheduledTime is returned when no scheduled time is given.
	ErrMissingScheduledTime = errors.New("scheduled time is required")

	// ErrMissingPointToPointFields is returned when a point-to-point booking
	// lacks destination or distance.
	ErrMissingPointToPointFields = errors.New("destination and distance are required for point-to-point bookings")

	// ErrMissingHours is returned when an hourly booking lacks hours.
	ErrMissingHours = errors.New("hours are required for hourly bookings")

	// ErrMissingName is returned when a registration lacks a name.
	ErrMissingName = errors.New("name is required")

	// ErrMissingPhone is returned when a registration lacks a phone number.
	ErrMissingPhone = errors.New("phone is required")

	// ErrInvalidRole is returned when the role is neither passenger nor driver.
	ErrInvalidRole = errors.New("role must be passenger or driver")

	// ErrPhoneTaken is returned when the phone number is already registered.
	ErrPhoneTaken = errors.New("phone number already registered")

	// ErrNotPassenger is returned when a booking is attempted by a
	// non-passenger account.
	ErrNotPassenger = errors.New("only passengers can book rides")

	// ErrNotDriver is returned when an acceptance is attempted by a
	// non-driver account.
	ErrNotDriver = errors.New("only drivers can accept rides")

	// ErrNotAssignedDriver is returned when a driver-only transition is
	// attempted by someone other than the assigned driver.
	ErrNotAssignedDriver = errors.New("caller is not the assigned driver")

	// ErrNotRideParty is returned when a cancellation is attempted by a
	// party not on the ride.
	ErrNotRideParty = errors.New("caller is not a party to this ride")

	// ErrInvalidCancelParty is returned when cancelled_by is neither
	// passenger nor driver.
	ErrInvalidCancelParty = errors.New("cancelled_by must be passenger or driver")

	// ErrInvalidStateTransition is returned when an operation is not legal
	// from the ride's current status.
	ErrInvalidStateTransition = errors.New("operation not allowed in current ride status")

	// ErrRideBusy is returned when another transition on the same ride is
	// in flight.
	ErrRideBusy = errors.New("another operation on this ride is in progress")

	// ErrInvalidFeeSplit is returned when a fee override does not sum to 1.
	ErrInvalidFeeSplit = errors.New("platform and convenience fee percentages must sum to 1")
)
