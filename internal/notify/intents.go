// Package notify defines the outbound notification intents the booking
// engine emits and the publisher that hands them to the external delivery
// collaborator. An intent is a data record, not a guaranteed message:
// delivery failures are the collaborator's problem and never flow back
// into booking state.
package notify

import "context"

const (
	RouteBookingCreated   = "booking.created"
	RouteBookingConfirmed = "booking.confirmed"
	RouteBookingCancelled = "booking.cancelled"
)

type BookingCreated struct {
	BookingID       string `json:"booking_id"`
	InstructorEmail string `json:"instructor_email"`
	InstructorName  string `json:"instructor_name"`
	CustomerName    string `json:"customer_name"`
	OfferingName    string `json:"offering_name"`
	Date            string `json:"date"`
	TimeRange       string `json:"time_range"`
	Instances       int    `json:"instances"`
}

func (BookingCreated) RoutingKey() string { return RouteBookingCreated }

type BookingConfirmed struct {
	BookingID      string `json:"booking_id"`
	CustomerEmail  string `json:"customer_email"`
	CustomerName   string `json:"customer_name"`
	OfferingName   string `json:"offering_name"`
	InstructorName string `json:"instructor_name"`
	Date           string `json:"date"`
	TimeRange      string `json:"time_range"`
}

func (BookingConfirmed) RoutingKey() string { return RouteBookingConfirmed }

type BookingCancelled struct {
	BookingID     string `json:"booking_id"`
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
	OfferingName  string `json:"offering_name"`
	Reason        string `json:"reason"`
}

func (BookingCancelled) RoutingKey() string { return RouteBookingCancelled }

type Intent interface {
	RoutingKey() string
}

// Publisher hands an intent to the delivery collaborator. Implementations
// must be safe for concurrent use by request handlers.
type Publisher interface {
	Publish(ctx context.Context, intent Intent) error
}
