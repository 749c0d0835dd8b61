package bookings

// RejectionCode is the machine-readable reason attached to every
// booking-domain rejection. Rejections are result values, not faults:
// capacity contention in particular is an expected, frequent outcome.
type RejectionCode string

const (
	CodeInvalidRange          RejectionCode = "INVALID_RANGE"
	CodeOutsideOfferingWindow RejectionCode = "OUTSIDE_OFFERING_WINDOW"
	CodeCapacityExceeded      RejectionCode = "CAPACITY_EXCEEDED"
	CodeOfferingNotFound      RejectionCode = "OFFERING_NOT_FOUND"
	CodeCustomerNotFound      RejectionCode = "CUSTOMER_NOT_FOUND"
	CodeBookingNotFound       RejectionCode = "BOOKING_NOT_FOUND"
	CodeForbidden             RejectionCode = "FORBIDDEN"
	CodeInvalidTransition     RejectionCode = "INVALID_TRANSITION"
)

type RejectionError struct {
	Code    RejectionCode
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}

func reject(code RejectionCode, msg string) error {
	return &RejectionError{Code: code, Message: msg}
}
