package domain

const (
	RoleDonor     = "donor"
	RoleNGO       = "ngo"
	RoleVolunteer = "volunteer"
	RoleAdmin     = "admin"
)

const (
	StatusAvailable = "available"
	StatusClaimed   = "claimed"
	StatusCompleted = "completed"

	// StatusAll is accepted by list filters and matches every status.
	StatusAll = "all"
)

const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

const (
	NotifNewDonation       = "new_donation"
	NotifDonationClaimed   = "donation_claimed"
	NotifDonationCompleted = "donation_completed"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// CO2FactorPerKg is the kg of CO2 emissions avoided per kg of food saved.
const CO2FactorPerKg = 2.3

func ValidStatus(s string) bool {
	return s == StatusAvailable || s == StatusClaimed || s == StatusCompleted
}

func ValidUrgency(u string) bool {
	return u == UrgencyLow || u == UrgencyMedium || u == UrgencyHigh
}

func ValidRole(r string) bool {
	return r == RoleDonor || r == RoleNGO || r == RoleVolunteer
}

func ValidPaymentStatus(s string) bool {
	return s == PaymentPending || s == PaymentCompleted || s == PaymentFailed || s == PaymentRefunded
}
