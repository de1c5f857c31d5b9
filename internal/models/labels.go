package models

// Locale selects a label set
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleFR Locale = "fr"
)

// DefaultLocale is used when a caller does not ask for one
const DefaultLocale = LocaleEN

// The back-office has shipped divergent label sets for the same enums: English
// and French status wording, and "Deposit" next to "Deposit required". Both
// status sets are kept here keyed by locale until product picks one. Payment
// types only have English wording; other locales fall back to it.
var paymentTypeLabels = map[Locale]map[PaymentType]string{
	LocaleEN: {
		PaymentFull:    "Full payment",
		PaymentDeposit: "Deposit required",
		PaymentOnSite:  "Pay on site",
	},
}

var statusLabels = map[Locale]map[ReservationStatus]string{
	LocaleEN: {
		StatusConfirmed: "Confirmed",
		StatusPending:   "Pending",
		StatusCancelled: "Cancelled",
	},
	LocaleFR: {
		StatusConfirmed: "Confirmée",
		StatusPending:   "En attente",
		StatusCancelled: "Annulée",
	},
}

func resolveLocale[K comparable](table map[Locale]map[K]string, l Locale) map[K]string {
	if labels, ok := table[l]; ok {
		return labels
	}
	return table[DefaultLocale]
}

// Label returns the display label for the payment type, falling back to the raw value
func (p PaymentType) Label(l Locale) string {
	if label, ok := resolveLocale(paymentTypeLabels, l)[p]; ok {
		return label
	}
	return string(p)
}

// Label returns the display label for the status, falling back to the raw value
func (s ReservationStatus) Label(l Locale) string {
	if label, ok := resolveLocale(statusLabels, l)[s]; ok {
		return label
	}
	return string(s)
}

// LabelTable is the full mapping served to presentation layers
type LabelTable struct {
	Locale       Locale                       `json:"locale"`
	PaymentTypes map[PaymentType]string       `json:"payment_types"`
	Statuses     map[ReservationStatus]string `json:"statuses"`
}

func Labels(l Locale) LabelTable {
	if _, ok := statusLabels[l]; !ok {
		l = DefaultLocale
	}
	return LabelTable{
		Locale:       l,
		PaymentTypes: resolveLocale(paymentTypeLabels, l),
		Statuses:     resolveLocale(statusLabels, l),
	}
}
