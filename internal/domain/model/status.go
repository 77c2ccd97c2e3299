// Package model contains domain models passed between layers.
package model

import "strings"

// LoanStatus is the closed set of loan states found in the loan_status column.
type LoanStatus int

// Loan states.
const (
	StatusUnknown LoanStatus = iota
	StatusCurrent
	StatusFullyPaid
	StatusChargedOff
	StatusLate16To30
	StatusLate31To120
	StatusInGracePeriod
	StatusDefault
	StatusPolicyFullyPaid  // "Does not meet the credit policy. Status:Fully Paid"
	StatusPolicyChargedOff // "Does not meet the credit policy. Status:Charged Off"
)

// statusLabels holds the canonical label of each status as it appears in the source table.
var statusLabels = map[LoanStatus]string{
	StatusCurrent:          "Current",
	StatusFullyPaid:        "Fully Paid",
	StatusChargedOff:       "Charged Off",
	StatusLate16To30:       "Late (16-30 days)",
	StatusLate31To120:      "Late (31-120 days)",
	StatusInGracePeriod:    "In Grace Period",
	StatusDefault:          "Default",
	StatusPolicyFullyPaid:  "Does not meet the credit policy. Status:Fully Paid",
	StatusPolicyChargedOff: "Does not meet the credit policy. Status:Charged Off",
}

var statusByKey = func() map[string]LoanStatus {
	m := make(map[string]LoanStatus, len(statusLabels))
	for s, label := range statusLabels {
		m[statusKey(label)] = s
	}
	return m
}()

// statusKey folds case and collapses whitespace so "late (16-30  days) "
// and "Late (16-30 days)" compare equal.
func statusKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ParseLoanStatus maps free text to a LoanStatus. Unrecognized text yields StatusUnknown.
func ParseLoanStatus(s string) LoanStatus {
	return statusByKey[statusKey(s)]
}

// String returns the canonical label.
func (s LoanStatus) String() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return "Unknown"
}

// IsChargedOff reports whether the loan was written off. Only the plain
// "Charged Off" status counts; the credit-policy variant is reported apart.
func (s LoanStatus) IsChargedOff() bool { return s == StatusChargedOff }

// IsLate reports whether the loan is in one of the two late buckets.
func (s LoanStatus) IsLate() bool {
	return s == StatusLate16To30 || s == StatusLate31To120
}
