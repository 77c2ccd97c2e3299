// Package schema declares the loan payments column kinds and coerces raw
// snapshot text into typed columns.
package schema

// Categorical lists the columns tagged as categorical.
var Categorical = []string{
	"term",
	"grade",
	"sub_grade",
	"employment_length",
	"home_ownership",
	"verification_status",
	"loan_status",
	"payment_plan",
	"purpose",
	"application_type",
}

// Temporal lists the columns parsed as day/month/year dates.
var Temporal = []string{
	"issue_date",
	"earliest_credit_line",
	"last_payment_date",
	"next_payment_date",
	"last_credit_pull_date",
}

// Numeric lists the financial and count columns parsed as float64.
var Numeric = []string{
	"loan_amount",
	"funded_amount",
	"funded_amount_inv",
	"int_rate",
	"instalment",
	"annual_inc",
	"dti",
	"delinq_2yrs",
	"inq_last_6mths",
	"mths_since_last_delinq",
	"mths_since_last_record",
	"open_accounts",
	"total_accounts",
	"out_prncp",
	"out_prncp_inv",
	"total_payment",
	"total_payment_inv",
	"total_rec_prncp",
	"total_rec_int",
	"total_rec_late_fee",
	"recoveries",
	"collection_recovery_fee",
	"last_payment_amount",
	"collections_12_mths_ex_med",
	"mths_since_last_major_derog",
	"policy_code",
}
