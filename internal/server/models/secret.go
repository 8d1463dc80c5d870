package models

import "time"

// Secret is a pre-imported financial record. The id is the EIC code of
// the generating facility, a natural key from the source data. The
// contract/account pair is the shared secret a user must supply to claim
// the record; the remaining fields are display payload kept exactly as
// imported (raw strings, formatted only when shown).
type Secret struct {
	ID             string
	ContractNumber string
	AccountNumber  string
	ClaimedBy      string
	ClaimedAt      time.Time

	Counterparty string
	Electricity  string
	Accrual      string
	TaxIncome    string
	TaxMilitary  string
	Payout       string
}

// Claimed reports whether the secret is already bound to a user.
func (s *Secret) Claimed() bool { return s.ClaimedBy != "" }
