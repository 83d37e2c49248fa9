package fsapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Payout request states that count as open.
const (
	StatusSubmitted RequestStatus = "EINGEREICHT"
	StatusFiled     RequestStatus = "GESTELLT"
)

// RequestStatus is the lifecycle state of a payout request.
type RequestStatus string

// Open reports whether the request is submitted or filed.
func (s RequestStatus) Open() bool {
	return s == StatusSubmitted || s == StatusFiled
}

// EmailAddress is one contact address of a group together with its usage tags
// (finanzen, fsl, kontakt).
type EmailAddress struct {
	Address string   `json:"address"`
	Usages  []string `json:"usages"`
}

// Group is one Fachschaft as returned by /data or /data/data.json.
type Group struct {
	ID                 string
	Name               string
	FinancialYearStart string
	EmailAddresses     []EmailAddress
}

// PayoutRequest is an AFSG payout request.
type PayoutRequest struct {
	ID       string        `json:"request_id"`
	Group    string        `json:"fs"`
	Semester string        `json:"semester"`
	Status   RequestStatus `json:"status"`
}

type baseData struct {
	Data struct {
		Name               string          `json:"name"`
		FinancialYearStart json.RawMessage `json:"financial_year_start"`
	} `json:"data"`
}

type addressData struct {
	Data struct {
		EmailAddresses []EmailAddress `json:"email_addresses"`
	} `json:"data"`
}

// groupRecord covers both dataset shapes; only one of Protected/Public is set.
type groupRecord struct {
	Base      baseData     `json:"base"`
	Protected *addressData `json:"protected"`
	Public    *addressData `json:"public"`
}

func (r groupRecord) group(id string) Group {
	g := Group{
		ID:                 id,
		Name:               r.Base.Data.Name,
		FinancialYearStart: scalarString(r.Base.Data.FinancialYearStart),
	}
	switch {
	case r.Protected != nil:
		g.EmailAddresses = r.Protected.Data.EmailAddresses
	case r.Public != nil:
		g.EmailAddresses = r.Public.Data.EmailAddresses
	}
	return g
}

// scalarString renders a JSON scalar the way it is compared on the command
// line: strings unquoted, numbers verbatim, null as "".
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// APIError is returned for any non-2xx response.
type APIError struct {
	Op         string
	Path       string
	StatusCode int
	Status     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: GET %s: %s", e.Op, e.Path, e.Status)
}

// Unauthorized reports whether the API rejected the token.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}
