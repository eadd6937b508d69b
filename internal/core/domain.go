package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Entry TransactionType = "entrada"
	Exit  TransactionType = "saida"
)

const (
	StatusPending AccountStatus = "pendente"
	StatusPaid    AccountStatus = "pago"
	StatusOverdue AccountStatus = "em_atraso"
)

type (
	TransactionType string
	AccountStatus   string

	Date struct {
		time.Time
	}

	Transaction struct {
		ID          string
		UserID      string
		Type        TransactionType
		Amount      decimal.Decimal
		Description string
		Category    string
		Date        Date
		Notes       string
		CreatedAt   time.Time
	}

	// Account is a bill to be paid ("conta a pagar").
	Account struct {
		ID        string
		UserID    string
		Title     string
		Amount    decimal.Decimal
		Status    AccountStatus
		DueDate   Date
		Notes     string
		CreatedAt time.Time
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyTitle       = errors.New("empty title")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidStatus    = errors.New("invalid account status")
	ErrNotFound         = errors.New("not found")

	// ErrValidation wraps any rejection of user input so callers can
	// tell bad requests apart from storage failures.
	ErrValidation = errors.New("validation failed")
)

const DateLayout = "2006-01-02"

// NewID returns a random identifier for a transaction or account.
func NewID() string {
	return uuid.NewString()
}

func (t TransactionType) Valid() bool {
	return t == Entry || t == Exit
}

// ParseTransactionType accepts the canonical names and their plurals as used in routes.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entrada", "entradas", "entry", "entries":
		return Entry, nil
	case "saida", "saidas", "exit", "exits":
		return Exit, nil
	}
	return "", ErrInvalidType
}

func (s AccountStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// Toggled returns the status a bill moves to when the user flips it:
// paid bills reopen as pending, anything else becomes paid.
func (s AccountStatus) Toggled() AccountStatus {
	if s == StatusPaid {
		return StatusPending
	}
	return StatusPaid
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String renders the date as YYYY-MM-DD, the format used on the wire and in storage.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func validateAmount(a decimal.Decimal) error {
	if !a.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return validateAmount(t.Amount)
}

// Record projects the transaction onto the shape consumed by the aggregation engine.
func (t Transaction) Record() Record {
	return Record{Amount: t.Amount, Date: t.Date.String(), Category: t.Category}
}

func (a Account) Validate() error {
	if len(strings.TrimSpace(a.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(a.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := a.DueDate.Validate(); err != nil {
		return errors.New("invalid due date: " + err.Error())
	}
	if !a.Status.Valid() {
		return ErrInvalidStatus
	}
	return validateAmount(a.Amount)
}

// IsOverdue reports whether an unpaid bill is past its due date relative to today.
func (a Account) IsOverdue(today time.Time) bool {
	if a.Status == StatusPaid {
		return false
	}
	y, m, d := today.Date()
	return a.DueDate.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}
