package task

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

var ErrInvalidStatus = errors.New("invalid task status")

type Status int

const (
	StatusDraft Status = iota
	StatusActive
	StatusCompleted
	StatusArchived
)

var statusNames = [...]string{
	StatusDraft:     "draft",
	StatusActive:    "active",
	StatusCompleted: "completed",
	StatusArchived:  "archived",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

func (s Status) Valid() bool {
	return s >= StatusDraft && s <= StatusArchived
}

func ParseStatus(raw string) (Status, error) {
	for i, name := range statusNames {
		if name == raw {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

// AllStatuses в порядке жизненного цикла
func AllStatuses() []Status {
	return []Status{StatusDraft, StatusActive, StatusCompleted, StatusArchived}
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value - в хранилище статус лежит строкой
func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, int(s))
	}
	return s.String(), nil
}

func (s *Status) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	case nil:
		return fmt.Errorf("%w: null", ErrInvalidStatus)
	default:
		return fmt.Errorf("%w: unexpected type %T", ErrInvalidStatus, src)
	}
}
