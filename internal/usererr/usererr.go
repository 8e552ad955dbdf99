// Package usererr holds the conditions caused by what an administrator typed
// or failed to type. They are replied to in chat and never treated as faults.
package usererr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind int

const (
	MissingArgument Kind = iota + 1
	InvalidArgument
	MissingMention
	InvalidMention
	RolePositionTooHigh
	MissingChannelPermissions
	WrongChannelForMessage
	NoResponseInTime
	ConfirmationDenied
)

func (k Kind) String() string {
	switch k {
	case MissingArgument:
		return "MissingArgument"
	case InvalidArgument:
		return "InvalidArgument"
	case MissingMention:
		return "MissingMention"
	case InvalidMention:
		return "InvalidMention"
	case RolePositionTooHigh:
		return "RolePositionTooHigh"
	case MissingChannelPermissions:
		return "MissingChannelPermissions"
	case WrongChannelForMessage:
		return "WrongChannelForMessage"
	case NoResponseInTime:
		return "NoResponseInTime"
	case ConfirmationDenied:
		return "ConfirmationDenied"
	default:
		return "Unknown"
	}
}

type Error struct {
	Kind    Kind
	Subject string
	// Missing lists permission names for MissingChannelPermissions.
	Missing []string
}

func New(kind Kind, subject string) *Error {
	return &Error{Kind: kind, Subject: subject}
}

func MissingPermissions(channelID string, missing []string) *Error {
	return &Error{Kind: MissingChannelPermissions, Subject: channelID, Missing: missing}
}

func (e *Error) Error() string {
	switch e.Kind {
	case MissingArgument:
		return fmt.Sprintf("Missing argument: **%s**.", e.Subject)
	case InvalidArgument:
		return fmt.Sprintf("Invalid argument: **%s**.", e.Subject)
	case MissingMention:
		return fmt.Sprintf("Missing mention: please mention a **%s**.", e.Subject)
	case InvalidMention:
		return fmt.Sprintf("Invalid mention: that is not a valid **%s**.", e.Subject)
	case RolePositionTooHigh:
		return "That role is equal to or higher than my highest role, so I cannot manage it."
	case MissingChannelPermissions:
		return fmt.Sprintf("I am missing the following permissions in <#%s>: %s.", e.Subject, strings.Join(e.Missing, ", "))
	case WrongChannelForMessage:
		return "That message could not be found in the given channel."
	case NoResponseInTime:
		return "No response was given in time, nothing was changed."
	case ConfirmationDenied:
		return "The action was cancelled, nothing was changed."
	default:
		return "Something went wrong."
	}
}

// Is reports whether err carries a user-input condition of the given kind.
func Is(err error, kind Kind) bool {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind == kind
	}
	return false
}

// As extracts the user-input condition from err, if any.
func As(err error) (*Error, bool) {
	var ue *Error
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
