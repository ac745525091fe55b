package logging

import (
	"log/slog"

	"github.com/aretw0/donorline/pkg/domain"
)

// Phone returns the sender attribute with all but the last 4 digits masked.
func Phone(phone string) slog.Attr {
	return slog.String("phone", MaskPhone(phone))
}

// Step returns the step attribute.
func Step(s domain.Step) slog.Attr {
	return slog.String("step", s.String())
}

// Command returns the classified command attribute.
func Command(kind string) slog.Attr {
	return slog.String("command", kind)
}

// Collaborator names the external service involved in a failure.
func Collaborator(name string) slog.Attr {
	return slog.String("collaborator", name)
}

// RecordID returns the donation record attribute.
func RecordID(id string) slog.Attr {
	return slog.String("record_id", id)
}

// JobID returns the scheduler job attribute.
func JobID(id string) slog.Attr {
	return slog.String("job_id", id)
}

// Err returns the error attribute.
func Err(err error) slog.Attr {
	return slog.Any("err", err)
}

// MaskPhone keeps the last 4 characters of a phone number.
func MaskPhone(phone string) string {
	r := []rune(phone)
	if len(r) <= 4 {
		return phone
	}
	masked := make([]rune, len(r))
	for i := range r {
		if i < len(r)-4 {
			masked[i] = '*'
		} else {
			masked[i] = r[i]
		}
	}
	return string(masked)
}
