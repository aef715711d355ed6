package driven

import (
	"context"

	"employee-portal/internal/auth-service/core/domain/dto"
)

// IMailQueue decouples registration from mail delivery. Publishing is
// best-effort: a failure is logged by the caller, never rolled back.
type IMailQueue interface {
	PublishVerificationEmail(ctx context.Context, msg dto.VerificationEmail) error
	ConsumeVerificationEmails(ctx context.Context) (<-chan dto.VerificationEmail, error)
	Close() error
}

type IMailSender interface {
	SendVerificationEmail(ctx context.Context, msg dto.VerificationEmail) error
}
