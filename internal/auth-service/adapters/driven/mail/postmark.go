package mail

import (
	"context"
	"fmt"

	"employee-portal/internal/auth-service/core/domain/dto"
	"employee-portal/internal/config"

	"github.com/mrz1836/postmark"
)

// PostmarkSender delivers verification mail through the Postmark
// transactional API.
type PostmarkSender struct {
	client *postmark.Client
	sender string
}

func NewPostmarkSender(cfg config.Mailconfig) (*PostmarkSender, error) {
	if cfg.PostmarkServerToken == "" || cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("postmark tokens are required")
	}
	if cfg.Sender == "" {
		return nil, fmt.Errorf("mail sender address is required")
	}

	return &PostmarkSender{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		sender: cfg.Sender,
	}, nil
}

func (ps *PostmarkSender) SendVerificationEmail(ctx context.Context, msg dto.VerificationEmail) error {
	body := fmt.Sprintf(`
		<h2>Email Verification</h2>
		<p>Hi %s, click the link below:</p>
		<a href="%s">%s</a>
		<p>This link expires in 1 hour.</p>
	`, msg.UserName, msg.VerifyURL, msg.VerifyURL)

	resp, err := ps.client.SendEmail(ctx, postmark.Email{
		From:     ps.sender,
		To:       msg.To,
		Subject:  "Verify your email",
		HTMLBody: body,
		Tag:      "email-verification",
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
	}
	return nil
}
