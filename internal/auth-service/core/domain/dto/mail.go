package dto

// VerificationEmail is the message published to the mail queue on
// registration and consumed by the mail worker.
type VerificationEmail struct {
	To        string `json:"to"`
	UserName  string `json:"user_name"`
	VerifyURL string `json:"verify_url"`
}
