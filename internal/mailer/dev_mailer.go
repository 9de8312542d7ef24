package mailer

import (
	"fmt"

	"github.com/peerrent/verification/pkg/logger"
)

// DevMailer prints verification emails to the log instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendVerificationEmail(toEmail, toName, verifyURL, token string) error {
	logger.Info("[DEV MAIL] Verification Email",
		"to", toEmail,
		"name", toName,
		"verify_url", verifyURL,
		"token", token,
	)

	fmt.Printf("\n"+
		"=================================================================\n"+
		"VERIFICATION EMAIL (DEV MODE)\n"+
		"=================================================================\n"+
		"To: %s (%s)\n"+
		"Subject: Verify your PeerRent email\n"+
		"\n"+
		"Verification URL: %s\n"+
		"Token: %s\n"+
		"=================================================================\n\n",
		toEmail, toName, verifyURL, token)

	return nil
}
