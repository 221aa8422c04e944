package messaging

import (
	"fmt"
	"strings"

	"github.com/clubvoice/clubvoice/internal/notifications"
	"github.com/clubvoice/clubvoice/pkg/logging"
)

const (
	// SMSProviderAuto picks Twilio when credentials exist.
	SMSProviderAuto = "auto"
	// SMSProviderTwilio forces the Twilio sender when credentials exist.
	SMSProviderTwilio = "twilio"
	// SMSProviderStub forces the logging stub sender.
	SMSProviderStub = "stub"
)

// ProviderSelectionConfig captures the credentials required to build the
// outbound SMS sender.
type ProviderSelectionConfig struct {
	Preference       string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
}

// BuildSMSSender instantiates an SMS sender based on the preferred provider.
// It returns the sender, the provider that was selected, and a reason when no
// provider could be initialized.
func BuildSMSSender(cfg ProviderSelectionConfig, logger *logging.Logger) (notifications.SMSSender, string, string) {
	if logger == nil {
		logger = logging.Default()
	}
	preference := strings.ToLower(strings.TrimSpace(cfg.Preference))
	if preference == "" {
		preference = SMSProviderAuto
	}

	var twilioSender notifications.SMSSender
	var twilioReason string
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		twilioSender = NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	} else {
		var reasons []string
		if cfg.TwilioAccountSID == "" {
			reasons = append(reasons, "TWILIO_ACCOUNT_SID missing")
		}
		if cfg.TwilioAuthToken == "" {
			reasons = append(reasons, "TWILIO_AUTH_TOKEN missing")
		}
		twilioReason = strings.Join(reasons, ", ")
	}

	switch preference {
	case SMSProviderStub:
		return notifications.NewStubSMSSender(logger), SMSProviderStub, ""
	case SMSProviderTwilio:
		if twilioSender != nil {
			return twilioSender, SMSProviderTwilio, ""
		}
		return nil, "", twilioReason
	case SMSProviderAuto:
		if twilioSender != nil {
			return twilioSender, SMSProviderTwilio, ""
		}
		return nil, "", fmt.Sprintf("%s: %s", SMSProviderTwilio, twilioReason)
	default:
		return nil, "", fmt.Sprintf("%s sender not configured", preference)
	}
}
