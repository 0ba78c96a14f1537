package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/trogers1052/portfolio-valuation/internal/apperrors"
)

// DefaultTwilioBaseURL is the Twilio REST API root
const DefaultTwilioBaseURL = "https://api.twilio.com"

// SMSSender delivers messages through the Twilio Messages API
type SMSSender struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
}

// NewSMSSender creates a Twilio sender. An empty baseURL uses Twilio's.
func NewSMSSender(baseURL, accountSID, authToken, from string) *SMSSender {
	if baseURL == "" {
		baseURL = DefaultTwilioBaseURL
	}
	return &SMSSender{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send delivers msg as a text message; the subject is not sent
func (s *SMSSender) Send(ctx context.Context, msg Message) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, url.PathEscape(s.accountSID))

	form := url.Values{}
	form.Set("To", msg.To)
	form.Set("From", s.from)
	form.Set("Body", msg.Body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build twilio request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDeliveryFailure, fmt.Errorf("twilio request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var te twilioError
		if json.Unmarshal(body, &te) == nil && te.Message != "" {
			return apperrors.Wrap(apperrors.ErrDeliveryFailure,
				fmt.Errorf("twilio status %d code %d: %s", resp.StatusCode, te.Code, te.Message))
		}
		return apperrors.Wrap(apperrors.ErrDeliveryFailure, fmt.Errorf("twilio status %d", resp.StatusCode))
	}
	return nil
}
