package receipt

import (
	"errors"
	"net/url"
	"strings"

	"github.com/ttacon/libphonenumber"
)

var (
	ErrNoPhone      = errors.New("customer has no phone number on file")
	ErrInvalidPhone = errors.New("phone number is not valid")
)

// Dispatcher turns a message and a phone number into a click-to-chat link.
// Opening the link is the caller's business; there is no delivery feedback.
type Dispatcher struct {
	baseURL string
	region  string
}

func NewDispatcher(baseURL, region string) *Dispatcher {
	return &Dispatcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		region:  strings.ToUpper(region),
	}
}

type Share struct {
	Phone   string `json:"phone"` // E.164 without the leading +
	URL     string `json:"whatsapp_url"`
	Message string `json:"message"`
}

// NormalizePhone parses phone using the default region for numbers without a
// country code and returns the E.164 digits.
func (d *Dispatcher) NormalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", ErrNoPhone
	}
	num, err := libphonenumber.Parse(phone, d.region)
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}
	return strings.TrimPrefix(libphonenumber.Format(num, libphonenumber.E164), "+"), nil
}

// Share builds the link in a single attempt. A missing or invalid phone is
// refused before anything else happens.
func (d *Dispatcher) Share(phone, message string) (*Share, error) {
	digits, err := d.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	// QueryEscape writes spaces as '+'; chat clients expect %20.
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return &Share{
		Phone:   digits,
		URL:     d.baseURL + "/" + digits + "?text=" + text,
		Message: message,
	}, nil
}
