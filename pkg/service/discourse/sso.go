package discourse

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"

	"github.com/m-mizutani/goerr/v2"
)

// Service implements the Discourse Connect (SSO) payload exchange. Discourse
// sends a base64 querystring signed with a shared secret; after login the
// application sends back a signed payload carrying the user's identity.
type Service struct {
	secret []byte
}

func New(secret string) (*Service, error) {
	if secret == "" {
		return nil, goerr.New("discourse SSO secret is required")
	}
	return &Service{secret: []byte(secret)}, nil
}

// Decode verifies the signature of an incoming payload and returns the
// querystring values it carries (nonce, return_sso_url)
func (s *Service) Decode(payload, sig string) (url.Values, error) {
	expected := s.sign(payload)
	given, err := hex.DecodeString(sig)
	if err != nil {
		return nil, goerr.New("signature is not hex encoded")
	}
	if !hmac.Equal(expected, given) {
		return nil, goerr.New("SSO signature mismatch")
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode SSO payload")
	}

	values, err := url.ParseQuery(string(decoded))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse SSO payload")
	}

	return values, nil
}

// Encode builds a signed response payload from the given values
func (s *Service) Encode(values url.Values) (payload string, sig string) {
	payload = base64.StdEncoding.EncodeToString([]byte(values.Encode()))
	sig = hex.EncodeToString(s.sign(payload))
	return payload, sig
}

func (s *Service) sign(payload string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}
