package coinbase

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"os"
	"strings"
)

// Credentials hold the API key material for the private endpoints.
// The secret is the base64-encoded value issued by the exchange.
type Credentials struct {
	Key        string
	Secret     string
	Passphrase string
}

// CredentialsFromEnv reads key material from the environment. Sandbox and
// live keys are separate variables so a sandbox run can never sign against
// the live account.
func CredentialsFromEnv(live bool) (Credentials, error) {
	prefix := "COINBASE_SANDBOX_"
	if live {
		prefix = "COINBASE_"
	}
	creds := Credentials{
		Key:        strings.TrimSpace(os.Getenv(prefix + "KEY")),
		Secret:     strings.TrimSpace(os.Getenv(prefix + "SECRET")),
		Passphrase: strings.TrimSpace(os.Getenv(prefix + "PASSPHRASE")),
	}
	if creds.Key == "" || creds.Secret == "" || creds.Passphrase == "" {
		return Credentials{}, errors.New(prefix + "KEY, " + prefix + "SECRET and " + prefix + "PASSPHRASE are required")
	}
	return creds, nil
}

// sign produces the CB-ACCESS-SIGN header value: base64(HMAC-SHA256(secret,
// timestamp+method+path+body)) keyed with the base64-decoded secret.
func (c Credentials) sign(timestamp, method, requestPath, body string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(c.Secret)
	if err != nil {
		return "", errors.New("api secret is not valid base64")
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(timestamp + method + requestPath + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
