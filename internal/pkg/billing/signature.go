package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// VerifyWebhookSignature checks the Mercado Pago x-signature header against
// the x-request-id header and the resource id carried in the payload.
//
// The header is a comma-separated list of key=value pairs carrying `ts` and
// `v1`. The signed manifest is `id:{resource};request-id:{request};ts:{ts};`;
// field order and punctuation must match the processor's construction exactly.
// Any missing or malformed part fails closed; the comparison is constant time.
func VerifyWebhookSignature(signatureHeader, requestID, resourceID, secret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	reqID := strings.TrimSpace(requestID)
	resID := strings.TrimSpace(resourceID)
	if sig == "" || reqID == "" || resID == "" || strings.TrimSpace(secret) == "" {
		return false
	}

	ts, v1 := parseSignatureHeader(sig)
	if ts == "" || v1 == "" {
		return false
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", resID, reqID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))

	expected, err := hex.DecodeString(strings.ToLower(v1))
	if err != nil {
		return false
	}
	return hmac.Equal(mac.Sum(nil), expected)
}

func parseSignatureHeader(header string) (ts, v1 string) {
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			v1 = strings.TrimSpace(value)
		}
	}
	return ts, v1
}
