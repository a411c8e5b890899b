package token

import (
	"strings"

	"github.com/yegamble/goauth-datalayer/internal/domain/auth"
)

// VerifiedToken is the result of a successful Authorization-header
// extraction: the raw serialized credential plus its decoded claims.
type VerifiedToken struct {
	Raw    string
	Claims Claims
}

// Extractor parses the Authorization header and verifies the carried
// credential against an expected token type. It never logs or mutates the
// credential.
type Extractor struct {
	codec *Codec
}

// NewExtractor creates an Extractor over the process-wide codec.
func NewExtractor(codec *Codec) *Extractor {
	return &Extractor{codec: codec}
}

// Extract applies the checks in a fixed order, stopping at the first failure:
// missing or empty header, scheme not case-insensitive "bearer", decode
// failure (expired or invalid), and finally a token-type mismatch.
func (e *Extractor) Extract(header, expectedType string) (*VerifiedToken, error) {
	if strings.TrimSpace(header) == "" {
		return nil, auth.ErrAuthHeaderMissing
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, auth.ErrAuthSchemeInvalid
	}

	raw := strings.TrimSpace(parts[1])
	if raw == "" {
		return nil, auth.ErrAuthSchemeInvalid
	}

	claims, err := e.codec.Decode(raw)
	if err != nil {
		return nil, err
	}

	if e.codec.TypeOf(claims) != expectedType {
		return nil, auth.ErrTokenWrongType
	}

	return &VerifiedToken{Raw: raw, Claims: claims}, nil
}
