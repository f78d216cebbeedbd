package auth

import (
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/chainsafe/dao-governance/pkg/app/errors"
	apphttp "github.com/chainsafe/dao-governance/pkg/app/http"
)

// Signature headers carry an EIP-191 personal_sign over X-Message.
const (
	HeaderSignature = "X-Signature"
	HeaderMessage   = "X-Message"
)

// SignatureMiddleware recovers the signer of X-Message from X-Signature and
// stores it on the request context. Requests without signature headers pass
// through unless required is set; a malformed signature is always rejected.
func SignatureMiddleware(required bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			signature := r.Header.Get(HeaderSignature)
			message := r.Header.Get(HeaderMessage)

			if signature == "" || message == "" {
				if required {
					apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(nil, "signature and message required"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			addr, err := VerifyEIP191Signature(message, signature)
			if err != nil {
				logger.Warn("Authentication failed",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(err, "invalid signature"))
				return
			}

			ctx := WithEVMAddress(r.Context(), addr.Hex())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
