package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
)

// Causer headers are set by the trusted upstream that authenticated the caller
const (
	CauserTypeHeader      = "X-Causer-Type"
	CauserIDHeader        = "X-Causer-ID"
	CauserReferenceHeader = "X-Causer-Reference"
	CauserNameHeader      = "X-Causer-Name"

	CauserKey = "causer"
)

// RequireCauser reads the calling entity from the causer headers and rejects
// the request with 401 when they are missing
func RequireCauser() gin.HandlerFunc {
	return func(c *gin.Context) {
		ref := shared.NewEntityRef(c.GetHeader(CauserTypeHeader), c.GetHeader(CauserIDHeader))
		if err := ref.Validate(); err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+CauserTypeHeader+" or "+CauserIDHeader+" header")
			return
		}

		c.Set(CauserKey, transaction.Causer{
			Ref:           ref,
			ReferenceCode: strings.TrimSpace(c.GetHeader(CauserReferenceHeader)),
			FullName:      strings.TrimSpace(c.GetHeader(CauserNameHeader)),
		})
		c.Next()
	}
}

// GetCauser retrieves the causer stored by RequireCauser
func GetCauser(c *gin.Context) (transaction.Causer, bool) {
	if v, exists := c.Get(CauserKey); exists {
		if causer, ok := v.(transaction.Causer); ok {
			return causer, true
		}
	}
	return transaction.Causer{}, false
}
