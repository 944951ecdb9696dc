package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/wallet-ledger-engine/internal/domain/receipt"
	"github.com/wallet-ledger-engine/internal/domain/shared"
)

const receiptField = "receipt"

var errReceiptTooLarge = errors.New("receipt exceeds the upload size limit")

// ownerFromPath reads the wallet owner from the :owner_type and :owner_id segments
func ownerFromPath(c *gin.Context) (shared.EntityRef, error) {
	owner := shared.NewEntityRef(c.Param("owner_type"), c.Param("owner_id"))
	return owner, owner.Validate()
}

func recordIDFromPath(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

// bindOptional binds the body when there is one. Review endpoints accept an empty body.
func bindOptional(c *gin.Context, obj interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBind(obj)
}

// receiptFromRequest opens the optional receipt file of a multipart request.
// The returned close func is always safe to call.
func receiptFromRequest(c *gin.Context, maxSize int64) (*receipt.Upload, func(), error) {
	noop := func() {}
	if c.ContentType() != binding.MIMEMultipartPOSTForm {
		return nil, noop, nil
	}

	header, err := c.FormFile(receiptField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, err
	}
	if header.Size > maxSize {
		return nil, noop, errReceiptTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return nil, noop, err
	}

	upload := &receipt.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	}
	return upload, func() { _ = file.Close() }, nil
}
