package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"investx/internal/apperr"
	"investx/internal/middleware"
	"investx/internal/service"

	"github.com/gin-gonic/gin"
)

const maxProofBytes = 5 << 20

type PaymentHandler struct {
	ledger   *service.LedgerService
	accounts *service.AccountService
}

func NewPaymentHandler(ledger *service.LedgerService, accounts *service.AccountService) *PaymentHandler {
	return &PaymentHandler{ledger: ledger, accounts: accounts}
}

type SubmitPaymentRequest struct {
	Amount               int64  `json:"amount" form:"amount" binding:"required,gt=0,lte=1000000000000000"`
	TransactionReference string `json:"transaction_reference" form:"transaction_reference" binding:"max=100"`
	Notes                string `json:"notes" form:"notes" binding:"max=500"`
}

// Submit records a mobile-money payment for admin review. Multipart requests may attach a
// screenshot in the "proof" field.
func (h *PaymentHandler) Submit(c *gin.Context) {
	var req SubmitPaymentRequest
	multipart := strings.HasPrefix(c.ContentType(), "multipart/")
	var err error
	if multipart {
		err = c.ShouldBind(&req)
	} else {
		err = c.ShouldBindJSON(&req)
	}
	if err != nil {
		respondError(c, apperr.ParseValidationErrors(err))
		return
	}

	in := service.SubmitPaymentInput{
		AccountID:            middleware.GetUserID(c),
		Amount:               req.Amount,
		TransactionReference: req.TransactionReference,
		Notes:                req.Notes,
	}
	if multipart {
		proof, ok := openProof(c)
		if !ok {
			return
		}
		if proof != nil {
			defer proof.Close()
			in.Proof = proof
		}
	}

	p, err := h.ledger.SubmitPayment(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": p})
}

// openProof returns the optional screenshot, or nil when none was attached.
func openProof(c *gin.Context) (io.ReadCloser, bool) {
	file, err := c.FormFile("proof")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, true
		}
		respondError(c, apperr.FieldError("proof", "could not read the uploaded file"))
		return nil, false
	}
	if file.Size > maxProofBytes {
		respondError(c, apperr.FieldError("proof", "screenshot must be at most "+strconv.Itoa(maxProofBytes>>20)+" MB"))
		return nil, false
	}
	if ct := file.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		respondError(c, apperr.FieldError("proof", "screenshot must be an image"))
		return nil, false
	}
	f, err := file.Open()
	if err != nil {
		respondError(c, apperr.FieldError("proof", "could not read the uploaded file"))
		return nil, false
	}
	return f, true
}

func (h *PaymentHandler) List(c *gin.Context) {
	page, limit := parsePagination(c)
	list, err := h.accounts.Payments(c.Request.Context(), middleware.GetUserID(c), c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
