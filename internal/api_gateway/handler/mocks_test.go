package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wallet-ledger-engine/internal/api_gateway/middleware"
	"github.com/wallet-ledger-engine/internal/domain/audit"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
	"github.com/wallet-ledger-engine/internal/domain/wallet"
	ledger "github.com/wallet-ledger-engine/internal/wallet_ledger/service"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) OpenWallet(ctx context.Context, owner shared.EntityRef) (*wallet.Wallet, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockLedger) Deposit(ctx context.Context, request *ledger.LedgerRequest) (*transaction.Record, error) {
	args := m.Called(ctx, request)
	return recordArg(args)
}

func (m *MockLedger) Withdraw(ctx context.Context, request *ledger.LedgerRequest) (*transaction.Record, error) {
	args := m.Called(ctx, request)
	return recordArg(args)
}

func (m *MockLedger) Transfer(ctx context.Context, request *ledger.TransferRequest) (*ledger.TransferResult, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.TransferResult), args.Error(1)
}

func (m *MockLedger) RequestWithdrawal(ctx context.Context, request *ledger.WithdrawalRequest) (*transaction.Record, error) {
	args := m.Called(ctx, request)
	return recordArg(args)
}

func (m *MockLedger) Approve(ctx context.Context, recordID uuid.UUID, review *ledger.ReviewRequest) (*transaction.Record, error) {
	args := m.Called(ctx, recordID, review)
	return recordArg(args)
}

func (m *MockLedger) Decline(ctx context.Context, recordID uuid.UUID, review *ledger.ReviewRequest) (*transaction.Record, error) {
	args := m.Called(ctx, recordID, review)
	return recordArg(args)
}

func (m *MockLedger) Validate(ctx context.Context, recordID uuid.UUID) (*transaction.Record, error) {
	args := m.Called(ctx, recordID)
	return recordArg(args)
}

func recordArg(args mock.Arguments) (*transaction.Record, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Record), args.Error(1)
}

type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) GetWallet(ctx context.Context, owner shared.EntityRef) (*wallet.Wallet, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) ListTransactions(ctx context.Context, owner shared.EntityRef, status shared.TransactionStatus, page, perPage int) ([]*transaction.Record, int64, error) {
	args := m.Called(ctx, owner, status, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*transaction.Record), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionService) GetAudit(ctx context.Context, recordID uuid.UUID) (*audit.Entry, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.Entry), args.Error(1)
}

func (m *MockTransactionService) GetHistory(ctx context.Context, owner shared.EntityRef, page, perPage int) ([]*audit.Entry, int64, error) {
	args := m.Called(ctx, owner, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*audit.Entry), args.Get(1).(int64), args.Error(2)
}

var (
	alice = shared.NewEntityRef("User", "1")
	bob   = shared.NewEntityRef("User", "2")
	admin = shared.NewEntityRef("Admin", "9")
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRouter mounts one handler behind the causer middleware
func newTestRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(middleware.CorrelationID(), middleware.RequireCauser())
	router.Handle(method, path, h)
	return router
}

func doRequest(router *gin.Engine, method, path, contentType string, body io.Reader, causer shared.EntityRef) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set(middleware.CauserTypeHeader, causer.Type)
	req.Header.Set(middleware.CauserIDHeader, causer.ID)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func doJSON(router *gin.Engine, method, path, body string, causer shared.EntityRef) *httptest.ResponseRecorder {
	return doRequest(router, method, path, "application/json", strings.NewReader(body), causer)
}

// testResponse is Response with concrete payload types for decoding
type testResponse[T any] struct {
	Data          T          `json:"data"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	Meta          *MetaInfo  `json:"meta,omitempty"`
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) testResponse[T] {
	t.Helper()
	var resp testResponse[T]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return resp
}

var _ ledger.Ledger = (*MockLedger)(nil)
