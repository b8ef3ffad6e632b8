package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwe638853/GasPass-sub000/internal/models"
)

type stubReader struct {
	owner    common.Address
	balance  *big.Int
	policy   models.RefuelPolicy
	ownerErr error
}

func (s *stubReader) TotalSupply(ctx context.Context) (*big.Int, error) { return big.NewInt(0), nil }
func (s *stubReader) TokenByIndex(ctx context.Context, index *big.Int) (*big.Int, error) {
	return big.NewInt(0), nil
}
func (s *stubReader) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	return s.owner, s.ownerErr
}
func (s *stubReader) BalanceOf(ctx context.Context, tokenID *big.Int) (*big.Int, error) {
	return s.balance, nil
}
func (s *stubReader) ChainPolicies(ctx context.Context, tokenID *big.Int, chainID uint64) (models.RefuelPolicy, error) {
	return s.policy, nil
}
func (s *stubReader) TotalFeesCollected(ctx context.Context) (*big.Int, error) {
	return big.NewInt(12345), nil
}
func (s *stubReader) GetWithdrawableFees(ctx context.Context) (*big.Int, error) {
	return big.NewInt(678), nil
}
func (s *stubReader) OwnerNonces(ctx context.Context, owner common.Address) (*big.Int, error) {
	return big.NewInt(3), nil
}
func (s *stubReader) Nonces(ctx context.Context, tokenID *big.Int) (*big.Int, error) {
	return big.NewInt(0), nil
}

func policyRouter(reader models.GasPassReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPolicyHandler(logrus.New(), reader)
	r := gin.New()
	r.GET("/api/tokens/:id", h.Token)
	r.GET("/api/tokens/:id/policies/:chainId", h.Policy)
	r.GET("/api/fees", h.Fees)
	return r
}

func TestTokenEndpoint(t *testing.T) {
	reader := &stubReader{
		owner:   common.HexToAddress("0x2000000000000000000000000000000000000002"),
		balance: big.NewInt(10_000_000),
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tokens/7", nil)
	policyRouter(reader).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "7", body["tokenId"])
	assert.Equal(t, "10000000", body["balance"])
}

func TestTokenEndpointBadID(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tokens/xyz", nil)
	policyRouter(&stubReader{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTokenEndpointUnknownToken(t *testing.T) {
	reader := &stubReader{ownerErr: errors.New("execution reverted")}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tokens/999", nil)
	policyRouter(reader).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPolicyEndpointReportsActive(t *testing.T) {
	reader := &stubReader{
		policy: models.RefuelPolicy{
			GasAmount:    big.NewInt(10_000_000),
			Threshold:    big.NewInt(1000),
			LastRefueled: big.NewInt(0),
		},
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tokens/7/policies/8453", nil)
	policyRouter(reader).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["active"])
}

func TestPolicyEndpointZeroThresholdIsInactive(t *testing.T) {
	reader := &stubReader{
		policy: models.RefuelPolicy{
			GasAmount:    big.NewInt(10_000_000),
			Threshold:    big.NewInt(0),
			LastRefueled: big.NewInt(0),
		},
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tokens/7/policies/8453", nil)
	policyRouter(reader).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["active"])
}

func TestFeesEndpoint(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/fees", nil)
	policyRouter(&stubReader{}).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "12345", body["totalFeesCollected"])
	assert.Equal(t, "678", body["withdrawableFees"])
}
