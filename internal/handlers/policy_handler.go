package handlers

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/qwe638853/GasPass-sub000/internal/models"
)

// PolicyHandler exposes read-only views over the GasPass contract.
type PolicyHandler struct {
	logger *logrus.Logger
	reader models.GasPassReader
}

// NewPolicyHandler creates the contract read handler.
func NewPolicyHandler(logger *logrus.Logger, reader models.GasPassReader) *PolicyHandler {
	return &PolicyHandler{
		logger: logger,
		reader: reader,
	}
}

// Token returns owner and stored value for one gas pass.
// GET /api/tokens/:id
func (h *PolicyHandler) Token(c *gin.Context) {
	tokenID, ok := parseTokenID(c)
	if !ok {
		return
	}

	owner, err := h.reader.OwnerOf(c.Request.Context(), tokenID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	balance, err := h.reader.BalanceOf(c.Request.Context(), tokenID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tokenId": tokenID.String(),
		"owner":   owner.Hex(),
		"balance": balance.String(),
	})
}

// Policy returns the stored refuel policy for a (token, chain) pair. A zero
// threshold means no policy exists.
// GET /api/tokens/:id/policies/:chainId
func (h *PolicyHandler) Policy(c *gin.Context) {
	tokenID, ok := parseTokenID(c)
	if !ok {
		return
	}
	chainID, err := strconv.ParseUint(c.Param("chainId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "chainId must be a decimal integer",
		})
		return
	}

	policy, err := h.reader.ChainPolicies(c.Request.Context(), tokenID, chainID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tokenId": tokenID.String(),
		"chainId": chainID,
		"active":  policy.Active(),
		"policy":  policy,
	})
}

// Fees returns the contract's fee counters.
// GET /api/fees
func (h *PolicyHandler) Fees(c *gin.Context) {
	total, err := h.reader.TotalFeesCollected(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	withdrawable, err := h.reader.GetWithdrawableFees(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"totalFeesCollected": total.String(),
		"withdrawableFees":   withdrawable.String(),
	})
}

func parseTokenID(c *gin.Context) (*big.Int, bool) {
	tokenID, ok := new(big.Int).SetString(c.Param("id"), 10)
	if !ok || tokenID.Sign() < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "token id must be a decimal integer",
		})
		return nil, false
	}
	return tokenID, true
}
