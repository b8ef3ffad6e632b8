package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/qwe638853/GasPass-sub000/internal/models"
	"github.com/qwe638853/GasPass-sub000/internal/relay"
)

// relayRequestBody is the HTTP shape of one meta-transaction submission.
type relayRequestBody struct {
	ID        string          `json:"id"` // optional client idempotency key
	Kind      string          `json:"kind" binding:"required"`
	Signer    string          `json:"signer" binding:"required"`
	Nonce     uint64          `json:"nonce"`
	TypedData json.RawMessage `json:"typedData" binding:"required"`
	Signature string          `json:"signature" binding:"required"` // 0x hex
}

// RelayHandler accepts user-signed meta-transactions and forwards them. The
// relay never validates signature, nonce or deadline: the contract does, and
// a rejected request simply reverts at the relayer's gas expense.
type RelayHandler struct {
	logger    *logrus.Logger
	forwarder *relay.Forwarder
	reader    models.GasPassReader
}

// NewRelayHandler creates the relay HTTP surface.
func NewRelayHandler(logger *logrus.Logger, forwarder *relay.Forwarder, reader models.GasPassReader) *RelayHandler {
	return &RelayHandler{
		logger:    logger,
		forwarder: forwarder,
		reader:    reader,
	}
}

// Submit forwards one meta-transaction and blocks until it is mined.
// POST /api/relay
func (h *RelayHandler) Submit(c *gin.Context) {
	var body relayRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	kind, err := models.ParseMetaTxKind(body.Kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	if !common.IsHexAddress(body.Signer) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "signer must be a hex address",
		})
		return
	}

	signature, err := hexutil.Decode(body.Signature)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "signature must be 0x-prefixed hex",
		})
		return
	}

	id := body.ID
	if id == "" {
		id = uuid.New().String()
	}

	h.logger.WithFields(logrus.Fields{
		"id":     id,
		"kind":   kind,
		"signer": body.Signer,
		"nonce":  body.Nonce,
	}).Info("Relay request accepted")

	result, err := h.forwarder.Forward(c.Request.Context(), &relay.MetaTxRequest{
		ID:        id,
		Kind:      kind,
		Signer:    common.HexToAddress(body.Signer),
		Nonce:     body.Nonce,
		TypedData: body.TypedData,
		Signature: signature,
	})
	if err != nil {
		// The contract rejected it or the node did; either way the signer's
		// funds never moved.
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"id":      id,
			"error":   err.Error(),
		})
		return
	}

	response := gin.H{
		"success":     true,
		"id":          id,
		"txHash":      result.TxHash.Hex(),
		"blockNumber": result.BlockNumber.String(),
		"gasUsed":     result.GasUsed,
	}
	if result.TokenID != nil {
		response["tokenId"] = result.TokenID.String()
	}
	c.JSON(http.StatusOK, response)
}

// OwnerNonce returns the next meta-tx nonce for an owner so clients can sign
// without tracking state.
// GET /api/nonces/:owner
func (h *RelayHandler) OwnerNonce(c *gin.Context) {
	owner := c.Param("owner")
	if !common.IsHexAddress(owner) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "owner must be a hex address",
		})
		return
	}

	nonce, err := h.reader.OwnerNonces(c.Request.Context(), common.HexToAddress(owner))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"owner":   owner,
		"nonce":   nonce.String(),
	})
}

// QueueDepth reports how many requests are waiting in the forwarder.
// GET /api/relay/queue
func (h *RelayHandler) QueueDepth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"depth":   h.forwarder.QueueDepth(),
	})
}
