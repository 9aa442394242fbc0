package estimate

import (
	"context"
	"net/http"
	"strings"

	"food-co2-estimator/internal/core/estimator"
	"food-co2-estimator/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MsgUnexpected 純文字端點發生未預期錯誤時的回覆
const MsgUnexpected = "Something went wrong. :-( Please try again."

// Runner 估算流程
type Runner interface {
	Run(ctx context.Context, input string, verbose bool, threshold float64) estimator.Result
}

// Request 估算請求
type Request struct {
	Input               string   `json:"input" binding:"required"`
	Verbose             bool     `json:"verbose"`
	NegligibleThreshold *float64 `json:"negligible_threshold" binding:"omitempty,gte=0,lte=1"`
}

// Response 估算回應
type Response struct {
	Report    string `json:"report"`
	Outcome   string `json:"outcome"`
	RequestID string `json:"request_id"`
}

// Handler 估算 API
// --------------------------------------------------
type Handler struct {
	runner    Runner
	threshold float64
	debug     bool
}

// NewHandler 建立處理器，threshold 為請求未指定時的可忽略門檻
func NewHandler(runner Runner, threshold float64, debug bool) *Handler {
	return &Handler{runner: runner, threshold: threshold, debug: debug}
}

// HandleEstimate POST /api/v1/estimate
func (h *Handler) HandleEstimate(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("無效的估算請求",
			zap.String("request_id", requestid.Get(c)),
			zap.Error(err),
		)
		cerr := common.ErrInvalidRequest.Wrap(err)
		if common.IsPayloadTooLarge(err) {
			cerr = common.ErrPayloadTooLarge.Wrap(err)
		}
		status, resp := common.ToResponse(cerr, h.debug)
		c.JSON(status, resp)
		return
	}
	input := strings.TrimSpace(req.Input)
	if input == "" {
		status, resp := common.ToResponse(common.ErrInvalidRequest, h.debug)
		c.JSON(status, resp)
		return
	}

	threshold := h.threshold
	if req.NegligibleThreshold != nil {
		threshold = *req.NegligibleThreshold
	}

	res := h.runner.Run(c.Request.Context(), input, req.Verbose, threshold)

	status := http.StatusOK
	if res.Err != nil {
		status = estimator.ToCustomError(res.Err).Status
	}
	c.JSON(status, Response{
		Report:    res.Report,
		Outcome:   res.Outcome,
		RequestID: requestid.Get(c),
	})
}

// HandleCalculate GET /api/v1/estimate?url=...，回傳純文字報告
func (h *Handler) HandleCalculate(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			common.LogError("Panic in calculate",
				zap.Any("error", r),
				zap.String("request_id", requestid.Get(c)),
			)
			c.String(http.StatusInternalServerError, MsgUnexpected)
		}
	}()

	rawURL := strings.TrimSpace(c.Query("url"))
	if rawURL == "" {
		c.String(http.StatusBadRequest, "Missing url parameter")
		return
	}

	verbose := c.Query("verbose") == "true"
	res := h.runner.Run(c.Request.Context(), rawURL, verbose, h.threshold)
	c.String(http.StatusOK, res.Report)
}
