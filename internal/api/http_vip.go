package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"pudding/internal/entity"
	"pudding/internal/payment"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// VIP 定价。购买是模拟的，价格只用于展示和订单快照。
const vipPrice = 19.9

// StartVIPCheckout 发起模拟购买。同一用户只允许一笔在途订单。
func (h *HTTPHandler) StartVIPCheckout(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	if user.IsPremium {
		BadRequest(c, ErrCodeInvalidRequest, "已经是 PRO 用户")
		return
	}

	checkout, err := h.payments.Begin(user.ID, vipPrice)
	if err != nil {
		if errors.Is(err, payment.ErrCheckoutInFlight) {
			ErrorResponse(c, http.StatusConflict, ErrCodeCheckoutInFlight, "已有一笔订单在处理中")
			return
		}
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to start checkout")
		InternalError(c, "failed to start checkout")
		return
	}

	c.JSON(http.StatusAccepted, checkout)
}

// GetVIPCheckout 查询订单状态，前端轮询直到终态。
func (h *HTTPHandler) GetVIPCheckout(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	checkout, err := h.payments.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, payment.ErrCheckoutNotFound) {
			NotFound(c, ErrCodeCheckoutNotFound, "订单不存在")
			return
		}
		logrus.WithError(err).Error("failed to load checkout")
		InternalError(c, "failed to load checkout")
		return
	}

	// 订单只对购买者本人和管理员可见
	if checkout.UserID != user.ID && user.Role != entity.UserRoleAdmin {
		NotFound(c, ErrCodeCheckoutNotFound, "订单不存在")
		return
	}

	c.JSON(http.StatusOK, checkout)
}

// settleVIPPurchase 结算成功后的回调：把用户升到 vip。
// 管理员本就拥有全部权限，角色保持不变。
func (h *HTTPHandler) settleVIPPurchase(userID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := h.repo.GetUserByID(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("failed to load user after settlement")
		return
	}

	if user.Role != entity.UserRoleAdmin && user.Role != entity.UserRoleVIP {
		if err := h.repo.UpdateUser(ctx, userID, map[string]interface{}{"role": entity.UserRoleVIP}); err != nil {
			logrus.WithError(err).WithField("user_id", userID).Error("failed to upgrade user role")
			return
		}
	}

	// 下一次请求读到升级后的角色
	h.sessions.Invalidate(userID)

	logrus.WithField("user_id", userID).Info("vip_purchase_settled")
}
