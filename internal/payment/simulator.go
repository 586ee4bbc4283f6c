// Package payment 实现 VIP 购买的模拟结算。
// 没有真实支付通道：下单后经过固定延迟直接结算成功，
// 成功回调里由上层把用户角色升级为 vip。
package payment

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	StatusIdle      = "idle"
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

var (
	ErrCheckoutInFlight = errors.New("payment: checkout already in flight for user")
	ErrCheckoutNotFound = errors.New("payment: checkout not found")
)

// 终态订单保留一段时间供前端轮询到结果，之后在下一次下单时清掉，
// 避免订单表无限增长。
const settledRetention = 10 * time.Minute

// Checkout 是一次模拟购买的快照。
type Checkout struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	Status    string    `json:"status"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	SettledAt time.Time `json:"settled_at,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// SuccessFunc 在结算成功后被调用，入参是购买用户的 ID。
type SuccessFunc func(userID uint)

// Simulator 管理进行中的模拟结算。
// 同一用户同时只允许一笔在途订单，结算是一次性的固定延迟。
type Simulator struct {
	delay     time.Duration
	onSuccess SuccessFunc

	mu        sync.Mutex
	checkouts map[string]*Checkout
	inFlight  map[uint]string
}

// NewSimulator 创建模拟结算器。delay <= 0 时使用默认 1.5 秒。
func NewSimulator(delay time.Duration, onSuccess SuccessFunc) *Simulator {
	if delay <= 0 {
		delay = 1500 * time.Millisecond
	}
	return &Simulator{
		delay:     delay,
		onSuccess: onSuccess,
		checkouts: make(map[string]*Checkout),
		inFlight:  make(map[uint]string),
	}
}

// Begin 为用户发起一笔模拟购买，返回处于 pending 状态的订单。
func (s *Simulator) Begin(userID uint, amount float64) (*Checkout, error) {
	if s == nil {
		return nil, fmt.Errorf("payment simulator not initialised")
	}
	if userID == 0 {
		return nil, fmt.Errorf("invalid user id")
	}

	s.mu.Lock()
	s.pruneSettledLocked(time.Now().UTC())
	if existingID, ok := s.inFlight[userID]; ok {
		if existing, found := s.checkouts[existingID]; found && existing.Status == StatusPending {
			s.mu.Unlock()
			return nil, ErrCheckoutInFlight
		}
		delete(s.inFlight, userID)
	}

	checkout := &Checkout{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    StatusPending,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
	s.checkouts[checkout.ID] = checkout
	s.inFlight[userID] = checkout.ID
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"checkout_id": checkout.ID,
		"user_id":     userID,
		"amount":      amount,
	}).Info("payment_checkout_started")

	// 一次性定时器模拟结算延迟，没有周期任务
	time.AfterFunc(s.delay, func() {
		s.complete(checkout.ID, StatusSucceeded, "")
	})

	return snapshot(checkout), nil
}

// pruneSettledLocked 丢弃超过保留期的终态订单。调用方必须已持有 s.mu。
func (s *Simulator) pruneSettledLocked(now time.Time) {
	for id, checkout := range s.checkouts {
		if checkout.Status == StatusPending {
			continue
		}
		if now.Sub(checkout.SettledAt) >= settledRetention {
			delete(s.checkouts, id)
		}
	}
}

// complete 落定一笔订单的终态。失败路径目前只在内部流程里使用。
func (s *Simulator) complete(checkoutID, status, reason string) {
	s.mu.Lock()
	checkout, ok := s.checkouts[checkoutID]
	if !ok || checkout.Status != StatusPending {
		s.mu.Unlock()
		return
	}
	checkout.Status = status
	checkout.Reason = reason
	checkout.SettledAt = time.Now().UTC()
	delete(s.inFlight, checkout.UserID)
	userID := checkout.UserID
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"checkout_id": checkoutID,
		"user_id":     userID,
		"status":      status,
	}).Info("payment_checkout_settled")

	if status == StatusSucceeded && s.onSuccess != nil {
		s.onSuccess(userID)
	}
}

// Get 返回订单快照，用于前端轮询状态。
func (s *Simulator) Get(checkoutID string) (*Checkout, error) {
	if s == nil {
		return nil, fmt.Errorf("payment simulator not initialised")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	checkout, ok := s.checkouts[checkoutID]
	if !ok {
		return nil, ErrCheckoutNotFound
	}
	return snapshot(checkout), nil
}

func snapshot(c *Checkout) *Checkout {
	copied := *c
	return &copied
}
