package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tradeup/internal/domain"
	"tradeup/internal/log"
	"tradeup/internal/repos"
	"tradeup/internal/services"
	"tradeup/internal/validate"
)

type OrderHandler struct {
	Trade  *services.TradeService
	Flow   *services.OrderService
	Orders *repos.OrderRepo
}

func orderView(o domain.Order, p domain.Perspective) fiber.Map {
	return fiber.Map{
		"id":            o.ID,
		"order_no":      o.OrderNo,
		"buyer_id":      o.BuyerID,
		"product_id":    o.ProductID,
		"amount":        o.Amount.StringFixed(2),
		"status":        o.Status,
		"status_label":  o.Status.Label(p),
		"pay_time":      o.PayTime,
		"ship_time":     o.ShipTime,
		"complete_time": o.CompleteTime,
		"cancel_time":   o.CancelTime,
		"created_at":    o.CreatedAt,
	}
}

func transitionView(r services.TransitionResult, p domain.Perspective) fiber.Map {
	v := orderView(r.Order, p)
	if r.NoOp {
		v["no_op"] = true
	}
	if len(r.Warnings) > 0 {
		v["warnings"] = r.Warnings
	}
	return v
}

// CreateTrade locks a product and opens a pending_payment order.
func (h *OrderHandler) CreateTrade(c *fiber.Ctx) error {
	u := currentUser(c)

	var body struct {
		ProductID string `json:"product_id"`
		Message   string `json:"message"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "malformed body")
	}
	if _, ok := validate.ID(body.ProductID); !ok {
		return badRequest(c, "invalid product_id")
	}

	o, err := h.Trade.CreateOrder(u.ID, body.ProductID, body.Message)
	if err != nil {
		return fail(c, "order.create", err)
	}
	log.Audit(c, "order.create", map[string]any{"order_no": o.OrderNo, "product_id": o.ProductID})
	return c.Status(fiber.StatusCreated).JSON(orderView(o, domain.AsBuyer))
}

// action builds a handler for one state-machine action.
func (h *OrderHandler) action(name services.OrderAction, p domain.Perspective) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		id, ok := validate.ID(c.Params("id"))
		if !ok {
			return badRequest(c, "invalid order id")
		}
		res, err := h.Flow.Apply(name, id, u.ID)
		if err != nil {
			return fail(c, "order."+string(name), err)
		}
		log.Audit(c, "order."+string(name), map[string]any{
			"order_id": id, "status": string(res.Order.Status), "no_op": res.NoOp,
		})
		return c.JSON(transitionView(res, p))
	}
}

func (h *OrderHandler) Pay() fiber.Handler {
	return h.action(services.ActionPay, domain.AsBuyer)
}
func (h *OrderHandler) CancelPayment() fiber.Handler {
	return h.action(services.ActionCancelPayment, domain.AsBuyer)
}
func (h *OrderHandler) Ship() fiber.Handler {
	return h.action(services.ActionShip, domain.AsSeller)
}
func (h *OrderHandler) ConfirmReceipt() fiber.Handler {
	return h.action(services.ActionConfirmReceipt, domain.AsBuyer)
}
func (h *OrderHandler) Refund() fiber.Handler {
	return h.action(services.ActionRefund, domain.AsBuyer)
}

// Complete is the legacy one-shot settlement endpoint.
func (h *OrderHandler) Complete(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid order id")
	}
	res, err := h.Trade.CompleteOrder(id, u.ID)
	if err != nil {
		return fail(c, "order.complete", err)
	}
	log.Audit(c, "order.complete", map[string]any{"order_id": id})
	return c.JSON(transitionView(res, domain.AsBuyer))
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid order id")
	}
	o, p, err := h.Flow.Get(id, u)
	if err != nil {
		return fail(c, "order.view", err)
	}
	return c.JSON(orderView(o, p))
}

// List returns the caller's orders; ?role=seller switches from
// purchases to sales.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	u := currentUser(c)

	var (
		orders []domain.Order
		err    error
		p      domain.Perspective
	)
	if c.Query("role") == "seller" {
		orders, err = h.Orders.ListBySeller(u.ID)
		p = domain.AsSeller
	} else {
		orders, err = h.Orders.ListByBuyer(u.ID)
		p = domain.AsBuyer
	}
	if err != nil {
		return fail(c, "order.list", err)
	}

	views := make([]fiber.Map, 0, len(orders))
	for _, o := range orders {
		views = append(views, orderView(o, p))
	}
	return c.JSON(fiber.Map{"orders": views})
}
