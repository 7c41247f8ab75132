package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/manalamro/chippy/internal/entity"
	"github.com/manalamro/chippy/internal/service"
)

// Handler handles HTTP requests for the application.
type Handler struct {
	products  *service.ProductService
	carts     *service.CartService
	guests    *service.GuestCartService
	merger    *service.MergeService
	addresses *service.AddressService
	orders    *service.OrderService
}

func NewHandler(
	products *service.ProductService,
	carts *service.CartService,
	guests *service.GuestCartService,
	merger *service.MergeService,
	addresses *service.AddressService,
	orders *service.OrderService,
) *Handler {
	return &Handler{
		products:  products,
		carts:     carts,
		guests:    guests,
		merger:    merger,
		addresses: addresses,
		orders:    orders,
	}
}

// NewRouter builds the engine with the shared middleware and all routes.
func NewRouter(h *Handler, auth *Authenticator, origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(CORS(origins))
	h.RegisterRoutes(r, auth)
	return r
}

func (h *Handler) RegisterRoutes(r gin.IRouter, auth *Authenticator) {
	api := r.Group("/api")
	api.GET("/health", h.handleHealth)
	api.GET("/products", h.handleGetProducts)

	guest := api.Group("/guest-cart")
	guest.GET("", h.handleGetGuestCart)
	guest.POST("/items", h.handleAddGuestItem)
	guest.PATCH("/items/:id", h.handleUpdateGuestItem)
	guest.DELETE("/items/:id", h.handleRemoveGuestItem)
	guest.DELETE("", h.handleClearGuestCart)

	user := api.Group("", auth.RequireUser)
	user.GET("/cart", h.handleGetCart)
	user.POST("/cart/items", h.handleAddToCart)
	user.PATCH("/cart/items/:id", h.handleUpdateCartItem)
	user.DELETE("/cart/items/:id", h.handleRemoveCartItem)
	user.POST("/cart/merge", h.handleMergeCart)
	user.GET("/addresses", h.handleListAddresses)
	user.POST("/addresses", h.handleCreateAddress)
	user.GET("/addresses/:id", h.handleGetAddress)
	user.POST("/orders", h.handlePlaceOrder)
	user.GET("/orders", h.handleListMyOrders)

	admin := api.Group("/admin", auth.RequireUser, auth.RequireAdmin)
	admin.GET("/orders", h.handleListOrders)
	admin.PATCH("/orders/:id/status", h.handleUpdateOrderStatus)
	admin.GET("/orders/:id/history", h.handleOrderHistory)
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *Handler) handleGetProducts(c *gin.Context) {
	products, err := h.products.GetProducts(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to get products")
		return
	}
	c.JSON(http.StatusOK, products)
}

// --- Cart ---

type addToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *Handler) handleGetCart(c *gin.Context) {
	cart, err := h.carts.GetCart(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		writeError(c, err, "failed to get cart")
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) handleAddToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	item, err := h.carts.AddToCart(c.Request.Context(), c.GetString(ctxUserID), req.ProductID, req.Quantity)
	if err != nil {
		writeError(c, err, "failed to add item to cart")
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) handleUpdateCartItem(c *gin.Context) {
	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	userID := c.GetString(ctxUserID)
	if err := h.carts.UpdateCartItem(ctx, userID, c.Param("id"), *req.Quantity); err != nil {
		writeError(c, err, "failed to update cart item")
		return
	}

	cart, err := h.carts.GetCart(ctx, userID)
	if err != nil {
		writeError(c, err, "failed to get cart")
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) handleRemoveCartItem(c *gin.Context) {
	if err := h.carts.RemoveCartItem(c.Request.Context(), c.GetString(ctxUserID), c.Param("id")); err != nil {
		writeError(c, err, "failed to remove cart item")
		return
	}
	c.Status(http.StatusNoContent)
}

type mergeCartRequest struct {
	Items []struct {
		ProductID string `json:"product_id" binding:"required"`
		Title     string `json:"title"`
		Quantity  int    `json:"quantity"`
	} `json:"items" binding:"dive"`
}

// handleMergeCart merges the guest cart named by the X-Guest-Cart-ID header.
// Without the header it merges the lines posted in the body, which is how
// clients that keep the guest cart locally hand it over.
func (h *Handler) handleMergeCart(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString(ctxUserID)

	if guestCartID := c.GetHeader(headerGuestCartID); guestCartID != "" {
		result, err := h.merger.MergeGuestCart(ctx, userID, guestCartID)
		if err != nil {
			writeError(c, err, "failed to merge cart")
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	var req mergeCartRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindError(c, err)
			return
		}
	}

	guest := entity.NewCart("", "")
	for _, line := range req.Items {
		guest.Items = append(guest.Items, entity.CartItem{ProductID: line.ProductID, Title: line.Title, Quantity: line.Quantity})
	}

	result, err := h.merger.Merge(ctx, userID, guest)
	if err != nil {
		writeError(c, err, "failed to merge cart")
		return
	}
	c.JSON(http.StatusOK, result)
}

// --- Guest cart ---

func (h *Handler) handleGetGuestCart(c *gin.Context) {
	cart, err := h.guests.Get(c.Request.Context(), c.GetHeader(headerGuestCartID))
	if err != nil {
		writeError(c, err, "failed to get cart")
		return
	}
	writeGuestCart(c, http.StatusOK, cart)
}

func (h *Handler) handleAddGuestItem(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	cart, err := h.guests.AddItem(c.Request.Context(), c.GetHeader(headerGuestCartID), req.ProductID, req.Quantity)
	if err != nil {
		writeError(c, err, "failed to add item to cart")
		return
	}
	writeGuestCart(c, http.StatusCreated, cart)
}

func (h *Handler) handleUpdateGuestItem(c *gin.Context) {
	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	cart, err := h.guests.UpdateItem(c.Request.Context(), c.GetHeader(headerGuestCartID), c.Param("id"), *req.Quantity)
	if err != nil {
		writeError(c, err, "failed to update cart item")
		return
	}
	writeGuestCart(c, http.StatusOK, cart)
}

func (h *Handler) handleRemoveGuestItem(c *gin.Context) {
	cart, err := h.guests.RemoveItem(c.Request.Context(), c.GetHeader(headerGuestCartID), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to remove cart item")
		return
	}
	writeGuestCart(c, http.StatusOK, cart)
}

func (h *Handler) handleClearGuestCart(c *gin.Context) {
	if err := h.guests.Clear(c.Request.Context(), c.GetHeader(headerGuestCartID)); err != nil {
		writeError(c, err, "failed to clear cart")
		return
	}
	c.Status(http.StatusNoContent)
}

func writeGuestCart(c *gin.Context, status int, cart *entity.Cart) {
	if cart.ID != "" {
		c.Header(headerGuestCartID, cart.ID)
	}
	c.JSON(status, cart)
}

// --- Addresses ---

type addressRequest struct {
	FullName  string `json:"full_name" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
	Street    string `json:"street" binding:"required"`
	City      string `json:"city" binding:"required"`
	Notes     string `json:"notes"`
	IsDefault bool   `json:"is_default"`
}

func (h *Handler) handleListAddresses(c *gin.Context) {
	addresses, err := h.addresses.List(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		writeError(c, err, "failed to get addresses")
		return
	}
	c.JSON(http.StatusOK, addresses)
}

func (h *Handler) handleGetAddress(c *gin.Context) {
	address, err := h.addresses.Find(c.Request.Context(), c.Param("id"), c.GetString(ctxUserID))
	if err != nil {
		writeError(c, err, "failed to get address")
		return
	}
	c.JSON(http.StatusOK, address)
}

func (h *Handler) handleCreateAddress(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	address, err := h.addresses.Create(c.Request.Context(), c.GetString(ctxUserID), entity.Address{
		FullName:  req.FullName,
		Phone:     req.Phone,
		Street:    req.Street,
		City:      req.City,
		Notes:     req.Notes,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		writeError(c, err, "failed to create address")
		return
	}
	c.JSON(http.StatusCreated, address)
}

// --- Orders ---

type placeOrderRequest struct {
	AddressID string                `json:"address_id" binding:"required"`
	Payment   entity.PaymentDetails `json:"payment"`
}

func (h *Handler) handlePlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	result, err := h.orders.PlaceOrder(c.Request.Context(), &entity.PlaceOrder{
		UserID:    c.GetString(ctxUserID),
		AddressID: req.AddressID,
		Payment:   req.Payment,
	})
	if err != nil {
		writeError(c, err, "failed to place order")
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) handleListMyOrders(c *gin.Context) {
	orders, err := h.orders.ListMyOrders(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		writeError(c, err, "failed to get orders")
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) handleListOrders(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	orders, err := h.orders.GetRecentOrders(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err, "failed to get orders")
		return
	}
	c.JSON(http.StatusOK, orders)
}

type updateOrderStatusRequest struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

func (h *Handler) handleUpdateOrderStatus(c *gin.Context) {
	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	order, err := h.orders.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status, req.PaymentStatus)
	if err != nil {
		writeError(c, err, "failed to update order status")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) handleOrderHistory(c *gin.Context) {
	events, err := h.orders.OrderHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to get order history")
		return
	}
	c.JSON(http.StatusOK, events)
}
