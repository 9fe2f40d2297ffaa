package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jmehdipour/billing-sync/internal/billing"
	"github.com/jmehdipour/billing-sync/internal/http/middleware"
)

const internalErrorMsg = "Internal Error"

// CustomerResolver maps the caller to a billing customer, creating it lazily.
type CustomerResolver interface {
	Resolve(ctx context.Context, userID, email string) (string, error)
}

// SessionCreator is the part of the billing client the session endpoints use.
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, p billing.CheckoutParams) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

type checkoutReq struct {
	Price *struct {
		ID string `json:"id"`
	} `json:"price"`
	PriceID  string            `json:"price_id"`
	Quantity int64             `json:"quantity"`
	Metadata map[string]string `json:"metadata"`
}

func (r checkoutReq) priceID() string {
	if r.Price != nil && strings.TrimSpace(r.Price.ID) != "" {
		return strings.TrimSpace(r.Price.ID)
	}
	return strings.TrimSpace(r.PriceID)
}

func checkoutSessionHandler(customers CustomerResolver, sessions SessionCreator, siteURL string, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req checkoutReq
		if err := c.Bind(&req); err != nil {
			log.Error("checkout: bad request body", zap.Error(err))
			return c.String(http.StatusInternalServerError, internalErrorMsg)
		}
		if req.Quantity <= 0 {
			req.Quantity = 1
		}
		if req.Metadata == nil {
			req.Metadata = map[string]string{}
		}

		sessionID, err := createCheckout(c, customers, sessions, siteURL, req)
		if err != nil {
			log.Error("checkout session failed", zap.Error(err))
			return c.String(http.StatusInternalServerError, internalErrorMsg)
		}
		return c.JSON(http.StatusOK, map[string]string{"sessionId": sessionID})
	}
}

func createCheckout(c echo.Context, customers CustomerResolver, sessions SessionCreator, siteURL string, req checkoutReq) (string, error) {
	id, ok := middleware.IdentityFromCtx(c)
	if !ok {
		return "", errors.New("could not get user")
	}
	priceID := req.priceID()
	if priceID == "" {
		return "", errors.New("missing price id")
	}

	ctx := c.Request().Context()
	customerID, err := customers.Resolve(ctx, id.UserID, id.Email)
	if err != nil {
		return "", err
	}
	return sessions.CreateCheckoutSession(ctx, billing.CheckoutParams{
		CustomerID: customerID,
		PriceID:    priceID,
		Quantity:   req.Quantity,
		Metadata:   req.Metadata,
		SuccessURL: siteURL + "account",
		CancelURL:  siteURL,
	})
}

func portalLinkHandler(customers CustomerResolver, sessions SessionCreator, siteURL string, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := middleware.IdentityFromCtx(c)
		if !ok {
			log.Error("portal link: could not get user")
			return c.String(http.StatusInternalServerError, internalErrorMsg)
		}

		ctx := c.Request().Context()
		customerID, err := customers.Resolve(ctx, id.UserID, id.Email)
		if err != nil || customerID == "" {
			log.Error("portal link: could not get customer", zap.String("user_id", id.UserID), zap.Error(err))
			return c.String(http.StatusInternalServerError, internalErrorMsg)
		}

		url, err := sessions.CreatePortalSession(ctx, customerID, siteURL+"account")
		if err != nil {
			log.Error("portal session failed", zap.String("user_id", id.UserID), zap.Error(err))
			return c.String(http.StatusInternalServerError, internalErrorMsg)
		}
		return c.JSON(http.StatusOK, map[string]string{"url": url})
	}
}
