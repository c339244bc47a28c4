package router

import (
	"github.com/gin-gonic/gin"
	"github.com/mestresdocafe/backend/internal/infrastructure/auth"
	"github.com/mestresdocafe/backend/internal/interfaces/http/handler"
	"github.com/mestresdocafe/backend/internal/interfaces/http/middleware"
)

// FiscalHandlers are the handlers mounted under /fiscal
type FiscalHandlers struct {
	Tax        *handler.TaxHandler
	Exemptions *handler.ExemptionHandler
	NCM        *handler.NCMHandler
	Products   *handler.ProductTaxHandler
	StateRates *handler.StateRateHandler
	Health     *handler.HealthHandler
}

// FiscalRoutes builds the /fiscal route tree. Health is public; everything
// else runs behind authn. Reads need fiscal:read and changes fiscal:write.
func FiscalRoutes(h FiscalHandlers, authn ...gin.HandlerFunc) *RouteGroup {
	fiscal := NewRouteGroup("/fiscal")
	fiscal.GET("/health", h.Health.Check)

	read := middleware.RequireScope(auth.ScopeRead)
	write := middleware.RequireScope(auth.ScopeWrite)

	protected := fiscal.Group("").Use(authn...)

	protected.
		POST("/orders/:id/taxes", write, h.Tax.CalculateOrder).
		GET("/orders/:id/taxes", read, h.Tax.GetOrderTaxes).
		GET("/orders/:id/compliance", read, h.Tax.Compliance).
		POST("/quote", read, h.Tax.Quote).
		GET("/summary", read, h.Tax.Summary)

	protected.
		POST("/exemptions", write, h.Exemptions.Create).
		POST("/exemptions/:id/deactivate", write, h.Exemptions.Deactivate).
		POST("/exemptions/:id/extend", write, h.Exemptions.Extend).
		GET("/customers/:id/exemptions", read, h.Exemptions.ListByCustomer)

	protected.
		POST("/ncm", write, h.NCM.Save).
		GET("/ncm", read, h.NCM.List).
		GET("/ncm/:code", read, h.NCM.Get)

	protected.
		PUT("/products/:id/tax", write, h.Products.Save).
		GET("/products/:id/tax", read, h.Products.Get)

	protected.
		PUT("/state-rates", write, h.StateRates.Save).
		GET("/state-rates", read, h.StateRates.List)

	return fiscal
}
