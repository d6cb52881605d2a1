package routes

import (
	"time"

	"makerhub-api/internal/adapters/events"
	"makerhub-api/internal/adapters/http/handlers"
	"makerhub-api/internal/adapters/http/middleware"
	"makerhub-api/internal/adapters/mailer"
	"makerhub-api/internal/adapters/persistence/repositories"
	"makerhub-api/internal/adapters/storage"
	"makerhub-api/internal/config"
	"makerhub-api/internal/core/domain"
	"makerhub-api/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the outside-world adapters main connects before routing
type Deps struct {
	Gateway   services.PaymentGateway
	Mailer    mailer.Mailer
	Storage   storage.MediaStorage
	Publisher events.Publisher
	Redis     *redis.Client // nil when no cache is configured
}

// Setup wires repositories, services and handlers, mounts every route and
// returns the scheduler so main can start and stop it with the server
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config, deps Deps) *services.CronService {
	// Repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	codeRepo := repositories.NewVerificationCodeRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	productRepo := repositories.NewProductRepository(db)
	mediaRepo := repositories.NewMediaRepository(db)
	feedbackRepo := repositories.NewFeedbackRepository(db)
	customRequestRepo := repositories.NewCustomRequestRepository(db)
	wishlistRepo := repositories.NewWishlistRepository(db)
	discountRepo := repositories.NewDiscountRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	returnRepo := repositories.NewReturnRepository(db)
	refundRepo := repositories.NewRefundRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)

	// Services
	codeService := services.NewVerificationService(codeRepo, deps.Mailer, cfg.Verification.CodeLifetime)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, codeService, cfg)
	userService := services.NewUserService(userRepo, refreshTokenRepo)
	catalogService := services.NewCatalogService(categoryRepo, productRepo)
	mediaService := services.NewMediaService(mediaRepo, productRepo, deps.Storage)
	feedbackService := services.NewFeedbackService(feedbackRepo, productRepo, userRepo)
	customRequestService := services.NewCustomRequestService(customRequestRepo, categoryRepo, deps.Storage, deps.Publisher)
	wishlistService := services.NewWishlistService(wishlistRepo, productRepo)
	discountService := services.NewDiscountService(discountRepo, productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, discountRepo, userRepo, deps.Mailer, deps.Publisher)
	paymentService := services.NewPaymentService(paymentRepo, orderRepo, deps.Gateway, deps.Publisher)
	returnService := services.NewReturnService(returnRepo, orderRepo, deps.Publisher)
	refundService := services.NewRefundService(refundRepo, paymentRepo, deps.Gateway, deps.Publisher)
	cronService := services.NewCronService(paymentService, codeService, refreshTokenRepo)

	h := handlerSet{
		health:        handlers.NewHealthHandler(deps.Redis),
		auth:          handlers.NewAuthHandler(authService, cfg),
		user:          handlers.NewUserHandler(userService),
		catalog:       handlers.NewCatalogHandler(catalogService),
		media:         handlers.NewMediaHandler(mediaService),
		feedback:      handlers.NewFeedbackHandler(feedbackService),
		customRequest: handlers.NewCustomRequestHandler(customRequestService),
		wishlist:      handlers.NewWishlistHandler(wishlistService),
		discount:      handlers.NewDiscountHandler(discountService),
		order:         handlers.NewOrderHandler(orderService),
		payment:       handlers.NewPaymentHandler(paymentService),
		returns:       handlers.NewReturnHandler(returnService),
		refund:        handlers.NewRefundHandler(refundService),
	}

	app.Get("/", h.health.Root)
	app.Get("/health", h.health.HealthCheck)
	app.Get("/swagger/*", swagger.HandlerDefault)

	setupAPIV1Routes(app.Group("/api/v1"), h, cfg)

	return cronService
}

type handlerSet struct {
	health        *handlers.HealthHandler
	auth          *handlers.AuthHandler
	user          *handlers.UserHandler
	catalog       *handlers.CatalogHandler
	media         *handlers.MediaHandler
	feedback      *handlers.FeedbackHandler
	customRequest *handlers.CustomRequestHandler
	wishlist      *handlers.WishlistHandler
	discount      *handlers.DiscountHandler
	order         *handlers.OrderHandler
	payment       *handlers.PaymentHandler
	returns       *handlers.ReturnHandler
	refund        *handlers.RefundHandler
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(router fiber.Router, h handlerSet, cfg *config.Config) {
	auth := middleware.AuthMiddleware(cfg)
	optional := middleware.OptionalAuth(cfg)
	can := middleware.RequirePermission
	catalogCache := middleware.CatalogCache(5 * time.Minute)

	router.Get("/", h.health.APIInfo)

	// Auth
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", middleware.AuthRateLimiter(), h.auth.Register)
	authRoutes.Post("/login", middleware.AuthRateLimiter(), h.auth.Login)
	authRoutes.Post("/refresh", h.auth.RefreshToken)
	authRoutes.Post("/logout", h.auth.Logout)
	authRoutes.Post("/logout-all", auth, h.auth.LogoutAll)
	authRoutes.Get("/me", auth, middleware.NoCacheHeaders(), h.auth.Me)
	authRoutes.Post("/verify-email", middleware.AuthRateLimiter(), h.auth.VerifyEmail)
	authRoutes.Post("/resend-verification", middleware.StrictRateLimiter(), h.auth.ResendVerification)
	authRoutes.Post("/password-reset/request", middleware.StrictRateLimiter(), h.auth.RequestPasswordReset)
	authRoutes.Post("/password-reset/confirm", middleware.AuthRateLimiter(), h.auth.ConfirmPasswordReset)

	// Profile (self)
	profile := router.Group("/profile", auth, middleware.NoCacheHeaders())
	profile.Get("/", h.user.GetProfile)
	profile.Put("/", h.user.UpdateProfile)
	profile.Put("/password", h.user.ChangePassword)

	// User management (admin)
	users := router.Group("/users", auth, can(domain.ActionManageUsers))
	users.Get("/", h.user.ListUsers)
	users.Get("/:id", h.user.GetUser)
	users.Patch("/:id/activate", h.user.ActivateUser)
	users.Patch("/:id/deactivate", h.user.DeactivateUser)
	users.Patch("/:id/role", h.user.SetRole)

	// Catalog
	categories := router.Group("/categories")
	categories.Get("/", optional, catalogCache, h.catalog.ListCategories)
	categories.Get("/:id", optional, catalogCache, h.catalog.GetCategory)
	categories.Get("/:id/required-fields", optional, catalogCache, h.catalog.RequiredFields)
	categories.Post("/", auth, can(domain.ActionManageCatalog), h.catalog.CreateCategory)
	categories.Put("/:id", auth, can(domain.ActionManageCatalog), h.catalog.UpdateCategory)
	categories.Delete("/:id", auth, can(domain.ActionManageCatalog), h.catalog.DeleteCategory)

	products := router.Group("/products")
	products.Get("/", optional, catalogCache, h.catalog.ListProducts)
	products.Get("/:id", optional, catalogCache, h.catalog.GetProduct)
	products.Get("/:id/media", catalogCache, h.media.ListByProduct)
	products.Get("/:id/discounts", catalogCache, h.discount.ListForProduct)
	products.Post("/", auth, can(domain.ActionManageCatalog), h.catalog.CreateProduct)
	products.Put("/:id", auth, can(domain.ActionManageCatalog), h.catalog.UpdateProduct)
	products.Delete("/:id", auth, can(domain.ActionManageCatalog), h.catalog.DeleteProduct)
	products.Post("/:id/media", auth, can(domain.ActionManageCatalog), h.media.Upload)

	router.Delete("/media/:id", auth, can(domain.ActionManageCatalog), h.media.Delete)

	// Feedback
	feedback := router.Group("/feedback")
	feedback.Get("/", optional, h.feedback.List)
	feedback.Post("/", auth, h.feedback.Create)
	feedback.Patch("/:id/publish", auth, can(domain.ActionModerateFeedback), h.feedback.Publish)
	feedback.Patch("/:id/unpublish", auth, can(domain.ActionModerateFeedback), h.feedback.Unpublish)
	feedback.Delete("/:id", auth, can(domain.ActionModerateFeedback), h.feedback.Delete)

	// Custom requests; static paths first so they are not taken for :id
	customRequests := router.Group("/custom-requests")
	customRequests.Get("/availability", h.customRequest.Availability)
	customRequests.Get("/control", auth, can(domain.ActionControlCustomIntake), h.customRequest.GetControl)
	customRequests.Put("/control", auth, can(domain.ActionControlCustomIntake), h.customRequest.UpdateControl)
	customRequests.Post("/", optional, middleware.StrictRateLimiter(), h.customRequest.Create)
	customRequests.Get("/", auth, h.customRequest.List)
	customRequests.Get("/:id", auth, h.customRequest.Get)
	customRequests.Patch("/:id/status", auth, can(domain.ActionManageCustomRequest), h.customRequest.UpdateStatus)

	// Wishlist
	wishlist := router.Group("/wishlist", auth)
	wishlist.Get("/", h.wishlist.Get)
	wishlist.Post("/items", h.wishlist.AddItem)
	wishlist.Delete("/items/:product_id", h.wishlist.RemoveItem)

	// Discounts
	discounts := router.Group("/discounts")
	discounts.Get("/", optional, h.discount.List)
	discounts.Get("/:id", h.discount.Get)
	discounts.Post("/", auth, can(domain.ActionManageCatalog), h.discount.Create)
	discounts.Put("/:id", auth, can(domain.ActionManageCatalog), h.discount.Update)
	discounts.Delete("/:id", auth, can(domain.ActionManageCatalog), h.discount.Delete)

	productDiscounts := router.Group("/product-discounts", auth, can(domain.ActionManageCatalog))
	productDiscounts.Post("/", h.discount.Attach)
	productDiscounts.Delete("/:product_id/:discount_id", h.discount.Detach)

	// Orders
	orders := router.Group("/orders", auth, middleware.NoCacheHeaders())
	orders.Post("/", h.order.Create)
	orders.Get("/", h.order.List)
	orders.Get("/:id", h.order.Get)
	orders.Delete("/:id", h.order.Cancel)
	orders.Get("/:id/summary", h.order.Summary)
	orders.Post("/:id/apply-discount", h.order.ApplyDiscount)
	orders.Patch("/:id/status", can(domain.ActionUpdateOrderStatus), h.order.UpdateStatus)
	orders.Post("/:id/pay", h.payment.PayOrder)

	router.Get("/payments/:ref/status", auth, middleware.NoCacheHeaders(), h.payment.Status)

	// Returns
	returns := router.Group("/returns", auth, middleware.NoCacheHeaders())
	returns.Post("/", h.returns.Create)
	returns.Get("/", h.returns.List)
	returns.Get("/:id", h.returns.Get)
	returns.Post("/:id/cancel", h.returns.Cancel)
	returns.Post("/:id/approve", can(domain.ActionReviewReturn), h.returns.Approve)
	returns.Post("/:id/reject", can(domain.ActionReviewReturn), h.returns.Reject)
	returns.Post("/:id/complete", can(domain.ActionReviewReturn), h.returns.Complete)

	// Refunds
	refunds := router.Group("/refunds", auth, middleware.NoCacheHeaders())
	refunds.Get("/", h.refund.List)
	refunds.Get("/:id", h.refund.Get)
	refunds.Post("/:id/complete", can(domain.ActionManageRefund), h.refund.Complete)
	refunds.Post("/:id/fail", can(domain.ActionManageRefund), h.refund.Fail)
}
