package router

import (
	"github.com/changhyeonkim/letter-press/go-api-server/internal/auth"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/config"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/letter"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/member"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/meta"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/physicalrequest"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/clock"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/database"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/lock"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/metrics"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/middleware"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/session"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/token"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Infra carries the process-wide resources created in main
type Infra struct {
	Redis     *redis.Client // optional
	Locker    lock.Locker
	Publisher physicalrequest.Publisher
	Clock     clock.Clock
}

// Services exposes what background jobs need from the wired application
type Services struct {
	Reconciler *physicalrequest.Reconciler
}

// Setup configures all application-specific routes using dependency injection
func Setup(router *gin.Engine, cfg *config.Config, db *database.DB, infra Infra) *Services {
	if infra.Locker == nil {
		infra.Locker = lock.NewLocalLocker()
	}
	if infra.Clock == nil {
		infra.Clock = clock.New()
	}

	// Meta handler (health check, app version, legal documents)
	metaHandler := meta.NewHandler(cfg, db, infra.Redis)
	router.GET("/health", metaHandler.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// repository
	memberRepository := member.NewMemberRepository()
	letterRepository := letter.NewLetterRepository()
	requestRepository := physicalrequest.NewGormRequestRepository()
	counterStore := letter.NewGormCounterStore()

	// shared services
	tokenManager := token.NewJWTManager(cfg)
	sessionManager := session.NewManager(cfg)

	// service
	authService := auth.NewAuthService(db.DB, memberRepository, tokenManager, cfg.App.AdminEmails)
	memberService := member.NewMemberService(db.DB, memberRepository)
	letterService := letter.NewLetterService(db.DB, letterRepository, cfg.Physical)
	physicalService := physicalrequest.NewPhysicalRequestService(physicalrequest.ServiceDeps{
		DB:        db.DB,
		Requests:  requestRepository,
		Letters:   letterRepository,
		Counters:  counterStore,
		Addresses: physicalrequest.NewAddressValidator(),
		Costs:     physicalrequest.NewCostCalculator(cfg.Physical),
		Locker:    infra.Locker,
		Publisher: infra.Publisher,
		Clock:     infra.Clock,
		Policy:    cfg.Physical,
	})
	reconciler := physicalrequest.NewReconciler(db.DB, requestRepository, letterRepository, counterStore)

	// handler
	authHandler := auth.NewAuthHandler(authService)
	memberHandler := member.NewMemberHandler(memberService)
	letterHandler := letter.NewLetterHandler(letterService)
	physicalHandler := physicalrequest.NewPhysicalRequestHandler(physicalService, reconciler)

	submitThrottle := middleware.NewThrottle("physical_submit", cfg.Throttle.SubmitRPS, cfg.Throttle.SubmitBurst)

	// API v1 routes
	authV1 := router.Group("/api/v1/auth")
	{
		authV1.POST("/signup", authHandler.Signup)
		authV1.POST("/login", authHandler.Login)
		authV1.POST("/refresh", authHandler.Refresh)
	}

	memberV1 := router.Group("/api/v1/members")
	memberV1.Use(middleware.JWT(cfg))
	{
		memberV1.GET("/me", memberHandler.GetProfile)
	}

	letterV1 := router.Group("/api/v1/letters")
	{
		letterV1.GET("/:letterId", letterHandler.Get)
		letterV1.POST("", middleware.JWT(cfg), letterHandler.Create)
		letterV1.PATCH("/:letterId/physical-settings", middleware.JWT(cfg), letterHandler.UpdatePhysicalSettings)

		// 비회원 신청: 세션 토큰으로 신청자 식별
		letterV1.POST("/:letterId/physical-requests",
			submitThrottle.Handler(),
			middleware.OptionalJWT(cfg),
			middleware.Session(sessionManager),
			physicalHandler.Submit,
		)
		letterV1.GET("/:letterId/physical-requests", middleware.JWT(cfg), physicalHandler.ListForLetter)
		letterV1.POST("/:letterId/physical-requests/:requestId/decision", middleware.JWT(cfg), physicalHandler.Decide)
	}

	requestV1 := router.Group("/api/v1/physical-requests")
	requestV1.Use(middleware.OptionalJWT(cfg), middleware.Session(sessionManager))
	{
		requestV1.GET("/:requestId", physicalHandler.GetStatus)
		requestV1.POST("/:requestId/cancel", physicalHandler.Cancel)
	}

	adminMemberV1 := router.Group("/api/v1/admin/members")
	adminMemberV1.Use(middleware.JWT(cfg), middleware.RequireAdmin())
	{
		adminMemberV1.PATCH("/:memberId/role", memberHandler.ChangeRole)
	}

	adminV1 := router.Group("/api/v1/admin/physical-requests")
	adminV1.Use(middleware.JWT(cfg), middleware.RequireAdmin())
	{
		adminV1.GET("", physicalHandler.AdminList)
		adminV1.GET("/popular", physicalHandler.Popular)
		adminV1.POST("/reconcile", physicalHandler.Reconcile)
		adminV1.GET("/:requestId", physicalHandler.AdminGet)
		adminV1.POST("/:requestId/notes", physicalHandler.AppendNote)
		adminV1.PATCH("/:requestId/shipment", physicalHandler.UpdateShipment)
	}

	return &Services{Reconciler: reconciler}
}
