package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Koomefranklin/kise-results-backend/config"
	"github.com/Koomefranklin/kise-results-backend/internal/api/handler"
	"github.com/Koomefranklin/kise-results-backend/internal/api/middleware"
	"github.com/Koomefranklin/kise-results-backend/internal/model"
	"github.com/Koomefranklin/kise-results-backend/internal/repository"
	"github.com/Koomefranklin/kise-results-backend/pkg/jwt"
	"github.com/Koomefranklin/kise-results-backend/pkg/mailer"
	"github.com/Koomefranklin/kise-results-backend/pkg/redis"
	"github.com/Koomefranklin/kise-results-backend/pkg/response"
	"github.com/Koomefranklin/kise-results-backend/pkg/tracker"
)

const (
	defaultBodyLimit = 1 << 20
	healthTimeout    = 3 * time.Second
)

// Deps infrastructure the router needs besides the handlers.
// Redis may be nil; token revocation and rate limiting are then skipped.
type Deps struct {
	Repo    *repository.Repository
	JWT     *jwt.Manager
	Redis   *redis.Client
	Tracker tracker.Tracker
	Mailer  mailer.Mailer
	Logger  *zap.Logger
}

// Setup builds the gin engine
func Setup(cfg *config.Config, h *handler.Handler, d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if err := RegisterValidators(); err != nil {
		d.Logger.Error("failed to register validators", zap.Error(err))
	}

	r := gin.New()

	var blacklist middleware.TokenBlacklist
	var limiter middleware.RateLimiter
	if d.Redis != nil {
		blacklist = d.Redis
		limiter = d.Redis
	}

	bodyLimit := int64(defaultBodyLimit)
	if cfg.Server.MaxUploadMB > 0 {
		bodyLimit = cfg.Server.MaxUploadMB << 20
	}

	// ── global middleware ──
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(d.Logger, d.Tracker, d.Mailer, cfg.Mail.AdminEmail))
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS))
	r.Use(middleware.BodyLimit(bodyLimit))

	r.GET("/health", health(d))

	admin := middleware.RoleAuth(model.RoleAdmin)
	staff := middleware.RoleAuth(model.RoleAdmin, model.RoleLecturer)
	sensitive := middleware.RateLimit(limiter, 10, time.Minute)

	v1 := r.Group("/api/v1")
	{
		// no token required
		auth := v1.Group("/auth")
		{
			auth.POST("/login", sensitive, h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.POST("/otp", sensitive, h.Auth.RequestOTP)
			auth.POST("/otp/verify", sensitive, h.Auth.VerifyOTP)
		}

		authenticated := v1.Group("")
		authenticated.Use(middleware.JWTAuth(d.JWT, blacklist, d.Logger))
		{
			// reachable before the first password change
			authenticated.POST("/auth/logout", h.Auth.Logout)
			authenticated.GET("/auth/me", h.Auth.GetCurrentUser)
			authenticated.PUT("/auth/password", h.Auth.ChangePassword)
		}

		authorized := authenticated.Group("")
		authorized.Use(middleware.FirstLogin(cfg.Auth.EnforceFirstLogin, mustChangePassword(d.Repo)))
		{
			users := authorized.Group("/users", admin)
			{
				users.GET("", h.User.ListUsers)
				users.GET("/:id", h.User.GetUser)
				users.POST("", h.User.CreateUser)
				users.PUT("/:id", h.User.UpdateUser)
				users.DELETE("/:id", h.User.DeleteUser)
				users.POST("/:id/reset-password", h.User.ResetPassword)
			}

			courses := authorized.Group("/courses")
			{
				courses.GET("", h.Catalog.ListCourses)
				courses.GET("/:id", h.Catalog.GetCourse)
				courses.POST("", admin, h.Catalog.CreateCourse)
				courses.PUT("/:id", admin, h.Catalog.UpdateCourse)
				courses.DELETE("/:id", admin, h.Catalog.DeleteCourse)
			}

			specs := authorized.Group("/specializations")
			{
				specs.GET("", h.Catalog.ListSpecializations)
				specs.GET("/:id", h.Catalog.GetSpecialization)
				specs.POST("", admin, h.Catalog.CreateSpecialization)
				specs.PUT("/:id", admin, h.Catalog.UpdateSpecialization)
				specs.PUT("/:id/hod", admin, h.Catalog.AssignHoD)
				specs.DELETE("/:id", admin, h.Catalog.DeleteSpecialization)
			}

			papers := authorized.Group("/papers")
			{
				papers.GET("", h.Catalog.ListPapers)
				papers.GET("/:id", h.Catalog.GetPaper)
				papers.GET("/:id/cat-combination", staff, h.Score.GetPaperCatCombination)
				papers.GET("/:id/available-modules", staff, h.Score.AvailableModules)
				papers.POST("", admin, h.Catalog.CreatePaper)
				papers.PUT("/:id", admin, h.Catalog.UpdatePaper)
				papers.DELETE("/:id", admin, h.Catalog.DeletePaper)
			}

			modules := authorized.Group("/modules")
			{
				modules.GET("", h.Catalog.ListModules)
				modules.GET("/:id", h.Catalog.GetModule)
				modules.POST("", admin, h.Catalog.CreateModule)
				modules.PUT("/:id", admin, h.Catalog.UpdateModule)
				modules.DELETE("/:id", admin, h.Catalog.DeleteModule)
			}

			lecturers := authorized.Group("/lecturers", staff)
			{
				lecturers.GET("", h.People.ListLecturers)
				lecturers.GET("/:id", h.People.GetLecturer)
				lecturers.POST("", admin, h.People.CreateLecturer)
				lecturers.PUT("/:id", admin, h.People.UpdateLecturer)
				lecturers.DELETE("/:id", admin, h.People.DeleteLecturer)
			}

			students := authorized.Group("/students")
			{
				students.GET("", staff, h.People.ListStudents)
				students.GET("/:id", h.People.GetStudent)
				students.POST("", admin, h.People.CreateStudent)
				students.PUT("/:id", admin, h.People.UpdateStudent)
				students.DELETE("/:id", admin, h.People.DeleteStudent)
			}

			deadlines := authorized.Group("/deadlines")
			{
				deadlines.GET("", h.Score.ListDeadlines)
				deadlines.PUT("/:name", admin, h.Score.SetDeadline)
			}

			combos := authorized.Group("/cat-combinations", staff)
			{
				combos.GET("", h.Score.ListCatCombinations)
				combos.GET("/:id", h.Score.GetCatCombination)
				combos.POST("", h.Score.CreateCatCombination)
				combos.PUT("/:id", h.Score.UpdateCatCombination)
				combos.DELETE("/:id", h.Score.DeleteCatCombination)
			}

			moduleScores := authorized.Group("/module-scores")
			{
				moduleScores.GET("", h.Score.ListModuleScores)
				moduleScores.POST("", staff, h.Score.CreateModuleScore)
				moduleScores.PUT("/:id", staff, h.Score.UpdateModuleScore)
				moduleScores.DELETE("/:id", staff, h.Score.DeleteModuleScore)
			}

			sitins := authorized.Group("/sitin-cats")
			{
				sitins.GET("", h.Score.ListSitins)
				sitins.POST("", staff, h.Score.CreateSitin)
				sitins.PUT("/:id", staff, h.Score.UpdateSitin)
				sitins.DELETE("/:id", staff, h.Score.DeleteSitin)
			}

			results := authorized.Group("/results")
			{
				results.GET("", h.Score.ListResults)
				results.POST("/generate", staff, h.Score.GenerateResults)
				results.GET("/export", staff, h.Score.ExportResults)
			}

			authorized.POST("/imports/:kind", admin, h.Import.Import)
			authorized.GET("/audit-logs", admin, h.Import.ListAuditLogs)

			tp := authorized.Group("/tp", staff)
			{
				tp.GET("/dashboard", h.Letter.Dashboard)
				tp.GET("/letters/export", h.Export.ExportAssessments)

				tp.GET("/periods", h.TP.ListPeriods)
				tp.GET("/periods/active", h.TP.GetActivePeriod)
				tp.POST("/periods", admin, h.TP.CreatePeriod)
				tp.PUT("/periods/:id", admin, h.TP.UpdatePeriod)
				tp.DELETE("/periods/:id", admin, h.TP.DeletePeriod)

				tp.GET("/assessment-types", h.TP.ListAssessmentTypes)
				tp.GET("/assessment-types/:id", h.TP.GetAssessmentType)
				tp.POST("/assessment-types", admin, h.TP.CreateAssessmentType)
				tp.PUT("/assessment-types/:id", admin, h.TP.UpdateAssessmentType)
				tp.PUT("/assessment-types/:id/admins", admin, h.TP.ReplaceAssessmentTypeAdmins)
				tp.DELETE("/assessment-types/:id", admin, h.TP.DeleteAssessmentType)

				// rubric writes are checked against the type's admins
				tp.GET("/sections", h.TP.ListSections)
				tp.GET("/sections/:id", h.TP.GetSection)
				tp.POST("/sections", h.TP.CreateSection)
				tp.PUT("/sections/:id", h.TP.UpdateSection)
				tp.DELETE("/sections/:id", h.TP.DeleteSection)
				tp.GET("/sub-sections", h.TP.ListSubSections)
				tp.GET("/sub-sections/:id", h.TP.GetSubSection)
				tp.POST("/sub-sections", h.TP.CreateSubSection)
				tp.PUT("/sub-sections/:id", h.TP.UpdateSubSection)
				tp.DELETE("/sub-sections/:id", h.TP.DeleteSubSection)
				tp.GET("/aspects", h.TP.ListAspects)
				tp.GET("/aspects/:id", h.TP.GetAspect)
				tp.POST("/aspects", h.TP.CreateAspect)
				tp.PUT("/aspects/:id", h.TP.UpdateAspect)
				tp.DELETE("/aspects/:id", h.TP.DeleteAspect)

				tp.GET("/students", h.TP.ListTPStudents)
				tp.GET("/students/invalid", admin, h.TP.ListInvalidIndex)
				tp.GET("/students/:id", h.TP.GetTPStudent)
				tp.POST("/students", admin, h.TP.CreateTPStudent)
				tp.PUT("/students/:id", admin, h.TP.UpdateTPStudent)
				tp.DELETE("/students/:id", admin, h.TP.DeleteTPStudent)

				tp.GET("/zonal-leaders", h.TP.ListZonalLeaders)
				tp.GET("/zonal-leaders/:id", h.TP.GetZonalLeader)
				tp.POST("/zonal-leaders", h.TP.CreateZonalLeader)
				tp.PUT("/zonal-leaders/:id", h.TP.UpdateZonalLeader)
				tp.DELETE("/zonal-leaders/:id", h.TP.DeleteZonalLeader)

				tp.GET("/letters", h.Letter.ListLetters)
				tp.GET("/letters/pending-deletion", h.Letter.ListPendingDeletion)
				tp.POST("/letters", h.Letter.CreateLetter)
				tp.GET("/letters/:id", h.Letter.GetLetter)
				tp.PUT("/letters/:id", h.Letter.UpdateLetterDetails)
				tp.DELETE("/letters/:id", h.Letter.DeleteLetter)
				tp.POST("/letters/:id/complete", h.Letter.CompleteLetter)
				tp.GET("/letters/:id/report", h.Letter.DownloadReport)
				tp.POST("/letters/:id/deletion-request", h.Letter.RequestDeletion)
				tp.DELETE("/letters/:id/deletion-request", h.Letter.CancelDeletion)
				tp.PUT("/student-aspects/:id", h.Letter.ScoreAspect)
				tp.PUT("/student-sections/:id", h.Letter.CommentSection)
			}
		}
	}

	return r
}

// health reports database and redis reachability
func health(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		status := gin.H{"database": "ok", "redis": "disabled"}
		healthy := true
		if d.Repo != nil {
			if err := d.Repo.Ping(ctx); err != nil {
				status["database"] = "unreachable"
				healthy = false
			}
		}
		if d.Redis != nil {
			status["redis"] = "ok"
			if err := d.Redis.Ping(ctx); err != nil {
				status["redis"] = "unreachable"
				healthy = false
			}
		}

		if !healthy {
			response.ErrorWithData(c, http.StatusServiceUnavailable, 50300, "unhealthy", status)
			return
		}
		response.OK(c, status)
	}
}

// mustChangePassword looks the flag up on every request so an admin reset
// takes effect before the token expires
func mustChangePassword(repo *repository.Repository) middleware.MustChangeChecker {
	if repo == nil {
		return nil
	}
	return func(ctx context.Context, userID string) (bool, error) {
		user, err := repo.User.GetByID(ctx, userID)
		if err != nil {
			return false, err
		}
		return user.MustChangePassword, nil
	}
}
