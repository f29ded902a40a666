package httpx

import (
	"net/http"

	"github.com/cuido/cuidosvc/internal/http/handlers"
	"github.com/cuido/cuidosvc/internal/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups the route handlers mounted by BuildRouter.
type Handlers struct {
	Auth          *handlers.AuthHandlers
	Relationships *handlers.RelationshipHandlers
	Patients      *handlers.PatientHandlers
	Medications   *handlers.MedicationHandlers
	Appointments  *handlers.AppointmentHandlers
	Reminders     *handlers.ReminderHandlers
	Documents     *handlers.DocumentHandlers
	Tasks         *handlers.TaskHandlers
	Logbook       *handlers.LogbookHandlers
	Contacts      *handlers.ContactHandlers
	Policies      *handlers.PolicyHandlers
}

// BuildRouter mounts every route under /api. Routes after the public auth
// group require a valid access token and a matching Casbin policy.
func BuildRouter(h Handlers, jwtmw *middleware.AuthMW, cb *middleware.CasbinMW, limiter middleware.TokenTaker, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.ClientContext())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	api := r.Group("/api")

	limited := middleware.RateLimit(limiter)
	pub := api.Group("/auth")
	pub.POST("/register", limited, h.Auth.Register)
	pub.POST("/login", limited, h.Auth.Login)
	pub.POST("/forgot-password", limited, h.Auth.ForgotPassword)
	pub.POST("/reset-password", limited, h.Auth.ResetPassword)
	pub.POST("/refresh", h.Auth.Refresh)

	v := api.Group("/", jwtmw.WithJWT(), cb.Enforce())

	v.GET("/auth/me", h.Auth.Me)
	v.PUT("/auth/me", h.Auth.UpdateMe)
	v.DELETE("/auth/me", h.Auth.DeleteMe)
	v.POST("/auth/logout", h.Auth.Logout)
	v.PUT("/auth/password", h.Auth.ChangePassword)

	rel := v.Group("/relationships")
	rel.POST("/invite", h.Relationships.Invite)
	rel.GET("/caregivers", h.Relationships.Caregivers)
	rel.GET("/caregivers/count", h.Relationships.CountCaregivers)
	rel.DELETE("/caregivers/:caregiverId", h.Relationships.Unlink)
	rel.POST("/:id/accept", h.Relationships.Accept)
	rel.POST("/:id/reject", h.Relationships.Reject)
	rel.GET("/invitations", h.Relationships.Invitations)
	rel.GET("/patients", h.Relationships.Patients)

	patients := v.Group("/patients")
	patients.GET("/:id/profile", h.Patients.GetProfile)
	patients.PUT("/:id/profile", h.Patients.UpdateProfile)

	med := v.Group("/medications")
	med.POST("", h.Medications.Create)
	med.GET("", h.Medications.List)
	med.GET("/:id", h.Medications.Get)
	med.PATCH("/:id/deactivate", h.Medications.Deactivate)
	med.DELETE("/:id", h.Medications.Delete)

	appt := v.Group("/appointments")
	appt.POST("", h.Appointments.Create)
	appt.GET("", h.Appointments.List)
	appt.GET("/:id", h.Appointments.Get)
	appt.PATCH("/:id/complete", h.Appointments.Complete)
	appt.DELETE("/:id", h.Appointments.Delete)

	rem := v.Group("/reminders")
	rem.GET("", h.Reminders.List)
	rem.PATCH("/:id/cycle", h.Reminders.Cycle)
	rem.PATCH("/:id/status", h.Reminders.SetStatus)
	rem.DELETE("/:id", h.Reminders.Delete)

	docs := v.Group("/documents")
	docs.POST("", h.Documents.Upload)
	docs.GET("", h.Documents.List)
	docs.GET("/:id/download", h.Documents.Download)
	docs.DELETE("/:id", h.Documents.Delete)

	tasks := v.Group("/tasks")
	tasks.POST("", h.Tasks.Create)
	tasks.GET("", h.Tasks.List)
	tasks.GET("/:id", h.Tasks.Get)
	tasks.PUT("/:id", h.Tasks.Update)
	tasks.PATCH("/:id/toggle", h.Tasks.Toggle)
	tasks.PATCH("/:id/move", h.Tasks.Move)
	tasks.DELETE("/:id", h.Tasks.Delete)

	logbook := v.Group("/logbook")
	logbook.POST("", h.Logbook.Create)
	logbook.GET("", h.Logbook.List)
	logbook.GET("/mine", h.Logbook.Mine)
	logbook.GET("/:id", h.Logbook.Get)
	logbook.PUT("/:id", h.Logbook.Update)
	logbook.DELETE("/:id", h.Logbook.Delete)

	contacts := v.Group("/emergency-contacts")
	contacts.POST("", h.Contacts.Create)
	contacts.GET("", h.Contacts.List)
	contacts.PUT("/:id", h.Contacts.Update)
	contacts.DELETE("/:id", h.Contacts.Delete)

	adm := v.Group("/admin")
	adm.GET("/policies", h.Policies.List)
	adm.POST("/policies", h.Policies.Add)
	adm.DELETE("/policies", h.Policies.Remove)

	return r
}
