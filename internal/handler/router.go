package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/middleware"
)

// RouterConfig carries every handler mounted under the API prefix. A nil
// handler leaves its routes unregistered.
type RouterConfig struct {
	Sessions middleware.SessionResolver
	Logger   *zap.Logger

	Auth      *AuthHandler
	Learning  *LearningHandler
	Knowledge *KnowledgeHandler
	AI        *AIHandler
	Classroom *ClassroomHandler
	Analytics *AnalyticsHandler
	Reports   *ReportHandler
	Data      *DataHandler
}

// RegisterRoutes mounts the API on group.
func RegisterRoutes(group *gin.RouterGroup, cfg RouterConfig) {
	group.Use(middleware.Session(cfg.Sessions))

	// Public
	if cfg.Auth != nil {
		group.POST("/auth/student/login", cfg.Auth.StudentLogin)
		group.POST("/auth/teacher/login", cfg.Auth.TeacherLogin)
	}
	if cfg.Reports != nil {
		group.GET("/reports/download", cfg.Reports.Download)
	}

	user := group.Group("/", middleware.RequireLogin())
	{
		if cfg.Auth != nil {
			user.POST("/auth/logout", cfg.Auth.Logout)
			user.GET("/auth/me", cfg.Auth.Me)
		}

		if cfg.Learning != nil {
			user.GET("/content/textbooks", cfg.Learning.Textbooks)
			user.GET("/content/textbooks/:id/units", cfg.Learning.Units)
			user.GET("/content/units/:id/lessons", cfg.Learning.Lessons)
			user.GET("/modules/:module/enter", cfg.Learning.EnterModule)
			user.GET("/lessons/:id", cfg.Learning.ViewLesson)
			user.POST("/activities/notes", cfg.Learning.SaveNote)
			user.POST("/activities/answers", cfg.Learning.SubmitAnswer)
		}

		if cfg.Knowledge != nil {
			user.GET("/knowledge/search", cfg.Knowledge.Search)
			user.GET("/knowledge/topics", cfg.Knowledge.Topics)
			user.GET("/knowledge/topics/:name", cfg.Knowledge.Topic)
			user.GET("/knowledge/timeline", cfg.Knowledge.Timeline)
			user.POST("/knowledge/related", cfg.Knowledge.Related)
		}

		if cfg.AI != nil {
			ai := user.Group("/ai", middleware.LLMWarnings())
			ai.POST("/chat", cfg.AI.Chat)
			ai.POST("/explain", cfg.AI.Explain)
			ai.POST("/questions", cfg.AI.GenerateQuestions)
			ai.POST("/essays/grade", cfg.AI.GradeEssay)
			ai.GET("/wrong-questions", cfg.AI.WrongQuestions)
		}

		if cfg.Classroom != nil {
			user.GET("/classroom/active", cfg.Classroom.Active)
			user.POST("/classroom/active/replies", cfg.Classroom.Reply)
		}
	}

	teacher := group.Group("/", middleware.RequireTeacher())
	{
		if cfg.Classroom != nil {
			teacher.POST("/classroom/questions", cfg.Classroom.CreateQuestion)
			teacher.POST("/classroom/questions/:id/close", cfg.Classroom.CloseQuestion)
			teacher.GET("/classroom/questions/:id/replies", cfg.Classroom.Replies)
			teacher.POST("/classroom/questions/:id/summary", middleware.LLMWarnings(), cfg.Classroom.Summary)
		}

		if cfg.Analytics != nil {
			teacher.GET("/analytics/summary", cfg.Analytics.Summary)
			teacher.GET("/analytics/trend", cfg.Analytics.Trend)
			teacher.GET("/analytics/modules", cfg.Analytics.Modules)
			teacher.GET("/analytics/modules/:module", cfg.Analytics.Module)
			teacher.GET("/analytics/leaderboard", cfg.Analytics.Leaderboard)
			teacher.GET("/analytics/students/:id", cfg.Analytics.StudentActivities)
			teacher.GET("/analytics/students/:id/modules/:module", cfg.Analytics.StudentInModule)
			teacher.GET("/analytics/system", cfg.Analytics.System)
		}

		if cfg.Reports != nil {
			teacher.POST("/reports", middleware.LLMWarnings(), cfg.Reports.Generate)
		}

		if cfg.Data != nil {
			admin := teacher.Group("/admin")
			admin.DELETE("/activities", middleware.Audit(cfg.Logger, "delete_all_activities"), cfg.Data.DeleteAllActivities)
			admin.DELETE("/students/:id", middleware.Audit(cfg.Logger, "delete_student"), cfg.Data.DeleteStudent)
			admin.POST("/migrations/field-names", middleware.Audit(cfg.Logger, "fix_field_names"), cfg.Data.FixFieldNames)
			admin.GET("/exports/activities", middleware.Audit(cfg.Logger, "export_activities"), cfg.Data.ExportActivities)
		}
	}
}
