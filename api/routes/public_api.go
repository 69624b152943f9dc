package routes

import (
	"messagely/api/handlers"
	"messagely/api/middleware"
	"messagely/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const ServiceName = "messagely"

// Deps - зависимости, которые получают обработчики
type Deps struct {
	Users    *services.UserService
	Messages services.MessageStore
	Tokens   *services.TokenIssuer
	Notifier services.Notifier
	Hub      *services.WSConnManager
}

// NewRouter собирает gin.Engine со всеми middleware и маршрутами
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	// метрики снаружи репортера: статус читается уже после записи ответа с ошибкой
	router.Use(middleware.PrometheusMiddleware(ServiceName))
	router.Use(middleware.ErrorReporter())
	router.Use(middleware.Authenticate(deps.Tokens))

	router.NoRoute(middleware.NotFoundHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	PublicApi(router, deps)
	return router
}

func PublicApi(router *gin.Engine, deps Deps) *gin.RouterGroup {
	authHandlers := handlers.NewAuthHandlers(deps.Users, deps.Tokens)
	userHandlers := handlers.NewUserHandlers(deps.Users, deps.Messages)
	messageHandlers := handlers.NewMessageHandlers(deps.Messages, deps.Notifier)

	publicEndpoints := router.Group("/api/v1/")
	{
		publicEndpoints.POST("auth/register", authHandlers.Register)
		publicEndpoints.POST("auth/login", authHandlers.Login)
	}

	loggedIn := publicEndpoints.Group("", middleware.EnsureLoggedIn())
	{
		loggedIn.GET("users", userHandlers.UserList)

		loggedIn.GET("messages/:id", messageHandlers.GetMessageHandler)
		loggedIn.POST("messages", messageHandlers.CreateMessageHandler)
		loggedIn.POST("messages/:id/read", messageHandlers.MarkReadHandler)

		if deps.Hub != nil {
			loggedIn.GET("ws", handlers.WSNotificationsHandler(deps.Hub))
		}
	}

	correctUser := publicEndpoints.Group("users/:username", middleware.EnsureCorrectUser("username"))
	{
		correctUser.GET("", userHandlers.UserGet)
		correctUser.GET("to", userHandlers.MessagesTo)
		correctUser.GET("from", userHandlers.MessagesFrom)
	}
	return publicEndpoints
}
